package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/franz/music-catalog/internal/util"
)

// InsertWork inserts a work and sets its ID.
// The composer and dataset contents must already exist; era and work type
// are optional.
func (s *Store) InsertWork(ctx context.Context, w *Work) error {
	if err := normalizeWork(w); err != nil {
		return fmt.Errorf("failed to insert work: %w", err)
	}

	id, err := s.insertTop(ctx, "insert work", insertWorkSQL, workArgs(w)...)
	if err != nil {
		return err
	}

	w.ID = id
	return nil
}

// InsertWorkWithTags inserts a work and attaches the given tags in one
// transaction. If any statement fails nothing is committed.
func (s *Store) InsertWorkWithTags(ctx context.Context, w *Work, tagIDs []int64) error {
	if err := normalizeWork(w); err != nil {
		return fmt.Errorf("failed to insert work: %w", err)
	}

	var workID int64
	err := s.Transaction(ctx, func(tx *sql.Tx) error {
		id, err := s.insert(ctx, tx, insertWorkSQL, workArgs(w)...)
		if err != nil {
			return fmt.Errorf("failed to insert work: %w", classifyError(err))
		}

		for _, tagID := range tagIDs {
			if _, err := s.insert(ctx, tx, insertTagRelationSQL, id, tagID); err != nil {
				return fmt.Errorf("failed to tag work with tag %d: %w", tagID, classifyError(err))
			}
		}

		workID = id
		return nil
	})
	if err != nil {
		return err
	}

	w.ID = workID
	return nil
}

// GetWork retrieves a work by ID
func (s *Store) GetWork(ctx context.Context, id int64) (*Work, error) {
	w := &Work{}
	var catalog, catalogNumber, pcn sql.NullString
	var eraID, workTypeID sql.NullInt64

	found, err := getOne(s.db.QueryRowContext(ctx, s.dialect.Rebind(`
		SELECT id, title, catalog, catalog_number, pcn,
		       composer_id, era_id, work_type_id, dataset_contents_id
		FROM works WHERE id = ?
	`), id),
		&w.ID, &w.Title, &catalog, &catalogNumber, &pcn,
		&w.ComposerID, &eraID, &workTypeID, &w.DatasetContentsID)
	if err != nil {
		return nil, fmt.Errorf("failed to get work: %w", err)
	}
	if !found {
		return nil, nil
	}

	w.Catalog = stringPtr(catalog)
	w.CatalogNumber = stringPtr(catalogNumber)
	w.PCN = stringPtr(pcn)
	w.EraID = int64Ptr(eraID)
	w.WorkTypeID = int64Ptr(workTypeID)
	return w, nil
}

// DeleteWork removes a work and its tag relations
func (s *Store) DeleteWork(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "works", id)
}

const insertWorkSQL = `INSERT INTO works (
	title, catalog, catalog_number, pcn,
	composer_id, era_id, work_type_id, dataset_contents_id
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func workArgs(w *Work) []any {
	return []any{
		w.Title, nullString(w.Catalog), nullString(w.CatalogNumber), nullString(w.PCN),
		w.ComposerID, nullInt64(w.EraID), nullInt64(w.WorkTypeID), w.DatasetContentsID,
	}
}

func normalizeWork(w *Work) error {
	w.Title = util.NormalizeText(strings.TrimSpace(w.Title))
	if w.Title == "" {
		return &ConstraintError{Kind: ConstraintNotNull, Err: fmt.Errorf("work title is empty")}
	}
	w.Catalog = util.NormalizeOptional(w.Catalog)
	w.CatalogNumber = util.NormalizeOptional(w.CatalogNumber)
	w.PCN = util.NormalizeOptional(w.PCN)
	return nil
}
