package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/franz/music-catalog/internal/util"
)

// InsertDatasetContents registers a source file and sets its ID.
// (dataset_name, filename) is unique across the catalog.
func (s *Store) InsertDatasetContents(ctx context.Context, d *DatasetContents) error {
	collection := util.NormalizeText(strings.TrimSpace(d.Collection))
	dataset := util.NormalizeText(d.DatasetName)
	filename := util.NormalizeText(d.Filename)

	if dataset == "" || filename == "" {
		return fmt.Errorf("failed to insert dataset contents: %w",
			&ConstraintError{Kind: ConstraintNotNull, Err: fmt.Errorf("dataset name and filename are required")})
	}

	id, err := s.insertTop(ctx, "insert dataset contents",
		`INSERT INTO dataset_contents (collection, dataset_name, filename) VALUES (?, ?, ?)`,
		collection, dataset, filename)
	if err != nil {
		return err
	}

	d.ID = id
	d.Collection = collection
	d.DatasetName = dataset
	d.Filename = filename
	return nil
}

// GetDatasetContents retrieves a source file by dataset and filename
func (s *Store) GetDatasetContents(ctx context.Context, datasetName, filename string) (*DatasetContents, error) {
	d := &DatasetContents{}
	found, err := getOne(s.db.QueryRowContext(ctx, s.dialect.Rebind(`
		SELECT id, collection, dataset_name, filename
		FROM dataset_contents
		WHERE dataset_name = ? AND filename = ?
	`), util.NormalizeText(datasetName), util.NormalizeText(filename)),
		&d.ID, &d.Collection, &d.DatasetName, &d.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset contents: %w", err)
	}
	if !found {
		return nil, nil
	}
	return d, nil
}

// DeleteDatasetContents removes a source file together with its works and
// their tag relations
func (s *Store) DeleteDatasetContents(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "dataset_contents", id)
}
