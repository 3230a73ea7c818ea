package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/franz/music-catalog/internal/util"
)

// Tables that hold nothing but a unique label
const (
	tableEras      = "eras"
	tableWorkTypes = "work_type"
	tableTags      = "tags"
)

// InsertEra inserts an era label and returns it with its ID
func (s *Store) InsertEra(ctx context.Context, label string) (*Era, error) {
	return s.insertLabel(ctx, tableEras, label)
}

// InsertWorkType inserts a work type label and returns it with its ID
func (s *Store) InsertWorkType(ctx context.Context, label string) (*WorkType, error) {
	return s.insertLabel(ctx, tableWorkTypes, label)
}

// InsertTag inserts a tag label and returns it with its ID
func (s *Store) InsertTag(ctx context.Context, label string) (*Tag, error) {
	return s.insertLabel(ctx, tableTags, label)
}

// GetEraByLabel retrieves an era, or nil if no such label exists
func (s *Store) GetEraByLabel(ctx context.Context, label string) (*Era, error) {
	return s.getLabel(ctx, tableEras, label)
}

// GetWorkTypeByLabel retrieves a work type, or nil if no such label exists
func (s *Store) GetWorkTypeByLabel(ctx context.Context, label string) (*WorkType, error) {
	return s.getLabel(ctx, tableWorkTypes, label)
}

// GetTagByLabel retrieves a tag, or nil if no such label exists
func (s *Store) GetTagByLabel(ctx context.Context, label string) (*Tag, error) {
	return s.getLabel(ctx, tableTags, label)
}

// DeleteEra removes an era and every work classified under it
func (s *Store) DeleteEra(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, tableEras, id)
}

// DeleteWorkType removes a work type and every work of that type
func (s *Store) DeleteWorkType(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, tableWorkTypes, id)
}

// DeleteTag removes a tag and its relations; tagged works remain
func (s *Store) DeleteTag(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, tableTags, id)
}

func (s *Store) insertLabel(ctx context.Context, table, label string) (*Label, error) {
	label = util.NormalizeText(strings.TrimSpace(label))
	if label == "" {
		return nil, fmt.Errorf("failed to insert into %s: %w", table,
			&ConstraintError{Kind: ConstraintNotNull, Err: fmt.Errorf("label is empty")})
	}

	id, err := s.insertTop(ctx, "insert into "+table,
		fmt.Sprintf(`INSERT INTO %s (label) VALUES (?)`, table), label)
	if err != nil {
		return nil, err
	}

	return &Label{ID: id, Label: label}, nil
}

func (s *Store) getLabel(ctx context.Context, table, label string) (*Label, error) {
	l := &Label{}
	found, err := getOne(s.db.QueryRowContext(ctx,
		s.dialect.Rebind(fmt.Sprintf(`SELECT id, label FROM %s WHERE label = ?`, table)),
		util.NormalizeText(label)),
		&l.ID, &l.Label)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s label: %w", table, err)
	}
	if !found {
		return nil, nil
	}
	return l, nil
}
