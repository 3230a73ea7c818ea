package store

import (
	"context"
	"fmt"
)

const insertTagRelationSQL = `INSERT INTO tag_relations (work_id, tag_id) VALUES (?, ?)`

// TagWork attaches a tag to a work. Attaching the same tag twice is a
// unique constraint violation.
func (s *Store) TagWork(ctx context.Context, workID, tagID int64) (*TagRelation, error) {
	id, err := s.insertTop(ctx, "tag work", insertTagRelationSQL, workID, tagID)
	if err != nil {
		return nil, err
	}
	return &TagRelation{ID: id, WorkID: workID, TagID: tagID}, nil
}

// GetWorkTags returns the tags attached to a work, ordered by label
func (s *Store) GetWorkTags(ctx context.Context, workID int64) ([]*Tag, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(`
		SELECT t.id, t.label
		FROM tag_relations tr
		INNER JOIN tags t ON t.id = tr.tag_id
		WHERE tr.work_id = ?
		ORDER BY t.label
	`), workID)
	if err != nil {
		return nil, fmt.Errorf("failed to query work tags: %w", err)
	}
	defer rows.Close()

	var tags []*Tag
	for rows.Next() {
		t := &Tag{}
		if err := rows.Scan(&t.ID, &t.Label); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}

	return tags, rows.Err()
}

// CountRows returns the number of rows in each catalog table
func (s *Store) CountRows(ctx context.Context) (*TableCounts, error) {
	counts := &TableCounts{}
	targets := []struct {
		table string
		dest  *int64
	}{
		{"composers", &counts.Composers},
		{tableEras, &counts.Eras},
		{tableWorkTypes, &counts.WorkTypes},
		{"dataset_contents", &counts.DatasetContents},
		{"works", &counts.Works},
		{tableTags, &counts.Tags},
		{"tag_relations", &counts.TagRelations},
	}

	for _, target := range targets {
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", target.table)
		if err := s.db.QueryRowContext(ctx, query).Scan(target.dest); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", target.table, err)
		}
	}

	return counts, nil
}
