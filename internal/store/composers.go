package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/franz/music-catalog/internal/util"
)

// InsertComposer inserts a composer and sets its ID
func (s *Store) InsertComposer(ctx context.Context, c *Composer) error {
	name := util.NormalizeText(strings.TrimSpace(c.Name))
	if name == "" {
		return fmt.Errorf("failed to insert composer: %w", &ConstraintError{Kind: ConstraintNotNull, Err: fmt.Errorf("composer name is empty")})
	}

	id, err := s.insertTop(ctx, "insert composer",
		`INSERT INTO composers (name, born, died) VALUES (?, ?, ?)`,
		name, nullInt(c.Born), nullInt(c.Died))
	if err != nil {
		return err
	}

	c.ID = id
	c.Name = name
	return nil
}

// GetComposerByName retrieves a composer by its unique name
func (s *Store) GetComposerByName(ctx context.Context, name string) (*Composer, error) {
	c := &Composer{}
	var born, died sql.NullInt64

	found, err := getOne(s.db.QueryRowContext(ctx,
		s.dialect.Rebind(`SELECT id, name, born, died FROM composers WHERE name = ?`),
		util.NormalizeText(name)),
		&c.ID, &c.Name, &born, &died)
	if err != nil {
		return nil, fmt.Errorf("failed to get composer: %w", err)
	}
	if !found {
		return nil, nil
	}

	c.Born = intPtr(born)
	c.Died = intPtr(died)
	return c, nil
}

// DeleteComposer removes a composer together with its works and their tag relations
func (s *Store) DeleteComposer(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "composers", id)
}

// ListComposersMissingDates returns composers lacking a birth or death
// year, ordered by name
func (s *Store) ListComposersMissingDates(ctx context.Context) ([]*Composer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, born, died FROM composers
		WHERE born IS NULL OR died IS NULL
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query composers: %w", err)
	}
	defer rows.Close()

	var composers []*Composer
	for rows.Next() {
		c := &Composer{}
		var born, died sql.NullInt64
		if err := rows.Scan(&c.ID, &c.Name, &born, &died); err != nil {
			return nil, fmt.Errorf("failed to scan composer: %w", err)
		}
		c.Born = intPtr(born)
		c.Died = intPtr(died)
		composers = append(composers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read composers: %w", err)
	}

	return composers, nil
}

// UpdateComposerDates fills in a composer's life years. A nil year leaves
// the stored value unchanged.
func (s *Store) UpdateComposerDates(ctx context.Context, id int64, born, died *int) error {
	query := s.dialect.Rebind(`
		UPDATE composers
		SET born = COALESCE(?, born), died = COALESCE(?, died)
		WHERE id = ?
	`)

	affected, err := util.RetryWithBackoff(s.retry, func() (int64, error) {
		result, err := s.db.ExecContext(ctx, query, nullInt(born), nullInt(died), id)
		if err != nil {
			return 0, classifyError(err)
		}
		return result.RowsAffected()
	}, "update composer")
	if err != nil {
		return fmt.Errorf("failed to update composer: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("composers id %d: %w", id, util.ErrNotFound)
	}

	return nil
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	i := v.Int64
	return &i
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

// Drivers differ in how they bind typed nil pointers, so optional values
// are passed as either nil or a plain value
func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
