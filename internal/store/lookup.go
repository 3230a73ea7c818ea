package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/franz/music-catalog/internal/batch"
	"github.com/franz/music-catalog/internal/util"
)

// LookupOptions controls the batch metadata lookup
type LookupOptions struct {
	// IncludeUntagged also returns works that have no tags, once each with a
	// nil Tag. By default a work needs at least one tag to appear.
	IncludeUntagged bool
}

// MetadataRow is one (work, tag) pair of the joined catalog metadata
type MetadataRow struct {
	Collection    string  `json:"collection" yaml:"collection"`
	DatasetName   string  `json:"dataset_name" yaml:"dataset_name"`
	Filename      string  `json:"filename" yaml:"filename"`
	Title         string  `json:"title" yaml:"title"`
	Catalog       *string `json:"catalog" yaml:"catalog"`
	CatalogNumber *string `json:"catalog_number" yaml:"catalog_number"`
	PCN           *string `json:"pcn" yaml:"pcn"`
	ComposerName  string  `json:"composer_name" yaml:"composer_name"`
	Born          *int    `json:"born" yaml:"born"`
	Died          *int    `json:"died" yaml:"died"`
	WorkType      *string `json:"work_type" yaml:"work_type"`
	Era           *string `json:"era" yaml:"era"`
	Tag           *string `json:"tag" yaml:"tag"`
}

// GetJoinedMetadata looks up catalog metadata for works whose source file
// belongs to one of the datasets AND has one of the filenames. Both
// arguments are comma-delimited batches (see package batch); a malformed
// batch is rejected with util.ErrInvalidBatchInput before any query runs.
func (s *Store) GetJoinedMetadata(ctx context.Context, datasetNames, filenames string, opts LookupOptions) ([]*MetadataRow, error) {
	datasets, err := batch.Parse(datasetNames)
	if err != nil {
		return nil, fmt.Errorf("dataset names: %w", err)
	}
	files, err := batch.Parse(filenames)
	if err != nil {
		return nil, fmt.Errorf("filenames: %w", err)
	}

	return s.LookupMetadata(ctx, datasets, files, opts)
}

// LookupMetadata is GetJoinedMetadata for already-split value sets.
//
// The two sets filter independently: a row matches when its dataset name is
// in datasets and its filename is in filenames, not when the pair appears at
// the same position. The result has one row per (work, tag) pair and an
// empty set on either side matches nothing.
func (s *Store) LookupMetadata(ctx context.Context, datasets, filenames []string, opts LookupOptions) ([]*MetadataRow, error) {
	datasets = normalizeSet(datasets)
	filenames = normalizeSet(filenames)

	invocation := uuid.NewString()
	if len(datasets) == 0 || len(filenames) == 0 {
		util.DebugLog("lookup %s: empty set (datasets=%d, filenames=%d), skipping query",
			invocation, len(datasets), len(filenames))
		return []*MetadataRow{}, nil
	}

	query, args := s.buildLookupQuery(datasets, filenames, opts)
	util.DebugLog("lookup %s: datasets=%d filenames=%d include_untagged=%v",
		invocation, len(datasets), len(filenames), opts.IncludeUntagged)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query joined metadata: %w", err)
	}
	defer rows.Close()

	results := []*MetadataRow{}
	for rows.Next() {
		row, err := scanMetadataRow(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read joined metadata: %w", err)
	}

	util.DebugLog("lookup %s: %d rows", invocation, len(results))
	return results, nil
}

// buildLookupQuery renders the lookup join. Composer and dataset contents
// are required, era and work type optional. Tags are inner-joined unless
// untagged works were asked for.
func (s *Store) buildLookupQuery(datasets, filenames []string, opts LookupOptions) (string, []any) {
	tagJoin := "INNER JOIN"
	if opts.IncludeUntagged {
		tagJoin = "LEFT JOIN"
	}

	datasetClause, datasetArgs := s.dialect.memberOf("dc.dataset_name", datasets)
	filenameClause, filenameArgs := s.dialect.memberOf("dc.filename", filenames)

	var b strings.Builder
	b.WriteString(`SELECT
	dc.collection, dc.dataset_name, dc.filename,
	w.title, w.catalog, w.catalog_number, w.pcn,
	c.name, c.born, c.died,
	wt.label, e.label, t.label
FROM works w
INNER JOIN composers c ON c.id = w.composer_id
INNER JOIN dataset_contents dc ON dc.id = w.dataset_contents_id
LEFT JOIN eras e ON e.id = w.era_id
LEFT JOIN work_type wt ON wt.id = w.work_type_id
`)
	fmt.Fprintf(&b, "%s tag_relations tr ON tr.work_id = w.id\n", tagJoin)
	fmt.Fprintf(&b, "%s tags t ON t.id = tr.tag_id\n", tagJoin)
	fmt.Fprintf(&b, "WHERE %s\n  AND %s\n", datasetClause, filenameClause)
	b.WriteString("ORDER BY dc.dataset_name, dc.filename, w.title, t.label")
	if s.dialect == DialectPostgres {
		// SQLite and MySQL already sort NULL first
		b.WriteString(" NULLS FIRST")
	}

	args := make([]any, 0, len(datasetArgs)+len(filenameArgs))
	args = append(args, datasetArgs...)
	args = append(args, filenameArgs...)

	return s.dialect.Rebind(b.String()), args
}

func scanMetadataRow(rows *sql.Rows) (*MetadataRow, error) {
	r := &MetadataRow{}
	var catalog, catalogNumber, pcn, workType, era, tag sql.NullString
	var born, died sql.NullInt64

	if err := rows.Scan(
		&r.Collection, &r.DatasetName, &r.Filename,
		&r.Title, &catalog, &catalogNumber, &pcn,
		&r.ComposerName, &born, &died,
		&workType, &era, &tag,
	); err != nil {
		return nil, fmt.Errorf("failed to scan metadata row: %w", err)
	}

	r.Catalog = stringPtr(catalog)
	r.CatalogNumber = stringPtr(catalogNumber)
	r.PCN = stringPtr(pcn)
	r.Born = intPtr(born)
	r.Died = intPtr(died)
	r.WorkType = stringPtr(workType)
	r.Era = stringPtr(era)
	r.Tag = stringPtr(tag)
	return r, nil
}

// normalizeSet NFC-normalizes and deduplicates values, keeping first occurrence
func normalizeSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = util.NormalizeText(v)
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
