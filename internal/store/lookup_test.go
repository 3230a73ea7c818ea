package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/franz/music-catalog/internal/util"
)

func tagsOf(rows []*MetadataRow) []string {
	var tags []string
	for _, r := range rows {
		if r.Tag == nil {
			tags = append(tags, "<nil>")
			continue
		}
		tags = append(tags, *r.Tag)
	}
	sort.Strings(tags)
	return tags
}

func TestGetJoinedMetadataOneRowPerTag(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCatalog(t, store)

	rows, err := store.GetJoinedMetadata(ctx, "D1", "f1.xml", LookupOptions{})
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows (one per tag), got %d", len(rows))
	}

	for _, r := range rows {
		if r.ComposerName != "Bach" {
			t.Errorf("expected composer Bach, got %q", r.ComposerName)
		}
		if r.Title != "Invention 1" {
			t.Errorf("expected title 'Invention 1', got %q", r.Title)
		}
		if r.Collection != "C" || r.DatasetName != "D1" || r.Filename != "f1.xml" {
			t.Errorf("unexpected source columns: %s/%s/%s", r.Collection, r.DatasetName, r.Filename)
		}
		if r.Born == nil || *r.Born != 1685 || r.Died == nil || *r.Died != 1750 {
			t.Errorf("unexpected life dates: %v-%v", r.Born, r.Died)
		}
		if r.Era == nil || *r.Era != "Baroque" {
			t.Errorf("expected era Baroque, got %v", r.Era)
		}
		if r.WorkType == nil || *r.WorkType != "Invention" {
			t.Errorf("expected work type Invention, got %v", r.WorkType)
		}
		if r.Catalog == nil || *r.Catalog != "BWV" || r.CatalogNumber == nil || *r.CatalogNumber != "772" {
			t.Errorf("unexpected catalog: %v %v", r.Catalog, r.CatalogNumber)
		}
		if r.PCN != nil {
			t.Errorf("expected nil PCN, got %q", *r.PCN)
		}
	}

	if got := tagsOf(rows); strings.Join(got, ",") != "baroque,keyboard" {
		t.Errorf("expected tags baroque,keyboard, got %v", got)
	}
}

func TestGetJoinedMetadataSetsFilterIndependently(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCatalog(t, store)

	// f1.xml exists in both D1 and D2: both works match
	rows, err := store.GetJoinedMetadata(ctx, "D1,D2", "f1.xml", LookupOptions{})
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got := tagsOf(rows); strings.Join(got, ",") != "baroque,galant,keyboard" {
		t.Errorf("expected rows for both datasets, got tags %v", got)
	}

	// Cross combination that was never ingested: D1/f3.xml
	rows, err = store.GetJoinedMetadata(ctx, "D1", "f3.xml", LookupOptions{})
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows for a combination never ingested, got %d", len(rows))
	}

	// Duplicates in the batch do not multiply rows
	rows, err = store.GetJoinedMetadata(ctx, "D1,D1,D1", "f1.xml,f1.xml", LookupOptions{})
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 rows despite duplicate inputs, got %d", len(rows))
	}
}

func TestGetJoinedMetadataOptionalEraAndWorkType(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := seedCatalog(t, store)

	// Tag the minuet so it becomes visible; it has no era or work type
	_, err := store.TagWork(ctx, f.minuet.ID, f.tagGalant.ID)
	if err != nil {
		t.Fatalf("failed to tag work: %v", err)
	}

	rows, err := store.GetJoinedMetadata(ctx, "D2", "f3.xml", LookupOptions{})
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Era != nil || rows[0].WorkType != nil {
		t.Errorf("expected nil era and work type, got %v / %v", rows[0].Era, rows[0].WorkType)
	}
	if rows[0].Catalog != nil {
		t.Errorf("expected nil catalog, got %q", *rows[0].Catalog)
	}
}

func TestGetJoinedMetadataUntaggedWorks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCatalog(t, store)

	rows, err := store.GetJoinedMetadata(ctx, "D2", "f3.xml", LookupOptions{})
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected an untagged work to be invisible by default, got %d rows", len(rows))
	}

	rows, err = store.GetJoinedMetadata(ctx, "D2", "f3.xml", LookupOptions{IncludeUntagged: true})
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row with IncludeUntagged, got %d", len(rows))
	}
	if rows[0].Tag != nil {
		t.Errorf("expected nil tag, got %q", *rows[0].Tag)
	}
	if rows[0].Title != "Minuet" {
		t.Errorf("expected Minuet, got %q", rows[0].Title)
	}

	// Tagged works are unaffected by the option
	rows, err = store.GetJoinedMetadata(ctx, "D1", "f1.xml", LookupOptions{IncludeUntagged: true})
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 rows for the tagged work, got %d", len(rows))
	}
}

func TestGetJoinedMetadataEmptyResultIsNotAnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCatalog(t, store)

	testCases := []struct {
		name      string
		datasets  string
		filenames string
	}{
		{"unknown dataset", "D9", "f1.xml"},
		{"unknown filename", "D1", "missing.xml"},
		{"file without a work", "D1", "f2.xml"},
		{"empty dataset set", "", "f1.xml"},
		{"empty filename set", "D1", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rows, err := store.GetJoinedMetadata(ctx, tc.datasets, tc.filenames, LookupOptions{})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if rows == nil || len(rows) != 0 {
				t.Errorf("expected an empty, non-nil result, got %v", rows)
			}
		})
	}
}

func TestGetJoinedMetadataRejectsBadBatches(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCatalog(t, store)

	tooLong := strings.Repeat("a", 501)

	testCases := []struct {
		name      string
		datasets  string
		filenames string
	}{
		{"dataset batch too long", tooLong, "f1.xml"},
		{"filename batch too long", "D1", tooLong},
		{"empty element", "D1,,D2", "f1.xml"},
		{"trailing delimiter", "D1", "f1.xml,"},
		{"space after delimiter", "D1, D2", "f1.xml"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rows, err := store.GetJoinedMetadata(ctx, tc.datasets, tc.filenames, LookupOptions{})
			if !errors.Is(err, util.ErrInvalidBatchInput) {
				t.Errorf("expected ErrInvalidBatchInput, got %v", err)
			}
			if rows != nil {
				t.Errorf("expected no rows, got %d", len(rows))
			}
		})
	}
}

func TestLookupMetadataMatchesDecomposedInput(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := seedCatalog(t, store)

	file := &DatasetContents{Collection: "C", DatasetName: "D3", Filename: "Dvo\u0159\u00e1k.xml"}
	if err := store.InsertDatasetContents(ctx, file); err != nil {
		t.Fatalf("failed to insert dataset contents: %v", err)
	}
	w := &Work{Title: "Humoresque", ComposerID: f.mozart.ID, DatasetContentsID: file.ID}
	if err := store.InsertWorkWithTags(ctx, w, []int64{f.tagGalant.ID}); err != nil {
		t.Fatalf("failed to insert work: %v", err)
	}

	rows, err := store.LookupMetadata(ctx, []string{"D3"}, []string{"Dvor\u030ca\u0301k.xml"}, LookupOptions{})
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected decomposed filename to match, got %d rows", len(rows))
	}
}

func TestLookupMetadataConcurrentCallers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCatalog(t, store)

	queries := []struct {
		datasets, filenames string
		expected            int
	}{
		{"D1", "f1.xml", 2},
		{"D2", "f1.xml", 1},
		{"D2", "f3.xml", 0},
		{"D1,D2", "f1.xml", 3},
	}

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 10; i++ {
		for _, q := range queries {
			wg.Add(1)
			go func(datasets, filenames string, expected int) {
				defer wg.Done()
				rows, err := store.GetJoinedMetadata(ctx, datasets, filenames, LookupOptions{})
				if err != nil {
					errs <- err
					return
				}
				if len(rows) != expected {
					errs <- errors.New(datasets + "/" + filenames + ": unexpected row count")
				}
			}(q.datasets, q.filenames, q.expected)
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
