package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/franz/music-catalog/internal/util"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "catalog.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func intValue(i int) *int          { return &i }
func stringValue(s string) *string { return &s }

func TestStoreOpenAndMigrate(t *testing.T) {
	store := newTestStore(t)

	version, err := store.getSchemaVersion()
	if err != nil {
		t.Fatalf("failed to get schema version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("expected schema version %d, got %d", currentSchemaVersion, version)
	}

	tables := []string{"composers", "eras", "work_type", "dataset_contents", "works", "tags", "tag_relations", "schema_version"}
	for _, table := range tables {
		var count int
		err := store.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil {
			t.Fatalf("failed to query table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("expected table %s to exist", table)
		}
	}

	var fkEnabled int
	if err := store.db.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		t.Fatalf("failed to read foreign_keys pragma: %v", err)
	}
	if fkEnabled != 1 {
		t.Error("expected foreign keys to be enabled")
	}
}

func TestStoreReopenKeepsSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := first.InsertComposer(context.Background(), &Composer{Name: "Bach"}); err != nil {
		t.Fatalf("failed to insert composer: %v", err)
	}
	first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer second.Close()

	var versions int
	if err := second.db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&versions); err != nil {
		t.Fatalf("failed to count schema versions: %v", err)
	}
	if versions != 1 {
		t.Errorf("expected migration to be applied once, got %d rows", versions)
	}

	c, err := second.GetComposerByName(context.Background(), "Bach")
	if err != nil || c == nil {
		t.Fatalf("expected composer to survive reopen, got %v, %v", c, err)
	}
}

func TestOpenWithOptionsRejectsUnknownDriver(t *testing.T) {
	_, err := OpenWithOptions("x.db", &OpenOptions{Driver: "oracle"})
	if !errors.Is(err, util.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}

	_, err = OpenWithOptions("", &OpenOptions{Driver: "mysql"})
	if !errors.Is(err, util.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for missing dsn, got %v", err)
	}
}

func TestComposerInsertAndRetrieve(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	c := &Composer{Name: "Johann Sebastian Bach", Born: intValue(1685), Died: intValue(1750)}
	if err := store.InsertComposer(ctx, c); err != nil {
		t.Fatalf("failed to insert composer: %v", err)
	}
	if c.ID == 0 {
		t.Error("expected composer ID to be set after insert")
	}

	retrieved, err := store.GetComposerByName(ctx, "Johann Sebastian Bach")
	if err != nil {
		t.Fatalf("failed to retrieve composer: %v", err)
	}
	if retrieved == nil {
		t.Fatal("expected to retrieve composer, got nil")
	}
	if retrieved.ID != c.ID {
		t.Errorf("expected ID %d, got %d", c.ID, retrieved.ID)
	}
	if retrieved.Born == nil || *retrieved.Born != 1685 {
		t.Errorf("expected born 1685, got %v", retrieved.Born)
	}
	if retrieved.Died == nil || *retrieved.Died != 1750 {
		t.Errorf("expected died 1750, got %v", retrieved.Died)
	}

	// Living composer: no death year
	living := &Composer{Name: "Arvo Pärt", Born: intValue(1935)}
	if err := store.InsertComposer(ctx, living); err != nil {
		t.Fatalf("failed to insert composer: %v", err)
	}
	retrieved, err = store.GetComposerByName(ctx, "Arvo Pärt")
	if err != nil || retrieved == nil {
		t.Fatalf("failed to retrieve composer: %v", err)
	}
	if retrieved.Died != nil {
		t.Errorf("expected nil death year, got %d", *retrieved.Died)
	}

	missing, err := store.GetComposerByName(ctx, "Nobody")
	if err != nil {
		t.Fatalf("lookup of missing composer failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing composer, got %+v", missing)
	}
}

func TestComposerDates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	bach := &Composer{Name: "Bach", Born: intValue(1685), Died: intValue(1750)}
	mozart := &Composer{Name: "Mozart"}
	part := &Composer{Name: "Arvo Pärt", Born: intValue(1935)}
	for _, c := range []*Composer{bach, mozart, part} {
		if err := store.InsertComposer(ctx, c); err != nil {
			t.Fatalf("failed to insert composer: %v", err)
		}
	}

	missing, err := store.ListComposersMissingDates(ctx)
	if err != nil {
		t.Fatalf("failed to list composers: %v", err)
	}
	if len(missing) != 2 || missing[0].Name != "Arvo Pärt" || missing[1].Name != "Mozart" {
		t.Fatalf("unexpected composers missing dates: %+v", missing)
	}

	if err := store.UpdateComposerDates(ctx, mozart.ID, intValue(1756), intValue(1791)); err != nil {
		t.Fatalf("failed to update composer: %v", err)
	}
	// Nil keeps the stored year
	if err := store.UpdateComposerDates(ctx, part.ID, nil, nil); err != nil {
		t.Fatalf("failed to update composer: %v", err)
	}

	got, err := store.GetComposerByName(ctx, "Mozart")
	if err != nil || got == nil {
		t.Fatalf("failed to retrieve composer: %v", err)
	}
	if got.Born == nil || *got.Born != 1756 || got.Died == nil || *got.Died != 1791 {
		t.Errorf("expected 1756-1791, got %v-%v", got.Born, got.Died)
	}

	got, err = store.GetComposerByName(ctx, "Arvo Pärt")
	if err != nil || got == nil {
		t.Fatalf("failed to retrieve composer: %v", err)
	}
	if got.Born == nil || *got.Born != 1935 || got.Died != nil {
		t.Errorf("expected born 1935 and no death year, got %v-%v", got.Born, got.Died)
	}

	if err := store.UpdateComposerDates(ctx, 9999, intValue(1), nil); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLabelInsertAndRetrieve(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	era, err := store.InsertEra(ctx, "Baroque")
	if err != nil {
		t.Fatalf("failed to insert era: %v", err)
	}
	workType, err := store.InsertWorkType(ctx, "Invention")
	if err != nil {
		t.Fatalf("failed to insert work type: %v", err)
	}
	tag, err := store.InsertTag(ctx, "keyboard")
	if err != nil {
		t.Fatalf("failed to insert tag: %v", err)
	}

	if got, _ := store.GetEraByLabel(ctx, "Baroque"); got == nil || got.ID != era.ID {
		t.Errorf("expected era %d, got %+v", era.ID, got)
	}
	if got, _ := store.GetWorkTypeByLabel(ctx, "Invention"); got == nil || got.ID != workType.ID {
		t.Errorf("expected work type %d, got %+v", workType.ID, got)
	}
	if got, _ := store.GetTagByLabel(ctx, "keyboard"); got == nil || got.ID != tag.ID {
		t.Errorf("expected tag %d, got %+v", tag.ID, got)
	}
	if got, _ := store.GetTagByLabel(ctx, "vocal"); got != nil {
		t.Errorf("expected nil for missing tag, got %+v", got)
	}

	if _, err := store.InsertTag(ctx, "   "); !errors.Is(err, util.ErrConstraint) {
		t.Errorf("expected blank label to be rejected, got %v", err)
	}
}

func TestUniqueConstraints(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := seedCatalog(t, store)

	testCases := []struct {
		name string
		fn   func() error
	}{
		{"duplicate composer name", func() error {
			return store.InsertComposer(ctx, &Composer{Name: "Bach"})
		}},
		{"duplicate era label", func() error {
			_, err := store.InsertEra(ctx, "Baroque")
			return err
		}},
		{"duplicate work type label", func() error {
			_, err := store.InsertWorkType(ctx, "Invention")
			return err
		}},
		{"duplicate tag label", func() error {
			_, err := store.InsertTag(ctx, "baroque")
			return err
		}},
		{"duplicate dataset and filename", func() error {
			return store.InsertDatasetContents(ctx, &DatasetContents{Collection: "other", DatasetName: "D1", Filename: "f1.xml"})
		}},
		{"duplicate title, composer and source file", func() error {
			return store.InsertWork(ctx, &Work{Title: "Invention 1", ComposerID: f.bach.ID, DatasetContentsID: f.file1.ID})
		}},
		{"duplicate work and tag", func() error {
			_, err := store.TagWork(ctx, f.invention.ID, f.tagBaroque.ID)
			return err
		}},
	}

	before, err := store.CountRows(ctx)
	if err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.fn()
			if err == nil {
				t.Fatal("expected constraint violation, got nil")
			}
			if !errors.Is(err, util.ErrConstraint) {
				t.Errorf("expected ErrConstraint, got %v", err)
			}
			if !IsConstraintKind(err, ConstraintUnique) {
				t.Errorf("expected unique violation, got %v", err)
			}
		})
	}

	after, err := store.CountRows(ctx)
	if err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	if *after != *before {
		t.Errorf("failed inserts changed row counts: before %+v, after %+v", before, after)
	}
}

func TestWorkRequiresExistingReferences(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := seedCatalog(t, store)

	err := store.InsertWork(ctx, &Work{Title: "Orphan", ComposerID: 9999, DatasetContentsID: f.file1.ID})
	if !IsConstraintKind(err, ConstraintForeignKey) {
		t.Errorf("expected foreign key violation for missing composer, got %v", err)
	}

	err = store.InsertWork(ctx, &Work{Title: "Orphan", ComposerID: f.bach.ID, DatasetContentsID: 9999})
	if !IsConstraintKind(err, ConstraintForeignKey) {
		t.Errorf("expected foreign key violation for missing source file, got %v", err)
	}

	missingEra := int64(9999)
	err = store.InsertWork(ctx, &Work{Title: "Orphan", ComposerID: f.bach.ID, DatasetContentsID: f.file1.ID, EraID: &missingEra})
	if !IsConstraintKind(err, ConstraintForeignKey) {
		t.Errorf("expected foreign key violation for missing era, got %v", err)
	}

	_, err = store.TagWork(ctx, 9999, f.tagBaroque.ID)
	if !IsConstraintKind(err, ConstraintForeignKey) {
		t.Errorf("expected foreign key violation for missing work, got %v", err)
	}
}

func TestWorkInsertAndRetrieve(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := seedCatalog(t, store)

	w, err := store.GetWork(ctx, f.invention.ID)
	if err != nil {
		t.Fatalf("failed to get work: %v", err)
	}
	if w == nil {
		t.Fatal("expected work, got nil")
	}
	if w.Title != "Invention 1" {
		t.Errorf("expected title 'Invention 1', got %q", w.Title)
	}
	if w.Catalog == nil || *w.Catalog != "BWV" {
		t.Errorf("expected catalog BWV, got %v", w.Catalog)
	}
	if w.CatalogNumber == nil || *w.CatalogNumber != "772" {
		t.Errorf("expected catalog number 772, got %v", w.CatalogNumber)
	}
	if w.PCN != nil {
		t.Errorf("expected nil PCN, got %q", *w.PCN)
	}
	if w.EraID == nil || *w.EraID != f.baroque.ID {
		t.Errorf("expected era %d, got %v", f.baroque.ID, w.EraID)
	}

	tags, err := store.GetWorkTags(ctx, w.ID)
	if err != nil {
		t.Fatalf("failed to get tags: %v", err)
	}
	if len(tags) != 2 || tags[0].Label != "baroque" || tags[1].Label != "keyboard" {
		t.Errorf("expected tags [baroque keyboard], got %+v", tags)
	}

	if missing, err := store.GetWork(ctx, 9999); err != nil || missing != nil {
		t.Errorf("expected nil, nil for missing work, got %+v, %v", missing, err)
	}
}

func TestInsertWorkWithTagsIsAtomic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := seedCatalog(t, store)

	w := &Work{Title: "Invention 2", ComposerID: f.bach.ID, DatasetContentsID: f.file2.ID}
	if err := store.InsertWorkWithTags(ctx, w, []int64{f.tagBaroque.ID, f.tagKeyboard.ID}); err != nil {
		t.Fatalf("failed to insert work with tags: %v", err)
	}
	if w.ID == 0 {
		t.Fatal("expected work ID to be set")
	}
	tags, err := store.GetWorkTags(ctx, w.ID)
	if err != nil || len(tags) != 2 {
		t.Fatalf("expected 2 tags, got %d (%v)", len(tags), err)
	}

	before, _ := store.CountRows(ctx)

	// Same tag twice fails on the second relation; the work must not be kept
	bad := &Work{Title: "Invention 3", ComposerID: f.bach.ID, DatasetContentsID: f.file2.ID}
	err = store.InsertWorkWithTags(ctx, bad, []int64{f.tagBaroque.ID, f.tagBaroque.ID})
	if !errors.Is(err, util.ErrConstraint) {
		t.Fatalf("expected constraint violation, got %v", err)
	}
	if bad.ID != 0 {
		t.Errorf("expected work ID to stay unset, got %d", bad.ID)
	}

	after, _ := store.CountRows(ctx)
	if *after != *before {
		t.Errorf("failed transaction left partial state: before %+v, after %+v", before, after)
	}
}

func TestDeleteMissingRowIsNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	deletes := map[string]func(context.Context, int64) error{
		"composer":         store.DeleteComposer,
		"era":              store.DeleteEra,
		"work type":        store.DeleteWorkType,
		"tag":              store.DeleteTag,
		"dataset contents": store.DeleteDatasetContents,
		"work":             store.DeleteWork,
	}

	for name, del := range deletes {
		if err := del(ctx, 42); !errors.Is(err, util.ErrNotFound) {
			t.Errorf("delete %s: expected ErrNotFound, got %v", name, err)
		}
	}
}

func TestCheckIntegrityAndVersion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCatalog(t, store)

	if err := store.CheckIntegrity(ctx); err != nil {
		t.Errorf("expected healthy database, got %v", err)
	}

	version, err := store.EngineVersion(ctx)
	if err != nil {
		t.Fatalf("failed to read engine version: %v", err)
	}
	if version == "" {
		t.Error("expected a SQLite version string")
	}
}
