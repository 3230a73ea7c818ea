package store

import (
	"context"
	"testing"
)

// seedCatalog fills s with a small catalog shared by the store tests:
//
//	D1/f1.xml  Bach   "Invention 1"    Baroque   Invention  [baroque keyboard]
//	D1/f2.xml  (no work)
//	D2/f1.xml  Mozart "Sonata K. 545"  Classical Sonata     [galant]
//	D2/f3.xml  Mozart "Minuet"         -         -          []
func seedCatalog(t *testing.T, s *Store) *seededCatalog {
	t.Helper()
	ctx := context.Background()
	f := &seededCatalog{}

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	f.bach = &Composer{Name: "Bach", Born: intValue(1685), Died: intValue(1750)}
	must(s.InsertComposer(ctx, f.bach))
	f.mozart = &Composer{Name: "Mozart", Born: intValue(1756), Died: intValue(1791)}
	must(s.InsertComposer(ctx, f.mozart))

	var err error
	f.baroque, err = s.InsertEra(ctx, "Baroque")
	must(err)
	f.classical, err = s.InsertEra(ctx, "Classical")
	must(err)
	f.inventionType, err = s.InsertWorkType(ctx, "Invention")
	must(err)
	f.sonataType, err = s.InsertWorkType(ctx, "Sonata")
	must(err)
	f.tagBaroque, err = s.InsertTag(ctx, "baroque")
	must(err)
	f.tagKeyboard, err = s.InsertTag(ctx, "keyboard")
	must(err)
	f.tagGalant, err = s.InsertTag(ctx, "galant")
	must(err)

	f.file1 = &DatasetContents{Collection: "C", DatasetName: "D1", Filename: "f1.xml"}
	must(s.InsertDatasetContents(ctx, f.file1))
	f.file2 = &DatasetContents{Collection: "C", DatasetName: "D1", Filename: "f2.xml"}
	must(s.InsertDatasetContents(ctx, f.file2))
	f.file3 = &DatasetContents{Collection: "C", DatasetName: "D2", Filename: "f1.xml"}
	must(s.InsertDatasetContents(ctx, f.file3))
	f.file4 = &DatasetContents{Collection: "C", DatasetName: "D2", Filename: "f3.xml"}
	must(s.InsertDatasetContents(ctx, f.file4))

	f.invention = &Work{
		Title:             "Invention 1",
		Catalog:           stringValue("BWV"),
		CatalogNumber:     stringValue("772"),
		ComposerID:        f.bach.ID,
		EraID:             &f.baroque.ID,
		WorkTypeID:        &f.inventionType.ID,
		DatasetContentsID: f.file1.ID,
	}
	must(s.InsertWorkWithTags(ctx, f.invention, []int64{f.tagBaroque.ID, f.tagKeyboard.ID}))

	f.sonata = &Work{
		Title:             "Sonata K. 545",
		Catalog:           stringValue("K"),
		CatalogNumber:     stringValue("545"),
		PCN:               stringValue("pcn-545"),
		ComposerID:        f.mozart.ID,
		EraID:             &f.classical.ID,
		WorkTypeID:        &f.sonataType.ID,
		DatasetContentsID: f.file3.ID,
	}
	must(s.InsertWork(ctx, f.sonata))
	_, err = s.TagWork(ctx, f.sonata.ID, f.tagGalant.ID)
	must(err)

	f.minuet = &Work{Title: "Minuet", ComposerID: f.mozart.ID, DatasetContentsID: f.file4.ID}
	must(s.InsertWork(ctx, f.minuet))

	return f
}

type seededCatalog struct {
	bach, mozart               *Composer
	baroque, classical         *Era
	inventionType, sonataType  *WorkType
	tagBaroque, tagKeyboard    *Tag
	tagGalant                  *Tag
	file1, file2, file3, file4 *DatasetContents

	invention *Work
	sonata    *Work
	minuet    *Work
}
