package store

// Composer is the author of one or more works
type Composer struct {
	ID   int64
	Name string
	Born *int
	Died *int
}

// Label is a row of one of the single-label lookup tables: eras, work types
// and tags
type Label struct {
	ID    int64
	Label string
}

// Era is a broad style period such as Baroque or Romantic
type Era = Label

// WorkType is a form such as sonata or fugue
type WorkType = Label

// Tag is a free-form classification attached to works
type Tag = Label

// DatasetContents is one ingested source file within a named dataset
type DatasetContents struct {
	ID          int64
	Collection  string
	DatasetName string
	Filename    string
}

// Work is a single composition backed by a source file
type Work struct {
	ID                int64
	Title             string
	Catalog           *string
	CatalogNumber     *string
	PCN               *string
	ComposerID        int64
	EraID             *int64
	WorkTypeID        *int64
	DatasetContentsID int64
}

// TagRelation attaches a tag to a work
type TagRelation struct {
	ID     int64
	WorkID int64
	TagID  int64
}

// TableCounts holds row counts for every catalog table
type TableCounts struct {
	Composers       int64
	Eras            int64
	WorkTypes       int64
	DatasetContents int64
	Works           int64
	Tags            int64
	TagRelations    int64
}
