package store

// Schema v1 - catalog tables.
//
// Every foreign key from works cascades, including era and work type: a
// deleted era takes its works with it rather than leaving them unclassified.

// mysqlTableOptions pins a binary collation so MySQL compares names and
// filenames exactly like SQLite and PostgreSQL. The server default
// (utf8mb4_0900_ai_ci) ignores case and accents.
const mysqlTableOptions = "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin"

func (d Dialect) schemaVersionTable() string {
	switch d {
	case DialectMySQL:
		return `CREATE TABLE IF NOT EXISTS schema_version (
  version INT PRIMARY KEY,
  applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
) ` + mysqlTableOptions
	case DialectPostgres:
		return `CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
)`
	}
	return `CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`
}

func (d Dialect) schemaV1() []string {
	switch d {
	case DialectMySQL:
		return mysqlSchemaV1
	case DialectPostgres:
		return postgresSchemaV1
	}
	return sqliteSchemaV1
}

var sqliteSchemaV1 = []string{
	`CREATE TABLE IF NOT EXISTS composers (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  born INTEGER,
  died INTEGER
)`,
	`CREATE TABLE IF NOT EXISTS eras (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  label TEXT NOT NULL UNIQUE
)`,
	`CREATE TABLE IF NOT EXISTS work_type (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  label TEXT NOT NULL UNIQUE
)`,
	`CREATE TABLE IF NOT EXISTS dataset_contents (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  collection TEXT NOT NULL DEFAULT '',
  dataset_name TEXT NOT NULL,
  filename TEXT NOT NULL,
  UNIQUE (dataset_name, filename)
)`,
	`CREATE TABLE IF NOT EXISTS works (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  catalog TEXT,
  catalog_number TEXT,
  pcn TEXT,
  composer_id INTEGER NOT NULL REFERENCES composers(id) ON DELETE CASCADE,
  era_id INTEGER REFERENCES eras(id) ON DELETE CASCADE,
  work_type_id INTEGER REFERENCES work_type(id) ON DELETE CASCADE,
  dataset_contents_id INTEGER NOT NULL REFERENCES dataset_contents(id) ON DELETE CASCADE,
  UNIQUE (title, composer_id, dataset_contents_id)
)`,
	`CREATE TABLE IF NOT EXISTS tags (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  label TEXT NOT NULL UNIQUE
)`,
	`CREATE TABLE IF NOT EXISTS tag_relations (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  work_id INTEGER NOT NULL REFERENCES works(id) ON DELETE CASCADE,
  tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
  UNIQUE (work_id, tag_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_dataset_contents_filename ON dataset_contents(filename)`,
	`CREATE INDEX IF NOT EXISTS idx_works_composer ON works(composer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_works_era ON works(era_id)`,
	`CREATE INDEX IF NOT EXISTS idx_works_work_type ON works(work_type_id)`,
	`CREATE INDEX IF NOT EXISTS idx_works_dataset_contents ON works(dataset_contents_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tag_relations_tag ON tag_relations(tag_id)`,
}

// MySQL creates indexes for foreign keys itself; VARCHAR widths keep the
// composite unique keys under InnoDB's 3072-byte limit in utf8mb4.
var mysqlSchemaV1 = []string{
	`CREATE TABLE IF NOT EXISTS composers (
  id INT AUTO_INCREMENT PRIMARY KEY,
  name VARCHAR(255) NOT NULL,
  born INT NULL,
  died INT NULL,
  UNIQUE KEY uq_composers_name (name)
) ` + mysqlTableOptions,
	`CREATE TABLE IF NOT EXISTS eras (
  id INT AUTO_INCREMENT PRIMARY KEY,
  label VARCHAR(255) NOT NULL,
  UNIQUE KEY uq_eras_label (label)
) ` + mysqlTableOptions,
	`CREATE TABLE IF NOT EXISTS work_type (
  id INT AUTO_INCREMENT PRIMARY KEY,
  label VARCHAR(255) NOT NULL,
  UNIQUE KEY uq_work_type_label (label)
) ` + mysqlTableOptions,
	`CREATE TABLE IF NOT EXISTS dataset_contents (
  id INT AUTO_INCREMENT PRIMARY KEY,
  collection VARCHAR(255) NOT NULL DEFAULT '',
  dataset_name VARCHAR(255) NOT NULL,
  filename VARCHAR(255) NOT NULL,
  UNIQUE KEY uq_dataset_contents (dataset_name, filename),
  KEY idx_dataset_contents_filename (filename)
) ` + mysqlTableOptions,
	`CREATE TABLE IF NOT EXISTS works (
  id INT AUTO_INCREMENT PRIMARY KEY,
  title VARCHAR(255) NOT NULL,
  catalog VARCHAR(255) NULL,
  catalog_number VARCHAR(255) NULL,
  pcn VARCHAR(255) NULL,
  composer_id INT NOT NULL,
  era_id INT NULL,
  work_type_id INT NULL,
  dataset_contents_id INT NOT NULL,
  UNIQUE KEY uq_works (title, composer_id, dataset_contents_id),
  CONSTRAINT fk_works_composer FOREIGN KEY (composer_id) REFERENCES composers(id) ON DELETE CASCADE,
  CONSTRAINT fk_works_era FOREIGN KEY (era_id) REFERENCES eras(id) ON DELETE CASCADE,
  CONSTRAINT fk_works_work_type FOREIGN KEY (work_type_id) REFERENCES work_type(id) ON DELETE CASCADE,
  CONSTRAINT fk_works_dataset_contents FOREIGN KEY (dataset_contents_id) REFERENCES dataset_contents(id) ON DELETE CASCADE
) ` + mysqlTableOptions,
	`CREATE TABLE IF NOT EXISTS tags (
  id INT AUTO_INCREMENT PRIMARY KEY,
  label VARCHAR(255) NOT NULL,
  UNIQUE KEY uq_tags_label (label)
) ` + mysqlTableOptions,
	`CREATE TABLE IF NOT EXISTS tag_relations (
  id INT AUTO_INCREMENT PRIMARY KEY,
  work_id INT NOT NULL,
  tag_id INT NOT NULL,
  UNIQUE KEY uq_tag_relations (work_id, tag_id),
  CONSTRAINT fk_tag_relations_work FOREIGN KEY (work_id) REFERENCES works(id) ON DELETE CASCADE,
  CONSTRAINT fk_tag_relations_tag FOREIGN KEY (tag_id) REFERENCES tags(id) ON DELETE CASCADE
) ` + mysqlTableOptions,
}

var postgresSchemaV1 = []string{
	`CREATE TABLE IF NOT EXISTS composers (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  born INTEGER,
  died INTEGER
)`,
	`CREATE TABLE IF NOT EXISTS eras (
  id BIGSERIAL PRIMARY KEY,
  label TEXT NOT NULL UNIQUE
)`,
	`CREATE TABLE IF NOT EXISTS work_type (
  id BIGSERIAL PRIMARY KEY,
  label TEXT NOT NULL UNIQUE
)`,
	`CREATE TABLE IF NOT EXISTS dataset_contents (
  id BIGSERIAL PRIMARY KEY,
  collection TEXT NOT NULL DEFAULT '',
  dataset_name TEXT NOT NULL,
  filename TEXT NOT NULL,
  UNIQUE (dataset_name, filename)
)`,
	`CREATE TABLE IF NOT EXISTS works (
  id BIGSERIAL PRIMARY KEY,
  title TEXT NOT NULL,
  catalog TEXT,
  catalog_number TEXT,
  pcn TEXT,
  composer_id BIGINT NOT NULL REFERENCES composers(id) ON DELETE CASCADE,
  era_id BIGINT REFERENCES eras(id) ON DELETE CASCADE,
  work_type_id BIGINT REFERENCES work_type(id) ON DELETE CASCADE,
  dataset_contents_id BIGINT NOT NULL REFERENCES dataset_contents(id) ON DELETE CASCADE,
  UNIQUE (title, composer_id, dataset_contents_id)
)`,
	`CREATE TABLE IF NOT EXISTS tags (
  id BIGSERIAL PRIMARY KEY,
  label TEXT NOT NULL UNIQUE
)`,
	`CREATE TABLE IF NOT EXISTS tag_relations (
  id BIGSERIAL PRIMARY KEY,
  work_id BIGINT NOT NULL REFERENCES works(id) ON DELETE CASCADE,
  tag_id BIGINT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
  UNIQUE (work_id, tag_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_dataset_contents_filename ON dataset_contents(filename)`,
	`CREATE INDEX IF NOT EXISTS idx_works_composer ON works(composer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_works_era ON works(era_id)`,
	`CREATE INDEX IF NOT EXISTS idx_works_work_type ON works(work_type_id)`,
	`CREATE INDEX IF NOT EXISTS idx_works_dataset_contents ON works(dataset_contents_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tag_relations_tag ON tag_relations(tag_id)`,
}
