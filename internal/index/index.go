package index

// ExportIndex defines the search index over exported notes.
// Consumers should depend on this interface rather than the concrete *DB type.
type ExportIndex interface {
	Upsert(row ExportRow, body string) error
	Delete(name string) error
	Search(query string, limit int) ([]SearchResult, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies ExportIndex at compile time.
var _ ExportIndex = (*DB)(nil)
