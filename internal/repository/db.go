package repository

// scanner abstracts *sql.Row and *sql.Rows so the per-table scan helpers
// work for both single-row and multi-row queries.
type scanner interface {
	Scan(dest ...any) error
}
