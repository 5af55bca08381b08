package attendance

import "context"

// Store persists attendance records. Implementations must make Upsert
// atomic on the (student, date, period) uniqueness key; two concurrent
// upserts for the same triple resolve last-write-wins without ever leaving
// two rows behind.
type Store interface {
	// Upsert inserts the record, or overwrites status, markedBy, method,
	// department, section, timestamp and notes when the triple already
	// exists. The stored id is kept across updates. Returns the post-write
	// state.
	Upsert(ctx context.Context, rec Record) (Record, error)

	// Get returns one record by id, or ErrNotFound.
	Get(ctx context.Context, id string) (Record, error)

	// List returns every record matching the filter, ordered by date
	// descending then period ascending.
	List(ctx context.Context, f Filter) ([]Record, error)

	// Page returns one page of the List order plus the total match count.
	// page is 1-based.
	Page(ctx context.Context, f Filter, page, limit int) ([]Record, int, error)

	// Recent returns the n most recently written records, timestamp
	// descending.
	Recent(ctx context.Context, n int) ([]Record, error)
}
