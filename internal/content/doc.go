// Package content models submissions and their bookkeeping records and
// persists them in SQLite.
//
// Stage code depends only on the Repository interface; Store is the concrete
// adapter used by the CLI and worker. Lookups that find nothing return
// (nil, nil) so callers can decide between rejecting and skipping. The store
// tolerates data anomalies it cannot repair (duplicate UUIDs) by logging a
// warning and using the oldest row.
package content
