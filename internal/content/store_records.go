package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ChecksumsInRange lists checksum records covering exactly [begin, end), oldest first.
func (s *Store) ChecksumsInRange(ctx context.Context, submissionID, begin, end int64) ([]ChecksumRecord, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, submission_id, range_begin, range_end, algorithm, digest, timestamp
		 FROM checksums WHERE submission_id = ? AND range_begin = ? AND range_end = ? ORDER BY id`,
		submissionID, begin, end)
	if err != nil {
		return nil, fmt.Errorf("query checksums: %w", err)
	}
	defer rows.Close()

	var records []ChecksumRecord
	for rows.Next() {
		var (
			record ChecksumRecord
			stamp  sql.NullString
		)
		if err := rows.Scan(&record.ID, &record.SubmissionID, &record.Begin, &record.End,
			&record.Algorithm, &record.Digest, &stamp); err != nil {
			return nil, fmt.Errorf("scan checksum: %w", err)
		}
		record.Timestamp = parseTime(stamp)
		records = append(records, record)
	}
	return records, rows.Err()
}

// SaveChecksum inserts records with a zero ID and updates the rest.
func (s *Store) SaveChecksum(ctx context.Context, record *ChecksumRecord) error {
	if record == nil || record.SubmissionID == 0 {
		return errors.New("save checksum: submission id is required")
	}
	if record.ID == 0 {
		res, err := s.exec(ctx,
			`INSERT INTO checksums (submission_id, range_begin, range_end, algorithm, digest, timestamp)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			record.SubmissionID, record.Begin, record.End, record.Algorithm, record.Digest, formatTime(record.Timestamp))
		if err != nil {
			return fmt.Errorf("insert checksum: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		record.ID = id
		return nil
	}
	if _, err := s.exec(ctx,
		`UPDATE checksums SET range_begin = ?, range_end = ?, algorithm = ?, digest = ?, timestamp = ? WHERE id = ?`,
		record.Begin, record.End, record.Algorithm, record.Digest, formatTime(record.Timestamp), record.ID); err != nil {
		return fmt.Errorf("update checksum: %w", err)
	}
	return nil
}

// AppendFingerprintLog records a successful ingest.
func (s *Store) AppendFingerprintLog(ctx context.Context, entry *FingerprintLogEntry) error {
	if entry == nil || entry.SubmissionID == 0 || entry.IdentityID == 0 {
		return errors.New("append fingerprint log: submission and identity are required")
	}
	res, err := s.exec(ctx,
		`INSERT INTO fingerprint_logs (submission_id, identity_id, timestamp, algorithm, version, origin)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.SubmissionID, entry.IdentityID, formatTime(entry.Timestamp), entry.Algorithm, entry.Version, entry.Origin)
	if err != nil {
		return fmt.Errorf("insert fingerprint log: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// FingerprintLogs lists the audit entries of a submission, oldest first.
func (s *Store) FingerprintLogs(ctx context.Context, submissionID int64) ([]FingerprintLogEntry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, submission_id, identity_id, timestamp, algorithm, version, origin
		 FROM fingerprint_logs WHERE submission_id = ? ORDER BY id`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("query fingerprint logs: %w", err)
	}
	defer rows.Close()

	var entries []FingerprintLogEntry
	for rows.Next() {
		var (
			entry FingerprintLogEntry
			stamp sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.SubmissionID, &entry.IdentityID, &stamp,
			&entry.Algorithm, &entry.Version, &entry.Origin); err != nil {
			return nil, fmt.Errorf("scan fingerprint log: %w", err)
		}
		entry.Timestamp = parseTime(stamp)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ResolveIdentity looks up an identity by login.
func (s *Store) ResolveIdentity(ctx context.Context, login string) (*Identity, error) {
	ctx = ensureContext(ctx)
	var identity Identity
	err := s.db.QueryRowContext(ctx, `SELECT id, login FROM identities WHERE login = ?`, strings.TrimSpace(login)).
		Scan(&identity.ID, &identity.Login)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	return &identity, nil
}

// EnsureIdentity returns the identity for login, creating it when absent.
func (s *Store) EnsureIdentity(ctx context.Context, login string) (*Identity, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, errors.New("ensure identity: empty login")
	}
	if _, err := s.exec(ctx, `INSERT INTO identities (login) VALUES (?) ON CONFLICT(login) DO NOTHING`, login); err != nil {
		return nil, fmt.Errorf("ensure identity: %w", err)
	}
	return s.ResolveIdentity(ctx, login)
}
