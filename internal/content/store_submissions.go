package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"repro/internal/logging"
)

const submissionColumns = `id, uuid, owner, category, processing_state, path, preview_path,
	length, channels, sample_rate, sample_width,
	pre_ingest_excerpt_score, post_ingest_excerpt_score,
	most_similar_content_id, most_similar_artist, most_similar_track,
	metadata_artist, metadata_title, metadata_release, metadata_release_date, metadata_track_number,
	rejection_reason, rejection_reason_details, processing_hostname, created_at, updated_at`

// Get returns the submission with the given UUID. When several rows share the
// UUID the oldest is returned and a warning is logged.
func (s *Store) Get(ctx context.Context, uuid string) (*Submission, error) {
	ctx = ensureContext(ctx)
	uuid = strings.TrimSpace(uuid)
	if uuid == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE uuid = ? ORDER BY id`, uuid)
	if err != nil {
		return nil, fmt.Errorf("query submission: %w", err)
	}
	defer rows.Close()

	var matches []*Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		matches = append(matches, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	if len(matches) > 1 {
		logging.WarnWithContext(s.logger, "multiple submissions share a uuid", "duplicate_submission",
			logging.String(logging.FieldSubmission, uuid),
			logging.Int("matches", len(matches)),
			logging.Int64("used_id", matches[0].ID),
			logging.String(logging.FieldErrorHint, "remove the duplicate submission rows"),
			logging.String(logging.FieldImpact, "the oldest row is used"),
		)
	}
	return matches[0], nil
}

// GetByID fetches a submission by primary key.
func (s *Store) GetByID(ctx context.Context, id int64) (*Submission, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = ?`, id)
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return sub, nil
}

// Upsert inserts submissions with a zero ID and updates all others in place.
func (s *Store) Upsert(ctx context.Context, sub *Submission) error {
	if sub == nil {
		return errors.New("upsert: nil submission")
	}
	if strings.TrimSpace(sub.UUID) == "" {
		return errors.New("upsert: submission uuid is required")
	}
	if sub.Category == "" {
		sub.Category = CategoryAudio
	}
	if sub.State == "" {
		sub.State = StateUploaded
	}
	now := time.Now().UTC()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now

	values := []any{
		sub.UUID, sub.Owner, string(sub.Category), string(sub.State),
		nullableString(sub.Path), nullableString(sub.PreviewPath),
		sub.Length, sub.Channels, sub.SampleRate, sub.SampleWidth,
		sub.PreIngestScore, sub.PostIngestScore,
		nullableID(sub.MostSimilarID), nullableString(sub.MostSimilarArtist), nullableString(sub.MostSimilarTrack),
		nullableString(sub.MetadataArtist), nullableString(sub.MetadataTitle), nullableString(sub.MetadataRelease),
		nullableString(sub.MetadataReleaseDate), nullableString(sub.MetadataTrackNumber),
		nullableString(string(sub.RejectionReason)), nullableString(sub.RejectionDetails),
		nullableString(sub.Hostname),
	}

	if sub.ID == 0 {
		res, err := s.exec(ctx, `INSERT INTO submissions (
			uuid, owner, category, processing_state, path, preview_path,
			length, channels, sample_rate, sample_width,
			pre_ingest_excerpt_score, post_ingest_excerpt_score,
			most_similar_content_id, most_similar_artist, most_similar_track,
			metadata_artist, metadata_title, metadata_release, metadata_release_date, metadata_track_number,
			rejection_reason, rejection_reason_details, processing_hostname, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			append(values, formatTime(sub.CreatedAt), formatTime(sub.UpdatedAt))...)
		if err != nil {
			return fmt.Errorf("insert submission: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		sub.ID = id
		return nil
	}

	res, err := s.exec(ctx, `UPDATE submissions SET
		uuid = ?, owner = ?, category = ?, processing_state = ?, path = ?, preview_path = ?,
		length = ?, channels = ?, sample_rate = ?, sample_width = ?,
		pre_ingest_excerpt_score = ?, post_ingest_excerpt_score = ?,
		most_similar_content_id = ?, most_similar_artist = ?, most_similar_track = ?,
		metadata_artist = ?, metadata_title = ?, metadata_release = ?, metadata_release_date = ?, metadata_track_number = ?,
		rejection_reason = ?, rejection_reason_details = ?, processing_hostname = ?, updated_at = ?
		WHERE id = ?`,
		append(values, formatTime(sub.UpdatedAt), sub.ID)...)
	if err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update submission %d: no such row", sub.ID)
	}
	return nil
}

// CountByState reports how many submissions are recorded in each state.
func (s *Store) CountByState(ctx context.Context) (map[State]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT processing_state, COUNT(1) FROM submissions GROUP BY processing_state`)
	if err != nil {
		return nil, fmt.Errorf("count submissions: %w", err)
	}
	defer rows.Close()

	counts := make(map[State]int)
	for rows.Next() {
		var state string
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("scan state count: %w", err)
		}
		counts[State(state)] = count
	}
	return counts, rows.Err()
}

// CreationFor returns the creation attached to a submission.
func (s *Store) CreationFor(ctx context.Context, submissionID int64) (*Creation, error) {
	ctx = ensureContext(ctx)
	var (
		creation              Creation
		artist, title, release sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, submission_id, artist, title, release FROM creations WHERE submission_id = ?`, submissionID,
	).Scan(&creation.ID, &creation.SubmissionID, &artist, &title, &release)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get creation: %w", err)
	}
	creation.Artist = artist.String
	creation.Title = title.String
	creation.Release = release.String
	return &creation, nil
}

// SaveCreation inserts or replaces the creation of a submission.
func (s *Store) SaveCreation(ctx context.Context, creation *Creation) error {
	if creation == nil || creation.SubmissionID == 0 {
		return errors.New("save creation: submission id is required")
	}
	res, err := s.exec(ctx, `INSERT INTO creations (submission_id, artist, title, release) VALUES (?, ?, ?, ?)
		ON CONFLICT(submission_id) DO UPDATE SET artist = excluded.artist, title = excluded.title, release = excluded.release`,
		creation.SubmissionID, nullableString(creation.Artist), nullableString(creation.Title), nullableString(creation.Release))
	if err != nil {
		return fmt.Errorf("save creation: %w", err)
	}
	if creation.ID == 0 {
		if id, err := res.LastInsertId(); err == nil {
			creation.ID = id
		}
	}
	return nil
}

func scanSubmission(scanner interface{ Scan(dest ...any) error }) (*Submission, error) {
	var (
		sub                                                        Submission
		category, state                                            string
		path, previewPath                                          sql.NullString
		mostSimilarID                                              sql.NullInt64
		similarArtist, similarTrack                                sql.NullString
		metaArtist, metaTitle, metaRelease, metaDate, metaTrackNum sql.NullString
		reason, details, hostname                                  sql.NullString
		createdRaw, updatedRaw                                     sql.NullString
	)
	if err := scanner.Scan(
		&sub.ID, &sub.UUID, &sub.Owner, &category, &state, &path, &previewPath,
		&sub.Length, &sub.Channels, &sub.SampleRate, &sub.SampleWidth,
		&sub.PreIngestScore, &sub.PostIngestScore,
		&mostSimilarID, &similarArtist, &similarTrack,
		&metaArtist, &metaTitle, &metaRelease, &metaDate, &metaTrackNum,
		&reason, &details, &hostname, &createdRaw, &updatedRaw,
	); err != nil {
		return nil, err
	}

	sub.Category = Category(category)
	sub.State = State(state)
	sub.Path = path.String
	sub.PreviewPath = previewPath.String
	if mostSimilarID.Valid {
		id := mostSimilarID.Int64
		sub.MostSimilarID = &id
	}
	sub.MostSimilarArtist = similarArtist.String
	sub.MostSimilarTrack = similarTrack.String
	sub.MetadataArtist = metaArtist.String
	sub.MetadataTitle = metaTitle.String
	sub.MetadataRelease = metaRelease.String
	sub.MetadataReleaseDate = metaDate.String
	sub.MetadataTrackNumber = metaTrackNum.String
	sub.RejectionReason = Reason(reason.String)
	sub.RejectionDetails = details.String
	sub.Hostname = hostname.String
	sub.CreatedAt = parseTime(createdRaw)
	sub.UpdatedAt = parseTime(updatedRaw)
	return &sub, nil
}
