package content

import (
	"fmt"
	"time"
)

// Category distinguishes audio submissions from sheet music.
type Category string

const (
	CategoryAudio Category = "audio"
	CategorySheet Category = "sheet"
)

// State is the advisory processing state persisted with a submission. The stage
// directory a payload sits in is authoritative; State only records what the
// last successful stage did.
type State string

const (
	StateUploaded      State = "uploaded"
	StatePreviewed     State = "previewed"
	StateChecksummed   State = "checksummed"
	StateFingerprinted State = "fingerprinted"
	StateDropped       State = "dropped"
	StateRejected      State = "rejected"
	StateUnknown       State = "unknown"
)

// Terminal reports whether no stage moves a submission out of this state.
func (s State) Terminal() bool {
	return s == StateDropped || s == StateRejected
}

// ParseState validates a persisted state string.
func ParseState(value string) (State, error) {
	switch s := State(value); s {
	case StateUploaded, StatePreviewed, StateChecksummed, StateFingerprinted,
		StateDropped, StateRejected, StateUnknown:
		return s, nil
	default:
		return "", fmt.Errorf("unknown processing state %q", value)
	}
}

// Submission is a user-uploaded file tracked through the pipeline.
type Submission struct {
	ID       int64
	UUID     string
	Owner    string
	Category Category
	State    State

	// Path is relative to the storage directory; PreviewPath to the content directory.
	Path        string
	PreviewPath string

	Length      int64 // milliseconds
	Channels    int
	SampleRate  int
	SampleWidth int // bits

	PreIngestScore    int
	PostIngestScore   int
	MostSimilarID     *int64
	MostSimilarArtist string
	MostSimilarTrack  string

	MetadataArtist      string
	MetadataTitle       string
	MetadataRelease     string
	MetadataReleaseDate string
	MetadataTrackNumber string

	RejectionReason  Reason
	RejectionDetails string
	Hostname         string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAudio reports whether audio processing applies to the submission.
func (s *Submission) IsAudio() bool {
	return s != nil && s.Category != CategorySheet
}

// Creation carries the descriptive metadata of the work a submission belongs to.
type Creation struct {
	ID           int64
	SubmissionID int64
	Artist       string
	Title        string
	Release      string
}

// ChecksumRecord stores a digest over the byte range [Begin, End) of a submission.
type ChecksumRecord struct {
	ID           int64
	SubmissionID int64
	Begin        int64
	End          int64
	Algorithm    string
	Digest       string
	Timestamp    time.Time
}

// FingerprintLogEntry is the audit record written once per successful ingest.
type FingerprintLogEntry struct {
	ID           int64
	SubmissionID int64
	IdentityID   int64
	Timestamp    time.Time
	Algorithm    string
	Version      string
	Origin       string
}

// Identity is an account able to act on submissions.
type Identity struct {
	ID    int64
	Login string
}
