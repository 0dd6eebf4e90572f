package content

import "context"

// Repository is the narrow record API the pipeline depends on. Lookups return
// (nil, nil) when nothing matches.
type Repository interface {
	Get(ctx context.Context, uuid string) (*Submission, error)
	GetByID(ctx context.Context, id int64) (*Submission, error)
	Upsert(ctx context.Context, submission *Submission) error

	CreationFor(ctx context.Context, submissionID int64) (*Creation, error)

	// ChecksumsInRange lists records for exactly [begin, end), oldest first.
	ChecksumsInRange(ctx context.Context, submissionID, begin, end int64) ([]ChecksumRecord, error)
	// SaveChecksum inserts records with a zero ID and updates the rest.
	SaveChecksum(ctx context.Context, record *ChecksumRecord) error

	AppendFingerprintLog(ctx context.Context, entry *FingerprintLogEntry) error
	ResolveIdentity(ctx context.Context, login string) (*Identity, error)
}
