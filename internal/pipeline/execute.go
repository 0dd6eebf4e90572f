package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"repro/internal/content"
	"repro/internal/fileutil"
	"repro/internal/logging"
	"repro/internal/scanner"
	"repro/internal/services"
)

// stage describes one transition between stage directories.
type stage struct {
	name      string
	sourceDir string
	destDir   string
	done      content.State
	// expected holds the advisory predecessor states; sheet overrides it for
	// sheet submissions when set.
	expected []content.State
	sheet    []content.State
	run      func(ctx context.Context, sub *content.Submission, job scanner.Job) error
	// finish runs after relocation with the new payload path.
	finish func(ctx context.Context, sub *content.Submission, payload string) error
}

func (s stage) expectedFor(sub *content.Submission) []content.State {
	if sub.Category == content.CategorySheet && len(s.sheet) > 0 {
		return s.sheet
	}
	return s.expected
}

// execute applies one stage to a claimed payload: resolve the record, check
// its advisory state, run the stage logic, persist, then relocate.
func (p *Pipeline) execute(ctx context.Context, def stage, job scanner.Job) error {
	logger := logging.WithContext(ctx, p.logger)
	payload := job.Path()

	sub, err := p.store.Get(ctx, job.Name)
	if err != nil {
		return services.Wrap(services.ErrTransient, def.name, "load record", job.Name, err)
	}
	if sub == nil {
		return p.reject(ctx, payload, content.Reject(content.ReasonMissingRecord,
			"there was no content record for %s", job.Name))
	}

	if expected := def.expectedFor(sub); !slices.Contains(expected, sub.State) {
		logging.WarnWithContext(logger, "recorded state does not match stage directory", "state_mismatch",
			logging.String("recorded_state", string(sub.State)),
			logging.String("expected_states", joinStates(expected)),
			logging.String(logging.FieldImpact, "directory placement wins; stage continues"),
		)
	}

	if err := def.run(ctx, sub, job); err != nil {
		if rejection, ok := content.AsRejection(err); ok {
			return p.reject(ctx, payload, rejection)
		}
		return err
	}

	target := filepath.Join(job.DestDir, job.Name)
	sub.State = def.done
	sub.Path = p.relativeToStorage(target)
	sub.Hostname = p.cfg.Worker.Hostname
	if err := p.store.Upsert(ctx, sub); err != nil {
		return services.Wrap(services.ErrTransient, def.name, "persist", job.Name, err)
	}

	moved, err := fileutil.MoveWithSidecars(payload, job.DestDir)
	if err != nil {
		return services.Wrap(services.ErrTransient, def.name, "relocate", job.Name, err)
	}
	if def.finish != nil {
		if err := def.finish(ctx, sub, moved); err != nil {
			logging.WarnWithContext(logger, "post-relocation step failed", "stage_finish_failed",
				logging.String(logging.FieldPath, moved),
				logging.Error(err),
				logging.String(logging.FieldImpact, "payload relocated; follow-up step skipped"),
			)
		}
	}

	logger.Info("stage complete",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("state", string(sub.State)),
		logging.String(logging.FieldPath, moved),
	)
	return nil
}

func (p *Pipeline) reject(ctx context.Context, payload string, rejection *content.Rejection) error {
	if _, err := p.rejecter.Reject(ctx, payload, rejection.Reason, rejection.Detail); err != nil {
		return fmt.Errorf("reject %s (%s): %w", filepath.Base(payload), rejection.Reason, err)
	}
	return nil
}

func (p *Pipeline) relativeToStorage(path string) string {
	rel, err := filepath.Rel(p.cfg.Paths.StorageDir, path)
	if err != nil {
		return path
	}
	return rel
}

func joinStates(states []content.State) string {
	parts := make([]string, len(states))
	for i, s := range states {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}
