package preflight

import (
	"context"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"repro/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll checks every stage directory, the content directories and the
// matcher. When skipNetwork is set the matcher is not contacted.
func RunAll(ctx context.Context, cfg *config.Config, skipNetwork bool) []Result {
	if cfg == nil {
		return nil
	}

	title := cases.Title(language.English)
	stageNames := []string{
		cfg.Stages.Uploaded, cfg.Stages.Previewed, cfg.Stages.Checksummed,
		cfg.Stages.Fingerprinted, cfg.Stages.Dropped, cfg.Stages.Rejected,
	}

	results := make([]Result, 0, len(stageNames)+3)
	for _, name := range stageNames {
		results = append(results, CheckDirectoryAccess(title.String(name)+" directory", cfg.StageDir(name)))
	}
	results = append(results,
		CheckDirectoryAccess("Previews directory", cfg.PreviewsDir()),
		CheckDirectoryAccess("Excerpts directory", cfg.ExcerptsDir()),
	)
	if !skipNetwork {
		results = append(results, CheckMatcher(ctx, cfg.Echoprint.URL))
	}
	return results
}

// Failed filters results down to failing checks.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
