package fingerprint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"

	"repro/internal/services"
)

// ErrNoCode reports codegen output without a usable fingerprint code.
var ErrNoCode = errors.New("no fingerprint code")

// Code is one fingerprint produced by the code generator.
type Code struct {
	Code    string
	Version string
}

// Generator runs the external fingerprint code generator.
type Generator struct {
	binary string
}

// NewGenerator returns a generator invoking binary.
func NewGenerator(binary string) *Generator {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "echoprint-codegen"
	}
	return &Generator{binary: binary}
}

// Binary returns the configured executable.
func (g *Generator) Binary() string {
	return g.binary
}

type codegenEntry struct {
	Code     string `json:"code"`
	Error    string `json:"error"`
	Metadata struct {
		Version json.RawMessage `json:"version"`
	} `json:"metadata"`
}

// Generate fingerprints the file at path. A missing executable yields an
// error marked services.ErrToolMissing; unusable output yields ErrNoCode.
func (g *Generator) Generate(ctx context.Context, path string) (Code, error) {
	cmd := exec.CommandContext(ctx, g.binary, path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()
	if runErr != nil {
		if errors.Is(runErr, exec.ErrNotFound) || isMissingExecutable(runErr) {
			return Code{}, services.Wrap(services.ErrToolMissing, "", "codegen", g.binary, runErr)
		}
		if ctx.Err() != nil {
			return Code{}, ctx.Err()
		}
	}
	code, err := ParseCodegenOutput(stdout.Bytes())
	if err != nil {
		if runErr != nil {
			detail := strings.TrimSpace(stderr.String())
			return Code{}, fmt.Errorf("%w: %v: %s", ErrNoCode, runErr, detail)
		}
		return Code{}, err
	}
	return code, nil
}

// ParseCodegenOutput extracts the first code from [{code, metadata:{version}}].
func ParseCodegenOutput(data []byte) (Code, error) {
	raw := strings.TrimSpace(string(data))
	var entries []codegenEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return Code{}, fmt.Errorf("%w: unparseable output %q", ErrNoCode, truncate(raw, 200))
	}
	if len(entries) == 0 {
		return Code{}, fmt.Errorf("%w: empty output", ErrNoCode)
	}
	first := entries[0]
	if strings.TrimSpace(first.Code) == "" {
		detail := first.Error
		if detail == "" {
			detail = truncate(raw, 200)
		}
		return Code{}, fmt.Errorf("%w: %s", ErrNoCode, detail)
	}
	return Code{Code: first.Code, Version: strings.Trim(string(first.Metadata.Version), `" `)}, nil
}

func isMissingExecutable(err error) bool {
	var pathErr *fs.PathError
	return errors.As(err, &pathErr) && errors.Is(pathErr.Err, fs.ErrNotExist)
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}
