package fingerprint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Match is the matcher's answer to a query.
type Match struct {
	Score   int
	Match   bool
	TrackID string
	Artist  string
	Track   string
}

// IngestRequest carries the form fields of POST /ingest.
type IngestRequest struct {
	TrackID string
	Code    string
	Artist  string
	Release string
	Track   string
	Length  int64 // seconds
	CodeVer string
}

// Client talks to the fingerprint matching service.
type Client struct {
	baseURL string
	token   string
	http    HTTPDoer
	timeout time.Duration
}

// NewClient builds a matcher client. A zero timeout leaves requests unbounded.
func NewClient(baseURL, token string, timeout time.Duration, doer HTTPDoer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   token,
		http:    doer,
		timeout: timeout,
	}
}

type queryResponse struct {
	Score   float64 `json:"score"`
	Match   bool    `json:"match"`
	TrackID string  `json:"track_id"`
	Artist  string  `json:"artist"`
	Track   string  `json:"track"`
}

// Query looks up a fingerprint code.
func (c *Client) Query(ctx context.Context, code string) (Match, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	endpoint := c.baseURL + "/query?" + url.Values{"fp_code": {code}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Match{}, fmt.Errorf("build query request: %w", err)
	}
	body, err := c.do(req, "query")
	if err != nil {
		return Match{}, err
	}

	var resp queryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Match{}, fmt.Errorf("decode query response: %w", err)
	}
	return Match{
		Score:   int(math.Round(resp.Score)),
		Match:   resp.Match,
		TrackID: resp.TrackID,
		Artist:  resp.Artist,
		Track:   resp.Track,
	}, nil
}

// Ingest registers a fingerprint with the service.
func (c *Client) Ingest(ctx context.Context, in IngestRequest) error {
	form := url.Values{
		"track_id": {in.TrackID},
		"token":    {c.token},
		"fp_code":  {in.Code},
		"artist":   {in.Artist},
		"release":  {in.Release},
		"track":    {in.Track},
		"length":   {strconv.FormatInt(in.Length, 10)},
		"codever":  {in.CodeVer},
	}
	return c.postForm(ctx, "/ingest", form)
}

// Delete removes a fingerprint by track id.
func (c *Client) Delete(ctx context.Context, trackID string) error {
	form := url.Values{"track_id": {trackID}}
	if c.token != "" {
		form.Set("token", c.token)
	}
	return c.postForm(ctx, "/delete", form)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build %s request: %w", strings.TrimPrefix(path, "/"), err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	_, err = c.do(req, strings.TrimPrefix(path, "/"))
	return err
}

func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", op, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", op, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %d %s: %s", op, resp.StatusCode,
			http.StatusText(resp.StatusCode), truncate(strings.TrimSpace(string(body)), 300))
	}
	return body, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return ctx, func() {}
}

// TrackIDFromName strips hyphens from a submission file name; the matcher
// reserves hyphens for multi-segment codes.
func TrackIDFromName(name string) string {
	return strings.ReplaceAll(name, "-", "")
}

// UUIDFromTrackID formats a 32-hex track id as a dashed lowercase UUID.
func UUIDFromTrackID(trackID string) (string, error) {
	trackID = strings.TrimSpace(trackID)
	if len(trackID) != 32 {
		return "", fmt.Errorf("track id %q is not 32 hex characters", trackID)
	}
	id, err := uuid.Parse(trackID)
	if err != nil {
		return "", fmt.Errorf("parse track id: %w", err)
	}
	return id.String(), nil
}
