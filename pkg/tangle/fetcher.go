package tangle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Default data source settings
const (
	DefaultPerPage = 10
	DefaultTimeout = 10 * time.Second
	APIPrefix      = "/api"
)

// Fetcher retrieves the current set of records from a data source.
//
// Every call returns the full set the source is willing to return; no
// cursor is kept between calls.
type Fetcher interface {
	FetchRecords(ctx context.Context) ([]Record, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) ([]Record, error)

// FetchRecords calls f.
func (f FetcherFunc) FetchRecords(ctx context.Context) ([]Record, error) {
	return f(ctx)
}

// HTTPFetcher reads records from the blocks API.
type HTTPFetcher struct {
	baseURL    string
	perPage    int
	httpClient *http.Client
	group      singleflight.Group
}

// HTTPOption configures an HTTPFetcher
type HTTPOption func(*HTTPFetcher)

// WithPerPage sets the page size requested from the source
func WithPerPage(n int) HTTPOption {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.perPage = n
		}
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) HTTPOption {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying client
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		if c != nil {
			f.httpClient = c
		}
	}
}

// NewHTTPFetcher creates a fetcher for the API rooted at baseURL
// (e.g. "http://localhost:8080"). A trailing "/api" is accepted.
func NewHTTPFetcher(baseURL string, opts ...HTTPOption) *HTTPFetcher {
	base := strings.TrimRight(baseURL, "/")
	base = strings.TrimSuffix(base, APIPrefix)

	f := &HTTPFetcher{
		baseURL:    base,
		perPage:    DefaultPerPage,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// BaseURL returns the normalized base URL.
func (f *HTTPFetcher) BaseURL() string {
	return f.baseURL
}

// FetchRecords implements Fetcher. Concurrent calls share one round trip.
func (f *HTTPFetcher) FetchRecords(ctx context.Context) ([]Record, error) {
	v, err, _ := f.group.Do("blocks", func() (any, error) {
		return f.fetchBlocks(ctx)
	})
	if err != nil {
		return nil, err
	}

	records := v.([]Record)
	out := make([]Record, len(records))
	copy(out, records)
	return out, nil
}

func (f *HTTPFetcher) fetchBlocks(ctx context.Context) ([]Record, error) {
	q := url.Values{}
	q.Set("page", "1")
	q.Set("per_page", strconv.Itoa(f.perPage))

	var resp Response[[]Block]
	if err := f.doJSON(ctx, "/blocks?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Data == nil {
		return nil, NewErrAPIRejected(f.baseURL, 0, firstNonEmpty(resp.Message, resp.Error))
	}

	return blocksToRecords(*resp.Data), nil
}

// FetchRecord returns a single record by id.
func (f *HTTPFetcher) FetchRecord(ctx context.Context, id string) (Record, error) {
	var resp Response[Block]
	if err := f.doJSON(ctx, "/blocks/"+url.PathEscape(id), &resp); err != nil {
		var rejected *ErrAPIRejected
		if errors.As(err, &rejected) && rejected.StatusCode == http.StatusNotFound {
			return Record{}, NewErrBlockNotFound(id)
		}
		return Record{}, err
	}
	if !resp.Success || resp.Data == nil {
		return Record{}, NewErrBlockNotFound(id)
	}
	return resp.Data.Record(), nil
}

// Health asks the source for its health status string.
func (f *HTTPFetcher) Health(ctx context.Context) (string, error) {
	var resp Response[string]
	if err := f.doJSON(ctx, "/health", &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", NewErrAPIRejected(f.baseURL, 0, firstNonEmpty(resp.Message, resp.Error))
	}
	if resp.Data == nil {
		return "healthy", nil
	}
	return *resp.Data, nil
}

func (f *HTTPFetcher) doJSON(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+APIPrefix+path, nil)
	if err != nil {
		return NewErrFetchFailed(f.baseURL, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return NewErrFetchFailed(f.baseURL, fmt.Errorf("performing request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewErrFetchFailed(f.baseURL, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &errResp) == nil {
			msg = firstNonEmpty(errResp.Message, errResp.Error, msg)
		}
		return NewErrAPIRejected(f.baseURL, resp.StatusCode, msg)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return NewErrFetchFailed(f.baseURL, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// FileFetcher reads records from a JSON file holding either an API
// envelope or a bare array of blocks. The file is re-read on every call.
type FileFetcher struct {
	Path string
}

// NewFileFetcher creates a fetcher for path
func NewFileFetcher(path string) *FileFetcher {
	return &FileFetcher{Path: path}
}

// FetchRecords implements Fetcher.
func (f *FileFetcher) FetchRecords(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewErrFetchFailed(f.Path, err)
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, NewErrFetchFailed(f.Path, err)
	}
	return DecodeBlocks(f.Path, data)
}

// DecodeBlocks decodes an API envelope or a bare block array.
func DecodeBlocks(source string, data []byte) ([]Record, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var blocks []Block
		if err := json.Unmarshal(data, &blocks); err != nil {
			return nil, NewErrFetchFailed(source, fmt.Errorf("decoding blocks: %w", err))
		}
		return blocksToRecords(blocks), nil
	}

	var resp Response[[]Block]
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, NewErrFetchFailed(source, fmt.Errorf("decoding response: %w", err))
	}
	if !resp.Success || resp.Data == nil {
		return nil, NewErrAPIRejected(source, 0, firstNonEmpty(resp.Message, resp.Error))
	}
	return blocksToRecords(*resp.Data), nil
}

// StaticFetcher replays a scripted sequence of results. Once the script is
// exhausted the last result repeats.
type StaticFetcher struct {
	mu    sync.Mutex
	steps []staticStep
	calls int
}

type staticStep struct {
	records []Record
	err     error
}

// NewStaticFetcher creates a fetcher that always returns records
func NewStaticFetcher(records ...Record) *StaticFetcher {
	f := &StaticFetcher{}
	return f.Then(records...)
}

// Then appends a successful step to the script
func (f *StaticFetcher) Then(records ...Record) *StaticFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps = append(f.steps, staticStep{records: records})
	return f
}

// ThenFail appends a failing step to the script
func (f *StaticFetcher) ThenFail(err error) *StaticFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps = append(f.steps, staticStep{err: err})
	return f
}

// Calls returns how many times FetchRecords has been called.
func (f *StaticFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// FetchRecords implements Fetcher.
func (f *StaticFetcher) FetchRecords(ctx context.Context) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, NewErrFetchFailed("static", err)
	}
	if len(f.steps) == 0 {
		f.calls++
		return nil, nil
	}

	i := f.calls
	if i >= len(f.steps) {
		i = len(f.steps) - 1
	}
	f.calls++

	step := f.steps[i]
	if step.err != nil {
		return nil, NewErrFetchFailed("static", step.err)
	}
	out := make([]Record, len(step.records))
	copy(out, step.records)
	return out, nil
}

func blocksToRecords(blocks []Block) []Record {
	records := make([]Record, 0, len(blocks))
	for _, b := range blocks {
		if b.Hash == "" {
			continue
		}
		records = append(records, b.Record())
	}
	return records
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
