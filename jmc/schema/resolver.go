package schema

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tliron/commonlog"
)

const (
	DefaultBaseURL = "https://json.schemastore.org"
	DefaultTimeout = 5 * time.Second
)

// ErrSchemaUnavailable is returned when a schema cannot be fetched or
// compiled in time.
var ErrSchemaUnavailable = errors.New("schema unavailable")

// Resolver fetches the JSON schema for a file type and caches the compiled
// result. Concurrent callers asking for the same file type share one fetch.
type Resolver struct {
	BaseURL string
	Timeout time.Duration

	httpClient *http.Client
	log        commonlog.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	ready  chan struct{}
	schema *jsonschema.Schema
	err    error
}

func NewResolver(baseURL string, timeout time.Duration) *Resolver {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Resolver{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		Timeout:    timeout,
		httpClient: &http.Client{},
		log:        commonlog.GetLogger("jmc.schema"),
		entries:    make(map[string]*entry),
	}
}

// URL returns the schema location for fileType.
func (r *Resolver) URL(fileType string) string {
	return fmt.Sprintf("%s/minecraft-%s.json", r.BaseURL, Singular(fileType))
}

// Resolve returns the compiled schema for fileType. Failed lookups are not
// cached, so a later call tries again.
func (r *Resolver) Resolve(ctx context.Context, fileType string) (*jsonschema.Schema, error) {
	r.mu.Lock()
	e, ok := r.entries[fileType]
	if !ok {
		e = &entry{ready: make(chan struct{})}
		r.entries[fileType] = e
	}
	r.mu.Unlock()

	if !ok {
		go r.fill(context.WithoutCancel(ctx), fileType, e)
	}

	select {
	case <-e.ready:
		return e.schema, e.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s: %w", ErrSchemaUnavailable, fileType, ctx.Err())
	}
}

// fill loads the schema shared by every caller waiting on e. It runs
// detached from the caller that started it and is bounded by r.Timeout only.
func (r *Resolver) fill(ctx context.Context, fileType string, e *entry) {
	e.schema, e.err = r.load(ctx, fileType)
	if e.err != nil {
		r.mu.Lock()
		delete(r.entries, fileType)
		r.mu.Unlock()
	}
	close(e.ready)
}

func (r *Resolver) load(ctx context.Context, fileType string) (*jsonschema.Schema, error) {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	url := r.URL(fileType)
	data, err := r.fetch(ctx, url)
	if err != nil {
		r.log.Warningf("fetch schema %s: %s", url, err)
		return nil, fmt.Errorf("%w: %s: %w", ErrSchemaUnavailable, fileType, err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.LoadURL = func(ref string) (io.ReadCloser, error) {
		data, err := r.fetch(ctx, ref)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSchemaUnavailable, fileType, err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		r.log.Warningf("compile schema %s: %s", url, err)
		return nil, fmt.Errorf("%w: %s: %w", ErrSchemaUnavailable, fileType, err)
	}

	r.log.Debugf("loaded schema %s", url)
	return compiled, nil
}

func (r *Resolver) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch schema: %w", err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch schema: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch schema: HTTP %d for %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return data, nil
}
