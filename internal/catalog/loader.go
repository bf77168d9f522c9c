package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/examgen/backend/internal/domain/question"
	"github.com/examgen/backend/internal/worker"
)

// maxSourceBytes caps a single source download.
const maxSourceBytes = 64 << 20

// LoadError is returned when a source cannot be fetched or decoded.
type LoadError struct {
	Source  string
	Wrapped error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Wrapped)
}

func (e *LoadError) Unwrap() error {
	return e.Wrapped
}

// Loader fetches dataset sources, over HTTP or from the filesystem, and
// merges them into a catalog.
type Loader struct {
	client  *http.Client
	workers int
	logger  *slog.Logger
}

// NewLoader creates a loader that fetches up to workers sources at once.
func NewLoader(client *http.Client, workers int, logger *slog.Logger) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Loader{client: client, workers: workers, logger: logger}
}

type fetched struct {
	src question.Source
	err error
}

// Load fetches every source concurrently and merges them in the given
// order. A single failing source fails the whole load.
func (l *Loader) Load(ctx context.Context, sources []string) (*Catalog, error) {
	start := time.Now()

	pool := worker.NewPool[fetched](l.workers, len(sources))
	for i, src := range sources {
		src := src
		pool.Submit(strconv.Itoa(i), func() fetched {
			s, err := l.fetch(ctx, src)
			return fetched{src: s, err: err}
		})
	}
	pool.Close()

	parsed := make([]question.Source, len(sources))
	errs := make([]error, len(sources))
	for res := range pool.Results() {
		i, _ := strconv.Atoi(res.JobID)
		parsed[i] = res.Output.src
		errs[i] = res.Output.err
	}
	for i, err := range errs {
		if err != nil {
			return nil, &LoadError{Source: sources[i], Wrapped: err}
		}
	}

	c := New(question.Merge(parsed...))
	l.logger.Info("catalog loaded",
		"sources", len(sources),
		"questions", c.Len(),
		"duration", time.Since(start),
	)
	return c, nil
}

func (l *Loader) fetch(ctx context.Context, src string) (question.Source, error) {
	var (
		data []byte
		err  error
	)
	if isURL(src) {
		data, err = l.fetchHTTP(ctx, src)
	} else {
		data, err = os.ReadFile(strings.TrimPrefix(src, "file://"))
	}
	if err != nil {
		return question.Source{}, err
	}

	var s question.Source
	if err := json.Unmarshal(data, &s); err != nil {
		return question.Source{}, fmt.Errorf("decode: %w", err)
	}
	return s, nil
}

func (l *Loader) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes))
}
