package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// maxDocumentSize bounds how much of a content resource is read.
const maxDocumentSize = 4 << 20

// FailureKind classifies why a content resource could not be used.
type FailureKind string

const (
	FailureNetwork FailureKind = "network"
	FailureParse   FailureKind = "parse"
)

// LoadError reports a failed fetch or decode of a content resource.
type LoadError struct {
	Resource string
	Kind     FailureKind
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("content: load %s: %s failure: %v", e.Resource, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsKind reports whether err is a LoadError of the given kind.
func IsKind(err error, kind FailureKind) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Kind == kind
}

// Source fetches the raw bytes of a static JSON resource.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	String() string
}

// NewSource picks an HTTP source for http(s) references and a file source
// for everything else. An empty ref yields nil.
func NewSource(ref string, client *http.Client) Source {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return NewHTTPSource(ref, client)
	}
	return FileSource{Path: strings.TrimPrefix(ref, "file://")}
}

// HTTPSource performs a read-only GET against a URL.
type HTTPSource struct {
	url  string
	http *http.Client
}

// NewHTTPSource constructs an HTTPSource. A nil client gets a 5s timeout.
func NewHTTPSource(url string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPSource{url: url, http: client}
}

func (s *HTTPSource) String() string { return s.url }

// Fetch issues the GET. Transport errors and non-2xx statuses are network failures.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &LoadError{Resource: s.url, Kind: FailureNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, &LoadError{Resource: s.url, Kind: FailureNetwork, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &LoadError{Resource: s.url, Kind: FailureNetwork, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, &LoadError{Resource: s.url, Kind: FailureNetwork, Err: err}
	}
	return body, nil
}

// FileSource reads a resource from the local filesystem.
type FileSource struct {
	Path string
}

func (s FileSource) String() string { return s.Path }

// Fetch reads the file; a missing or unreadable file counts as a network failure.
func (s FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, &LoadError{Resource: s.Path, Kind: FailureNetwork, Err: err}
	}
	defer f.Close()
	body, err := io.ReadAll(io.LimitReader(f, maxDocumentSize))
	if err != nil {
		return nil, &LoadError{Resource: s.Path, Kind: FailureNetwork, Err: err}
	}
	return body, nil
}
