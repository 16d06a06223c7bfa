package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/config"
	"github.com/goliatone/go-formflow/pkg/model"
)

// MustLoadConfig loads and validates a form configuration fixture.
func MustLoadConfig(t *testing.T, path string) *model.FormConfig {
	t.Helper()

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

// MustParseConfig parses and validates an inline configuration document.
func MustParseConfig(t *testing.T, doc string) *model.FormConfig {
	t.Helper()

	cfg, err := config.LoadBytes([]byte(doc), "inline.yaml")
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	return cfg
}

// LoadAnswers reads a JSON answers fixture without requiring testing.T.
func LoadAnswers(path string) (model.Answers, error) {
	if path == "" {
		return nil, errors.New("testsupport: answers path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read answers: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("testsupport: unmarshal answers: %w", err)
	}
	answers := make(model.Answers, len(out))
	for key, value := range out {
		answers[key] = model.NormalizeValue(value)
	}
	return answers, nil
}

// OptionServer serves payload as JSON on every request and counts hits.
type OptionServer struct {
	*httptest.Server
	hits     atomic.Int64
	requests chan *http.Request
}

// Hits returns the number of requests served.
func (s *OptionServer) Hits() int {
	return int(s.hits.Load())
}

// LastRequest returns the most recent request, or nil if none arrived.
func (s *OptionServer) LastRequest() *http.Request {
	var last *http.Request
	for {
		select {
		case req := <-s.requests:
			last = req
		default:
			return last
		}
	}
}

// NewOptionServer starts an httptest server answering with payload. The
// server is closed when the test finishes.
func NewOptionServer(t *testing.T, status int, payload any) *OptionServer {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal option payload: %v", err)
	}
	srv := &OptionServer{requests: make(chan *http.Request, 64)}
	srv.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srv.hits.Add(1)
		select {
		case srv.requests <- r.Clone(context.Background()):
		default:
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// WriteGolden writes arbitrary data to a golden file when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	WriteMaybeGolden(t, path, payload)
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
