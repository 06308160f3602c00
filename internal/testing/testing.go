// package testing contains shared testing utilities
package testing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/vibecast/internal/models"
	"github.com/desertthunder/vibecast/internal/services"
	"github.com/desertthunder/vibecast/internal/shared"
)

// MockCatalog is a test double for [services.Catalog].
//
// Each field is returned as-is by the matching method; Calls counts invocations by method name.
type MockCatalog struct {
	Tracks      []models.Track
	TracksErr   error
	Features    []models.AudioFeatureSet
	FeaturesErr error
	Hit         *services.SearchHit
	SearchErr   error
	Playlists   json.RawMessage

	mu     sync.Mutex
	calls  map[string]int
	Tokens []string
}

func (m *MockCatalog) record(method, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[method]++
	m.Tokens = append(m.Tokens, token)
}

// Calls returns how many times method was invoked.
func (m *MockCatalog) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockCatalog) FetchAllTracks(ctx context.Context, playlistID, token string) ([]models.Track, error) {
	m.record("FetchAllTracks", token)
	if m.TracksErr != nil {
		return nil, m.TracksErr
	}
	return m.Tracks, nil
}

func (m *MockCatalog) FetchAudioFeatures(ctx context.Context, trackIDs []string, token string) ([]models.AudioFeatureSet, error) {
	m.record("FetchAudioFeatures", token)
	if m.FeaturesErr != nil {
		return nil, m.FeaturesErr
	}
	return m.Features, nil
}

func (m *MockCatalog) SearchTrack(ctx context.Context, name, artist, token string) (*services.SearchHit, error) {
	m.record("SearchTrack", token)
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	if m.Hit == nil {
		return nil, shared.ErrTrackNotFound
	}
	return m.Hit, nil
}

func (m *MockCatalog) UserPlaylists(ctx context.Context, token string) (json.RawMessage, error) {
	m.record("UserPlaylists", token)
	if m.TracksErr != nil {
		return nil, m.TracksErr
	}
	return m.Playlists, nil
}

func (m *MockCatalog) Name() string { return "mock" }

// MockGenerator is a test double for [services.TextGenerator] returning a canned reply.
type MockGenerator struct {
	Reply   string
	Err     error
	Prompts []string
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string, schema *services.Schema) ([]byte, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return nil, m.Err
	}
	return []byte(m.Reply), nil
}

func (m *MockGenerator) Name() string { return "mock" }

// Features builds n identical feature sets with sequential ids.
func Features(n int, f models.AudioFeatureSet) []models.AudioFeatureSet {
	out := make([]models.AudioFeatureSet, n)
	for i := range out {
		out[i] = f
		out[i].ID = "t" + string(rune('a'+i%26))
	}
	return out
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
