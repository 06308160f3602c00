package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/vibecast/internal/analysis"
	"github.com/desertthunder/vibecast/internal/models"
	"github.com/desertthunder/vibecast/internal/services"
	"github.com/desertthunder/vibecast/internal/shared"
	"github.com/desertthunder/vibecast/internal/tasks"
	tu "github.com/desertthunder/vibecast/internal/testing"
)

const uiOrigin = "http://127.0.0.1:3000"

type fakeFlow struct {
	state     string
	exchanges int
	creds     *services.Credentials
	err       error
}

func (f *fakeFlow) InitiateLogin() (string, string, error) {
	return f.state, "https://accounts.example/authorize?state=" + f.state, nil
}

func (f *fakeFlow) CompleteLogin(ctx context.Context, code, state, stored string) (*services.Credentials, error) {
	if err := services.ValidateState(state, stored); err != nil {
		return nil, err
	}
	f.exchanges++
	if f.err != nil {
		return nil, f.err
	}
	return f.creds, nil
}

func newTestRouter(flow LoginFlow, catalog *tu.MockCatalog, agg analysis.Aggregator) *BasicRouter {
	return NewRouter(Deps{
		Login:     flow,
		Playlists: catalog,
		Analyzer:  tasks.NewAnalysisEngine(catalog, agg),
		UIOrigin:  uiOrigin,
	})
}

func fragment(t *testing.T, location string) url.Values {
	t.Helper()
	if !strings.HasPrefix(location, uiOrigin+"/#") {
		t.Fatalf("expected redirect to ui origin fragment, got %q", location)
	}
	values, err := url.ParseQuery(strings.TrimPrefix(location, uiOrigin+"/#"))
	if err != nil {
		t.Fatalf("invalid fragment: %v", err)
	}
	return values
}

func TestAuthHandler(t *testing.T) {
	t.Run("Login Sets State Cookie", func(t *testing.T) {
		router := newTestRouter(&fakeFlow{state: "s1"}, &tu.MockCatalog{}, analysis.NewNumeric())

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/login", nil))

		if rec.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", rec.Code)
		}
		if !strings.Contains(rec.Header().Get("Location"), "state=s1") {
			t.Errorf("expected provider redirect, got %q", rec.Header().Get("Location"))
		}

		cookies := rec.Result().Cookies()
		if len(cookies) != 1 {
			t.Fatalf("expected exactly one cookie, got %d", len(cookies))
		}
		c := cookies[0]
		if c.Name != StateCookie || c.Value != "s1" || !c.HttpOnly || c.MaxAge != 600 {
			t.Errorf("unexpected cookie %+v", c)
		}
	})

	t.Run("Callback Success", func(t *testing.T) {
		flow := &fakeFlow{creds: &services.Credentials{AccessToken: "AT", RefreshToken: "RT", ExpiresIn: 3600}}
		router := newTestRouter(flow, &tu.MockCatalog{}, analysis.NewNumeric())

		req := httptest.NewRequest(http.MethodGet, "/api/auth/callback?code=c&state=s1", nil)
		req.AddCookie(&http.Cookie{Name: StateCookie, Value: "s1"})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", rec.Code)
		}
		values := fragment(t, rec.Header().Get("Location"))
		if values.Get("access_token") != "AT" || values.Get("refresh_token") != "RT" || values.Get("expires_in") != "3600" {
			t.Errorf("unexpected fragment %v", values)
		}

		cleared := false
		for _, c := range rec.Result().Cookies() {
			if c.Name == StateCookie && c.MaxAge < 0 {
				cleared = true
			}
		}
		if !cleared {
			t.Errorf("expected state cookie cleared")
		}
	})

	t.Run("Callback State Mismatch", func(t *testing.T) {
		tests := []struct {
			name   string
			query  string
			cookie string
		}{
			{"Different", "code=c&state=s1", "s2"},
			{"No Cookie", "code=c&state=s1", ""},
			{"No State", "code=c", "s1"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				flow := &fakeFlow{creds: &services.Credentials{AccessToken: "AT"}}
				router := newTestRouter(flow, &tu.MockCatalog{}, analysis.NewNumeric())

				req := httptest.NewRequest(http.MethodGet, "/api/auth/callback?"+tt.query, nil)
				if tt.cookie != "" {
					req.AddCookie(&http.Cookie{Name: StateCookie, Value: tt.cookie})
				}
				rec := httptest.NewRecorder()
				router.ServeHTTP(rec, req)

				values := fragment(t, rec.Header().Get("Location"))
				if values.Get("error") != "state_mismatch" {
					t.Errorf("expected state_mismatch, got %v", values)
				}
				if values.Get("access_token") != "" {
					t.Errorf("expected no token in fragment")
				}
				if flow.exchanges != 0 {
					t.Errorf("expected no exchange, got %d", flow.exchanges)
				}
				if len(rec.Result().Cookies()) != 0 {
					t.Errorf("expected no cookie changes on mismatch")
				}
			})
		}
	})

	t.Run("Callback Exchange Failure", func(t *testing.T) {
		flow := &fakeFlow{err: shared.ErrTokenExchangeFailed}
		router := newTestRouter(flow, &tu.MockCatalog{}, analysis.NewNumeric())

		req := httptest.NewRequest(http.MethodGet, "/api/auth/callback?code=bad&state=s1", nil)
		req.AddCookie(&http.Cookie{Name: StateCookie, Value: "s1"})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if values := fragment(t, rec.Header().Get("Location")); values.Get("error") != "invalid_token" {
			t.Errorf("expected invalid_token, got %v", values)
		}
	})

	t.Run("Full Exchange Against Token Endpoint", func(t *testing.T) {
		accounts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, pass, ok := r.BasicAuth(); !ok || user != "id" || pass != "secret" {
				t.Errorf("expected basic auth credentials")
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"AT","refresh_token":"RT","token_type":"Bearer","expires_in":3600}`)
		}))
		defer accounts.Close()

		auth, err := services.NewAuthenticator(services.AuthOpts{
			ClientID: "id", ClientSecret: "secret", AccountsURL: accounts.URL, HTTPClient: accounts.Client(),
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		router := newTestRouter(auth, &tu.MockCatalog{}, analysis.NewNumeric())

		login := httptest.NewRecorder()
		router.ServeHTTP(login, httptest.NewRequest(http.MethodGet, "/api/auth/login", nil))
		cookie := login.Result().Cookies()[0]

		req := httptest.NewRequest(http.MethodGet, "/api/auth/callback?code=c&state="+url.QueryEscape(cookie.Value), nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if values := fragment(t, rec.Header().Get("Location")); values.Get("access_token") != "AT" {
			t.Errorf("expected access token in fragment, got %v", values)
		}
	})
}

func TestAPIHandler(t *testing.T) {
	tracks := []models.Track{{ID: "a", Name: "A", Artists: []string{"X"}}}
	features := []models.AudioFeatureSet{{ID: "a", Danceability: 0.8, Energy: 0.9, Valence: 0.9, Tempo: 150, Acousticness: 0.1}}

	decodeError := func(t *testing.T, body io.Reader) errorBody {
		t.Helper()
		var eb errorBody
		if err := json.NewDecoder(body).Decode(&eb); err != nil {
			t.Fatalf("expected json error body: %v", err)
		}
		return eb
	}

	t.Run("Missing Bearer", func(t *testing.T) {
		for _, path := range []string{"/api/playlists", "/api/playlist/pl1"} {
			catalog := &tu.MockCatalog{Tracks: tracks, Features: features}
			router := newTestRouter(&fakeFlow{}, catalog, analysis.NewNumeric())

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("%s: expected 401, got %d", path, rec.Code)
			}
			if eb := decodeError(t, rec.Body); eb.Kind != "not_authenticated" {
				t.Errorf("%s: unexpected kind %q", path, eb.Kind)
			}
			if catalog.Calls("FetchAllTracks")+catalog.Calls("UserPlaylists") != 0 {
				t.Errorf("%s: expected no upstream calls", path)
			}
		}
	})

	t.Run("Playlists Passthrough", func(t *testing.T) {
		catalog := &tu.MockCatalog{Playlists: json.RawMessage(`{"items":[{"id":"p1"}]}`)}
		router := newTestRouter(&fakeFlow{}, catalog, analysis.NewNumeric())

		req := httptest.NewRequest(http.MethodGet, "/api/playlists", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK || rec.Body.String() != `{"items":[{"id":"p1"}]}` {
			t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
		}
		if catalog.Tokens[0] != "tok" {
			t.Errorf("expected caller token forwarded")
		}
	})

	t.Run("Analyze Numeric", func(t *testing.T) {
		catalog := &tu.MockCatalog{Tracks: tracks, Features: features}
		router := newTestRouter(&fakeFlow{}, catalog, analysis.NewNumeric())

		req := httptest.NewRequest(http.MethodGet, "/api/playlist/pl1", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var body map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["primaryMood"] != analysis.MoodEuphoric || body["strategy"] != "numeric" {
			t.Errorf("unexpected profile %v", body)
		}
		if _, ok := body["averages"]; !ok {
			t.Errorf("expected averages block")
		}
		if _, ok := body["recommendedSong"]; ok {
			t.Errorf("expected no recommendation from numeric strategy")
		}
		if rec.Header().Get(RequestIDHeader) == "" {
			t.Errorf("expected request id header")
		}
	})

	t.Run("Upstream Status Propagates", func(t *testing.T) {
		catalog := &tu.MockCatalog{TracksErr: &shared.UpstreamError{Op: "playlist tracks", StatusCode: http.StatusNotFound}}
		router := newTestRouter(&fakeFlow{}, catalog, analysis.NewNumeric())

		req := httptest.NewRequest(http.MethodGet, "/api/playlist/missing", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
		if eb := decodeError(t, rec.Body); eb.Kind != "upstream_fetch_failed" {
			t.Errorf("unexpected kind %q", eb.Kind)
		}
	})

	t.Run("Unreachable Upstream", func(t *testing.T) {
		upstream := httptest.NewServer(http.NotFoundHandler())
		baseURL := upstream.URL + "/v1"
		upstream.Close()

		catalog, err := services.NewSpotifyClient(services.SpotifyOpts{BaseURL: baseURL})
		if err != nil {
			t.Fatalf("client: %v", err)
		}
		handler := NewAPIHandler(catalog, tasks.NewAnalysisEngine(catalog, analysis.NewNumeric()), nil)

		for _, path := range []string{"/api/playlist/x", "/api/playlists"} {
			mux := http.NewServeMux()
			for _, route := range handler.Routes() {
				mux.Handle(route, handler)
			}
			req := httptest.NewRequest(http.MethodGet, path, nil)
			req.Header.Set("Authorization", "Bearer tok")
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != http.StatusInternalServerError {
				t.Errorf("%s: expected 500, got %d", path, rec.Code)
			}
			body := rec.Body.String()
			if strings.Contains(body, "127.0.0.1") || strings.Contains(body, "dial") || strings.Contains(body, "tok") {
				t.Errorf("%s: error body leaks request details: %s", path, body)
			}
			eb := decodeError(t, strings.NewReader(body))
			if eb.Kind != "upstream_fetch_failed" || eb.Error != "music provider request failed" {
				t.Errorf("%s: unexpected error body %+v", path, eb)
			}
		}
	})

	t.Run("Misconfigured Generative Strategy", func(t *testing.T) {
		catalog := &tu.MockCatalog{Tracks: tracks}
		router := newTestRouter(&fakeFlow{}, catalog, analysis.NewGenerative(nil, nil))

		req := httptest.NewRequest(http.MethodGet, "/api/playlist/pl1", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if eb := decodeError(t, rec.Body); eb.Kind != "aggregation_failed" {
			t.Errorf("unexpected kind %q", eb.Kind)
		}
	})

	t.Run("Malformed Generative Reply", func(t *testing.T) {
		catalog := &tu.MockCatalog{Tracks: tracks}
		gen := &tu.MockGenerator{Reply: `{"tags":["a"]}`}
		router := newTestRouter(&fakeFlow{}, catalog, analysis.NewGenerative(gen, nil))

		req := httptest.NewRequest(http.MethodGet, "/api/playlist/pl1", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if eb := decodeError(t, rec.Body); eb.Kind != "malformed_ai_response" {
			t.Errorf("unexpected kind %q", eb.Kind)
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("Health", func(t *testing.T) {
		router := newTestRouter(&fakeFlow{}, &tu.MockCatalog{}, analysis.NewNumeric())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
			t.Errorf("unexpected health response %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("Method Not Allowed", func(t *testing.T) {
		router := newTestRouter(&fakeFlow{}, &tu.MockCatalog{}, analysis.NewNumeric())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/playlists", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("CORS Preflight", func(t *testing.T) {
		router := newTestRouter(&fakeFlow{}, &tu.MockCatalog{}, analysis.NewNumeric())
		req := httptest.NewRequest(http.MethodOptions, "/api/playlists", nil)
		req.Header.Set("Origin", uiOrigin)
		req.Header.Set("Access-Control-Request-Method", "GET")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != uiOrigin {
			t.Errorf("expected allow origin header")
		}
		if !strings.Contains(rec.Header().Get("Access-Control-Allow-Headers"), "Authorization") {
			t.Errorf("expected authorization header allowed")
		}
	})

	t.Run("CORS Foreign Origin", func(t *testing.T) {
		router := newTestRouter(&fakeFlow{}, &tu.MockCatalog{}, analysis.NewNumeric())
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Errorf("expected no CORS headers for foreign origin")
		}
	})

	t.Run("Recover", func(t *testing.T) {
		h := RecoverMiddleware(shared.DiscardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})

	t.Run("Bearer Parsing", func(t *testing.T) {
		tests := []struct {
			header string
			token  string
			ok     bool
		}{
			{"Bearer abc", "abc", true},
			{"bearer abc", "abc", true},
			{"Bearer ", "", false},
			{"Basic abc", "", false},
			{"", "", false},
		}
		for _, tt := range tests {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			token, err := bearerToken(req)
			if tt.ok && (err != nil || token != tt.token) {
				t.Errorf("%q: expected %q, got %q (%v)", tt.header, tt.token, token, err)
			}
			if !tt.ok && !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("%q: expected ErrNotAuthenticated, got %v", tt.header, err)
			}
		}
	})
}

func TestOAuthHandler(t *testing.T) {
	t.Run("Delivers Credentials Once", func(t *testing.T) {
		flow := &fakeFlow{creds: &services.Credentials{AccessToken: "AT"}}
		h := NewOAuthHandler(flow, "s1", "/api/auth/callback")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/callback?code=c&state=s1", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		result := <-h.Result()
		if result.Error() != nil || result.Credentials.AccessToken != "AT" {
			t.Errorf("unexpected result %+v", result)
		}

		again := httptest.NewRecorder()
		h.ServeHTTP(again, httptest.NewRequest(http.MethodGet, "/api/auth/callback?code=c&state=s1", nil))
		if again.Code != http.StatusBadRequest {
			t.Errorf("expected replay rejected, got %d", again.Code)
		}
	})

	t.Run("State Mismatch", func(t *testing.T) {
		flow := &fakeFlow{creds: &services.Credentials{AccessToken: "AT"}}
		h := NewOAuthHandler(flow, "s1", "/cb")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cb?code=c&state=forged", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if result := <-h.Result(); !errors.Is(result.Error(), shared.ErrStateMismatch) {
			t.Errorf("expected ErrStateMismatch, got %v", result.Error())
		}
		if flow.exchanges != 0 {
			t.Errorf("expected no exchange")
		}
	})
}

func TestHandlerDefaults(t *testing.T) {
	t.Run("Nil Logger", func(t *testing.T) {
		auth := NewAuthHandler(&fakeFlow{state: "s"}, uiOrigin, nil)
		rec := httptest.NewRecorder()
		auth.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/login", nil))
		if rec.Code != http.StatusFound {
			t.Errorf("expected 302, got %d", rec.Code)
		}

		api := NewAPIHandler(&tu.MockCatalog{}, nil, nil)
		rec = httptest.NewRecorder()
		api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/playlists", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("Public Messages", func(t *testing.T) {
		tests := []struct {
			err  error
			want string
		}{
			{&shared.UpstreamError{Op: "search", Err: errors.New("dial tcp 10.0.0.1:443")}, "music provider request failed"},
			{fmt.Errorf("%w: secret detail", shared.ErrMalformedAIResponse), "generative service returned an unusable reply"},
			{errors.New("boom at /internal/path"), "internal error"},
		}
		for _, tt := range tests {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)

			var eb errorBody
			if err := json.NewDecoder(rec.Body).Decode(&eb); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if eb.Error != tt.want {
				t.Errorf("%v: expected %q, got %q", tt.err, tt.want, eb.Error)
			}
		}
	})
}

func TestRouter(t *testing.T) {
	t.Run("Lists Patterns", func(t *testing.T) {
		router := newTestRouter(&fakeFlow{}, &tu.MockCatalog{}, analysis.NewNumeric())
		want := []string{
			"GET /health",
			"GET /api/auth/login",
			"GET /api/auth/callback",
			"GET /api/playlists",
			"GET /api/playlist/{id}",
			"OPTIONS /api/",
		}
		if got := router.Patterns(); !slices.Equal(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("outer"), mark("inner"))
		router.Handle(http.MethodGet, "/x", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
		if want := []string{"outer", "inner", "handler"}; !slices.Equal(order, want) {
			t.Errorf("expected %v, got %v", want, order)
		}
	})
}

func TestServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	router := newTestRouter(&fakeFlow{}, &tu.MockCatalog{}, analysis.NewNumeric())
	srv := New(ln.Addr().String(), router, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
