package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/desertthunder/vibecast/internal/shared"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// publicMessages are the only error texts sent to clients. Details stay in the server log.
var publicMessages = map[string]string{
	"state_mismatch":        "authorization state mismatch",
	"token_exchange_failed": "token exchange failed",
	"upstream_fetch_failed": "music provider request failed",
	"malformed_ai_response": "generative service returned an unusable reply",
	"generator_failed":      "generative service request failed",
	"aggregation_failed":    "playlist could not be analyzed",
	"not_authenticated":     "missing or invalid bearer token",
}

func publicMessage(kind string) string {
	if msg, ok := publicMessages[kind]; ok {
		return msg
	}
	return "internal error"
}

// writeError answers with the most specific status known for err and a generic message for its kind.
func writeError(w http.ResponseWriter, err error) {
	kind := shared.Kind(err)
	writeJSON(w, shared.HTTPStatus(err), errorBody{Error: publicMessage(kind), Kind: kind})
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", shared.ErrNotAuthenticated
	}
	return strings.TrimSpace(token), nil
}
