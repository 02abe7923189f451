package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"mondesavoir/service"
)

type createUserRequest struct {
	Username string `json:"username"`
}

type scoreRequest struct {
	Delta    json.RawMessage `json:"delta"`
	Category string          `json:"category"`
}

type quizRequest struct {
	UserID  json.Number `json:"userId"`
	Country string      `json:"country"`
	Answer  string      `json:"answer"`
}

// decodeJSON reads a single JSON object from the request body
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return service.NewValidationError("request body too large")
		}
		return service.NewValidationError("invalid JSON body")
	}
	return nil
}

// parseDelta accepts only integral JSON numbers. Strings, fractions and
// exponents are rejected.
func parseDelta(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, service.NewValidationError("delta is required and must be an integer")
	}
	delta, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, service.NewValidationError("delta is required and must be an integer")
	}
	return delta, nil
}

// parseUserID accepts a positive integer; a missing id is reported as zero
func parseUserID(n json.Number) (int64, error) {
	if n == "" {
		return 0, nil
	}
	id, err := n.Int64()
	if err != nil {
		return 0, service.NewValidationError("userId must be an integer")
	}
	return id, nil
}

// parsePathID parses the {id} URL segment
func parsePathID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, service.NewValidationError("invalid user id %q", s)
	}
	return id, nil
}
