package gasbuddy

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrMissingSearchData is returned when a search is requested with neither
// a lat/lon pair nor a zip code. It never reaches the network.
var ErrMissingSearchData = errors.New("a lat/lon pair or a zip code is required")

// ErrTokenMissing signals that the landing page no longer contains a
// recognizable csrf token. It is consumed by the request pipeline, which
// converts it into a "Missing Token" error result; callers never see it.
var ErrTokenMissing = errors.New("csrf token not found on landing page")

// errChallenge drives re-acquisition retries after an anti-bot 403.
var errChallenge = errors.New("anti-bot challenge response")

// LibraryError reports a transport or HTTP level failure: a non-200 status,
// a non-JSON body, a timeout, or a malformed success payload.
type LibraryError struct {
	Detail string
}

func (e *LibraryError) Error() string {
	return fmt.Sprintf("gasbuddy: request failed: %s", e.Detail)
}

// APIError reports a GraphQL-level "errors" value inside an otherwise
// well-formed 200 response.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gasbuddy: api error: %s", e.Message)
}

// classifyResponse inspects a decoded result once, at the boundary, and
// produces the typed error callers see. A nil return means the payload is a
// success and safe to normalize.
func classifyResponse(message map[string]any) error {
	if detail, ok := message["error"]; ok {
		slog.Error("an error occurred attempting to retrieve the data", "err", detail)
		return &LibraryError{Detail: fmt.Sprint(detail)}
	}
	if raw, ok := message["errors"]; ok {
		msg := graphqlErrorMessage(raw)
		slog.Error("an error occurred attempting to retrieve the data", "err", msg)
		return &APIError{Message: msg}
	}
	return nil
}

// graphqlErrorMessage digs a human-readable message out of the upstream
// "errors" value, which is sometimes an object and sometimes a list.
func graphqlErrorMessage(raw any) string {
	switch errs := raw.(type) {
	case map[string]any:
		if msg, ok := errs["message"].(string); ok {
			return msg
		}
	case []any:
		if len(errs) > 0 {
			if first, ok := errs[0].(map[string]any); ok {
				if msg, ok := first["message"].(string); ok {
					return msg
				}
			}
		}
	}
	return "Server side error occured."
}
