package gasbuddy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Query is an immutable GraphQL request: a fixed document plus variables.
type Query struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
}

const (
	errMissingToken = "Missing Token"
	errTimeout      = "Timeout while updating"
)

// processRequest executes a query and folds every transport or HTTP level
// outcome into an error-shaped result map; it never fails with a Go error.
// A missing token skips the network call entirely.
func (c *Client) processRequest(ctx context.Context, query Query) map[string]any {
	ctx, span := tracer.Start(ctx, fmt.Sprintf("graphql:%s", query.OperationName))
	defer span.End()
	span.SetAttributes(attribute.KeyValue{
		Key:   "operation",
		Value: attribute.StringValue(query.OperationName),
	})

	if _, err := c.ensureToken(ctx); err != nil {
		span.SetStatus(codes.Error, "missing csrf token")
		slog.ErrorContext(ctx, "skipping request due to missing token")
		return map[string]any{"error": errMissingToken}
	}

	var message map[string]any
	err := c.requestRetry.run(ctx, func() error {
		token, err := c.ensureToken(ctx)
		if err != nil {
			return err
		}
		message, err = c.post(ctx, query, token)
		return err
	})
	switch {
	case err == nil:
		return message
	case errors.Is(err, errChallenge):
		// retries exhausted on anti-bot challenges, surface the last result
		span.SetStatus(codes.Error, "anti-bot challenge not cleared")
		return message
	case errors.Is(err, ErrTokenMissing):
		span.SetStatus(codes.Error, "missing csrf token")
		slog.ErrorContext(ctx, "skipping request due to missing token")
		return map[string]any{"error": errMissingToken}
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		slog.ErrorContext(ctx, "request failed", "url", c.endpoints.GraphQL, "err", err)
		return map[string]any{"error": err.Error()}
	}
}

// post performs a single POST attempt. It returns a non-nil error only for
// conditions the retry policy may act on: transport failures and anti-bot
// challenges. Everything else, timeouts included, becomes a result value.
func (c *Client) post(ctx context.Context, query Query, token string) (map[string]any, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return map[string]any{"error": err.Error()}, nil
	}
	slog.DebugContext(ctx, "graphql query", "url", c.endpoints.GraphQL, "body", string(body))

	res, err := c.graphql.R().
		SetContext(ctx).
		SetHeader("gbcsrf", token).
		SetBody(body).
		Post(c.endpoints.GraphQL)
	if err != nil {
		if isTimeout(err) {
			slog.ErrorContext(ctx, errTimeout, "url", c.endpoints.GraphQL)
			return map[string]any{"error": errTimeout}, nil
		}
		return nil, err
	}

	text := res.String()
	var message map[string]any
	if jsonErr := json.Unmarshal(res.Body(), &message); jsonErr != nil || message == nil {
		slog.WarnContext(ctx, "non-JSON response", "body", text)
		message = map[string]any{"error": text}
		c.state = tokenStale
	} else {
		c.state = tokenFresh
	}

	switch {
	case res.StatusCode() == 403:
		slog.WarnContext(
			ctx, "anti-bot challenge received, marking token stale",
			"url", c.endpoints.GraphQL,
			"status", res.StatusCode(),
		)
		c.state = tokenStale
		if _, ok := message["error"]; !ok {
			message = map[string]any{"error": message}
		}
		return message, errChallenge
	case res.StatusCode() != 200:
		slog.ErrorContext(
			ctx, "error retrieving data from the server",
			"status", res.StatusCode(),
			"message", text,
		)
		c.state = tokenStale
		if _, ok := message["error"]; !ok {
			message = map[string]any{"error": message}
		}
		return message, nil
	}
	return message, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isTransient reports whether an error is worth retrying: transport failures
// and anti-bot challenges. HTTP error statuses never reach here, they are
// folded into result values.
func isTransient(err error) bool {
	if errors.Is(err, errChallenge) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
