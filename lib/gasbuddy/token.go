package gasbuddy

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"gasbuddy-client/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

// The landing page assigns the csrf token to a well-known global:
// window.gbcsrf = "<token>"
var tokenPattern = regexp.MustCompile(`window\.gbcsrf\s*=\s*"(.*?)"`)

// ensureToken returns a token usable for the next GraphQL request. The store
// is consulted once per client; the network is hit only when the previous
// request cycle marked the token stale or nothing is cached. Returns
// ErrTokenMissing when the landing page carries no recognizable token.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	if !c.storeRead {
		c.storeRead = true
		if c.store.Exists() {
			if cached := c.store.Get(); cached != "" {
				c.token = cached
			}
		} else {
			slog.DebugContext(ctx, "no token cache found")
		}
	}

	if c.state == tokenFresh || (c.state == tokenUnknown && c.token != "") {
		return c.token, nil
	}

	slog.DebugContext(ctx, "token invalid, getting a new one")
	err := c.acquireRetry.run(ctx, func() error {
		return c.fetchToken(ctx)
	})
	if err != nil {
		return "", err
	}
	return c.token, nil
}

// fetchToken performs one acquisition attempt: fetch the landing page (or
// render it through the solver), extract the token and persist it. Transport
// errors are returned so the surrounding backoff can retry them; a timeout is
// logged and swallowed, mirroring request-side timeout handling.
func (c *Client) fetchToken(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "fetchToken")
	defer span.End()

	var res *resty.Response
	var err error
	if c.solverURL != "" {
		slog.DebugContext(ctx, "rendering landing page through solver", "solver", c.solverURL)
		res, err = c.page.R().
			SetContext(ctx).
			SetHeader("content-type", "application/json").
			SetBody(map[string]any{
				"cmd":        "request.get",
				"url":        c.endpoints.Home,
				"maxTimeout": c.solverTimeout.Milliseconds(),
			}).
			Post(c.solverURL)
	} else {
		res, err = c.page.R().
			SetContext(ctx).
			Get(c.endpoints.Home)
	}
	if err != nil {
		if isTimeout(err) {
			slog.ErrorContext(ctx, "timeout while getting csrf token", "url", c.endpoints.Home)
			return nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch landing page")
		return err
	}
	if res.StatusCode() != 200 {
		slog.ErrorContext(
			ctx, "error retrieving landing page",
			"status", res.StatusCode(),
			"body", res.String(),
		)
		return nil
	}

	body := res.String()
	if c.solverURL != "" {
		var solved struct {
			Solution struct {
				Response string `json:"response"`
			} `json:"solution"`
		}
		if err := json.Unmarshal(res.Body(), &solved); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to parse solver response")
			slog.ErrorContext(ctx, "failed to parse solver response", "err", err)
			return ErrTokenMissing
		}
		body = solved.Solution.Response
	}

	token := extractToken(body)
	if token == "" {
		span.SetStatus(codes.Error, ErrTokenMissing.Error())
		slog.ErrorContext(ctx, "csrf token not found")
		return ErrTokenMissing
	}

	c.token = token
	c.state = tokenFresh
	if err := c.store.Set(token); err != nil {
		slog.WarnContext(ctx, "failed to persist csrf token", "err", err)
	}
	slog.DebugContext(ctx, "csrf token found", "token", token)
	return nil
}

// extractToken scans script tags first, then falls back to a raw scan for
// bodies that are not meaningful HTML (e.g. solver-unwrapped text).
func extractToken(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err == nil {
		for _, text := range htmlutil.ScriptContents(doc) {
			if groups := tokenPattern.FindStringSubmatch(text); len(groups) == 2 {
				return groups[1]
			}
		}
	}
	if groups := tokenPattern.FindStringSubmatch(body); len(groups) == 2 {
		return groups[1]
	}
	return ""
}
