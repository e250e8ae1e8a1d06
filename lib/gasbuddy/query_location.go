package gasbuddy

import (
	"context"
	"log/slog"
	"strconv"
)

// SearchQuery locates stations either by a coordinate pair or by a zip code.
// The coordinate pair wins when both are provided.
type SearchQuery struct {
	Lat     *float64
	Lon     *float64
	Zipcode *int
}

func (q SearchQuery) variables() (map[string]any, error) {
	switch {
	case q.Lat != nil && q.Lon != nil:
		return map[string]any{"maxAge": 0, "lat": *q.Lat, "lng": *q.Lon}, nil
	case q.Zipcode != nil:
		return map[string]any{"maxAge": 0, "search": strconv.Itoa(*q.Zipcode)}, nil
	}
	return nil, ErrMissingSearchData
}

// LocationSearch returns the raw payload of a station search, error-shaped
// results included; callers wanting normalized prices use PriceLookupByArea.
func (c *Client) LocationSearch(ctx context.Context, search SearchQuery) (map[string]any, error) {
	ctx, span := tracer.Start(ctx, "LocationSearch")
	defer span.End()

	variables, err := search.variables()
	if err != nil {
		slog.ErrorContext(ctx, "missing search data")
		return nil, err
	}

	return c.processRequest(ctx, Query{
		OperationName: "LocationBySearchTerm",
		Query:         locationQuery,
		Variables:     variables,
	}), nil
}

// PriceLookupByArea returns normalized price data for up to limit stations
// around the searched location, along with area price trends.
func (c *Client) PriceLookupByArea(ctx context.Context, search SearchQuery, limit int) (*AreaPriceResult, error) {
	ctx, span := tracer.Start(ctx, "PriceLookupByArea")
	defer span.End()

	// unlike LocationSearch, an unconstrained search is allowed here
	variables, err := search.variables()
	if err != nil {
		variables = map[string]any{}
	}

	message := c.processRequest(ctx, Query{
		OperationName: "LocationBySearchTerm",
		Query:         locationPricesQuery,
		Variables:     variables,
	})
	slog.DebugContext(ctx, "area price lookup response", "response", message)

	if err := classifyResponse(message); err != nil {
		return nil, err
	}

	results, err := normalizeSearchResults(message, limit)
	if err != nil {
		return nil, err
	}
	trend, err := normalizeTrends(message)
	if err != nil {
		return nil, err
	}
	return &AreaPriceResult{Results: results, Trend: trend}, nil
}
