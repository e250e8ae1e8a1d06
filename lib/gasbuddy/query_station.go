package gasbuddy

import (
	"context"
	"log/slog"
)

// PriceLookup returns the normalized price data of the configured station.
func (c *Client) PriceLookup(ctx context.Context) (*StationPriceResult, error) {
	ctx, span := tracer.Start(ctx, "PriceLookup")
	defer span.End()

	message := c.processRequest(ctx, Query{
		OperationName: "GetStation",
		Query:         gasPriceQuery,
		Variables:     map[string]any{"id": c.stationIDVariable()},
	})
	slog.DebugContext(ctx, "price lookup response", "response", message)

	if err := classifyResponse(message); err != nil {
		return nil, err
	}
	return normalizeStation(message)
}
