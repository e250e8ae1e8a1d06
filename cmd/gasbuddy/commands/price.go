package commands

import (
	"errors"
	"fmt"
	"os"

	"gasbuddy-client/lib/cliutil"
	"gasbuddy-client/lib/gasbuddy"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	priceStation *int
	priceLimit   *int
)

func init() {
	priceStation = priceCmd.Flags().Int("station", 0, "Numeric station id to look up.")
	priceLimit = priceCmd.Flags().Int("limit", 5, "Maximum stations to report for an area lookup.")
	priceCmd.Flags().Int("zip", 0, "Zip code to look up prices around.")
	priceCmd.Flags().Float64("lat", 0, "Latitude to look up prices around.")
	priceCmd.Flags().Float64("lon", 0, "Longitude to look up prices around.")
	rootCmd.AddCommand(priceCmd)
}

var priceCmd = &cobra.Command{
	Use:   "price [--station <id> | --zip <code> | --lat <deg> --lon <deg>]",
	Short: "Reports fuel prices for a single station or an area.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()

		if cmd.Flags().Changed("station") {
			stationPrices(cmd, cfg, *priceStation)
			return
		}
		if !cmd.Flags().Changed("zip") && !cmd.Flags().Changed("lat") && cfg.StationID != 0 {
			stationPrices(cmd, cfg, cfg.StationID)
			return
		}
		areaPrices(cmd, cfg)
	},
}

func stationPrices(cmd *cobra.Command, cfg Config, stationID int) {
	client := newClient(cfg, stationID)

	result, err := client.PriceLookup(cmd.Context())
	if err != nil {
		cliutil.Fatal("price lookup failed", err)
	}

	renderStations([]gasbuddy.StationPriceResult{*result})
}

func areaPrices(cmd *cobra.Command, cfg Config) {
	client := newClient(cfg, 0)

	result, err := client.PriceLookupByArea(cmd.Context(), searchQueryFromFlags(cmd), *priceLimit)
	if errors.Is(err, gasbuddy.ErrMissingSearchData) {
		cliutil.Fatal("missing search area", err)
	}
	if err != nil {
		cliutil.Fatal("price lookup failed", err)
	}

	renderStations(result.Results)

	if len(result.Trend) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Area", "Average", "Lowest"})
	for _, trend := range result.Trend {
		t.AppendRow(table.Row{trend.Area, trend.AveragePrice, trend.LowestPrice})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func renderStations(stations []gasbuddy.StationPriceResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Station", "Fuel", "Price", "Cash", "Posted By", "Updated"})

	for _, station := range stations {
		for fuel, record := range station.Prices {
			t.AppendRow(table.Row{
				station.StationID,
				fuel,
				formatPrice(record.Price, station.Currency),
				formatCash(record),
				deref(record.Credit),
				deref(record.LastUpdated),
			})
		}
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}

func formatPrice(price *float64, currency string) string {
	if price == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f %s", *price, currency)
}

func formatCash(record gasbuddy.PriceRecord) string {
	if !record.HasCash || record.CashPrice == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *record.CashPrice)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
