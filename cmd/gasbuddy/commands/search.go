package commands

import (
	"os"

	"gasbuddy-client/lib/cliutil"
	"gasbuddy-client/lib/gasbuddy"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	searchCmd.Flags().Int("zip", 0, "Zip code to search around.")
	searchCmd.Flags().Float64("lat", 0, "Latitude to search around.")
	searchCmd.Flags().Float64("lon", 0, "Longitude to search around.")
	rootCmd.AddCommand(searchCmd)
}

func searchQueryFromFlags(cmd *cobra.Command) gasbuddy.SearchQuery {
	query := gasbuddy.SearchQuery{}
	if cmd.Flags().Changed("zip") {
		zip, _ := cmd.Flags().GetInt("zip")
		query.Zipcode = &zip
	}
	if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
		lat, _ := cmd.Flags().GetFloat64("lat")
		lon, _ := cmd.Flags().GetFloat64("lon")
		query.Lat = &lat
		query.Lon = &lon
	}
	return query
}

var searchCmd = &cobra.Command{
	Use:   "search [--zip <code> | --lat <deg> --lon <deg>]",
	Short: "Lists stations near a zip code or coordinate pair.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		client := newClient(cfg, 0)

		raw, err := client.LocationSearch(cmd.Context(), searchQueryFromFlags(cmd))
		if err != nil {
			cliutil.Fatal("search failed", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Name", "Address"})

		data, _ := raw["data"].(map[string]any)
		location, _ := data["locationBySearchTerm"].(map[string]any)
		stations, _ := location["stations"].(map[string]any)
		results, _ := stations["results"].([]any)
		for _, entry := range results {
			station, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			address, _ := station["address"].(map[string]any)
			t.AppendRow(table.Row{
				station["id"],
				station["name"],
				address["line1"],
			})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
