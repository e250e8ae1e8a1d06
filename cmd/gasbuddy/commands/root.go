package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gasbuddy-client/lib/cliutil"
	"gasbuddy-client/lib/configutil"
	"gasbuddy-client/lib/gasbuddy"
	"gasbuddy-client/lib/restyutil"
	"gasbuddy-client/lib/telemetry"

	"github.com/spf13/cobra"
)

type Config struct {
	SolverURL string `json:"solver_url"`
	CacheFile string `json:"cache_file"`
	StationID int    `json:"station_id"`
}

var (
	debug     *bool
	solverURL *string
	cacheFile *string
)

func init() {
	debug = rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging and request dumps.")
	solverURL = rootCmd.PersistentFlags().String("solver", "", "URL of an external challenge solver endpoint.")
	cacheFile = rootCmd.PersistentFlags().String("cache-file", "", "Path to the token cache file.")
}

var rootCmd = &cobra.Command{
	Use:   "gasbuddy",
	Short: "gasbuddy is a CLI for looking up fuel prices from GasBuddy.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*debug)
		if *debug {
			gasbuddy.SetRestyInstrumentOutput(restyutil.NewFilesystemOutput(".dev/resty/gasbuddy"))
		}
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func readConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("gasbuddy.json5")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		cliutil.Fatal("failed to read config", err)
	}
	if *solverURL != "" {
		cfg.SolverURL = *solverURL
	}
	if *cacheFile != "" {
		cfg.CacheFile = *cacheFile
	}
	return cfg
}

func newClient(cfg Config, stationID int) *gasbuddy.Client {
	client, err := gasbuddy.NewClient(gasbuddy.ClientOptions{
		StationID: stationID,
		SolverURL: cfg.SolverURL,
		CacheFile: cfg.CacheFile,
	})
	if err != nil {
		cliutil.Fatal("failed to initialize client", err)
	}
	return client
}
