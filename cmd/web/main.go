package main

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/aapslab/report-atlas/pkg/runtime/app"
	"github.com/aapslab/report-atlas/pkg/server"
	"github.com/aapslab/report-atlas/pkg/services/config"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for the report workbench",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to a settings file (environment variables prefixed with "+config.EnvPrefix+"_ override it)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		logger.Debug().Err(err).Msg("no .env file loaded")
	}

	ctx := logger.WithContext(cmd.Context())

	settings, err := config.LoadSettings(cfgPath)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, settings)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close dataset cache")
		}
	}()

	states, err := a.Sheets.SyncStates(ctx)
	if err != nil {
		return fmt.Errorf("failed to read cache state: %w", err)
	}
	if len(states) == 0 {
		logger.Warn().Msg("dataset cache is empty, run the CLI fetch command first")
	}
	for _, s := range states {
		logger.Info().
			Str("workbook", s.Workbook).
			Str("sheet", s.Sheet).
			Int("rows", s.RowCount).
			Time("fetched_at", s.FetchedAt).
			Msg("cached sheet")
	}

	addr := net.JoinHostPort(settings.Server.Host, strconv.Itoa(settings.Server.Port))
	web := server.NewWebAPI(server.Config{
		Addr: addr,
		Dependencies: server.Dependencies{
			Reports:  a.Reports,
			Profiles: a.Profiles,
			Logger:   logger,
		},
	})
	return web.Start()
}
