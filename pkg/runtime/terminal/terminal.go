package terminal

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/aapslab/report-atlas/pkg/runtime/app"
	"github.com/aapslab/report-atlas/pkg/runtime/terminal/export"
	"github.com/aapslab/report-atlas/pkg/services/config"
	"github.com/aapslab/report-atlas/pkg/terminal/commands"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	reporter *export.Reporter
	rootCmd  *cobra.Command
	logger   zerolog.Logger

	cfgPath  string
	verbose  bool
	settings func(path string) (*config.Settings, error)

	once sync.Once
	app  *app.App
	err  error
}

// Options contain configuration for the CLI
type Options struct {
	Output io.Writer
	Logger *zerolog.Logger
	// Settings overrides how settings are loaded; defaults to config.LoadSettings.
	Settings func(path string) (*config.Settings, error)
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Settings == nil {
		opts.Settings = config.LoadSettings
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	cli := &CLI{
		reporter: export.NewReporter(opts.Output),
		logger:   logger,
		settings: opts.Settings,
	}

	cli.rootCmd = cli.newRootCmd()
	cli.rootCmd.SetOut(opts.Output)
	return cli
}

func (cli *CLI) Execute() error {
	return cli.ExecuteContext(context.Background())
}

func (cli *CLI) ExecuteContext(ctx context.Context) error {
	defer cli.close()
	return cli.rootCmd.ExecuteContext(ctx)
}

func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

// App builds the application on first use so commands that fail flag validation
// never open the cache.
func (cli *CLI) App(ctx context.Context) (*app.App, error) {
	cli.once.Do(func() {
		settings, err := cli.settings(cli.cfgPath)
		if err != nil {
			cli.err = err
			return
		}
		cli.app, cli.err = app.New(ctx, settings)
	})
	return cli.app, cli.err
}

func (cli *CLI) Reporter() *export.Reporter {
	return cli.reporter
}

func (cli *CLI) close() {
	if cli.app == nil {
		return
	}
	if err := cli.app.Close(); err != nil {
		cli.logger.Warn().Err(err).Msg("failed to close dataset cache")
	}
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "aapslab",
		Short:         "Operating plan and annual compliance reports for water utilities",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := zerolog.InfoLevel
			if cli.verbose {
				level = zerolog.DebugLevel
			}
			logger := cli.logger.Level(level)
			cmd.SetContext(logger.WithContext(cmd.Context()))
		},
	}

	cmd.PersistentFlags().StringVarP(&cli.cfgPath, "config", "c", "", "Path to a settings file")
	cmd.PersistentFlags().BoolVarP(&cli.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(commands.NewLoginCmd(cli))
	cmd.AddCommand(commands.NewFetchCmd(cli))
	cmd.AddCommand(commands.NewEntitiesCmd(cli))
	cmd.AddCommand(commands.NewOrdersCmd(cli))
	cmd.AddCommand(commands.NewPreviewCmd(cli))
	cmd.AddCommand(commands.NewGenerateCmd(cli))
	cmd.AddCommand(commands.NewProfileCmd(cli))

	return cmd
}
