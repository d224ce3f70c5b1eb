// Package app wires the stores and services shared by the web server and the CLI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aapslab/report-atlas/pkg/render/docx"
	"github.com/aapslab/report-atlas/pkg/services/compliance"
	"github.com/aapslab/report-atlas/pkg/services/config"
	"github.com/aapslab/report-atlas/pkg/services/datasync"
	"github.com/aapslab/report-atlas/pkg/services/derive"
	"github.com/aapslab/report-atlas/pkg/services/plan"
	"github.com/aapslab/report-atlas/pkg/services/report"
	"github.com/aapslab/report-atlas/pkg/services/schema"
	"github.com/aapslab/report-atlas/pkg/store/aaps"
	"github.com/aapslab/report-atlas/pkg/store/duckdb"
	"github.com/aapslab/report-atlas/pkg/store/duckdb/sheets"
	"github.com/aapslab/report-atlas/pkg/store/output"
	"github.com/aapslab/report-atlas/pkg/store/profile"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

type App struct {
	Settings    *config.Settings
	DB          *sql.DB
	Sheets      sheets.Store
	Plans       *plan.Loader
	Compliance  *compliance.Service
	Reports     *report.Service
	Profiles    profile.Store
	Credentials config.Registry
	API         *aaps.Client
	Sync        *datasync.Service
}

func New(ctx context.Context, settings *config.Settings) (*App, error) {
	logger := zerolog.Ctx(ctx)

	s, err := schema.Lookup(schema.Version(settings.SchemaVersion))
	if err != nil {
		return nil, err
	}

	db, err := duckdb.NewDB(duckdb.Settings{DbPath: settings.CachePath})
	if err != nil {
		return nil, err
	}
	sheetStore, err := sheets.NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	sink, err := newSink(ctx, settings)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	credentials, err := config.NewRegistry(settings.CredentialsPath)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	plans := plan.NewLoader(sheetStore, derive.NewEngine(s))
	annual := compliance.NewService(sheetStore, plans)
	profiles := profile.NewStore(settings.ProfilePath)
	client := aaps.NewClient(settings.APIBaseURL, settings.HTTPTimeout)

	tx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return duckdb.InTransaction(ctx, db, func(ctx context.Context, _ *sql.Tx) error {
			return fn(ctx)
		})
	}

	reports := report.NewService(s, report.Dependencies{
		Plans:    plans,
		Annual:   annual,
		Renderer: docx.NewRenderer(settings.TemplateDir),
		Sink:     sink,
		Writer:   sheetStore,
		Profiles: profiles,
		Tx:       tx,
	})

	logger.Debug().
		Str("cache", settings.CachePath).
		Int("schema", settings.SchemaVersion).
		Str("templates", settings.TemplateDir).
		Msg("application initialised")

	return &App{
		Settings:    settings,
		DB:          db,
		Sheets:      sheetStore,
		Plans:       plans,
		Compliance:  annual,
		Reports:     reports,
		Profiles:    profiles,
		Credentials: credentials,
		API:         client,
		Sync:        datasync.NewService(client, sheetStore, tx, datasync.DefaultConcurrency),
	}, nil
}

// newSink always writes locally and mirrors to S3 when an archive bucket is configured.
func newSink(ctx context.Context, settings *config.Settings) (output.Sink, error) {
	local := output.NewLocalSink(settings.OutputDir)
	archive := settings.Archive
	if archive.Bucket == "" {
		return local, nil
	}

	cfg, err := output.LoadS3Config(ctx, archive.Profile, archive.Region)
	if err != nil {
		return nil, err
	}
	return output.MultiSink{local, output.NewS3Sink(s3.NewFromConfig(cfg), archive.Bucket, archive.Prefix)}, nil
}

// Token returns the stored API token of the configured credentials profile.
func (a *App) Token(ctx context.Context) (string, error) {
	creds, err := a.Credentials.GetCredentials(ctx, a.Settings.CredentialsProfile)
	if err != nil {
		return "", err
	}
	return creds.Token, nil
}

// Login exchanges username and password for a token and stores it.
func (a *App) Login(ctx context.Context, username, password string) error {
	token, err := a.API.Authenticate(ctx, username, password)
	if err != nil {
		return err
	}
	err = a.Credentials.SaveToken(ctx, a.Settings.CredentialsProfile, config.Credentials{
		Host:  a.API.BaseURL(),
		Token: token,
	})
	if err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	zerolog.Ctx(ctx).Info().Str("profile", a.Settings.CredentialsProfile).Msg("token stored")
	return nil
}

// Refresh downloads every catalogued dataset with the stored token.
func (a *App) Refresh(ctx context.Context) ([]datasync.Result, error) {
	token, err := a.Token(ctx)
	if err != nil {
		if errors.Is(err, config.ErrNoToken) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", config.ErrNoToken, err)
	}
	return a.Sync.Sync(ctx, token, datasync.Catalog())
}

func (a *App) Close() error {
	return a.DB.Close()
}
