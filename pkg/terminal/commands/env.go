package commands

import (
	"context"

	"github.com/aapslab/report-atlas/pkg/runtime/app"
	"github.com/aapslab/report-atlas/pkg/runtime/terminal/export"
)

// Env gives commands lazy access to the application and the console reporter.
type Env interface {
	App(ctx context.Context) (*app.App, error)
	Reporter() *export.Reporter
}
