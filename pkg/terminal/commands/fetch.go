package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

type FetchCmd struct {
	env Env
}

func NewFetchCmd(env Env) *cobra.Command {
	fc := &FetchCmd{env: env}
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download every dataset into the local cache",
		RunE:  fc.run,
	}
}

func (fc *FetchCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := fc.env.App(ctx)
	if err != nil {
		return err
	}

	results, err := a.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh datasets: %w", err)
	}
	return fc.env.Reporter().Synced(results)
}
