package commands

import (
	"fmt"

	"github.com/aapslab/report-atlas/pkg/models/domain"
	"github.com/spf13/cobra"
)

func NewProfileCmd(env Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update the report author profile",
	}
	cmd.AddCommand(newProfileShowCmd(env))
	cmd.AddCommand(newProfileSaveCmd(env))
	return cmd
}

func newProfileShowCmd(env Env) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := env.App(ctx)
			if err != nil {
				return err
			}
			p, err := a.Profiles.Get(ctx)
			if err != nil {
				return err
			}
			return env.Reporter().Profile(*p)
		},
	}
}

type ProfileSaveCmd struct {
	profile       domain.Profile
	qualification string
	env           Env
}

func newProfileSaveCmd(env Env) *cobra.Command {
	pc := &ProfileSaveCmd{env: env}
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create or replace the profile",
		RunE:  pc.run,
	}

	cmd.Flags().StringVar(&pc.profile.Name, "name", "", "Author name")
	cmd.Flags().StringVar(&pc.qualification, "qualification", "", "engineer or economist")
	cmd.Flags().StringVar(&pc.profile.Specialty, "specialty", "", "Professional specialty")
	cmd.Flags().StringVar(&pc.profile.City, "city", "", "City printed in the report header")
	cmd.Flags().IntVar(&pc.profile.LastReportNumber, "last-number", 0, "Last issued report number")

	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("qualification")

	return cmd
}

func (pc *ProfileSaveCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := pc.env.App(ctx)
	if err != nil {
		return err
	}

	p := pc.profile
	p.Qualification = domain.Qualification(pc.qualification)
	if err := a.Profiles.Save(ctx, p); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return pc.env.Reporter().Profile(p)
}
