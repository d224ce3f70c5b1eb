package commands

import (
	"fmt"
	"strings"

	"github.com/aapslab/report-atlas/pkg/models/domain"
	"github.com/aapslab/report-atlas/pkg/services/reconcile"
	"github.com/aapslab/report-atlas/pkg/services/report"
	"github.com/spf13/cobra"
)

// planFlags select a plan and optional value edits shared by preview and generate.
type planFlags struct {
	epsa  string
	year  int
	order int
	sets  []string
}

func (f *planFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.epsa, "epsa", "", "Entity code")
	cmd.Flags().IntVar(&f.year, "year", 0, "Plan year")
	cmd.Flags().IntVar(&f.order, "order", 0, "Plan order")
	cmd.Flags().StringArrayVar(&f.sets, "set", nil, `Edit a value before reporting, as "section:row=value" (repeatable)`)

	_ = cmd.MarkFlagRequired("epsa")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("order")
}

func (f *planFlags) selection() report.Selection {
	return report.Selection{EPSA: f.epsa, Year: f.year, Order: f.order}
}

// parseSet splits "section:row=value"; the row may itself contain '='.
func parseSet(s string) (domain.SectionKind, string, string, error) {
	section, rest, ok := strings.Cut(s, ":")
	eq := strings.LastIndex(rest, "=")
	if !ok || eq <= 0 {
		return "", "", "", fmt.Errorf("invalid edit %q, expected section:row=value", s)
	}
	return domain.SectionKind(strings.TrimSpace(section)), strings.TrimSpace(rest[:eq]), strings.TrimSpace(rest[eq+1:]), nil
}

// applySets applies each edit in order and fails on the first rejected one.
func applySets(session *report.Session, sets []string) error {
	for _, s := range sets {
		section, row, value, err := parseSet(s)
		if err != nil {
			return err
		}

		edit := domain.CellEdit{Column: domain.ColumnValue, Row: row, New: value}
		if table := session.Tables().Table(section); table != nil {
			if idx := table.RowIndex(row); idx >= 0 {
				edit.Old = reconcile.CellText(table, table.Rows[idx])
			}
		}

		res, err := session.ApplyEdit(section, edit)
		if err != nil {
			return err
		}
		if res.Rejected != nil {
			return fmt.Errorf("edit %q rejected: %s", s, res.Rejected.Reason)
		}
	}
	return nil
}

type PreviewCmd struct {
	planFlags
	env Env
}

func NewPreviewCmd(env Env) *cobra.Command {
	pc := &PreviewCmd{env: env}
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the derived tables of an operating plan",
		RunE:  pc.run,
	}
	pc.register(cmd)
	return cmd
}

func (pc *PreviewCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := pc.env.App(ctx)
	if err != nil {
		return err
	}

	session, err := a.Reports.OpenPlanSession(ctx, pc.selection())
	if err != nil {
		return err
	}
	if err := applySets(session, pc.sets); err != nil {
		return err
	}
	return pc.env.Reporter().Plan(session.Entity, session.Key, session.Tables())
}
