package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/aapslab/report-atlas/pkg/models/domain"
	"github.com/aapslab/report-atlas/pkg/services/report"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

// requestFlags are the document options common to every report.
type requestFlags struct {
	date     string
	number   int
	filename string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "Report date as YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&f.number, "number", 0, "Report number (default last number plus one)")
	cmd.Flags().StringVar(&f.filename, "filename", "", "Output file name")
}

func (f *requestFlags) request() (report.Request, error) {
	req := report.Request{Number: f.number, Filename: f.filename}
	if f.date != "" {
		t, err := time.ParseInLocation(dateLayout, f.date, time.Local)
		if err != nil {
			return req, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", f.date)
		}
		req.Date = t
	}
	return req, nil
}

// text reads a narrative from a flag value, or from a file when prefixed with '@'.
func text(v string) (string, error) {
	if len(v) > 1 && v[0] == '@' {
		b, err := os.ReadFile(v[1:])
		if err != nil {
			return "", fmt.Errorf("read narrative: %w", err)
		}
		return string(b), nil
	}
	return v, nil
}

func texts(values ...*string) error {
	for _, v := range values {
		t, err := text(*v)
		if err != nil {
			return err
		}
		*v = t
	}
	return nil
}

func NewGenerateCmd(env Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate report documents",
	}
	cmd.AddCommand(newGeneratePlanCmd(env))
	cmd.AddCommand(newGenerateAnnualCmd(env))
	return cmd
}

type GeneratePlanCmd struct {
	planFlags
	requestFlags
	narrative domain.Narrative
	env       Env
}

func newGeneratePlanCmd(env Env) *cobra.Command {
	gc := &GeneratePlanCmd{env: env}
	cmd := &cobra.Command{
		Use:   "poa",
		Short: "Generate the operating plan review report",
		RunE:  gc.run,
	}
	gc.planFlags.register(cmd)
	gc.requestFlags.register(cmd)
	cmd.Flags().StringVar(&gc.narrative.Income, "income-text", "", "Income analysis (@file to read it from a file)")
	cmd.Flags().StringVar(&gc.narrative.Expenses, "expenses-text", "", "Expenses analysis (@file to read it from a file)")
	cmd.Flags().StringVar(&gc.narrative.Investments, "investments-text", "", "Investments analysis (@file to read it from a file)")
	cmd.Flags().StringVar(&gc.narrative.Expansion, "expansion-text", "", "Expansion goals analysis (@file to read it from a file)")
	return cmd
}

func (gc *GeneratePlanCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	req, err := gc.request()
	if err != nil {
		return err
	}
	n := gc.narrative
	if err := texts(&n.Income, &n.Expenses, &n.Investments, &n.Expansion); err != nil {
		return err
	}

	a, err := gc.env.App(ctx)
	if err != nil {
		return err
	}
	session, err := a.Reports.OpenPlanSession(ctx, gc.selection())
	if err != nil {
		return err
	}
	if err := applySets(session, gc.sets); err != nil {
		return err
	}

	out, err := a.Reports.GeneratePlanReport(ctx, session, report.PlanRequest{Request: req, Narrative: n})
	if err != nil {
		return err
	}
	return gc.env.Reporter().Generated(out)
}

type GenerateAnnualCmd struct {
	requestFlags
	epsa      string
	year      int
	preview   bool
	narrative domain.AnnualNarrative
	env       Env
}

func newGenerateAnnualCmd(env Env) *cobra.Command {
	gc := &GenerateAnnualCmd{env: env}
	cmd := &cobra.Command{
		Use:   "annual",
		Short: "Generate the annual indicator compliance report",
		RunE:  gc.run,
	}
	gc.requestFlags.register(cmd)
	cmd.Flags().StringVar(&gc.epsa, "epsa", "", "Entity code")
	cmd.Flags().IntVar(&gc.year, "year", 0, "Report year")
	cmd.Flags().BoolVar(&gc.preview, "preview", false, "Print the indicator tables instead of generating the document")
	cmd.Flags().StringVar(&gc.narrative.Technical, "technical-text", "", "Technical indicators analysis (@file to read it from a file)")
	cmd.Flags().StringVar(&gc.narrative.Economic, "economic-text", "", "Economic indicators analysis (@file to read it from a file)")
	cmd.Flags().StringVar(&gc.narrative.Expansion, "expansion-text", "", "Expansion goals analysis (@file to read it from a file)")

	_ = cmd.MarkFlagRequired("epsa")
	_ = cmd.MarkFlagRequired("year")

	return cmd
}

func (gc *GenerateAnnualCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	req, err := gc.request()
	if err != nil {
		return err
	}
	n := gc.narrative
	if err := texts(&n.Technical, &n.Economic, &n.Expansion); err != nil {
		return err
	}

	a, err := gc.env.App(ctx)
	if err != nil {
		return err
	}

	if gc.preview {
		entity, err := a.Plans.Entity(ctx, gc.epsa)
		if err != nil {
			return err
		}
		tables, err := a.Compliance.AnnualTables(ctx, entity, gc.year)
		if err != nil {
			return err
		}
		return gc.env.Reporter().Annual(tables)
	}

	out, err := a.Reports.GenerateAnnualReport(ctx, report.AnnualRequest{
		Request: req, EPSA: gc.epsa, Year: gc.year, Narrative: n,
	})
	if err != nil {
		return err
	}
	return gc.env.Reporter().Generated(out)
}
