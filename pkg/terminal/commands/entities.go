package commands

import (
	"github.com/spf13/cobra"
)

type EntitiesCmd struct {
	env Env
}

func NewEntitiesCmd(env Env) *cobra.Command {
	ec := &EntitiesCmd{env: env}
	return &cobra.Command{
		Use:   "entities",
		Short: "List the regulated entities in the cache",
		RunE:  ec.run,
	}
}

func (ec *EntitiesCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := ec.env.App(ctx)
	if err != nil {
		return err
	}

	entities, err := a.Reports.Entities(ctx)
	if err != nil {
		return err
	}
	return ec.env.Reporter().Entities(entities)
}

type OrdersCmd struct {
	epsa string
	year int
	env  Env
}

func NewOrdersCmd(env Env) *cobra.Command {
	oc := &OrdersCmd{env: env}
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List the plan orders submitted by an entity for a year",
		RunE:  oc.run,
	}

	cmd.Flags().StringVar(&oc.epsa, "epsa", "", "Entity code")
	cmd.Flags().IntVar(&oc.year, "year", 0, "Plan year")

	_ = cmd.MarkFlagRequired("epsa")
	_ = cmd.MarkFlagRequired("year")

	return cmd
}

func (oc *OrdersCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := oc.env.App(ctx)
	if err != nil {
		return err
	}

	orders, err := a.Reports.Orders(ctx, oc.epsa, oc.year)
	if err != nil {
		return err
	}
	return oc.env.Reporter().Orders(oc.epsa, oc.year, orders)
}
