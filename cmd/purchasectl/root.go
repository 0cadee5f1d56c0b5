package main

import (
	"fmt"
	"time"

	"github.com/moonventures/cardpurchases/internal/config"
	"github.com/moonventures/cardpurchases/internal/models"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "purchasectl",
		Short: "Operator tools for the corporate card purchase recorder",
		Long: `purchasectl previews installment schedules, reports a cardholder's credit
limit usage from the local workbook and validates the configuration file.

Example Usage:
  purchasectl split 1.234,56 --installments 3
  purchasectl utilization ana --workbook data/compras.xlsx
  purchasectl validate-config --config config.yaml`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "Path to the configuration file")

	cmd.AddCommand(
		newSplitCmd(opts),
		newUtilizationCmd(opts),
		newValidateConfigCmd(opts),
	)
	return cmd
}

func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", o.configPath, err)
	}
	return cfg, nil
}

// parseDay reads a YYYY-MM-DD flag in loc; empty means today.
func parseDay(v string, loc *time.Location) (time.Time, error) {
	if v == "" {
		return time.Now().In(loc), nil
	}
	t, err := time.ParseInLocation(models.DateLayout, v, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", v)
	}
	return t, nil
}
