package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/moonventures/cardpurchases/internal/amount"
	"github.com/moonventures/cardpurchases/internal/creditlimit"
	"github.com/moonventures/cardpurchases/internal/services"
	"github.com/spf13/cobra"
)

func newUtilizationCmd(root *rootOptions) *cobra.Command {
	var (
		workbook string
		at       string
		days     int
	)

	cmd := &cobra.Command{
		Use:   "utilization CARDHOLDER",
		Short: "Show a cardholder's limit usage from the local workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			holder, ok := cfg.Cardholder(args[0])
			if !ok {
				return fmt.Errorf("unknown cardholder %q", args[0])
			}
			ref, err := parseDay(at, cfg.Location())
			if err != nil {
				return err
			}

			rows, err := services.NewWorkbookService(workbook).ListRows(cmd.Context())
			if err != nil {
				return err
			}

			s := creditlimit.Summary(rows, holder, ref)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", holder.Name, holder.ID)
			fmt.Fprintf(out, "Limite:      %s\n", amount.Format(s.Limit))
			fmt.Fprintf(out, "Utilizado:   %s (%.1f%%)\n", amount.Format(s.Utilized), s.Utilization*100)
			fmt.Fprintf(out, "Disponível:  %s\n", amount.Format(s.Available))

			dues := creditlimit.Upcoming(rows, holder, ref, ref.AddDate(0, 0, days))
			if len(dues) == 0 {
				return nil
			}
			fmt.Fprintf(out, "\nVencimentos nos próximos %d dias:\n", days)
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, d := range dues {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.DueDate.Format("02/01/2006"), d.Row.Supplier, d.Label, amount.Format(d.Row.InstallmentValue))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&workbook, "workbook", "", "Local workbook (default $LOCAL_WORKBOOK or data/compras.xlsx)")
	cmd.Flags().StringVar(&at, "at", "", "Reference date, YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&days, "days", 30, "Window of upcoming installments to list")
	return cmd
}
