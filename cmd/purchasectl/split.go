package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/moonventures/cardpurchases/internal/amount"
	"github.com/moonventures/cardpurchases/internal/installment"
	"github.com/spf13/cobra"
)

func newSplitCmd(root *rootOptions) *cobra.Command {
	var (
		count  int
		date   string
		dueDay int
		tz     string
	)

	cmd := &cobra.Command{
		Use:   "split AMOUNT",
		Short: "Print the installment schedule of an amount",
		Long: `split divides AMOUNT (BR format, e.g. 1.234,56) into equal installments
and prints each position label, due date and amount. No configuration file
is needed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := amount.ParseStrict(args[0])
			if err != nil {
				return err
			}
			loc, err := time.LoadLocation(tz)
			if err != nil {
				return fmt.Errorf("invalid timezone %q: %w", tz, err)
			}
			purchased, err := parseDay(date, loc)
			if err != nil {
				return err
			}

			schedule, err := installment.Schedule(total, count, purchased, dueDay)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "Parcela\tVencimento\tValor")
			for _, inst := range schedule {
				fmt.Fprintf(w, "%s\t%s\t%s\n", inst.Label, inst.DueDate.Format("02/01/2006"), amount.Format(inst.Amount))
			}
			fmt.Fprintf(w, "Total\t\t%s\n", amount.Format(total))
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&count, "installments", "n", 1, "Number of installments (1-12)")
	cmd.Flags().StringVar(&date, "date", "", "Purchase date, YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&dueDay, "due-day", installment.DefaultDueDay, "Card due day of month")
	cmd.Flags().StringVar(&tz, "timezone", "America/Sao_Paulo", "Timezone of the purchase date")
	return cmd
}
