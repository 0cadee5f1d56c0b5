package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateConfigCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config",
		Short: "Check the configuration file and summarize it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s is valid\n", root.configPath)
			fmt.Fprintf(out, "timezone: %s, due day: %d, max installments: %d, receipt required: %t\n",
				cfg.Timezone, cfg.DefaultDueDay, cfg.MaxInstallments, cfg.ReceiptRequired())
			for _, c := range cfg.Companies {
				fmt.Fprintf(out, "company %s (folder %s): %d cards\n", c.Name, c.Folder, len(cfg.CardsOf(c.Name)))
			}
			fmt.Fprintf(out, "%d cardholders\n", len(cfg.Cardholders))
			return nil
		},
	}
}
