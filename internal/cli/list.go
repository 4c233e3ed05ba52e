package cli

import (
	"github.com/spf13/cobra"
)

func listCommand(opts *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every warehouse",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}

			res, err := opts.load(cmd)
			if err != nil {
				return err
			}

			if output == outputJSON {
				return printJSON(cmd, res.Warehouses)
			}
			return printWarehouseTable(cmd, res.Warehouses)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table or json")
	return cmd
}
