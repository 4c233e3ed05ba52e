package cli

import (
	"fmt"

	"github.com/couchcryptid/warehouse-directory/internal/domain"
	"github.com/spf13/cobra"
)

func findCommand(opts *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "find <id>",
		Short: "Show the warehouse with the given id",
		Long: `Show the first warehouse whose id matches, ignoring case and surrounding
whitespace. Exits non-zero when nothing matches.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}

			res, err := opts.load(cmd)
			if err != nil {
				return err
			}

			w, ok := domain.Find(res.Warehouses, args[0])
			if !ok {
				return fmt.Errorf("warehouse %q not found (%d %s records searched)", args[0], len(res.Warehouses), res.Source)
			}

			if output == outputJSON {
				return printJSON(cmd, w)
			}
			return printWarehouseDetail(cmd, w)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table or json")
	return cmd
}
