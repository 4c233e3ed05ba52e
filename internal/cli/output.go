package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/couchcryptid/warehouse-directory/internal/domain"
	"github.com/spf13/cobra"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

func validateOutput(output string) error {
	switch output {
	case outputTable, outputJSON:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (want table or json)", output)
	}
}

// printJSON encodes v as indented JSON to the command's stdout.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printWarehouseDetail prints a vertical key-value table of one warehouse.
func printWarehouseDetail(cmd *cobra.Command, w domain.Warehouse) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "  ID:\t%s\n", w.ID)
	fmt.Fprintf(tw, "  City:\t%s\n", w.City)
	fmt.Fprintf(tw, "  Contact:\t%s\n", w.Contact)
	fmt.Fprintf(tw, "  Manager:\t%s\n", w.Manager)
	fmt.Fprintf(tw, "  Email:\t%s\n", w.Email)
	if w.ChatLink != "" {
		fmt.Fprintf(tw, "  Chat:\t%s\n", w.ChatLink)
	}

	return tw.Flush()
}

func printWarehouseTable(cmd *cobra.Command, warehouses []domain.Warehouse) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "ID\tCITY\tCONTACT\tMANAGER\tEMAIL\tCHAT")
	fmt.Fprintln(tw, "--\t----\t-------\t-------\t-----\t----")

	for _, w := range warehouses {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			w.ID,
			w.City,
			w.Contact,
			w.Manager,
			w.Email,
			w.ChatLink,
		)
	}

	return tw.Flush()
}
