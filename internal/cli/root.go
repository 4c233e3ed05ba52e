// Package cli implements the whlookup command, a one-shot client that loads the
// warehouse directory and prints lookups to the terminal.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/warehouse-directory/internal/adapter/fallback"
	"github.com/couchcryptid/warehouse-directory/internal/adapter/sheets"
	"github.com/couchcryptid/warehouse-directory/internal/config"
	"github.com/couchcryptid/warehouse-directory/internal/domain"
	"github.com/couchcryptid/warehouse-directory/internal/loader"
	"github.com/couchcryptid/warehouse-directory/internal/observability"
	"github.com/spf13/cobra"
)

type options struct {
	spreadsheetID string
	sheetName     string
	host          string
	url           string
	fallbackFile  string
	timeout       time.Duration
	verbose       bool
}

// NewRootCommand builds the whlookup command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "whlookup",
		Short: "Look up warehouse contacts from the published sheet",
		Long: `whlookup loads the warehouse contact sheet and prints matching records.
When the sheet cannot be used it falls back to the offline table and says so
on stderr.

Quick start:
  whlookup find WH003              # Show one warehouse
  whlookup list -o json            # Dump every warehouse as JSON`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.spreadsheetID, "spreadsheet-id", config.DefaultSpreadsheetID, "published spreadsheet id")
	flags.StringVar(&opts.sheetName, "sheet", "Warehouse", "sheet (tab) name")
	flags.StringVar(&opts.host, "host", "docs.google.com", "sheet host")
	flags.StringVar(&opts.url, "url", "", "full CSV URL, overrides --spreadsheet-id, --sheet and --host")
	flags.StringVar(&opts.fallbackFile, "fallback-file", "", "YAML file replacing the built-in fallback table")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "sheet fetch timeout")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	cmd.AddCommand(findCommand(opts))
	cmd.AddCommand(listCommand(opts))

	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// load runs a single load with the command's flags.
func (o *options) load(cmd *cobra.Command) (loader.Result, error) {
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	logger := observability.NewLoggerTo(cmd.ErrOrStderr(), level, "text")
	metrics := observability.NewUnregisteredMetrics()

	sheetURL := o.url
	if sheetURL == "" {
		sheetURL = sheets.PublishedCSVURL(o.host, o.spreadsheetID, o.sheetName)
	}
	logger.Debug("loading sheet", "url", sheetURL)

	var rows []domain.RawRow
	if o.fallbackFile != "" {
		var err error
		if rows, err = fallback.LoadFile(o.fallbackFile); err != nil {
			return loader.Result{}, err
		}
	}

	client := sheets.NewClient(sheetURL, o.timeout, logger, metrics)
	return loader.New(client, rows, logger, metrics).Load(cmd.Context()), nil
}
