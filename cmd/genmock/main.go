// Command genmock writes a mock published-sheet export for local testing of
// the directory service. The output is served by any static file server and
// pointed at with SHEET_URL.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/warehouse.csv
//	go run ./cmd/genmock -fallback-file fallback.yaml -crlf -out data/mock/warehouse.csv
//	go run ./cmd/genmock -mode html -out data/mock/login.html
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/couchcryptid/warehouse-directory/internal/adapter/fallback"
	"github.com/couchcryptid/warehouse-directory/internal/domain"
)

const (
	modeCSV  = "csv"
	modeHTML = "html"
)

// errorPage mimics what the sheet host returns for an unpublished sheet.
const errorPage = `<!DOCTYPE html>
<html lang="en"><head><title>Google Sheets - Sign in</title></head>
<body><p>You need permission to access this spreadsheet.</p></body></html>
`

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path; stdout when empty")
	mode := flag.String("mode", modeCSV, "what to write: csv or html")
	crlf := flag.Bool("crlf", false, "terminate CSV rows with CRLF")
	noHeader := flag.Bool("no-header", false, "omit the header row")
	fallbackFile := flag.String("fallback-file", "", "YAML file with the rows to write; defaults to the built-in table")
	flag.Parse()

	rows := domain.DefaultFallback()
	if *fallbackFile != "" {
		var err error
		if rows, err = fallback.LoadFile(*fallbackFile); err != nil {
			return err
		}
	}

	w := io.Writer(os.Stdout)
	if *out != "" {
		if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
			return err
		}
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch *mode {
	case modeCSV:
		if err := writeCSV(w, rows, !*noHeader, *crlf); err != nil {
			return fmt.Errorf("writing csv: %w", err)
		}
		log.Printf("wrote %d rows", len(rows))
	case modeHTML:
		if _, err := io.WriteString(w, errorPage); err != nil {
			return fmt.Errorf("writing html: %w", err)
		}
		log.Printf("wrote error page")
	default:
		flag.Usage()
		return fmt.Errorf("unknown -mode %q", *mode)
	}
	return nil
}

// writeCSV writes rows in column order, quoting only fields that need it.
func writeCSV(w io.Writer, rows []domain.RawRow, header, crlf bool) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = crlf

	if header {
		if err := cw.Write(domain.Columns[:]); err != nil {
			return err
		}
	}
	for _, row := range rows {
		if err := cw.Write(row[:]); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
