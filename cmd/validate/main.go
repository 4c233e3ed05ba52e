// Command validate checks an exported warehouse sheet CSV offline, using the
// same parser and normalization rules as the directory service. It reports row
// shape problems, rows the loader would skip, and ids that shadow each other.
//
// Usage:
//
//	go run ./cmd/validate -csv warehouse.csv
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/warehouse-directory/internal/domain"
	"github.com/couchcryptid/warehouse-directory/internal/sheetcsv"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	path := flag.String("csv", "", "path to the exported sheet CSV")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(1)
	}

	data, err := os.ReadFile(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read csv: %v\n", err)
		os.Exit(1)
	}

	if code := run(string(data), os.Stdout); code != 0 {
		os.Exit(code)
	}
}

func run(text string, out io.Writer) int {
	fmt.Fprintln(out, "=== Warehouse Sheet Validation ===")
	fmt.Fprintln(out)

	format := validateFormat(text)
	if !format.passed() {
		report(out, []*phase{format})
		return 1
	}

	rows := sheetcsv.Parse(text)
	header := len(rows) > 0 && domain.IsHeaderRow(rows[0])
	data := rows
	firstLine := 1
	if header {
		data = rows[1:]
		firstLine = 2
	}
	warehouses := domain.Normalize(rows)

	phases := []*phase{
		format,
		validateRowShape(data, firstLine),
		validateIdentity(data, firstLine),
		validateRecords(warehouses),
	}

	fmt.Fprintf(out, "Rows: %d parsed, header %s, %d records kept\n", len(rows), presence(header), len(warehouses))
	fmt.Fprintln(out)

	if report(out, phases) {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func validateFormat(text string) *phase {
	p := &phase{name: "Source format"}
	if domain.LooksLikeErrorPage(text) {
		p.errorf("file is an HTML page, not CSV; is the sheet published to the web?")
	}
	if strings.TrimSpace(text) == "" {
		p.errorf("file is empty")
	}
	return p
}

// validateRowShape flags rows whose cell count differs from the column layout.
// Extra cells are ignored by the loader and missing ones become empty fields.
func validateRowShape(rows [][]string, firstLine int) *phase {
	p := &phase{name: "Row shape (" + strings.Join(domain.Columns[:], ",") + ")"}
	for i, row := range rows {
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		if len(row) != len(domain.Columns) {
			p.errorf("row %d: %d cells, want %d", firstLine+i, len(row), len(domain.Columns))
		}
	}
	return p
}

// validateIdentity flags rows the loader would skip and ids that only the
// first occurrence of can ever be looked up.
func validateIdentity(rows [][]string, firstLine int) *phase {
	p := &phase{name: "Record identity"}
	seen := make(map[string]int)
	for i, row := range rows {
		line := firstLine + i
		w := domain.FromRow(row)
		if strings.TrimSpace(w.ID) == "" {
			if !isBlank(row) {
				p.errorf("row %d: blank id, row will be skipped", line)
			}
			continue
		}
		key := domain.LookupKey(strings.TrimSpace(w.ID))
		if first, dup := seen[key]; dup {
			p.errorf("row %d: id %q duplicates row %d and can never be looked up", line, w.ID, first)
			continue
		}
		seen[key] = line
	}
	return p
}

func validateRecords(warehouses []domain.Warehouse) *phase {
	p := &phase{name: "Usable records"}
	if len(warehouses) == 0 {
		p.errorf("no records with an id; the service would serve the fallback table")
	}
	for _, w := range warehouses {
		if w.Contact == "" && w.Email == "" {
			p.errorf("%s: no contact number or email", w.ID)
		}
	}
	return p
}

func report(out io.Writer, phases []*phase) bool {
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}
	return allPassed
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func presence(ok bool) string {
	if ok {
		return "present"
	}
	return "absent"
}
