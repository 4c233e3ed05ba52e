// Package sheetcsv tokenizes the CSV text served by a published spreadsheet.
//
// The parser favors robustness over strictness: spreadsheet exports are not a
// trusted format, so malformed quoting never produces an error. Every input
// yields some sequence of rows.
package sheetcsv

import "strings"

// lineEndings folds CRLF and lone CR into LF before scanning.
var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Parse splits text into rows of trimmed fields.
//
// A double quote outside a quoted section opens one; inside, a doubled quote
// is a literal quote and a single quote closes the section. Commas and
// newlines only separate fields and rows outside quoted sections. A trailing
// row without a final newline is still returned.
func Parse(text string) [][]string {
	text = lineEndings.Replace(text)

	var (
		rows     [][]string
		row      []string
		field    strings.Builder
		inQuotes bool
	)

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inQuotes {
			switch {
			case c == '"' && i+1 < len(text) && text[i+1] == '"':
				field.WriteByte('"')
				i++
			case c == '"':
				inQuotes = false
			default:
				field.WriteByte(c)
			}
			continue
		}

		switch c {
		case '"':
			inQuotes = true
		case ',':
			row = append(row, cleanField(field.String()))
			field.Reset()
		case '\n':
			row = append(row, cleanField(field.String()))
			rows = append(rows, row)
			row = nil
			field.Reset()
		default:
			field.WriteByte(c)
		}
	}

	if field.Len() > 0 || len(row) > 0 {
		row = append(row, cleanField(field.String()))
		rows = append(rows, row)
	}

	return rows
}

// cleanField trims surrounding whitespace. A quote can only reach the field
// buffer as an escaped literal, so quotes at the edges are part of the value
// and are kept.
func cleanField(s string) string {
	return strings.TrimSpace(s)
}
