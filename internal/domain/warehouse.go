package domain

import (
	"strings"
	"time"
)

// Column names in the positional order used by the published sheet and the
// fallback table. Reordering the sheet is a one-line change here.
const (
	ColumnID       = "id"
	ColumnCity     = "city"
	ColumnContact  = "contact"
	ColumnManager  = "manager"
	ColumnEmail    = "email"
	ColumnChatLink = "chatLink"
)

// Columns lists the column names by position.
var Columns = [...]string{
	ColumnID,
	ColumnCity,
	ColumnContact,
	ColumnManager,
	ColumnEmail,
	ColumnChatLink,
}

var (
	idxID       = ColumnIndex(ColumnID)
	idxCity     = ColumnIndex(ColumnCity)
	idxContact  = ColumnIndex(ColumnContact)
	idxManager  = ColumnIndex(ColumnManager)
	idxEmail    = ColumnIndex(ColumnEmail)
	idxChatLink = ColumnIndex(ColumnChatLink)
)

// RawRow is one positional row in the order given by Columns.
type RawRow [len(Columns)]string

// Warehouse holds the contact details for a single warehouse. Empty string
// means "no value"; every field is always set.
type Warehouse struct {
	ID       string `json:"id"`
	City     string `json:"city"`
	Contact  string `json:"contact"`
	Manager  string `json:"manager"`
	Email    string `json:"email"`
	ChatLink string `json:"chatLink"`
}

// Source identifies where a set of warehouses came from.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

// Snapshot is a complete, immutable set of warehouses from a single load.
type Snapshot struct {
	Warehouses  []Warehouse
	Source      Source
	Fingerprint string
	LoadedAt    time.Time
}

// FromRow maps a parsed row onto a Warehouse by position. Missing trailing
// cells become empty strings and cells past the last column are ignored.
func FromRow(row []string) Warehouse {
	var cells RawRow
	copy(cells[:], row)
	return cells.Warehouse()
}

// Warehouse converts the row into a Warehouse.
func (r RawRow) Warehouse() Warehouse {
	return Warehouse{
		ID:       r[idxID],
		City:     r[idxCity],
		Contact:  r[idxContact],
		Manager:  r[idxManager],
		Email:    r[idxEmail],
		ChatLink: r[idxChatLink],
	}
}

// FromRows converts a table of raw rows into warehouses, preserving order.
func FromRows(rows []RawRow) []Warehouse {
	out := make([]Warehouse, len(rows))
	for i, r := range rows {
		out[i] = r.Warehouse()
	}
	return out
}

// IsHeaderRow reports whether row looks like the sheet's header: its first
// cell, case-folded, is "id".
func IsHeaderRow(row []string) bool {
	return len(row) > 0 && strings.ToLower(row[0]) == ColumnID
}

// Normalize turns parsed CSV rows into warehouses. A header in the first row
// is dropped and rows whose id is blank are skipped.
func Normalize(rows [][]string) []Warehouse {
	if len(rows) > 0 && IsHeaderRow(rows[0]) {
		rows = rows[1:]
	}

	out := make([]Warehouse, 0, len(rows))
	for _, row := range rows {
		w := FromRow(row)
		if strings.TrimSpace(w.ID) == "" {
			continue
		}
		out = append(out, w)
	}
	return out
}

// ColumnIndex returns the position of a column name, or -1 if unknown.
func ColumnIndex(name string) int {
	for i, c := range Columns {
		if c == name {
			return i
		}
	}
	return -1
}
