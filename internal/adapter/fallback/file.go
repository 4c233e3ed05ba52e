// Package fallback reads an operator-supplied fallback table from YAML.
//
// The file replaces the compiled-in table, for example:
//
//	warehouses:
//	  - id: WH001
//	    city: New York, NY
//	    contact: +1 (555) 123-4567
//	    manager: John Doe
//	    email: john.doe@logistics.com
//	    chatLink: https://example.com/chat/wh001
//
// Keys are the column names of domain.Columns; unknown keys are rejected so
// a typo does not silently blank a column.
package fallback

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/warehouse-directory/internal/domain"
	"gopkg.in/yaml.v3"
)

type file struct {
	Warehouses []map[string]string `yaml:"warehouses"`
}

// LoadFile reads a fallback table from path.
func LoadFile(path string) ([]domain.RawRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fallback file: %w", err)
	}
	rows, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("fallback file %s: %w", path, err)
	}
	return rows, nil
}

// Parse decodes a YAML fallback table.
func Parse(data []byte) ([]domain.RawRow, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if len(f.Warehouses) == 0 {
		return nil, errors.New("no warehouses defined")
	}

	rows := make([]domain.RawRow, 0, len(f.Warehouses))
	for i, entry := range f.Warehouses {
		var row domain.RawRow
		for key, value := range entry {
			col := domain.ColumnIndex(key)
			if col < 0 {
				return nil, fmt.Errorf("warehouse %d: unknown column %q", i+1, key)
			}
			row[col] = strings.TrimSpace(value)
		}
		if row[domain.ColumnIndex(domain.ColumnID)] == "" {
			return nil, fmt.Errorf("warehouse %d: id is required", i+1)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
