// Package symboltable loads the external symbol-name table referenced by
// every trade's Symbol index.
package symboltable

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/leanlp/mirrorscan/internal/trade"
)

// Table maps a symbol index to its human-readable name.
type Table []string

// Load reads a JSON array of symbol names from path.
func Load(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading symbol table %s: %w", path, err)
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("parsing symbol table %s: %w", path, err)
	}
	return Table(names), nil
}

// Name returns the name for symbol index idx, or a *trade.MalformedInputError
// if idx is out of range of the loaded table — a trade referencing a symbol
// the table doesn't know about is not a reporting hiccup, it's bad input.
func (t Table) Name(idx uint32) (string, error) {
	if int(idx) >= len(t) {
		return "", &trade.MalformedInputError{
			Reason: fmt.Sprintf("symbol index %d out of range of symbol table (size %d)", idx, len(t)),
		}
	}
	return t[idx], nil
}
