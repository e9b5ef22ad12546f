package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/bndr/gotabulate"
	"github.com/goccy/go-json"
)

type outputFormat string

const (
	formatJSON  outputFormat = "json"
	formatTable outputFormat = "table"
)

func parseOutputFormat(raw string) (outputFormat, error) {
	switch outputFormat(raw) {
	case formatJSON, "":
		return formatJSON, nil
	case formatTable:
		return formatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want json or table)", raw)
	}
}

func writeValues(w io.Writer, values map[string]any, format outputFormat) error {
	if format == formatTable {
		_, err := io.WriteString(w, valuesTable(values))
		return err
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode values: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// valuesTable renders one row per top-level field. Nested values are shown
// as compact JSON.
func valuesTable(values map[string]any) string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]any, 0, len(names))
	for _, name := range names {
		rows = append(rows, []any{name, cell(values[name])})
	}
	if len(rows) == 0 {
		rows = append(rows, []any{"", ""})
	}
	t := gotabulate.Create(rows)
	t.SetHeaders([]string{"Field", "Value"})
	t.SetAlign("left")
	t.SetWrapStrings(true)
	t.SetMaxCellSize(60)
	return t.Render("grid")
}

func cell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}
