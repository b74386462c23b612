// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package grid

import (
	"encoding/csv"
	"strings"
)

// copyText writes the header and the given rows as tab-delimited text.
// Fields holding tabs, quotes or line breaks are quoted so that a
// spreadsheet paste keeps them in one cell. Nulls are empty fields and
// blobs are written as hex literals.
func copyText(columns []string, rows []int, values func(r int) []Value) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	w.Comma = '\t'
	if err := w.Write(columns); err != nil {
		return "", err
	}
	record := make([]string, len(columns))
	for _, r := range rows {
		for c, v := range values(r) {
			if v.Kind == Blob {
				record[c] = v.Literal()
			} else {
				record[c] = v.String()
			}
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	return sb.String(), w.Error()
}
