package google

import (
	ports "finance/internal/sheets"
)

// toRows flattens a Sheets values matrix into cell strings.
func toRows(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		rows[i] = ports.ToStrings(row)
	}
	return rows
}
