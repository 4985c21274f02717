package postgresql

import (
	"fmt"
	"strings"
)

// multiRowInsert builds one INSERT statement for rows of values matching columns
func multiRowInsert(table string, columns []string, rows [][]interface{}) (string, []interface{}) {
	valueStrings := make([]string, 0, len(rows))
	valueArgs := make([]interface{}, 0, len(rows)*len(columns))

	for i, row := range rows {
		placeholders := make([]string, len(columns))
		for j := range columns {
			placeholders[j] = fmt.Sprintf("$%d", i*len(columns)+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ", ")+")")
		valueArgs = append(valueArgs, row...)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		table, strings.Join(columns, ", "), strings.Join(valueStrings, ", "))
	return query, valueArgs
}
