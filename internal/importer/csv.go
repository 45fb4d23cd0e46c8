// Package importer turns CSV files into transactions, either matched against
// an existing book's schema or into a brand-new schema inferred from the file.
package importer

import "strings"

// ParseCSV tokenizes RFC-4180-like CSV text: comma separators, double-quote
// escaping ("" inside quotes is a literal quote), and both \n and \r\n line
// terminators. Commas and newlines inside quotes do not split.
func ParseCSV(text string) [][]string {
	var rows [][]string
	var currentRow []string
	var cell strings.Builder
	insideQuotes := false

	for i := 0; i < len(text); i++ {
		ch := text[i]
		var next byte
		if i+1 < len(text) {
			next = text[i+1]
		}

		switch {
		case ch == '"':
			if insideQuotes && next == '"' {
				cell.WriteByte('"')
				i++
			} else {
				insideQuotes = !insideQuotes
			}
		case ch == ',' && !insideQuotes:
			currentRow = append(currentRow, cell.String())
			cell.Reset()
		case (ch == '\r' || ch == '\n') && !insideQuotes:
			if ch == '\r' && next == '\n' {
				i++
			}
			currentRow = append(currentRow, cell.String())
			rows = append(rows, currentRow)
			currentRow = nil
			cell.Reset()
		default:
			cell.WriteByte(ch)
		}
	}

	if cell.Len() > 0 || len(currentRow) > 0 {
		currentRow = append(currentRow, cell.String())
		rows = append(rows, currentRow)
	}

	return rows
}
