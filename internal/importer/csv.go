// Package importer streams recipient rows out of delimited files. Blank
// lines and lines starting with // are skipped; malformed rows are reported
// back by line number instead of aborting the import.
package importer

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// Row is one data line of the recipient file: ordered raw string fields
// [name, wallet, usd, symbol, ...].
type Row struct {
	Line   int
	Fields []string
}

// ErrStop can be returned from the step callback to end the stream early.
var ErrStop = errors.New("stop streaming")

// Stream lazily parses r, invoking step for each data row. It returns the
// line numbers of rows the parser had to skip. A step error other than
// ErrStop aborts the stream.
func Stream(r io.Reader, step func(Row) error) (skipped []int, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	line := 0
	for {
		record, err := reader.Read()
		line++
		if errors.Is(err, io.EOF) {
			return skipped, nil
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped = append(skipped, parseErr.Line)
				continue
			}
			return skipped, err
		}
		if isComment(record) || isBlank(record) {
			continue
		}
		if err := step(Row{Line: line, Fields: record}); err != nil {
			if errors.Is(err, ErrStop) {
				return skipped, nil
			}
			return skipped, err
		}
	}
}

func isComment(record []string) bool {
	return len(record) > 0 && strings.HasPrefix(strings.TrimSpace(record[0]), "//")
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
