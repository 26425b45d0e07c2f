package service

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSV upload failures. Both are the caller's fault.
var (
	ErrEmptyCSV     = errors.New("csv file is empty")
	ErrMalformedCSV = errors.New("malformed csv")
)

const utf8BOM = "\ufeff"

// ParseCSV reads a header-first CSV into raw rows. Header names are matched
// case-insensitively through the alias table; unknown columns are ignored.
// Rows may be shorter or longer than the header.
//
// Only an unreadable header fails the whole file. A data record with broken
// quoting becomes a row carrying the parse error, so the normalizer rejects
// that row alone. Every row remembers its position relative to the header
// line, so blank lines still count towards the reported row numbers.
func ParseCSV(r io.Reader) ([]RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyCSV
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedCSV, err)
	}
	headerLine, _ := reader.FieldPos(0)
	header[0] = strings.TrimPrefix(header[0], utf8BOM)

	var rows []RawRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			rows = append(rows, RawRow{
				rowKeyLine:       strconv.Itoa(parseErr.StartLine - headerLine),
				rowKeyParseError: parseErr.Error(),
			})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}
		if blankRecord(record) {
			continue
		}

		line, _ := reader.FieldPos(0)
		row := rawRowFromRecord(header, record)
		row[rowKeyLine] = strconv.Itoa(line - headerLine)
		rows = append(rows, row)
	}
	return rows, nil
}

// rawRowFromRecord maps a record onto canonical fields in header order. When
// two columns alias one field, the leftmost non-empty value wins.
func rawRowFromRecord(header, record []string) RawRow {
	row := make(RawRow, len(header)+1)
	for i, name := range header {
		if i >= len(record) {
			break
		}
		if canon, ok := CanonicalField(name); ok {
			row.fill(canon, record[i])
		}
	}
	return row
}

func blankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// RowsFromJSON converts decoded JSON objects into raw rows. Numbers keep their
// shortest exact representation so "9999.95" stays "9999.95".
func RowsFromJSON(objects []map[string]any) []RawRow {
	rows := make([]RawRow, 0, len(objects))
	for _, obj := range objects {
		fields := make(map[string]string, len(obj))
		for k, v := range obj {
			fields[k] = jsonScalar(v)
		}
		rows = append(rows, NewRawRow(fields))
	}
	return rows
}

func jsonScalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	}
	return fmt.Sprint(v)
}
