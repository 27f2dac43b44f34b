package records

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Header returns the column order used to serialize rows: the keys of the first
// row, followed by keys first seen in later rows.
func Header(rows []Record) []string {
	var header []string
	seen := map[string]struct{}{}
	for _, row := range rows {
		for _, key := range row.Keys() {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			header = append(header, key)
		}
	}
	return header
}

// EncodeCSV renders rows as CSV terminated by CRLF. Every row is written in
// header order; a row missing a column gets an empty field. No rows yields no bytes.
// Field contents are written unchanged, including embedded CR and LF.
func EncodeCSV(rows []Record) ([]byte, error) {
	if len(rows) == 0 {
		return []byte{}, nil
	}

	enc := newLineEncoder()

	header := Header(rows)
	if err := enc.write(header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}

	line := make([]string, len(header))
	for i, row := range rows {
		for j, key := range header {
			line[j], _ = row.Get(key)
		}
		if err := enc.write(line); err != nil {
			return nil, fmt.Errorf("failed to write csv row %d: %w", i, err)
		}
	}
	return enc.out.Bytes(), nil
}

// lineEncoder writes one record at a time with csv.Writer in LF mode, then
// swaps the record terminator for CRLF. csv.Writer's UseCRLF also rewrites
// line breaks inside quoted fields.
type lineEncoder struct {
	scratch bytes.Buffer
	w       *csv.Writer
	out     bytes.Buffer
}

func newLineEncoder() *lineEncoder {
	e := &lineEncoder{}
	e.w = csv.NewWriter(&e.scratch)
	return e
}

func (e *lineEncoder) write(fields []string) error {
	// a lone empty field would otherwise be a blank line, which readers skip
	if len(fields) == 1 && fields[0] == "" {
		e.out.WriteString("\"\"\r\n")
		return nil
	}

	e.scratch.Reset()
	if err := e.w.Write(fields); err != nil {
		return err
	}
	e.w.Flush()
	if err := e.w.Error(); err != nil {
		return err
	}

	e.out.Write(bytes.TrimSuffix(e.scratch.Bytes(), []byte("\n")))
	e.out.WriteString("\r\n")
	return nil
}
