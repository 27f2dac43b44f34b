package dags

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"unicode/utf8"
)

// Fill replaces every placeholder in template with config written as a Python
// dict literal
func Fill(template []byte, placeholder string, config map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writePython(&buf, config); err != nil {
		return nil, err
	}
	return bytes.ReplaceAll(template, []byte(placeholder), buf.Bytes()), nil
}

// PythonLiteral renders v as Python source. Dict keys are sorted so repeated
// renders of the same config produce the same file.
func PythonLiteral(v any) (string, error) {
	var buf bytes.Buffer
	if err := writePython(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writePython(buf *bytes.Buffer, v any) error {
	switch v := v.(type) {
	case nil:
		buf.WriteString("None")
	case bool:
		if v {
			buf.WriteString("True")
		} else {
			buf.WriteString("False")
		}
	case string:
		writePythonString(buf, v)
	case json.Number:
		if _, err := strconv.ParseFloat(string(v), 64); err != nil {
			return fmt.Errorf("invalid number %q: %w", string(v), err)
		}
		buf.WriteString(string(v))
	case int:
		buf.WriteString(strconv.Itoa(v))
	case int64:
		buf.WriteString(strconv.FormatInt(v, 10))
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("unsupported float %v", v)
		}
		buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	case []byte:
		writePythonBytes(buf, v)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteString(", ")
			}
			writePythonString(buf, k)
			buf.WriteString(": ")
			if err := writePython(buf, v[k]); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case []any:
		return writePythonList(buf, len(v), func(i int) any { return v[i] })
	case []string:
		return writePythonList(buf, len(v), func(i int) any { return v[i] })
	case []json.Number:
		return writePythonList(buf, len(v), func(i int) any { return v[i] })
	case [][]byte:
		return writePythonList(buf, len(v), func(i int) any { return v[i] })
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
	return nil
}

func writePythonList(buf *bytes.Buffer, n int, item func(int) any) error {
	buf.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			buf.WriteString(", ")
		}
		if err := writePython(buf, item(i)); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

func writePythonString(buf *bytes.Buffer, s string) {
	buf.WriteByte('\'')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == utf8.RuneError && size == 1:
			fmt.Fprintf(buf, `\x%02x`, s[i])
		case r == '\\' || r == '\'':
			buf.WriteByte('\\')
			buf.WriteRune(r)
		case r == '\n':
			buf.WriteString(`\n`)
		case r == '\r':
			buf.WriteString(`\r`)
		case r == '\t':
			buf.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(buf, `\x%02x`, r)
		default:
			buf.WriteRune(r)
		}
		i += size
	}
	buf.WriteByte('\'')
}

func writePythonBytes(buf *bytes.Buffer, b []byte) {
	buf.WriteString("b'")
	for _, c := range b {
		switch {
		case c == '\\' || c == '\'':
			buf.WriteByte('\\')
			buf.WriteByte(c)
		case c == '\n':
			buf.WriteString(`\n`)
		case c == '\r':
			buf.WriteString(`\r`)
		case c == '\t':
			buf.WriteString(`\t`)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(buf, `\x%02x`, c)
		default:
			buf.WriteByte(c)
		}
	}
	buf.WriteByte('\'')
}
