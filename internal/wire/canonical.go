package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces canonical JSON for hashing. v is passed through
// ToValue first, so any JSON-marshalable value is accepted.
func MarshalCanonical(v any) ([]byte, error) {
	val, err := ToValue(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := writeCanonical(&buf, val); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case string:
		writeString(buf, val)
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case json.Number:
		buf.WriteString(val.String())
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		buf.WriteByte('{')
		keys, err := sortedKeys(val)
		if err != nil {
			return err
		}
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, k.norm)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k.orig]); err != nil {
				return fmt.Errorf("value for key %q: %w", k.orig, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// writeString writes an NFC-normalised JSON string. Only the quote, the
// backslash and control characters are escaped.
func writeString(buf *bytes.Buffer, s string) {
	s = norm.NFC.String(s)
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
				continue
			}
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
}

type objectKey struct {
	orig string
	norm string
}

// sortedKeys returns keys in UTF-16 code unit order of their NFC form. Go's
// string ordering compares UTF-8 bytes, which differs above U+FFFF. Two keys
// that collapse to the same NFC form are rejected.
func sortedKeys(m map[string]any) ([]objectKey, error) {
	keys := make([]objectKey, 0, len(m))
	seen := make(map[string]string, len(m))
	for k := range m {
		n := norm.NFC.String(k)
		if prev, ok := seen[n]; ok {
			return nil, fmt.Errorf("keys %q and %q are equal after NFC normalization", prev, k)
		}
		seen[n] = k
		keys = append(keys, objectKey{orig: k, norm: n})
	}
	slices.SortFunc(keys, func(a, b objectKey) int { return compareUTF16(a.norm, b.norm) })
	return keys, nil
}

func compareUTF16(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}
