package document

import (
	"fmt"
	"maps"
	"strconv"
)

// DefaultIDField is the document field used as the engine id by upserts.
const DefaultIDField = "id"

// Document is a decoded JSON source document.
type Document map[string]any

// Clone returns a shallow copy of d.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return maps.Clone(d)
}

// ID returns the value of field rendered as an engine id, and whether it is present.
// Strings are used as-is; integers and other scalars are formatted.
func (d Document) ID(field string) (string, bool) {
	v, ok := d[field]
	if !ok || v == nil {
		return "", false
	}
	switch id := v.(type) {
	case string:
		return id, id != ""
	case int:
		return strconv.Itoa(id), true
	case int64:
		return strconv.FormatInt(id, 10), true
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), true
	case fmt.Stringer:
		return id.String(), true
	default:
		return fmt.Sprint(id), true
	}
}

// String returns the string field value, or "" when absent or not a string.
func (d Document) String(field string) string {
	s, _ := d[field].(string)
	return s
}
