package filter

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedCondition is returned for text that is not "field:value".
var ErrMalformedCondition = errors.New("malformed condition")

// ParseCondition reads the textual "field:value" form used by query strings
// and command-line flags. The field ends at the first colon. The value is
// decoded as JSON when it is a string, number or boolean literal and is kept
// verbatim otherwise, so "views:3" compares against the number 3 and
// `tag:"3"` against the string.
func ParseCondition(s string) (Condition, error) {
	field, raw, ok := strings.Cut(s, ":")
	if !ok || field == "" {
		return Condition{}, fmt.Errorf("%w: %q, expected field:value", ErrMalformedCondition, s)
	}
	return Condition{Field: field, Value: scalar(raw)}, nil
}

func scalar(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		switch v.(type) {
		case string, float64, bool:
			return v
		}
	}
	return raw
}
