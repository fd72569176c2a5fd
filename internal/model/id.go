package model

import (
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

// ID identifies a record of the calendar data source. The source may send
// ids as JSON numbers or as numeric strings; both decode to the same value.
// A non-numeric string decodes to zero, which no lookup matches.
type ID int64

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	value := gjson.ParseBytes(data)
	switch value.Type {
	case gjson.Null:
		*id = 0
		return nil
	case gjson.Number:
		*id = ID(value.Int())
		return nil
	case gjson.String:
		parsed, err := strconv.ParseInt(value.Str, 10, 64)
		if err != nil {
			parsed = 0
		}
		*id = ID(parsed)
		return nil
	default:
		return fmt.Errorf("unsupported id value %s", value.Raw)
	}
}

// ParseID parses a user supplied id such as a command argument.
func ParseID(raw string) (ID, error) {
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return ID(value), nil
}
