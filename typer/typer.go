// Package typer converts between Go values and the wire values exchanged
// with database drivers.
//
// Conversion is a tagged dispatch on the declared column type. Custom Go
// types plug in through Register, enums through RegisterEnum:
//
//	typer.RegisterEnum(map[string]Status{"new": StatusNew, "done": StatusDone})
//
//	wire, err := typer.Serialize(StatusDone, schema.TypeEnum)    // "done"
//	st, err := typer.Decode[Status](wire, schema.TypeEnum)       // StatusDone
package typer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/syssam/tabula/schema"
)

// ErrUnsupported is returned when a value cannot be converted to or from
// the declared column type.
var ErrUnsupported = errors.New("typer: unsupported conversion")

func unsupported(v any, t schema.Type) error {
	return fmt.Errorf("%w: %T as %s", ErrUnsupported, v, t)
}

// Serialize converts v into the wire value of a column of type t. Nil
// values and nil pointers serialize to nil.
func Serialize(v any, t schema.Type) (any, error) {
	v = deref(v)
	if v == nil {
		return nil, nil
	}
	if c, ok := lookup(v); ok {
		return c.Serialize(v, t)
	}
	switch t {
	case schema.TypeBool:
		return toBool(v, t)
	case schema.TypeInt, schema.TypeInt64:
		return toInt64(v, t)
	case schema.TypeFloat64:
		return toFloat64(v, t)
	case schema.TypeString, schema.TypeText, schema.TypeEnum:
		return toString(v, t)
	case schema.TypeBytes:
		switch v := v.(type) {
		case []byte:
			return v, nil
		case string:
			return []byte(v), nil
		}
	case schema.TypeUUID:
		switch v := v.(type) {
		case uuid.UUID:
			return v.String(), nil
		case [16]byte:
			return uuid.UUID(v).String(), nil
		case string:
			id, err := uuid.Parse(v)
			if err != nil {
				return nil, fmt.Errorf("typer: %w", err)
			}
			return id.String(), nil
		}
	case schema.TypeTime:
		switch v := v.(type) {
		case time.Time:
			return v.UTC(), nil
		case string:
			return parseTime(v)
		}
	case schema.TypeJSON:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("typer: encoding json: %w", err)
		}
		return string(b), nil
	}
	return nil, unsupported(v, t)
}

// Deserialize converts a wire value read from a column of type t into its
// canonical Go value: bool, int, int64, float64, string, []byte,
// uuid.UUID, time.Time or, for JSON columns, json.RawMessage.
func Deserialize(wire any, t schema.Type) (any, error) {
	if wire == nil {
		return nil, nil
	}
	switch t {
	case schema.TypeBool:
		return toBool(wire, t)
	case schema.TypeInt:
		n, err := toInt64(wire, t)
		if err != nil {
			return nil, err
		}
		return int(n), nil
	case schema.TypeInt64:
		return toInt64(wire, t)
	case schema.TypeFloat64:
		return toFloat64(wire, t)
	case schema.TypeString, schema.TypeText, schema.TypeEnum:
		return toString(wire, t)
	case schema.TypeBytes:
		switch w := wire.(type) {
		case []byte:
			return append([]byte(nil), w...), nil
		case string:
			return []byte(w), nil
		}
	case schema.TypeUUID:
		switch w := wire.(type) {
		case []byte:
			if len(w) == 16 {
				return uuid.FromBytes(w)
			}
			return uuid.ParseBytes(w)
		case string:
			return uuid.Parse(w)
		case uuid.UUID:
			return w, nil
		}
	case schema.TypeTime:
		switch w := wire.(type) {
		case time.Time:
			return w.UTC(), nil
		case []byte:
			return parseTime(string(w))
		case string:
			return parseTime(w)
		case int64:
			return time.Unix(w, 0).UTC(), nil
		}
	case schema.TypeJSON:
		switch w := wire.(type) {
		case []byte:
			return json.RawMessage(append([]byte(nil), w...)), nil
		case string:
			return json.RawMessage(w), nil
		}
	}
	return nil, unsupported(wire, t)
}

func toBool(v any, t schema.Type) (bool, error) {
	switch v := v.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case int:
		return v != 0, nil
	case []byte:
		return strconv.ParseBool(string(v))
	case string:
		return strconv.ParseBool(v)
	}
	return false, unsupported(v, t)
}

func toInt64(v any, t schema.Type) (int64, error) {
	switch v := v.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return uintToInt64(uint64(v), t)
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return uintToInt64(v, t)
	case float64:
		if v != math.Trunc(v) {
			return 0, unsupported(v, t)
		}
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	case string:
		return strconv.ParseInt(v, 10, 64)
	case time.Duration:
		return int64(v), nil
	}
	return 0, unsupported(v, t)
}

func uintToInt64(v uint64, t schema.Type) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d overflows int64 (%s)", ErrUnsupported, v, t)
	}
	return int64(v), nil
}

func toFloat64(v any, t schema.Type) (float64, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case []byte:
		return strconv.ParseFloat(string(v), 64)
	case string:
		return strconv.ParseFloat(v, 64)
	}
	n, err := toInt64(v, t)
	if err != nil {
		return 0, err
	}
	return float64(n), nil
}

func toString(v any, t schema.Type) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	if name, ok := enumName(v); ok {
		return name, nil
	}
	return "", unsupported(v, t)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	// SQLite renders time.Time values with the monotonic suffix and zone
	// name when they are stored through fmt.
	if i := strings.Index(s, " m="); i > 0 {
		s = s[:i]
	}
	for _, layout := range timeLayouts {
		if tm, err := time.Parse(layout, s); err == nil {
			return tm.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: cannot parse %q as time", ErrUnsupported, s)
}
