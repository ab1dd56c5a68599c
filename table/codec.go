package table

import (
	"fmt"
	"maps"

	"github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/tabula/schema"
)

// Record holds the fields of one entity keyed by field name. Values are Go
// values; conversion to and from wire values happens per declared column
// type.
type Record = map[string]any

// Codec converts entities to and from records.
type Codec[T any] interface {
	Encode(T) (Record, error)
	Decode(Record) (T, error)
}

// CodecFuncs adapts a pair of functions to a Codec.
type CodecFuncs[T any] struct {
	EncodeFunc func(T) (Record, error)
	DecodeFunc func(Record) (T, error)
}

// Encode calls c.EncodeFunc.
func (c CodecFuncs[T]) Encode(v T) (Record, error) { return c.EncodeFunc(v) }

// Decode calls c.DecodeFunc.
func (c CodecFuncs[T]) Decode(r Record) (T, error) { return c.DecodeFunc(r) }

// Records is the identity codec for tables accessed as plain records.
type Records struct{}

// Encode returns a copy of r.
func (Records) Encode(r Record) (Record, error) { return maps.Clone(r), nil }

// Decode returns r.
func (Records) Decode(r Record) (Record, error) { return r, nil }

// pack splits r into declared fields and the wire value of the overflow
// column. Fields that match no declared column are an error unless the
// table is extrinsic.
func pack(t *schema.Table, r Record) (map[string]any, error) {
	row := make(map[string]any, len(r)+1)
	var extra map[string]any
	for k, v := range r {
		if c, ok := t.Column(k); ok {
			row[c.Name] = v
			continue
		}
		if !t.Extrinsic() {
			return nil, fmt.Errorf("table: unknown field %q in table %q", k, t.Name)
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = v
	}
	if extra == nil {
		return row, nil
	}
	data, err := encodeOverflow(t.Overflow, extra)
	if err != nil {
		return nil, fmt.Errorf("table: %s: %w", t.Name, err)
	}
	row[t.OverflowName] = data
	return row, nil
}

func encodeOverflow(o schema.Overflow, m map[string]any) (any, error) {
	switch o {
	case schema.OverflowJSON:
		b, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("encoding overflow: %w", err)
		}
		return string(b), nil
	case schema.OverflowMsgpack:
		b, err := msgpack.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("encoding overflow: %w", err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("unexpected overflow codec %d", o)
}

func decodeOverflow(o schema.Overflow, wire any) (map[string]any, error) {
	var data []byte
	switch w := wire.(type) {
	case nil:
		return nil, nil
	case string:
		data = []byte(w)
	case []byte:
		data = w
	default:
		return nil, fmt.Errorf("decoding overflow: unexpected %T", wire)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var m map[string]any
	switch o {
	case schema.OverflowJSON:
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decoding overflow: %w", err)
		}
	case schema.OverflowMsgpack:
		if err := msgpack.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decoding overflow: %w", err)
		}
	default:
		return nil, fmt.Errorf("unexpected overflow codec %d", o)
	}
	return m, nil
}
