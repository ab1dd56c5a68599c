package typer

import (
	"fmt"
	"math"
	"reflect"
	"sync"

	"github.com/goccy/go-json"

	"github.com/syssam/tabula/schema"
)

// Converter converts a custom Go type to and from its wire value.
type Converter interface {
	Serialize(v any, t schema.Type) (any, error)
	Deserialize(wire any, t schema.Type) (any, error)
}

// ConverterFuncs adapts two functions to a Converter.
type ConverterFuncs struct {
	To   func(v any, t schema.Type) (any, error)
	From func(wire any, t schema.Type) (any, error)
}

// Serialize implements Converter.
func (c ConverterFuncs) Serialize(v any, t schema.Type) (any, error) { return c.To(v, t) }

// Deserialize implements Converter.
func (c ConverterFuncs) Deserialize(wire any, t schema.Type) (any, error) { return c.From(wire, t) }

var registry = struct {
	sync.RWMutex
	converters map[reflect.Type]Converter
	enums      map[reflect.Type]*enumType
}{
	converters: make(map[reflect.Type]Converter),
	enums:      make(map[reflect.Type]*enumType),
}

type enumType struct {
	byName  map[string]any
	byValue map[any]string
}

// Register installs a converter for the Go type T. It takes precedence over
// the built-in conversions.
func Register[T any](c Converter) {
	registry.Lock()
	defer registry.Unlock()
	registry.converters[reflect.TypeFor[T]()] = c
}

// RegisterEnum registers the names of an enum type. Values are stored by
// name and looked up by name when decoded.
func RegisterEnum[T comparable](values map[string]T) {
	e := &enumType{
		byName:  make(map[string]any, len(values)),
		byValue: make(map[any]string, len(values)),
	}
	for name, v := range values {
		e.byName[name] = v
		e.byValue[v] = name
	}
	registry.Lock()
	defer registry.Unlock()
	registry.enums[reflect.TypeFor[T]()] = e
}

func lookup(v any) (Converter, bool) {
	registry.RLock()
	defer registry.RUnlock()
	c, ok := registry.converters[reflect.TypeOf(v)]
	return c, ok
}

func enumName(v any) (string, bool) {
	registry.RLock()
	e, ok := registry.enums[reflect.TypeOf(v)]
	registry.RUnlock()
	if !ok {
		return "", false
	}
	name, ok := e.byValue[v]
	return name, ok
}

func deref(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

// Decode deserializes a wire value into T. Registered converters and enums
// for T are consulted first; JSON columns are unmarshaled into T; other
// values are converted from their canonical Go value. A nil wire value
// decodes to the zero value of T.
func Decode[T any](wire any, t schema.Type) (T, error) {
	var zero T
	if wire == nil {
		return zero, nil
	}
	rt := reflect.TypeFor[T]()
	registry.RLock()
	c, hasConv := registry.converters[rt]
	e, hasEnum := registry.enums[rt]
	registry.RUnlock()
	switch {
	case hasConv:
		v, err := c.Deserialize(wire, t)
		if err != nil {
			return zero, err
		}
		return assign[T](v, t)
	case hasEnum:
		name, err := toString(wire, t)
		if err != nil {
			return zero, err
		}
		v, ok := e.byName[name]
		if !ok {
			return zero, fmt.Errorf("%w: unknown %s value %q", ErrUnsupported, rt, name)
		}
		return v.(T), nil
	case t == schema.TypeJSON:
		var out T
		var data []byte
		switch w := wire.(type) {
		case []byte:
			data = w
		case string:
			data = []byte(w)
		default:
			return zero, unsupported(wire, t)
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return zero, fmt.Errorf("typer: decoding json: %w", err)
		}
		return out, nil
	}
	v, err := Deserialize(wire, t)
	if err != nil {
		return zero, err
	}
	return assign[T](v, t)
}

func assign[T any](v any, t schema.Type) (T, error) {
	var zero T
	if out, ok := v.(T); ok {
		return out, nil
	}
	rv := reflect.ValueOf(v)
	rt := reflect.TypeFor[T]()
	if rv.IsValid() && rv.Type().ConvertibleTo(rt) && sameKindFamily(rv.Kind(), rt.Kind()) {
		if overflows(rv, rt) {
			return zero, fmt.Errorf("%w: %v overflows %s (%s)", ErrUnsupported, v, rt, t)
		}
		return rv.Convert(rt).Interface().(T), nil
	}
	return zero, fmt.Errorf("%w: %T into %s (%s)", ErrUnsupported, v, rt, t)
}

// overflows reports whether converting the number rv to rt loses its
// value.
func overflows(rv reflect.Value, rt reflect.Type) bool {
	out := reflect.Zero(rt)
	switch {
	case rv.CanInt():
		n := rv.Int()
		switch {
		case out.CanInt():
			return out.OverflowInt(n)
		case out.CanUint():
			return n < 0 || out.OverflowUint(uint64(n))
		}
	case rv.CanUint():
		n := rv.Uint()
		switch {
		case out.CanInt():
			return n > math.MaxInt64 || out.OverflowInt(int64(n))
		case out.CanUint():
			return out.OverflowUint(n)
		}
	case rv.CanFloat():
		if out.CanFloat() {
			return out.OverflowFloat(rv.Float())
		}
	}
	return false
}

// sameKindFamily prevents conversions such as int to string that
// reflect allows but that change the meaning of a value.
func sameKindFamily(a, b reflect.Kind) bool {
	family := func(k reflect.Kind) int {
		switch k {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return 1
		case reflect.Float32, reflect.Float64:
			return 2
		case reflect.String:
			return 3
		default:
			return int(k) + 10
		}
	}
	return family(a) == family(b)
}
