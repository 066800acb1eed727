package record

import (
	"fmt"
	"math"
	"sort"
)

// FromAny converts plain decoded data (YAML or JSON) into a Value:
//
//   - string, bool, integers and floats become scalars; integral floats
//     become integers so that JSON and YAML inputs agree
//   - lists become sets of scalars
//   - {value, rating} maps become rated values
//   - {type, attrs} maps become nested records
func FromAny(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return nil, fmt.Errorf("null value")
	case Value:
		return x, nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			return Float(float64(x)), nil
		}
		return Int(int64(x)), nil
	case float32:
		return floatScalar(float64(x)), nil
	case float64:
		return floatScalar(x), nil
	case []any:
		items := make([]Scalar, 0, len(x))
		for i, el := range x {
			sv, err := FromAny(el)
			if err != nil {
				return nil, fmt.Errorf("set item %d: %w", i, err)
			}
			sc, ok := sv.(Scalar)
			if !ok {
				return nil, fmt.Errorf("set item %d: sets hold scalars, got %s", i, sv.Kind())
			}
			items = append(items, sc)
		}
		return NewSet(items...), nil
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, el := range x {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("map key %v is not a string", k)
			}
			m[ks] = el
		}
		return FromAny(m)
	case map[string]any:
		return mapValue(x)
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func floatScalar(f float64) Scalar {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1<<53 {
		return Int(int64(f))
	}
	return Float(f)
}

func mapValue(m map[string]any) (Value, error) {
	if raw, ok := m["rating"]; ok && len(m) == 2 {
		rating, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("rating must be a string, got %T", raw)
		}
		inner, ok := m["value"]
		if !ok {
			return nil, fmt.Errorf("rated value needs \"value\" and \"rating\"")
		}
		v, err := FromAny(inner)
		if err != nil {
			return nil, fmt.Errorf("rated value: %w", err)
		}
		sc, ok := v.(Scalar)
		if !ok {
			return nil, fmt.Errorf("rated value must be a scalar, got %s", v.Kind())
		}
		return NewRated(sc, rating), nil
	}

	rawType, ok := m["type"]
	if !ok {
		return nil, fmt.Errorf("map value needs either {value, rating} or {type, attrs}")
	}
	typ, ok := rawType.(string)
	if !ok {
		return nil, fmt.Errorf("record type must be a string, got %T", rawType)
	}
	for k := range m {
		if k != "type" && k != "attrs" {
			return nil, fmt.Errorf("record %q: unexpected key %q", typ, k)
		}
	}
	var attrs map[string]any
	switch a := m["attrs"].(type) {
	case nil:
	case map[string]any:
		attrs = a
	default:
		return nil, fmt.Errorf("record %q: attrs must be a map, got %T", typ, a)
	}
	return MessageFromAny(typ, attrs)
}

// MessageFromAny builds a message from plain decoded attributes.
func MessageFromAny(typ string, attrs map[string]any) (Message, error) {
	if typ == "" {
		return Message{}, fmt.Errorf("message type is required")
	}
	values := make(map[string]Value, len(attrs))
	for name, raw := range attrs {
		v, err := FromAny(raw)
		if err != nil {
			return Message{}, fmt.Errorf("message %q attribute %q: %w", typ, name, err)
		}
		values[name] = v
	}
	return NewMessage(typ, values), nil
}

// ToAny is the inverse of FromAny for display and JSON export. Relation
// nodes become {relation, nucleus, satellite} maps.
func ToAny(v Value) any {
	switch x := v.(type) {
	case nil:
		return nil
	case Scalar:
		return x.Interface()
	case Rated:
		return map[string]any{"value": x.value.Interface(), "rating": x.rating}
	case Set:
		out := make([]any, len(x.items))
		for i, it := range x.items {
			out[i] = it.Interface()
		}
		return out
	case Message:
		attrs := make(map[string]any, len(x.names))
		for _, name := range x.names {
			attrs[name] = ToAny(x.attrs[name])
		}
		return map[string]any{"type": x.typ, "attrs": attrs}
	case *ConstituentSet:
		return map[string]any{
			"relation":  x.relation,
			"nucleus":   ToAny(x.nucleus),
			"satellite": ToAny(x.satellite),
		}
	default:
		return v.Key()
	}
}

// sortedNames returns the keys of m in sorted order.
func sortedNames[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
