package record

import (
	"encoding/json"
	"fmt"
)

// wire is the lossless JSON form of a Value. Unlike ToAny it keeps integers
// and floats apart and needs no shape sniffing to decode.
type wire struct {
	K         string          `json:"k"`
	S         string          `json:"s,omitempty"`
	I         int64           `json:"i,omitempty"`
	F         float64         `json:"f,omitempty"`
	B         bool            `json:"b,omitempty"`
	Rating    string          `json:"rating,omitempty"`
	Items     []wire          `json:"items,omitempty"`
	Type      string          `json:"type,omitempty"`
	Attrs     map[string]wire `json:"attrs,omitempty"`
	Nucleus   *wire           `json:"nucleus,omitempty"`
	Satellite *wire           `json:"satellite,omitempty"`
}

// Wire kinds.
const (
	wireString   = "s"
	wireInt      = "i"
	wireFloat    = "f"
	wireBool     = "b"
	wireNull     = "null"
	wireRated    = "rated"
	wireSet      = "set"
	wireMessage  = "msg"
	wireRelation = "rel"
)

// EncodeValue serializes a value to its lossless JSON form.
func EncodeValue(v Value) ([]byte, error) {
	w, err := toWire(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// DecodeValue parses the output of EncodeValue.
func DecodeValue(data []byte) (Value, error) {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("record: decode: %w", err)
	}
	return fromWire(w)
}

// DecodeNode parses an encoded message or relation node.
func DecodeNode(data []byte) (Node, error) {
	v, err := DecodeValue(data)
	if err != nil {
		return nil, err
	}
	n, ok := v.(Node)
	if !ok {
		return nil, fmt.Errorf("record: decode: expected a node, got %s", v.Kind())
	}
	return n, nil
}

func scalarWire(s Scalar) wire {
	switch v := s.v.(type) {
	case string:
		return wire{K: wireString, S: v}
	case int64:
		return wire{K: wireInt, I: v}
	case float64:
		return wire{K: wireFloat, F: v}
	case bool:
		return wire{K: wireBool, B: v}
	default:
		return wire{K: wireNull}
	}
}

func toWire(v Value) (wire, error) {
	switch x := v.(type) {
	case Scalar:
		return scalarWire(x), nil
	case Rated:
		return wire{K: wireRated, Rating: x.rating, Items: []wire{scalarWire(x.value)}}, nil
	case Set:
		w := wire{K: wireSet, Items: make([]wire, len(x.items))}
		for i, it := range x.items {
			w.Items[i] = scalarWire(it)
		}
		return w, nil
	case Message:
		w := wire{K: wireMessage, Type: x.typ, Attrs: make(map[string]wire, len(x.names))}
		for _, name := range x.names {
			aw, err := toWire(x.attrs[name])
			if err != nil {
				return wire{}, fmt.Errorf("attribute %q: %w", name, err)
			}
			w.Attrs[name] = aw
		}
		return w, nil
	case *ConstituentSet:
		n, err := toWire(x.nucleus)
		if err != nil {
			return wire{}, err
		}
		s, err := toWire(x.satellite)
		if err != nil {
			return wire{}, err
		}
		return wire{K: wireRelation, Type: x.relation, Nucleus: &n, Satellite: &s}, nil
	default:
		return wire{}, fmt.Errorf("record: encode: unsupported value %T", v)
	}
}

func fromWire(w wire) (Value, error) {
	switch w.K {
	case wireString:
		return String(w.S), nil
	case wireInt:
		return Int(w.I), nil
	case wireFloat:
		return Float(w.F), nil
	case wireBool:
		return Bool(w.B), nil
	case wireNull:
		return Scalar{}, nil
	case wireRated:
		if len(w.Items) != 1 {
			return nil, fmt.Errorf("record: decode: rated value needs exactly one item")
		}
		inner, err := wireScalar(w.Items[0])
		if err != nil {
			return nil, err
		}
		return NewRated(inner, w.Rating), nil
	case wireSet:
		items := make([]Scalar, 0, len(w.Items))
		for _, iw := range w.Items {
			sc, err := wireScalar(iw)
			if err != nil {
				return nil, err
			}
			items = append(items, sc)
		}
		return NewSet(items...), nil
	case wireMessage:
		attrs := make(map[string]Value, len(w.Attrs))
		for _, name := range sortedNames(w.Attrs) {
			v, err := fromWire(w.Attrs[name])
			if err != nil {
				return nil, fmt.Errorf("attribute %q: %w", name, err)
			}
			attrs[name] = v
		}
		return NewMessage(w.Type, attrs), nil
	case wireRelation:
		if w.Nucleus == nil || w.Satellite == nil {
			return nil, fmt.Errorf("record: decode: relation %q needs nucleus and satellite", w.Type)
		}
		n, err := wireNode(*w.Nucleus)
		if err != nil {
			return nil, err
		}
		s, err := wireNode(*w.Satellite)
		if err != nil {
			return nil, err
		}
		return NewConstituentSet(w.Type, n, s), nil
	default:
		return nil, fmt.Errorf("record: decode: unknown kind %q", w.K)
	}
}

func wireScalar(w wire) (Scalar, error) {
	v, err := fromWire(w)
	if err != nil {
		return Scalar{}, err
	}
	sc, ok := v.(Scalar)
	if !ok {
		return Scalar{}, fmt.Errorf("record: decode: expected scalar, got %s", v.Kind())
	}
	return sc, nil
}

func wireNode(w wire) (Node, error) {
	v, err := fromWire(w)
	if err != nil {
		return nil, err
	}
	n, ok := v.(Node)
	if !ok {
		return nil, fmt.Errorf("record: decode: expected node, got %s", v.Kind())
	}
	return n, nil
}
