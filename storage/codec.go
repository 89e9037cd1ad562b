package storage

import (
	"encoding"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// record is the stored form of a value.
type record struct {
	Type  string  `cbor:"1,keyasint"`
	Int   int64   `cbor:"2,keyasint,omitempty"`
	Float float64 `cbor:"3,keyasint,omitempty"`
	Text  string  `cbor:"4,keyasint,omitempty"`
	Bool  bool    `cbor:"5,keyasint,omitempty"`
}

// UnsupportedValue occurs when encoding a value the Codec doesn't
// know how to store.
type UnsupportedValue struct {
	Value interface{}
}

func (e *UnsupportedValue) Error() string {
	return fmt.Sprintf("can't store a %T", e.Value)
}

// UnknownRecord occurs when decoding a record whose type isn't
// registered.
type UnknownRecord struct {
	Type string
}

func (e *UnknownRecord) Error() string {
	return fmt.Sprintf("unknown stored type %q", e.Type)
}

// Codec turns values into canonical CBOR and back.
//
// Integers, numbers, strings, booleans, and times are built in.
// Other types are stored as text after registration.
type Codec struct {
	enc cbor.EncMode

	mu     sync.RWMutex
	byName map[string]func(string) (interface{}, error)
	byType map[reflect.Type]string
}

// NewCodec makes a Codec that knows the built-in types.
func NewCodec() *Codec {
	enc, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return &Codec{
		enc:    enc,
		byName: make(map[string]func(string) (interface{}, error)),
		byType: make(map[reflect.Type]string),
	}
}

// Register teaches the Codec to store values with the same dynamic
// type as sample.  The value must implement encoding.TextMarshaler,
// and decode must invert MarshalText.
func (c *Codec) Register(name string, sample encoding.TextMarshaler, decode func(string) (interface{}, error)) {
	c.mu.Lock()
	c.byName[name] = decode
	c.byType[reflect.TypeOf(sample)] = name
	c.mu.Unlock()
}

// Encode renders a value as a canonical CBOR record.
func (c *Codec) Encode(v interface{}) ([]byte, error) {
	var r record
	switch x := v.(type) {
	case int64:
		r = record{Type: "integer", Int: x}
	case int:
		r = record{Type: "integer", Int: int64(x)}
	case float64:
		r = record{Type: "number", Float: x}
	case string:
		r = record{Type: "string", Text: x}
	case bool:
		r = record{Type: "boolean", Bool: x}
	case time.Time:
		r = record{Type: "date", Text: x.Format(time.RFC3339Nano)}
	default:
		c.mu.RLock()
		name, have := c.byType[reflect.TypeOf(v)]
		c.mu.RUnlock()
		m, is := v.(encoding.TextMarshaler)
		if !have || !is {
			return nil, &UnsupportedValue{Value: v}
		}
		bs, err := m.MarshalText()
		if err != nil {
			return nil, err
		}
		r = record{Type: name, Text: string(bs)}
	}
	return c.enc.Marshal(&r)
}

// Decode is the inverse of Encode.
func (c *Codec) Decode(bs []byte) (interface{}, error) {
	var r record
	if err := cbor.Unmarshal(bs, &r); err != nil {
		return nil, err
	}
	switch r.Type {
	case "integer":
		return r.Int, nil
	case "number":
		return r.Float, nil
	case "string":
		return r.Text, nil
	case "boolean":
		return r.Bool, nil
	case "date":
		return time.Parse(time.RFC3339Nano, r.Text)
	}

	c.mu.RLock()
	decode, have := c.byName[r.Type]
	c.mu.RUnlock()
	if !have {
		return nil, &UnknownRecord{Type: r.Type}
	}
	return decode(r.Text)
}
