package siteconfig

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// object is a JSON object that remembers the order of its keys. Values are
// kept as raw JSON so numbers and nested structures survive untouched.
type object struct {
	m *orderedmap.OrderedMap[string, json.RawMessage]
}

func newObject() *object {
	return &object{m: orderedmap.New[string, json.RawMessage]()}
}

func (o *object) Get(key string) (json.RawMessage, bool) {
	return o.m.Get(key)
}

// Set assigns key, appending it when new and keeping its position otherwise.
func (o *object) Set(key string, value any) error {
	raw, err := marshalNoEscape(value)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}
	o.m.Set(key, raw)
	return nil
}

func (o *object) Delete(key string) {
	o.m.Delete(key)
}

func (o *object) Keys() []string {
	keys := make([]string, 0, o.m.Len())
	for pair := o.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

func (o *object) Clone() *object {
	c := newObject()
	for pair := o.m.Oldest(); pair != nil; pair = pair.Next() {
		c.m.Set(pair.Key, append(json.RawMessage(nil), pair.Value...))
	}
	return c
}

func (o *object) UnmarshalJSON(data []byte) error {
	m := orderedmap.New[string, json.RawMessage]()
	if err := m.UnmarshalJSON(data); err != nil {
		return err
	}
	o.m = m
	return nil
}

// MarshalJSON writes the members in order. The map's own encoder is not used
// because it HTML-escapes string values.
func (o *object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for pair := o.m.Oldest(); pair != nil; pair = pair.Next() {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(pair.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(pair.Value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalNoEscape encodes v without HTML escaping and without the trailing
// newline json.Encoder adds.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
