// Package model contains the labsync domain entities and the fallible
// decoders that build them from wire payloads.
package model

import (
	"encoding/json"
	"math"
	"time"
)

// Payload is one decoded JSON object.
type Payload map[string]any

// AsPayload converts a decoded JSON value into a Payload.
func AsPayload(v any) (Payload, bool) {
	switch p := v.(type) {
	case Payload:
		return p, p != nil
	case map[string]any:
		return Payload(p), p != nil
	default:
		return nil, false
	}
}

// Has reports whether key is present and not null.
func (p Payload) Has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

// String returns the string at key.
func (p Payload) String(key string) (string, bool) {
	s, ok := p[key].(string)
	return s, ok
}

// Bool returns the bool at key.
func (p Payload) Bool(key string) (bool, bool) {
	b, ok := p[key].(bool)
	return b, ok
}

// Int returns the integral number at key.
func (p Payload) Int(key string) (int, bool) {
	switch n := p[key].(type) {
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}

// Object returns the nested object at key.
func (p Payload) Object(key string) (Payload, bool) {
	return AsPayload(p[key])
}

// List returns the array at key.
func (p Payload) List(key string) ([]any, bool) {
	l, ok := p[key].([]any)
	return l, ok
}

// Date returns the timestamp at key, parsed with ParseDate.
func (p Payload) Date(key string) (time.Time, bool) {
	s, ok := p.String(key)
	if !ok {
		return time.Time{}, false
	}
	t, err := ParseDate(s)
	return t, err == nil
}

// optionalDate returns a pointer to the date at key. A present but malformed
// date fails.
func (p Payload) optionalDate(key string) (*time.Time, bool) {
	if !p.Has(key) {
		return nil, true
	}
	t, ok := p.Date(key)
	if !ok {
		return nil, false
	}
	return &t, true
}

// DecodeList decodes every object in raw with decode, skipping items that fail.
func DecodeList[T any](raw any, decode func(Payload) (T, bool)) []T {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		p, ok := AsPayload(item)
		if !ok {
			continue
		}
		if v, ok := decode(p); ok {
			out = append(out, v)
		}
	}
	return out
}

// DecodeOne decodes raw as a single object with decode.
func DecodeOne[T any](raw any, decode func(Payload) (T, bool)) (T, bool) {
	p, ok := AsPayload(raw)
	if !ok {
		var zero T
		return zero, false
	}
	return decode(p)
}

func stringList(raw []any) []string {
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
