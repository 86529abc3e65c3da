package engine

import "math"

// Payload is the loosely-typed field bag of an ActionRequest. Rule
// modules validate every field they read at the dispatch boundary via
// the typed getters below before trusting it in rule logic; JSON
// decoding turns all numbers into float64, which the getters absorb.
type Payload map[string]any

// Int extracts an integer field. Rejects fractional values.
func (p Payload) Int(key string) (int, bool) {
	switch v := p[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	}
	return 0, false
}

// String extracts a string field.
func (p Payload) String(key string) (string, bool) {
	v, ok := p[key].(string)
	return v, ok
}

// Bool extracts a boolean field.
func (p Payload) Bool(key string) (bool, bool) {
	v, ok := p[key].(bool)
	return v, ok
}

// Config carries per-game named optional fields, applied only at
// construction time and immutable for the life of the session.
type Config map[string]any

// IntOr returns the named config field or def when absent.
func (c Config) IntOr(key string, def int) int {
	if v, ok := Payload(c).Int(key); ok {
		return v
	}
	return def
}

// FloatOr returns the named config field or def when absent.
func (c Config) FloatOr(key string, def float64) float64 {
	switch v := c[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

// BoolOr returns the named config field or def when absent.
func (c Config) BoolOr(key string, def bool) bool {
	if v, ok := c[key].(bool); ok {
		return v
	}
	return def
}
