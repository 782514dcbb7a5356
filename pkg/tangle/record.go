package tangle

import (
	"encoding/json"
	"sort"
	"time"
)

// ShortIDLength is the number of id characters shown on node labels and
// in compact listings.
const ShortIDLength = 6

// Record is one immutable entry of the tangle as delivered by a data source.
type Record struct {
	// ID uniquely identifies the record (the block hash)
	ID string

	// ParentIDs are the records this one references, in source order.
	// A genesis record has none.
	ParentIDs []string

	// Payload is the measurement data carried by the record
	Payload Payload

	// CreatedAt is the logical creation time in unix seconds
	CreatedAt int64

	// Signature is carried through for display only
	Signature string
}

// ShortID returns the first ShortIDLength characters of the id.
func (r Record) ShortID() string {
	return ShortID(r.ID)
}

// Created returns CreatedAt as a time.Time.
func (r Record) Created() time.Time {
	return time.Unix(r.CreatedAt, 0)
}

// IsGenesis reports whether the record has no parents.
func (r Record) IsGenesis() bool {
	return len(r.ParentIDs) == 0
}

// ShortID truncates id to ShortIDLength characters.
func ShortID(id string) string {
	n := 0
	for i := range id {
		if n == ShortIDLength {
			return id[:i]
		}
		n++
	}
	return id
}

// Payload is the opaque measurement map of a record. Known keys are
// pm25, co2, temperature and humidity, but any key may appear and any
// key may be missing.
type Payload map[string]any

// Well-known payload keys
const (
	KeyPM25        = "pm25"
	KeyCO2         = "co2"
	KeyTemperature = "temperature"
	KeyHumidity    = "humidity"
	KeyTimestamp   = "timestamp"
)

// Len returns the number of keys in the payload. A nil payload has none.
func (p Payload) Len() int {
	return len(p)
}

// Number returns the numeric value stored under key. The second result is
// false when the key is missing or its value is not a number.
func (p Payload) Number(key string) (float64, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}

	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Keys returns the payload keys in sorted order.
func (p Payload) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
