package tangle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Block is the wire representation of a record served under /api/blocks.
type Block struct {
	Hash         string    `json:"hash"`
	Timestamp    Timestamp `json:"timestamp"`
	SensorData   Payload   `json:"sensor_data,omitempty"`
	Signature    string    `json:"signature"`
	ParentHashes []string  `json:"parent_hashes"`
}

// Record converts the block into a Record.
func (b Block) Record() Record {
	parents := make([]string, len(b.ParentHashes))
	copy(parents, b.ParentHashes)

	return Record{
		ID:        b.Hash,
		ParentIDs: parents,
		Payload:   b.SensorData,
		CreatedAt: int64(b.Timestamp),
		Signature: b.Signature,
	}
}

// BlockFromRecord converts a Record back into its wire form.
func BlockFromRecord(r Record) Block {
	parents := r.ParentIDs
	if parents == nil {
		parents = []string{}
	}
	return Block{
		Hash:         r.ID,
		Timestamp:    Timestamp(r.CreatedAt),
		SensorData:   r.Payload,
		Signature:    r.Signature,
		ParentHashes: parents,
	}
}

// Response is the envelope every API endpoint answers with.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// SensorReading is the request body accepted by POST /api/blocks.
type SensorReading struct {
	PM25        float64 `json:"pm25"`
	CO2         float64 `json:"co2"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Timestamp   int64   `json:"timestamp"`
}

// Payload returns the reading as a record payload.
func (s SensorReading) Payload() Payload {
	return Payload{
		KeyPM25:        s.PM25,
		KeyCO2:         s.CO2,
		KeyTemperature: s.Temperature,
		KeyHumidity:    s.Humidity,
		KeyTimestamp:   float64(s.Timestamp),
	}
}

// Timestamp is a unix-seconds time that also accepts RFC 3339 strings and
// numeric strings when decoding.
type Timestamp int64

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*t = 0
			return nil
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			*t = Timestamp(int64(n))
			return nil
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		*t = Timestamp(parsed.Unix())
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", string(data), err)
	}
	*t = Timestamp(int64(n))
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(t), 10)), nil
}
