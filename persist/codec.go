package persist

import (
	"encoding/json"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// Record is the wire shape of one persisted entry: the JSON-encoded state
// projection plus the version it was written under.
type Record struct {
	State   json.RawMessage `json:"state"`
	Version int             `json:"version"`
}

// Codec encodes the record envelope for storage. The state payload inside
// the envelope is always JSON; codecs only choose the envelope format.
type Codec interface {
	Marshal(rec Record) ([]byte, error)
	Unmarshal(data []byte) (Record, error)
}

// JSONCodec is the default envelope format.
type JSONCodec struct{}

// Marshal encodes the record as a JSON object.
func (JSONCodec) Marshal(rec Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a JSON record.
func (JSONCodec) Unmarshal(data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

type tomlRecord struct {
	State   string `toml:"state"`
	Version int    `toml:"version"`
}

// TOMLCodec wraps the record in a TOML document, with the JSON state
// payload carried as a string. Useful when records live next to TOML
// configuration files.
type TOMLCodec struct{}

// Marshal encodes the record as a TOML document.
func (TOMLCodec) Marshal(rec Record) ([]byte, error) {
	data, err := toml.Marshal(tomlRecord{State: string(rec.State), Version: rec.Version})
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a TOML record.
func (TOMLCodec) Unmarshal(data []byte) (Record, error) {
	var rec tomlRecord
	if err := toml.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	return Record{State: json.RawMessage(rec.State), Version: rec.Version}, nil
}
