package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONDocument stores an arbitrary JSON object inside a JSONB column.
type JSONDocument json.RawMessage

// Value serializes the document for the driver.
func (j JSONDocument) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan decodes JSONB into the document.
func (j *JSONDocument) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case string:
		*j = JSONDocument(v)
	case []byte:
		buf := make([]byte, len(v))
		copy(buf, v)
		*j = buf
	default:
		return fmt.Errorf("unsupported scan type %T", value)
	}
	return nil
}

// MarshalJSON keeps the raw bytes intact.
func (j JSONDocument) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return []byte(j), nil
}

// UnmarshalJSON keeps the raw bytes intact.
func (j *JSONDocument) UnmarshalJSON(data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	*j = buf
	return nil
}
