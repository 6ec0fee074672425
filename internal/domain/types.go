package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// MapOfAny is persisted as JSONB
type MapOfAny map[string]any

func (m *MapOfAny) Scan(val interface{}) error {
	var data []byte

	switch v := val.(type) {
	case []byte:
		// the driver reuses the buffer for the next row
		data = bytes.Clone(v)
	case string:
		data = []byte(v)
	case nil:
		*m = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into MapOfAny", val)
	}

	return json.Unmarshal(data, m)
}

func (m MapOfAny) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}
