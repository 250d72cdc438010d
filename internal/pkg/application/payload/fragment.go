package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Fragment is the generated payload for one capability of one sensor. A nil
// Timestamp means the capability carries its own date property.
type Fragment struct {
	SensorAlternateID     string        `json:"sensorAlternateId"`
	CapabilityAlternateID string        `json:"capabilityAlternateId"`
	Timestamp             *string       `json:"timestamp,omitempty"`
	Measures              []Measurement `json:"measures"`
}

func (f Fragment) HasTimestamp() bool {
	return f.Timestamp != nil
}

// Measurement maps property names to sample values and keeps the order in
// which the names were first set.
type Measurement struct {
	names  []string
	values map[string]any
}

func NewMeasurement() Measurement {
	return Measurement{
		names:  make([]string, 0),
		values: make(map[string]any),
	}
}

// Set stores value under name. Setting a name twice keeps its original
// position and replaces the value.
func (m *Measurement) Set(name string, value any) {
	if m.values == nil {
		*m = NewMeasurement()
	}

	if _, exists := m.values[name]; !exists {
		m.names = append(m.names, name)
	}

	m.values[name] = value
}

func (m Measurement) Get(name string) (any, bool) {
	v, ok := m.values[name]
	return v, ok
}

func (m Measurement) Names() []string {
	names := make([]string, len(m.names))
	copy(names, m.names)
	return names
}

func (m Measurement) Len() int {
	return len(m.names)
}

func (m Measurement) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')

	for idx, name := range m.names {
		if idx > 0 {
			buf.WriteByte(',')
		}

		key, err := encode(name)
		if err != nil {
			return nil, err
		}

		value, err := encodeValue(m.values[name])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal value of %s: %w", name, err)
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *Measurement) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("measurement must be a json object")
	}

	*m = NewMeasurement()

	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return err
		}

		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v in measurement", tok)
		}

		var value any
		if err = dec.Decode(&value); err != nil {
			return err
		}

		m.Set(name, normalize(value))
	}

	_, err = dec.Token()
	return err
}

// normalize turns decoded json numbers into int64 when they have no fraction
// or exponent and into float64 otherwise. Whole floats are only told apart from
// integers at the top level of a measurement, see encodeValue.
func normalize(v any) any {
	switch value := v.(type) {
	case json.Number:
		if i, err := value.Int64(); err == nil {
			return i
		}
		f, _ := value.Float64()
		return f
	case []any:
		for idx := range value {
			value[idx] = normalize(value[idx])
		}
		return value
	case map[string]any:
		for k := range value {
			value[k] = normalize(value[k])
		}
		return value
	default:
		return v
	}
}

// encodeValue keeps a whole float64 recognizable as a float by writing it with
// a ".0" fraction, so that Parse does not turn it into an int64.
func encodeValue(v any) ([]byte, error) {
	if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return []byte(strconv.FormatFloat(f, 'f', -1, 64) + ".0"), nil
	}

	return encode(v)
}

func encode(v any) ([]byte, error) {
	buf := &bytes.Buffer{}

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
