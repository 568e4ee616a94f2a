package inscription

import "fmt"

// Reserved and required metadata keys.
const (
	KeyCmd  = "cmd"
	KeyApp  = "app"
	KeyType = "type"
)

// Metadata is an ordered mapping of string keys to byte-string values. Keys
// keep their first insertion position; overwriting a key keeps its slot.
// The zero value is ready to use.
type Metadata struct {
	keys   []string
	values map[string][]byte
}

// NewMetadata returns metadata holding the given key/value pairs in order.
func NewMetadata(pairs ...[2]string) (*Metadata, error) {
	m := &Metadata{}
	for _, p := range pairs {
		if err := m.SetString(p[0], p[1]); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Set stores value under key.
func (m *Metadata) Set(key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	if key == KeyCmd {
		return fmt.Errorf("%w: %q", ErrReservedKey, key)
	}
	if m.values == nil {
		m.values = make(map[string][]byte)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = append([]byte(nil), value...)
	return nil
}

// SetString stores a string value under key.
func (m *Metadata) SetString(key, value string) error {
	return m.Set(key, []byte(value))
}

// Get returns the value stored under key.
func (m *Metadata) Get(key string) ([]byte, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *Metadata) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Len returns the number of stored keys.
func (m *Metadata) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// HasMAPFields reports whether both "app" and "type" hold non-empty values,
// which is what qualifies metadata for a MAP envelope.
func (m *Metadata) HasMAPFields() bool {
	app, ok := m.Get(KeyApp)
	if !ok || len(app) == 0 {
		return false
	}
	typ, ok := m.Get(KeyType)
	return ok && len(typ) > 0
}
