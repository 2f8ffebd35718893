package settings

import (
	"sync"

	"github.com/pkg/errors"
)

// Key is the key the settings blob is stored under.
const Key = "device_settings"

// ErrBufferTooSmall is returned by a KV when a stored value does not fit the
// caller's buffer.
var ErrBufferTooSmall = errors.New("stored value exceeds buffer")

// KV is a non-volatile key/value store holding binary blobs.
type KV interface {
	// Blob reads the value stored under key into buf and returns the filled
	// part of buf. It reports false if the key is absent, and returns
	// ErrBufferTooSmall if the value is longer than buf.
	Blob(key string, buf []byte) ([]byte, bool, error)
	// SetBlob stores data under key.
	SetBlob(key string, data []byte) error
}

// Store persists DeviceSettings in a KV.
type Store struct {
	kv          KV
	presetCount int
}

// NewStore creates a store for records with presetCount preset slots.
func NewStore(kv KV, presetCount int) *Store {
	return &Store{kv: kv, presetCount: presetCount}
}

// Save encodes s and writes it under Key. A record that does not fit the
// capacity is rejected, never truncated.
func (s *Store) Save(settings DeviceSettings) error {
	b, err := Encode(settings, s.presetCount)
	if err != nil {
		return errors.Wrap(err, "failed to encode settings")
	}
	if err := s.kv.SetBlob(Key, b); err != nil {
		return errors.Wrap(err, "failed to write settings")
	}
	return nil
}

// Load reads the stored settings. It returns nil without an error if nothing
// was ever saved. Stored bytes that do not decode are an error.
func (s *Store) Load() (*DeviceSettings, error) {
	buf := make([]byte, Capacity(s.presetCount))

	b, ok, err := s.kv.Blob(Key, buf)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read settings")
	}
	if !ok {
		return nil, nil
	}

	settings, err := Decode(b, s.presetCount)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	return &settings, nil
}

// LoadOrDefault is like Load but returns Default when nothing was saved. The
// second return value reports whether the defaults were used.
func (s *Store) LoadOrDefault() (DeviceSettings, bool, error) {
	settings, err := s.Load()
	if err != nil {
		return DeviceSettings{}, false, err
	}
	if settings == nil {
		return Default(s.presetCount), true, nil
	}
	return *settings, false, nil
}

// MemoryKV is a KV kept in memory. It is used by tests and by targets
// without persistent storage. The zero value is an empty store.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

var _ KV = (*MemoryKV)(nil)

// NewMemoryKV creates an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

// Blob implements KV.
func (m *MemoryKV) Blob(key string, buf []byte) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	if len(v) > len(buf) {
		return nil, true, ErrBufferTooSmall
	}
	return buf[:copy(buf, v)], true, nil
}

// SetBlob implements KV.
func (m *MemoryKV) SetBlob(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = append([]byte(nil), data...)
	return nil
}
