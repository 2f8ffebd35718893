package settings

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/pkg/errors"
	"libdb.so/presetglow/preset"
)

// Endianness is the byte order of the persisted record.
var Endianness = binary.LittleEndian

// Field widths enforced by the wireless stack. They size the blob capacity.
const (
	MaxSSIDLen     = 32
	MaxPasswordLen = 64
)

var (
	// ErrTooLarge is returned when a credential exceeds its field width or
	// the encoded record does not fit the blob capacity.
	ErrTooLarge = errors.New("settings record exceeds capacity")
	// ErrMalformed is returned when stored bytes are not a well-formed
	// record.
	ErrMalformed = errors.New("malformed settings record")
)

const presetSettingsSize = 3

// Capacity returns the maximum encoded size of a record with presetCount
// preset slots. It is the size of a record whose credentials are at the
// wireless field widths.
func Capacity(presetCount int) int {
	return 1 + // mode
		2 + MaxSSIDLen +
		2 + MaxPasswordLen +
		1 + presetCount*presetSettingsSize +
		2 // current preset id
}

// Encode serializes s. The layout is:
//
//	mode        u8
//	ssid        u16 length, bytes
//	password    u16 length, bytes
//	presets     u8 count, count * (brightness, speed, scale)
//	current id  u16
//
// There is no version tag.
func Encode(s DeviceSettings, presetCount int) ([]byte, error) {
	if !s.WiFi.Mode.Valid() {
		return nil, errors.Wrapf(ErrMalformed, "invalid wifi mode %d", uint8(s.WiFi.Mode))
	}
	if presetCount > math.MaxUint8 {
		return nil, errors.Errorf("preset count %d does not fit the record", presetCount)
	}
	if len(s.Presets) != presetCount {
		return nil, errors.Wrapf(ErrMalformed,
			"record has %d preset slots, want %d", len(s.Presets), presetCount)
	}

	if len(s.WiFi.SSID) > MaxSSIDLen {
		return nil, errors.Wrapf(ErrTooLarge,
			"ssid is %d bytes, limit %d", len(s.WiFi.SSID), MaxSSIDLen)
	}
	if len(s.WiFi.Password) > MaxPasswordLen {
		return nil, errors.Wrapf(ErrTooLarge,
			"password is %d bytes, limit %d", len(s.WiFi.Password), MaxPasswordLen)
	}

	capacity := Capacity(presetCount)
	size := 1 + 2 + len(s.WiFi.SSID) + 2 + len(s.WiFi.Password) +
		1 + presetCount*presetSettingsSize + 2
	if size > capacity {
		return nil, errors.Wrapf(ErrTooLarge, "encoded size %d, capacity %d", size, capacity)
	}

	b := make([]byte, 0, size)
	b = append(b, byte(s.WiFi.Mode))
	b = appendString(b, s.WiFi.SSID)
	b = appendString(b, s.WiFi.Password)
	b = append(b, byte(presetCount))
	for _, p := range s.Presets {
		b = append(b, p.Brightness, p.Speed, p.Scale)
	}
	b = Endianness.AppendUint16(b, s.CurrentPresetID)
	return b, nil
}

func appendString(b []byte, s string) []byte {
	b = Endianness.AppendUint16(b, uint16(len(s)))
	return append(b, s...)
}

// Decode parses a record produced by Encode. It never returns a partially
// populated record: any deviation from the layout is ErrMalformed.
func Decode(b []byte, presetCount int) (DeviceSettings, error) {
	d := decoder{b: b}

	var s DeviceSettings

	mode := WiFiMode(d.readByte("wifi mode"))
	if d.err == nil && !mode.Valid() {
		d.fail("unknown wifi mode %d", uint8(mode))
	}
	s.WiFi.Mode = mode
	s.WiFi.SSID = d.readString("ssid")
	s.WiFi.Password = d.readString("password")

	count := int(d.readByte("preset count"))
	if d.err == nil && count != presetCount {
		d.fail("record has %d preset slots, want %d", count, presetCount)
	}
	if d.err == nil {
		s.Presets = make([]preset.Settings, count)
		for i := range s.Presets {
			raw := d.next(presetSettingsSize, "preset settings")
			if raw == nil {
				break
			}
			s.Presets[i] = preset.Settings{Brightness: raw[0], Speed: raw[1], Scale: raw[2]}
		}
	}

	if raw := d.next(2, "current preset id"); raw != nil {
		s.CurrentPresetID = Endianness.Uint16(raw)
	}

	if d.err == nil && len(d.b) > 0 {
		d.fail("%d trailing bytes", len(d.b))
	}

	if d.err != nil {
		return DeviceSettings{}, d.err
	}
	return s, nil
}

type decoder struct {
	b   []byte
	err error
}

func (d *decoder) fail(format string, args ...interface{}) {
	if d.err == nil {
		d.err = errors.Wrapf(ErrMalformed, format, args...)
	}
}

// next consumes n bytes. It returns nil once decoding has failed.
func (d *decoder) next(n int, field string) []byte {
	if d.err != nil {
		return nil
	}
	if len(d.b) < n {
		d.fail("truncated %s", field)
		return nil
	}
	v := d.b[:n]
	d.b = d.b[n:]
	return v
}

func (d *decoder) readByte(field string) byte {
	if v := d.next(1, field); v != nil {
		return v[0]
	}
	return 0
}

func (d *decoder) readString(field string) string {
	raw := d.next(2, field+" length")
	if raw == nil {
		return ""
	}
	v := d.next(int(Endianness.Uint16(raw)), field)
	if v == nil {
		return ""
	}
	if !utf8.Valid(v) {
		d.fail("%s is not valid UTF-8", field)
		return ""
	}
	return string(v)
}
