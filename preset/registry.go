package preset

import "github.com/pkg/errors"

// ErrUnknownPreset is returned by callers when an id does not resolve to a
// registered preset.
var ErrUnknownPreset = errors.New("unknown preset")

// Lookup returns the preset registered under id. There is no fallback: an
// unregistered id reports false.
func Lookup(id uint16) (Preset, bool) {
	switch id {
	case 0:
		return Preset{kind: RunningRainbow}, true
	default:
		return Preset{}, false
	}
}

// Resolve is like Lookup but returns ErrUnknownPreset for unregistered ids.
func Resolve(id uint16) (Preset, error) {
	p, ok := Lookup(id)
	if !ok {
		return Preset{}, errors.Wrapf(ErrUnknownPreset, "no preset with id %d", id)
	}
	return p, nil
}

// Registered returns every registered preset id in ascending order.
func Registered() []uint16 {
	return []uint16{0}
}
