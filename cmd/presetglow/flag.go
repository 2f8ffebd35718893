package main

import (
	"encoding"
	"fmt"

	"github.com/spf13/pflag"
)

type textValue interface {
	encoding.TextMarshaler
	encoding.TextUnmarshaler
}

// textFlag adapts a text (un)marshaler into a pflag.Value.
type textFlag struct{ v textValue }

var _ pflag.Value = textFlag{}

func (f textFlag) String() string {
	if f.v == nil {
		return ""
	}
	b, err := f.v.MarshalText()
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(b)
}

func (f textFlag) Set(s string) error { return f.v.UnmarshalText([]byte(s)) }
func (f textFlag) Type() string       { return "string" }
