package ledserial

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"testing"
)

func TestIncomingPackets(t *testing.T) {
	var buf bytes.Buffer

	packets := []IncomingPacket{
		InitializePacket{NumLEDs: 2},
		SetPacket{Pix: []uint8{1, 2, 3, 4, 5, 6}},
		ClearPacket{},
	}
	for _, p := range packets {
		if err := WriteIncomingPacket(&buf, p); err != nil {
			t.Fatalf("WriteIncomingPacket(%s) error: %v", p.Type(), err)
		}
	}

	ctx := ReadContext{}
	for _, want := range packets {
		got, err := ReadIncomingPacket(&buf, ctx)
		if err != nil {
			t.Fatalf("ReadIncomingPacket() error: %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("ReadIncomingPacket() = %#v, want %#v", got, want)
		}
		if p, ok := got.(InitializePacket); ok {
			ctx.NumLEDs = p.NumLEDs
		}
	}

	if _, err := ReadIncomingPacket(&buf, ctx); !errors.Is(err, io.EOF) {
		t.Errorf("ReadIncomingPacket() on drained reader = %v, want EOF", err)
	}
}

func TestOutgoingPackets(t *testing.T) {
	var buf bytes.Buffer

	packets := []OutgoingPacket{
		AckPacket{IncomingPacketType: TypeSetPacket},
		LogPacket{Message: "hello"},
		ErrorPacket{Message: "invalid number of pixels"},
		PanicPacket{},
	}
	for _, p := range packets {
		if err := WriteOutgoingPacket(&buf, p); err != nil {
			t.Fatalf("WriteOutgoingPacket(%s) error: %v", p.Type(), err)
		}
	}

	for _, want := range packets {
		got, err := ReadOutgoingPacket(&buf)
		if err != nil {
			t.Fatalf("ReadOutgoingPacket() error: %v", err)
		}
		if got != want {
			t.Errorf("ReadOutgoingPacket() = %#v, want %#v", got, want)
		}
	}
}

func TestChecksumMismatch(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteIncomingPacket(&buf, SetPacket{Pix: []uint8{9, 9, 9}}); err != nil {
		t.Fatalf("WriteIncomingPacket() error: %v", err)
	}

	b := buf.Bytes()
	b[2] ^= 0xFF // corrupt a pixel byte

	_, err := ReadIncomingPacket(bytes.NewReader(b), ReadContext{NumLEDs: 1})
	if !errors.Is(err, ErrChecksum) {
		t.Errorf("ReadIncomingPacket() error = %v, want ErrChecksum", err)
	}
}

func TestWireLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteIncomingPacket(&buf, InitializePacket{NumLEDs: 18}); err != nil {
		t.Fatalf("WriteIncomingPacket() error: %v", err)
	}

	// type, u16 LE count, u32 LE crc
	if buf.Len() != 1+2+4 {
		t.Fatalf("packet is %d bytes, want 7", buf.Len())
	}
	if got := buf.Bytes()[:3]; !bytes.Equal(got, []byte{0, 18, 0}) {
		t.Errorf("packet header = %v", got)
	}
}

func TestInvalidPackets(t *testing.T) {
	if err := WriteIncomingPacket(io.Discard, SetPacket{Pix: []uint8{1, 2}}); err == nil {
		t.Error("WriteIncomingPacket() with partial pixel succeeded")
	}

	if _, err := ReadIncomingPacket(bytes.NewReader([]byte{0x7F}), ReadContext{}); err == nil {
		t.Error("ReadIncomingPacket() with unknown type succeeded")
	}
	if _, err := ReadOutgoingPacket(bytes.NewReader([]byte{0x7F})); err == nil {
		t.Error("ReadOutgoingPacket() with unknown type succeeded")
	}

	truncated := []byte{byte(TypeLogPacket), 10, 0, 'h', 'i'}
	if _, err := ReadOutgoingPacket(bytes.NewReader(truncated)); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadOutgoingPacket() on truncated message = %v, want ErrUnexpectedEOF", err)
	}
}
