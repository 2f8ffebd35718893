package ledserial

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
)

// ErrChecksum is returned when a packet's trailer does not match its
// contents.
var ErrChecksum = errors.New("packet checksum mismatch")

// packetReader reads a packet body while hashing it.
type packetReader struct {
	src  io.Reader
	r    io.Reader
	hash hash.Hash32
}

func newPacketReader(src io.Reader) *packetReader {
	hash := crc32.NewIEEE()
	return &packetReader{src: src, r: io.TeeReader(src, hash), hash: hash}
}

func (r *packetReader) readType() (uint8, error) {
	var b [1]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *packetReader) readFull(buf []byte, what string) error {
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return fmt.Errorf("failed to read %s: %w", what, err)
	}
	return nil
}

func (r *packetReader) readUint16(what string) (uint16, error) {
	var b [2]byte
	if err := r.readFull(b[:], what); err != nil {
		return 0, err
	}
	return Endianness.Uint16(b[:]), nil
}

func (r *packetReader) readMessage(what string) (string, error) {
	length, err := r.readUint16(what + " length")
	if err != nil {
		return "", err
	}
	buf := make([]byte, length)
	if err := r.readFull(buf, what); err != nil {
		return "", err
	}
	return string(buf), nil
}

// verify reads the checksum trailer, which is not itself hashed.
func (r *packetReader) verify() error {
	sum := r.hash.Sum32()

	var checksum uint32
	if err := binary.Read(r.src, Endianness, &checksum); err != nil {
		return fmt.Errorf("failed to read packet checksum: %w", err)
	}
	if checksum != sum {
		return ErrChecksum
	}
	return nil
}

// packetWriter buffers a packet so it goes out in a single write.
type packetWriter struct {
	buf bytes.Buffer
}

func (w *packetWriter) writeByte(b uint8) {
	w.buf.WriteByte(b)
}

func (w *packetWriter) writeUint16(v uint16) {
	w.buf.Write(Endianness.AppendUint16(nil, v))
}

func (w *packetWriter) writeMessage(msg string, what string) error {
	if len(msg) > MaxMessageLen {
		return fmt.Errorf("%s too long: %d bytes", what, len(msg))
	}
	w.writeUint16(uint16(len(msg)))
	w.buf.WriteString(msg)
	return nil
}

func (w *packetWriter) flush(dst io.Writer) error {
	w.buf.Write(Endianness.AppendUint32(nil, crc32.ChecksumIEEE(w.buf.Bytes())))
	if _, err := dst.Write(w.buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write packet: %w", err)
	}
	return nil
}
