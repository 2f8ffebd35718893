package ledserial

import (
	"fmt"
	"io"
)

// ReadIncomingPacket reads an incoming packet from the given reader.
func ReadIncomingPacket(r io.Reader, context ReadContext) (IncomingPacket, error) {
	pr := newPacketReader(r)

	ptypeByte, err := pr.readType()
	if err != nil {
		return nil, fmt.Errorf("failed to read incoming packet type: %w", err)
	}

	var packet IncomingPacket

	switch ptype := IncomingPacketType(ptypeByte); ptype {
	case TypeInitializePacket:
		numLEDs, err := pr.readUint16("number of LEDs")
		if err != nil {
			return nil, err
		}
		packet = InitializePacket{NumLEDs: numLEDs}

	case TypeClearPacket:
		packet = ClearPacket{}

	case TypeSetPacket:
		p := SetPacket{Pix: make([]uint8, 3*int(context.NumLEDs))}
		if err := pr.readFull(p.Pix, "pixel data"); err != nil {
			return nil, err
		}
		packet = p

	default:
		return nil, fmt.Errorf("unknown packet type: %s", ptype)
	}

	if err := pr.verify(); err != nil {
		return nil, err
	}

	return packet, nil
}

// WriteIncomingPacket writes an incoming packet to the given writer.
func WriteIncomingPacket(w io.Writer, p IncomingPacket) error {
	var pw packetWriter

	switch p := p.(type) {
	case InitializePacket:
		pw.writeByte(uint8(TypeInitializePacket))
		pw.writeUint16(p.NumLEDs)
	case ClearPacket:
		pw.writeByte(uint8(TypeClearPacket))
	case SetPacket:
		if len(p.Pix)%3 != 0 {
			return fmt.Errorf("pixel data is %d bytes, not a multiple of 3", len(p.Pix))
		}
		pw.writeByte(uint8(TypeSetPacket))
		pw.buf.Write(p.Pix)
	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}

	return pw.flush(w)
}

// ReadOutgoingPacket reads an outgoing packet from the given reader.
func ReadOutgoingPacket(r io.Reader) (OutgoingPacket, error) {
	pr := newPacketReader(r)

	ptypeByte, err := pr.readType()
	if err != nil {
		return nil, fmt.Errorf("failed to read outgoing packet type: %w", err)
	}

	var packet OutgoingPacket

	switch ptype := OutgoingPacketType(ptypeByte); ptype {
	case TypeErrorPacket:
		msg, err := pr.readMessage("error message")
		if err != nil {
			return nil, err
		}
		packet = ErrorPacket{Message: msg}

	case TypePanicPacket:
		packet = PanicPacket{}

	case TypeLogPacket:
		msg, err := pr.readMessage("log message")
		if err != nil {
			return nil, err
		}
		packet = LogPacket{Message: msg}

	case TypeAckPacket:
		acked, err := pr.readType()
		if err != nil {
			return nil, fmt.Errorf("failed to read acknowledged packet type: %w", err)
		}
		packet = AckPacket{IncomingPacketType: IncomingPacketType(acked)}

	default:
		return nil, fmt.Errorf("unknown packet type: %s", ptype)
	}

	if err := pr.verify(); err != nil {
		return nil, err
	}

	return packet, nil
}

// WriteOutgoingPacket writes an outgoing packet to the given writer.
func WriteOutgoingPacket(w io.Writer, p OutgoingPacket) error {
	var pw packetWriter

	switch p := p.(type) {
	case ErrorPacket:
		pw.writeByte(uint8(TypeErrorPacket))
		if err := pw.writeMessage(p.Message, "error message"); err != nil {
			return err
		}
	case PanicPacket:
		pw.writeByte(uint8(TypePanicPacket))
	case LogPacket:
		pw.writeByte(uint8(TypeLogPacket))
		if err := pw.writeMessage(p.Message, "log message"); err != nil {
			return err
		}
	case AckPacket:
		pw.writeByte(uint8(TypeAckPacket))
		pw.writeByte(uint8(p.IncomingPacketType))
	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}

	return pw.flush(w)
}
