package presetglow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"libdb.so/presetglow/led"
	"libdb.so/presetglow/ledserial"
	"libdb.so/presetglow/preset"
)

// serialSink writes frames to a strip controller over ledserial. Each write
// blocks until the controller acknowledges it.
type serialSink struct {
	w          io.Writer
	packets    <-chan ledserial.OutgoingPacket
	ackTimeout time.Duration
	logger     *slog.Logger
	ctx        context.Context
}

var _ preset.Sink = (*serialSink)(nil)

func newSerialSink(w io.Writer, packets <-chan ledserial.OutgoingPacket, ackTimeout time.Duration, logger *slog.Logger) *serialSink {
	return &serialSink{
		w:          w,
		packets:    packets,
		ackTimeout: ackTimeout,
		logger:     logger,
		ctx:        context.Background(),
	}
}

// Initialize tells the controller the strip length. The context is kept for
// later frame writes, since preset.Sink carries none.
func (s *serialSink) Initialize(ctx context.Context, numLEDs int) error {
	s.ctx = ctx
	return s.send(ledserial.InitializePacket{NumLEDs: uint16(numLEDs)})
}

// WriteFrame implements preset.Sink. The pixels are written out before it
// returns, so the strip is not retained.
func (s *serialSink) WriteFrame(leds led.LEDs) error {
	return s.send(ledserial.SetPacket{Pix: leds.AsPixels()})
}

func (s *serialSink) send(p ledserial.IncomingPacket) error {
	if err := ledserial.WriteIncomingPacket(s.w, p); err != nil {
		return errors.Wrapf(err, "failed to write %s packet", p.Type())
	}
	return s.awaitAck(p.Type())
}

func (s *serialSink) awaitAck(ptype ledserial.IncomingPacketType) error {
	timeout := time.NewTimer(s.ackTimeout)
	defer timeout.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return s.ctx.Err()

		case <-timeout.C:
			return errors.Errorf("controller did not acknowledge %s packet within %v", ptype, s.ackTimeout)

		case p := <-s.packets:
			switch p := p.(type) {
			case ledserial.AckPacket:
				if p.IncomingPacketType != ptype {
					return errors.Errorf(
						"controller acknowledged %s packet, expected %s",
						p.IncomingPacketType, ptype)
				}
				return nil

			case ledserial.ErrorPacket:
				s.logger.Warn(
					"received error packet from controller",
					"message", p.Message)
				return errors.Errorf("controller reported error: %s", p.Message)

			case ledserial.PanicPacket:
				s.logger.Error("controller unrecoverably panicked")
				return errors.New("controller panicked")

			case ledserial.LogPacket:
				s.logger.Info(
					"received log packet from controller",
					"message", p.Message)

			default:
				return fmt.Errorf("received unknown packet from controller: %s", p.Type())
			}
		}
	}
}
