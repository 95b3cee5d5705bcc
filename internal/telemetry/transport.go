package telemetry

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"
)

// CANWriter sends encoded CAN frames, e.g. TORQUE_CMD, onto a bus.
type CANWriter interface {
	WriteFrame(ctx context.Context, frame can.Frame) error
	Close() error
}

// CANReader receives raw CAN frames off a bus, e.g. ENCODER_FEEDBACK.
type CANReader interface {
	ReadFrame(ctx context.Context) (can.Frame, error)
	Close() error
}

// SocketCANWriter implements CANWriter over a Linux SocketCAN interface.
type SocketCANWriter struct {
	iface string
	conn  net.Conn
	tx    *socketcan.Transmitter
}

// NewSocketCANWriter dials the named SocketCAN interface (e.g. "can0",
// "vcan0") for the TORQUE_CMD side of the bus.
func NewSocketCANWriter(ctx context.Context, iface string) (*SocketCANWriter, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("dial torque bus %s: %w", iface, err)
	}
	return &SocketCANWriter{iface: iface, conn: conn, tx: socketcan.NewTransmitter(conn)}, nil
}

func (w *SocketCANWriter) WriteFrame(ctx context.Context, frame can.Frame) error {
	return w.tx.TransmitFrame(ctx, frame)
}

func (w *SocketCANWriter) Close() error {
	if w.conn != nil {
		return w.conn.Close()
	}
	return nil
}

// encoderBusRedialBackoff bounds how fast SocketCANReader retries a dropped
// socket. Encoder feedback arrives every tick; a redial storm on a bus that
// stays down would otherwise burn a core spinning DialContext calls.
const encoderBusRedialBackoff = 20 * time.Millisecond

// SocketCANReader implements CANReader over a Linux SocketCAN interface,
// transparently redialing the socket if the encoder feed drops mid-run. A
// caller sees this as a slow read, not a fatal error; CANEstimateSource's
// staleness check is what surfaces the outage to the axis.
type SocketCANReader struct {
	iface string
	conn  net.Conn
	recv  *socketcan.Receiver
}

// NewSocketCANReader dials the named SocketCAN interface for the
// ENCODER_FEEDBACK side of the bus.
func NewSocketCANReader(ctx context.Context, iface string) (*SocketCANReader, error) {
	r := &SocketCANReader{iface: iface}
	if err := r.dial(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *SocketCANReader) dial(ctx context.Context) error {
	conn, err := socketcan.DialContext(ctx, "can", r.iface)
	if err != nil {
		return fmt.Errorf("dial encoder bus %s: %w", r.iface, err)
	}
	r.conn = conn
	r.recv = socketcan.NewReceiver(conn)
	return nil
}

// ReadFrame blocks for the next frame, ctx cancellation, or a socket error.
// A socket error triggers one redial attempt after encoderBusRedialBackoff
// and the read is retried; ReadFrame only returns an error if ctx ends
// first.
func (r *SocketCANReader) ReadFrame(ctx context.Context) (can.Frame, error) {
	for {
		frame, err := r.receiveOnce(ctx)
		if err == nil {
			return frame, nil
		}
		if ctx.Err() != nil {
			return can.Frame{}, ctx.Err()
		}

		select {
		case <-ctx.Done():
			return can.Frame{}, ctx.Err()
		case <-time.After(encoderBusRedialBackoff):
		}
		if r.conn != nil {
			r.conn.Close()
		}
		if dialErr := r.dial(ctx); dialErr != nil {
			continue
		}
	}
}

func (r *SocketCANReader) receiveOnce(ctx context.Context) (can.Frame, error) {
	frameCh := make(chan can.Frame, 1)
	errCh := make(chan error, 1)

	go func() {
		if r.recv.Receive() {
			frameCh <- r.recv.Frame()
			return
		}
		errCh <- fmt.Errorf("socketcan receive failed on %s", r.iface)
	}()

	select {
	case <-ctx.Done():
		return can.Frame{}, ctx.Err()
	case f := <-frameCh:
		return f, nil
	case err := <-errCh:
		return can.Frame{}, err
	}
}

func (r *SocketCANReader) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
