// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"stemviz/internal/animation"
	applog "stemviz/internal/log"
)

// Packet is the wire form of one frame. All fields are BigEndian.
/*
+---------------------------------------------------------------------------+
| Field              | Data Type   | Size (Bytes) | Description             |
|--------------------|-------------|--------------|-------------------------|
| Sequence Number    | uint32      | 4            | Per-publisher counter   |
| Timestamp          | int64       | 8            | Frame time, ns epoch    |
| Amplitudes         | [4]float32  | 16           | bass, drums, vocal, other|
| Total Amplitude    | float32     | 4            |                         |
| Dynamic Speed      | float32     | 4            |                         |
| Orbit Angle        | float32     | 4            | Camera orbit (rad)      |
| Light Orbit Angle  | float32     | 4            | Light orbit (rad)       |
| Camera Position    | [3]float32  | 12           | x, y, z                 |
| Light Position     | [3]float32  | 12           | x, y, z                 |
| Yaw                | float32     | 4            | Accumulated (rad)       |
+---------------------------------------------------------------------------+
*/
type Packet struct {
	Seq             uint32
	Timestamp       int64
	Amplitudes      [4]float32
	TotalAmplitude  float32
	DynamicSpeed    float32
	OrbitAngle      float32
	LightOrbitAngle float32
	Camera          [3]float32
	Light           [3]float32
	Yaw             float32
}

// PacketSize is the encoded size of a Packet.
const PacketSize = 72

// NewPacket converts a frame for the wire.
func NewPacket(seq uint32, f animation.Frame) Packet {
	return Packet{
		Seq:       seq,
		Timestamp: f.Time.UnixNano(),
		Amplitudes: [4]float32{
			float32(f.Amplitudes.Bass),
			float32(f.Amplitudes.Drums),
			float32(f.Amplitudes.Vocal),
			float32(f.Amplitudes.Other),
		},
		TotalAmplitude:  float32(f.Signal.TotalAmplitude),
		DynamicSpeed:    float32(f.Signal.DynamicSpeed),
		OrbitAngle:      float32(f.State.OrbitAngle),
		LightOrbitAngle: float32(f.State.LightOrbitAngle),
		Camera:          [3]float32{float32(f.Camera[0]), float32(f.Camera[1]), float32(f.Camera[2])},
		Light:           [3]float32{float32(f.Light[0]), float32(f.Light[1]), float32(f.Light[2])},
		Yaw:             float32(f.Yaw),
	}
}

// DecodePacket parses one datagram.
func DecodePacket(data []byte) (Packet, error) {
	var p Packet
	if len(data) != PacketSize {
		return p, fmt.Errorf("packet is %d bytes, want %d", len(data), PacketSize)
	}
	err := binary.Read(bytes.NewReader(data), binary.BigEndian, &p)
	return p, err
}

// packetSender is the part of UDPSender the publisher needs.
type packetSender interface {
	Send(data []byte) error
	io.Closer
}

// UDPPublisher keeps the latest frame handed to Send and, on its own
// interval, packs it into a Packet and sends it. Frames that arrive faster
// than the interval replace each other; a frame is sent at most once.
type UDPPublisher struct {
	sender   packetSender
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker, doneChan and the latest frame.

	latest  animation.Frame
	pending bool

	sequenceNum  uint32
	packetBuffer *bytes.Buffer
}

// NewUDPPublisher creates a publisher over sender. If the interval is
// invalid (<= 0), it defaults to 16ms (~60Hz).
func NewUDPPublisher(interval time.Duration, sender *UDPSender) (*UDPPublisher, error) {
	if sender == nil {
		return nil, errors.New("UDPPublisher: UDP sender cannot be nil")
	}
	return newPublisher(interval, sender), nil
}

func newPublisher(interval time.Duration, sender packetSender) *UDPPublisher {
	if interval <= 0 {
		interval = 16 * time.Millisecond
		applog.Warnf("UDPPublisher: Invalid interval provided, defaulting to %s", interval)
	}
	applog.Infof("UDPPublisher: Initializing (Interval: %s, Packet: %d bytes)", interval, PacketSize)

	return &UDPPublisher{
		sender:       sender,
		interval:     interval,
		packetBuffer: bytes.NewBuffer(make([]byte, 0, PacketSize)),
	}
}

// Send stores a frame for the next publish tick. Values that are not
// frames are rejected.
func (p *UDPPublisher) Send(data any) error {
	f, ok := data.(animation.Frame)
	if !ok {
		return fmt.Errorf("UDPPublisher: cannot publish %T", data)
	}
	p.mu.Lock()
	p.latest = f
	p.pending = true
	p.mu.Unlock()
	return nil
}

// Start begins the periodic publishing process.
// It is safe to call Start multiple times; subsequent calls are no-ops if already started.
func (p *UDPPublisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("UDPPublisher: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	// Captured so the goroutine does not race on p.ticker/p.doneChan.
	ticker := p.ticker
	doneChan := p.doneChan

	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Debugf("UDPPublisher: Publisher goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.buildAndSendPacket()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the publisher goroutine to terminate and waits for it to exit.
// It is safe to call Stop multiple times; subsequent calls are no-ops.
func (p *UDPPublisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}

	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})

	p.mu.Unlock()

	p.wg.Wait()
	applog.Debugf("UDPPublisher: Publisher goroutine finished after %d packets.", p.sequenceNum)
	return nil
}

// buildAndSendPacket packs the pending frame, if any, and sends it.
func (p *UDPPublisher) buildAndSendPacket() {
	p.mu.Lock()
	if !p.pending {
		p.mu.Unlock()
		return
	}
	frame := p.latest
	p.pending = false
	p.mu.Unlock()

	p.sequenceNum++
	pkt := NewPacket(p.sequenceNum, frame)

	p.packetBuffer.Reset()
	if err := binary.Write(p.packetBuffer, binary.BigEndian, &pkt); err != nil {
		applog.Errorf("UDPPublisher: Error packing data into binary buffer: %v", err)
		return
	}

	if err := p.sender.Send(p.packetBuffer.Bytes()); err == nil {
		applog.Debugf("UDPPublisher: Sent packet %d (frame %d)", p.sequenceNum, frame.Seq)
	}
}

// Close stops the publisher and closes the sender.
func (p *UDPPublisher) Close() error {
	return errors.Join(p.Stop(), p.sender.Close())
}

var _ interface {
	Send(any) error
	Close() error
} = (*UDPPublisher)(nil)
