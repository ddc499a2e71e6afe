// SPDX-License-Identifier: MIT
package udp

import (
	"encoding/binary"
	"errors"
	"math"
	"net"
	"sync"
	"testing"
	"time"

	"stemviz/internal/analysis"
	"stemviz/internal/animation"
)

// recordingSender keeps every packet instead of sending it.
type recordingSender struct {
	mu      sync.Mutex
	packets [][]byte
	closed  bool
}

func (r *recordingSender) Send(data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packets = append(r.packets, append([]byte(nil), data...))
	return nil
}

func (r *recordingSender) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.packets)
}

func testFrame() animation.Frame {
	return animation.Frame{
		Seq:        3,
		Time:       time.Unix(1700000000, 123),
		Amplitudes: analysis.Amplitudes{Bass: 0.25, Drums: 0.5, Vocal: 0.125, Other: 1},
		Signal:     analysis.Signal{TotalAmplitude: 1.875, VocalSlowdown: 0.05, DynamicSpeed: 0.05},
		State:      animation.State{OrbitAngle: 2.5, LightOrbitAngle: 0.75},
		Camera:     [3]float64{1, -0.5, -0.5},
		Light:      [3]float64{0, 10, 9},
		Yaw:        4,
	}
}

func TestPacketLayout(t *testing.T) {
	if size := binary.Size(Packet{}); size != PacketSize {
		t.Fatalf("binary.Size(Packet) = %d, want %d", size, PacketSize)
	}

	s := &recordingSender{}
	p := newPublisher(time.Millisecond, s)
	p.Send(testFrame())
	p.buildAndSendPacket()

	if s.count() != 1 {
		t.Fatalf("sent %d packets, want 1", s.count())
	}
	b := s.packets[0]
	if len(b) != PacketSize {
		t.Fatalf("packet is %d bytes", len(b))
	}

	f32 := func(off int) float32 { return math.Float32frombits(binary.BigEndian.Uint32(b[off:])) }
	if seq := binary.BigEndian.Uint32(b[0:]); seq != 1 {
		t.Errorf("seq = %d, want 1", seq)
	}
	if ts := int64(binary.BigEndian.Uint64(b[4:])); ts != time.Unix(1700000000, 123).UnixNano() {
		t.Errorf("timestamp = %d", ts)
	}
	checks := []struct {
		name string
		off  int
		want float32
	}{
		{"bass", 12, 0.25},
		{"drums", 16, 0.5},
		{"vocal", 20, 0.125},
		{"other", 24, 1},
		{"total", 28, 1.875},
		{"dynamic speed", 32, 0.05},
		{"orbit angle", 36, 2.5},
		{"light angle", 40, 0.75},
		{"camera x", 44, 1},
		{"camera y", 48, -0.5},
		{"camera z", 52, -0.5},
		{"light x", 56, 0},
		{"light y", 60, 10},
		{"light z", 64, 9},
		{"yaw", 68, 4},
	}
	for _, c := range checks {
		if got := f32(c.off); got != c.want {
			t.Errorf("%s at %d = %v, want %v", c.name, c.off, got, c.want)
		}
	}

	pkt, err := DecodePacket(b)
	if err != nil {
		t.Fatalf("DecodePacket: %v", err)
	}
	if pkt != NewPacket(1, testFrame()) {
		t.Errorf("decoded %+v", pkt)
	}
}

func TestDecodePacketShort(t *testing.T) {
	if _, err := DecodePacket(make([]byte, PacketSize-1)); err == nil {
		t.Error("expected an error for a short packet")
	}
}

func TestPublisherSendsEachFrameOnce(t *testing.T) {
	s := &recordingSender{}
	p := newPublisher(time.Millisecond, s)

	p.buildAndSendPacket()
	if s.count() != 0 {
		t.Fatal("sent a packet with no frame")
	}

	p.Send(testFrame())
	p.buildAndSendPacket()
	p.buildAndSendPacket()
	if s.count() != 1 {
		t.Errorf("sent %d packets for one frame, want 1", s.count())
	}

	if err := p.Send("nope"); err == nil {
		t.Error("expected an error for a non-frame value")
	}
}

func TestPublisherStartStop(t *testing.T) {
	s := &recordingSender{}
	p := newPublisher(time.Millisecond, s)
	p.Start()
	p.Start() // No-op while running.

	p.Send(testFrame())
	deadline := time.Now().Add(2 * time.Second)
	for s.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("publisher never sent")
		}
		time.Sleep(time.Millisecond)
	}

	if err := p.Stop(); err != nil {
		t.Errorf("Stop = %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Errorf("second Stop = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close = %v", err)
	}
	if !s.closed {
		t.Error("Close did not close the sender")
	}
}

func TestPublisherOverUDP(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	defer conn.Close()

	sender, err := NewUDPSender(conn.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewUDPSender: %v", err)
	}
	p, err := NewUDPPublisher(time.Millisecond, sender)
	if err != nil {
		t.Fatal(err)
	}
	p.Start()
	defer p.Close()
	p.Send(testFrame())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 2*PacketSize)
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP: %v", err)
	}
	pkt, err := DecodePacket(buf[:n])
	if err != nil {
		t.Fatalf("DecodePacket: %v", err)
	}
	if pkt.Amplitudes != [4]float32{0.25, 0.5, 0.125, 1} || pkt.Yaw != 4 {
		t.Errorf("received %+v", pkt)
	}
	if sender.Sent() == 0 {
		t.Error("Sent() = 0 after a packet arrived")
	}
}

func TestUDPSender(t *testing.T) {
	if _, err := NewUDPSender("not an address"); err == nil {
		t.Error("expected a resolve error")
	}
	if _, err := NewUDPPublisher(time.Millisecond, nil); err == nil {
		t.Error("expected an error for a nil sender")
	}

	s, err := NewUDPSender("127.0.0.1:9")
	if err != nil {
		t.Fatalf("NewUDPSender: %v", err)
	}
	if s.Target().Port != 9 {
		t.Errorf("Target = %v", s.Target())
	}

	for _, size := range []int{0, 1, PacketSize - 1, PacketSize + 1} {
		if err := s.Send(make([]byte, size)); !errors.Is(err, ErrPacketSize) {
			t.Errorf("Send(%d bytes) = %v, want ErrPacketSize", size, err)
		}
	}
	if s.Sent() != 0 {
		t.Errorf("Sent() = %d after rejected datagrams", s.Sent())
	}

	if err := s.Close(); err != nil {
		t.Errorf("Close = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	if err := s.Send(make([]byte, PacketSize)); !errors.Is(err, ErrSenderClosed) {
		t.Errorf("Send after Close = %v, want ErrSenderClosed", err)
	}
}
