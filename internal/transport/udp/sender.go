// SPDX-License-Identifier: MIT
package udp

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"stemviz/internal/log"
)

// DefaultWriteTimeout bounds one datagram write.
const DefaultWriteTimeout = 5 * time.Millisecond

var (
	// ErrSenderClosed is returned by Send after Close.
	ErrSenderClosed = errors.New("UDP sender is closed")

	// ErrPacketSize is returned for a datagram that is not one frame packet.
	ErrPacketSize = errors.New("datagram is not a frame packet")
)

// UDPSender writes frame packets to one renderer address.
type UDPSender struct {
	target       *net.UDPAddr
	writeTimeout time.Duration
	sent         atomic.Uint64

	mu   sync.Mutex // Guards conn.
	conn *net.UDPConn
}

// NewUDPSender dials targetAddress ("host:port"). Nothing is sent until the
// first frame.
func NewUDPSender(targetAddress string) (*UDPSender, error) {
	target, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP target address '%s': %w", targetAddress, err)
	}
	conn, err := net.DialUDP("udp", nil, target)
	if err != nil {
		return nil, fmt.Errorf("failed to dial UDP for target '%s': %w", targetAddress, err)
	}

	log.Infof("UDP Sender: frames go to %s from %s", target, conn.LocalAddr())
	return &UDPSender{
		target:       target,
		writeTimeout: DefaultWriteTimeout,
		conn:         conn,
	}, nil
}

// Send writes one PacketSize datagram.
func (s *UDPSender) Send(packet []byte) error {
	if len(packet) != PacketSize {
		return fmt.Errorf("%w: %d bytes, want %d", ErrPacketSize, len(packet), PacketSize)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrSenderClosed
	}

	if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return fmt.Errorf("failed to set UDP write deadline: %w", err)
	}
	if _, err := s.conn.Write(packet); err != nil {
		log.Debugf("UDP Sender: dropped frame packet to %s: %v", s.target, err)
		return fmt.Errorf("failed to send UDP packet: %w", err)
	}
	s.sent.Add(1)
	return nil
}

// Sent is the number of packets written so far.
func (s *UDPSender) Sent() uint64 { return s.sent.Load() }

// Target returns the resolved destination address.
func (s *UDPSender) Target() *net.UDPAddr { return s.target }

// Close closes the socket. Later calls do nothing.
func (s *UDPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}

	log.Infof("UDP Sender: closing after %d packets to %s", s.sent.Load(), s.target)
	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return fmt.Errorf("failed to close UDP connection: %w", err)
	}
	return nil
}
