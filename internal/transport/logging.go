// SPDX-License-Identifier: MIT
package transport

import (
	"sync/atomic"

	"stemviz/internal/animation"
	"stemviz/internal/log"
)

// LoggingTransport implements the Transport interface by logging a one-line
// summary of each frame at debug level.
type LoggingTransport struct {
	count atomic.Uint64
}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	log.Infof("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the received data. Logging never fails to "send".
func (lt *LoggingTransport) Send(data any) error {
	lt.count.Add(1)
	if !log.Enabled(log.LevelDebug) {
		return nil
	}

	f, ok := data.(animation.Frame)
	if !ok {
		log.Debugf("LOG_TRANSPORT: Received (%T): %+v", data, data)
		return nil
	}
	log.Debugf("LOG_TRANSPORT: frame %d amps b=%.4f d=%.4f v=%.4f o=%.4f total=%.4f speed=%.3f orbit=%.4f light=%.4f yaw=%.4f",
		f.Seq, f.Amplitudes.Bass, f.Amplitudes.Drums, f.Amplitudes.Vocal, f.Amplitudes.Other,
		f.Signal.TotalAmplitude, f.Signal.DynamicSpeed, f.State.OrbitAngle, f.State.LightOrbitAngle, f.Yaw)
	return nil
}

// Count returns how many messages were sent.
func (lt *LoggingTransport) Count() uint64 { return lt.count.Load() }

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	log.Debugf("LOG_TRANSPORT: Close called after %d messages.", lt.count.Load())
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
