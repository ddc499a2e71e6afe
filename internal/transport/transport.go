// SPDX-License-Identifier: MIT
/*
Package transport publishes animation frames to renderers outside the
process. Every transport receives frames from the frame loop through Send
and must never block it: slow consumers lose frames, they do not delay the
next tick.
*/
package transport

import "stemviz/internal/animation"

// Transport defines a generic interface for sending frames or events.
// Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}

// Every transport is usable as a frame loop sink.
var _ animation.Sink = Transport(nil)
