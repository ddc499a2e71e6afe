// SPDX-License-Identifier: MIT
package transport

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"stemviz/internal/animation"
	"stemviz/internal/log"
)

func TestLoggingTransport(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	prev := log.GetLevel()
	log.SetLevel(log.LevelDebug)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetLevel(prev)
	})

	lt := NewLoggingTransport()
	if err := lt.Send(animation.Frame{Seq: 42}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := lt.Send("not a frame"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if lt.Count() != 2 {
		t.Errorf("Count = %d, want 2", lt.Count())
	}
	if !strings.Contains(buf.String(), "frame 42 ") {
		t.Errorf("log missing frame summary:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "(string)") {
		t.Errorf("log missing raw message:\n%s", buf.String())
	}
	if err := lt.Close(); err != nil {
		t.Errorf("Close = %v", err)
	}
}
