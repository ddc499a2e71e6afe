// SPDX-License-Identifier: MIT
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"stemviz/internal/animation"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().Width(7)
)

// MeterGain maps stem amplitude (RMS/25, normally under 0.1) onto a bar.
const MeterGain = 10.0

// Spring parameters for the level bars.
const (
	meterFPS       = 60
	meterFrequency = 8.0
	meterDamping   = 0.9
)

var stemLabels = [4]string{"bass", "drums", "vocal", "other"}

type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(key.WithKeys("q", "ctrl+c", "esc")),
}

type frameMsg animation.Frame

type framesClosedMsg struct{}

// Meter is a frame sink that shows live stem levels and motion state in
// the terminal.
type Meter struct {
	mu     sync.Mutex // Guards frames against Send after Close.
	frames chan animation.Frame
	closed bool
}

// NewMeter creates a meter with a small frame queue; frames arriving while
// the terminal is busy are dropped.
func NewMeter() *Meter {
	return &Meter{
		frames: make(chan animation.Frame, 4),
	}
}

// Send queues a frame for display. Other values are ignored.
func (m *Meter) Send(data any) error {
	f, ok := data.(animation.Frame)
	if !ok {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	select {
	case m.frames <- f:
	default:
	}
	return nil
}

// Run shows the meter until the user quits or ctx is cancelled. It
// returns once the terminal has been restored.
func (m *Meter) Run(ctx context.Context, title string) error {
	p := tea.NewProgram(NewMeterModel(title, m.frames), tea.WithAltScreen())

	finished := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			p.Quit()
		case <-finished:
		}
	}()

	_, err := p.Run()
	close(finished)
	return err
}

// Close stops accepting frames. A running meter shows the queued frames
// and then quits.
func (m *Meter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.frames)
	}
	return nil
}

// MeterModel represents the Bubble Tea model for the live meter.
type MeterModel struct {
	title  string
	frames <-chan animation.Frame

	frame      animation.Frame
	levels     [4]float64
	velocities [4]float64
	spring     harmonica.Spring
	bar        progress.Model
	quitting   bool
}

// NewMeterModel creates a model reading frames from ch.
func NewMeterModel(title string, ch <-chan animation.Frame) MeterModel {
	return MeterModel{
		title:  title,
		frames: ch,
		spring: harmonica.NewSpring(harmonica.FPS(meterFPS), meterFrequency, meterDamping),
		bar:    progress.New(progress.WithSolidFill("#25A065"), progress.WithWidth(40), progress.WithoutPercentage()),
	}
}

func waitForFrame(ch <-chan animation.Frame) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-ch
		if !ok {
			return framesClosedMsg{}
		}
		return frameMsg(f)
	}
}

// Init starts listening for frames.
func (m MeterModel) Init() tea.Cmd {
	return waitForFrame(m.frames)
}

// Update handles frames, resizes and key presses.
func (m MeterModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = max(10, min(60, msg.Width-labelStyle.GetWidth()-12))

	case frameMsg:
		m.frame = animation.Frame(msg)
		targets := [4]float64{m.frame.Amplitudes.Bass, m.frame.Amplitudes.Drums, m.frame.Amplitudes.Vocal, m.frame.Amplitudes.Other}
		for i, target := range targets {
			m.levels[i], m.velocities[i] = m.spring.Update(m.levels[i], m.velocities[i], target)
		}
		return m, waitForFrame(m.frames)

	case framesClosedMsg:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// Levels returns the smoothed per-stem amplitudes.
func (m MeterModel) Levels() [4]float64 { return m.levels }

// View renders the UI.
func (m MeterModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.title))
	sb.WriteString("\n\n")

	for i, label := range stemLabels {
		fill := min(1, max(0, m.levels[i]*MeterGain))
		fmt.Fprintf(&sb, "%s %s %.4f\n", labelStyle.Render(label), m.bar.ViewAs(fill), m.levels[i])
	}

	f := m.frame
	sb.WriteString("\n")
	sb.WriteString(highlightStyle.Render(fmt.Sprintf("total %.4f  speed %.3f  frame %d", f.Signal.TotalAmplitude, f.Signal.DynamicSpeed, f.Seq)))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "camera (%6.2f, %6.2f, %6.2f)  orbit %.3f\n", f.Camera[0], f.Camera[1], f.Camera[2], f.State.OrbitAngle)
	fmt.Fprintf(&sb, "light  (%6.2f, %6.2f, %6.2f)  orbit %.3f\n", f.Light[0], f.Light[1], f.Light[2], f.State.LightOrbitAngle)
	fmt.Fprintf(&sb, "yaw    %.3f\n", f.Yaw)
	if b := f.Bands; b != nil {
		fmt.Fprintf(&sb, "bands  bass %.2f/%.2f  mid %.2f  treble %.2f\n", b.Bass.Sub, b.Bass.Bass, b.Other.Mid, b.Drums.Treble)
	}

	sb.WriteString("\n")
	sb.WriteString(infoStyle.Render("q: Quit"))
	return sb.String()
}
