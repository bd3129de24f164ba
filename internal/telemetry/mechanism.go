package telemetry

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	mechWidth  = 60
	mechHeight = 22
)

var (
	mechHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	mechArmStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	mechStatStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Mechanism renders the arm as a pivot, a fixed tower, and a rotating
// ligament on an ASCII canvas, one frame per publish (rate limited). It is a
// terminal stand-in for a dashboard mechanism widget.
type Mechanism struct {
	out       io.Writer
	frameRate int
	lastFrame time.Time
	canvas    [][]rune
}

func NewMechanism(out io.Writer, frameRate int) *Mechanism {
	if frameRate <= 0 {
		frameRate = 20
	}
	canvas := make([][]rune, mechHeight)
	for i := range canvas {
		canvas[i] = make([]rune, mechWidth)
	}
	return &Mechanism{out: out, frameRate: frameRate, canvas: canvas}
}

func (m *Mechanism) Publish(name string, f Frame) error {
	if time.Since(m.lastFrame) < time.Second/time.Duration(m.frameRate) {
		return nil
	}
	m.lastFrame = time.Now()

	m.clear()

	px, py := mechWidth/2, mechHeight/2

	// Fixed tower below the pivot.
	for y := py; y < mechHeight-1; y++ {
		m.set(px, y, '#')
	}

	// Arm ligament. Screen y grows downward, so the angle sign flips.
	length := 14.0
	ax := px + int(length*math.Cos(f.AngleRad))
	ay := py - int(length/2*math.Sin(f.AngleRad))
	m.line(px, py, ax, ay, '=')
	m.set(px, py, '+')
	m.set(ax, ay, 'O')

	// Setpoint ghost.
	sx := px + int(length*math.Cos(f.SetpointRad))
	sy := py - int(length/2*math.Sin(f.SetpointRad))
	m.set(sx, sy, 'x')

	var b strings.Builder
	b.WriteString("\033[2J\033[H")
	b.WriteString(mechHeaderStyle.Render(name))
	b.WriteString("\n")
	for _, row := range m.canvas {
		b.WriteString(mechArmStyle.Render(string(row)))
		b.WriteString("\n")
	}
	b.WriteString(mechStatStyle.Render(fmt.Sprintf(
		"t=%6.2fs  angle=%7.2f deg  target=%7.2f deg  cmd=%6.2f V  batt=%5.2f V",
		f.TimeSec,
		f.AngleRad*180/math.Pi,
		f.SetpointRad*180/math.Pi,
		f.Volts,
		f.BatteryVolts,
	)))
	b.WriteString("\n")

	_, err := io.WriteString(m.out, b.String())
	return err
}

func (m *Mechanism) Close() error { return nil }

func (m *Mechanism) clear() {
	for y := range m.canvas {
		for x := range m.canvas[y] {
			m.canvas[y][x] = ' '
		}
	}
}

func (m *Mechanism) set(x, y int, c rune) {
	if x >= 0 && x < mechWidth && y >= 0 && y < mechHeight {
		m.canvas[y][x] = c
	}
}

func (m *Mechanism) line(x1, y1, x2, y2 int, c rune) {
	dx, dy := abs(x2-x1), abs(y2-y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		m.set(x1, y1, c)
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
