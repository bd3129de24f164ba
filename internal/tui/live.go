// Package tui is the interactive terminal view of a running arm session:
// a streaming angle chart with live setpoint and gain adjustment.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/san-kum/armsim/internal/sim"
)

const (
	setpointStepDeg = 5.0
	kpStep          = 5.0
	kdStep          = 0.5
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	chartStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	angleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	setptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	stopStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

type TickMsg time.Time

type Model struct {
	session  *sim.Session
	chart    *streamlinechart.Model
	kp       float64
	kd       float64
	width    int
	height   int
	stopped  bool
	quitting bool
}

func NewModel(session *sim.Session) Model {
	cfg := session.Config()
	chart := streamlinechart.New(80, 18,
		streamlinechart.WithYRange(cfg.Arm.MinAngleDeg, cfg.Arm.MaxAngleDeg),
	)
	chart.SetDataSetStyles("angle", runes.ThinLineStyle, angleStyle)
	chart.SetDataSetStyles("setpoint", runes.ThinLineStyle, setptStyle)

	return Model{
		session: session,
		chart:   &chart,
		kp:      cfg.Control.Kp,
		kd:      cfg.Control.Kd,
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Duration(m.session.Config().Dt*float64(time.Second)), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w := msg.Width - 4
		h := msg.Height - 9
		if w < 40 {
			w = 40
		}
		if h < 10 {
			h = 10
		}
		m.chart.Resize(w, h)
		return m, nil

	case tea.KeyMsg:
		arm := m.session.Arm()
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			arm.Stop()
			return m, tea.Quit
		case "up":
			arm.SetSetpointDegrees(arm.SetpointDeg() + setpointStepDeg)
		case "down":
			arm.SetSetpointDegrees(arm.SetpointDeg() - setpointStepDeg)
		case "]":
			m.kp += kpStep
			arm.SetProportionalGain(m.kp)
		case "[":
			m.kp = math.Max(0, m.kp-kpStep)
			arm.SetProportionalGain(m.kp)
		case "}":
			m.kd += kdStep
			arm.SetDerivativeGain(m.kd)
		case "{":
			m.kd = math.Max(0, m.kd-kdStep)
			arm.SetDerivativeGain(m.kd)
		case " ":
			m.stopped = !m.stopped
			if m.stopped {
				arm.Stop()
			}
		}
		return m, nil

	case TickMsg:
		if !m.stopped {
			m.session.Step()
		} else {
			// Motor stays off but the plant keeps falling under gravity.
			m.session.Arm().SimulationStep(m.session.Config().Dt)
		}
		frame := m.session.Frames()
		if len(frame) > 0 {
			f := frame[len(frame)-1]
			m.chart.PushDataSet("angle", f.AngleRad*180/math.Pi)
			m.chart.PushDataSet("setpoint", f.SetpointRad*180/math.Pi)
			m.chart.DrawAll()
		}
		return m, m.tick()
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return "arm stopped.\n"
	}

	arm := m.session.Arm()

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("armsim live"))
	if m.stopped {
		sb.WriteString("  ")
		sb.WriteString(stopStyle.Render("[MOTOR OFF]"))
	}
	sb.WriteString("\n\n")

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	stats := []string{
		labelStyle.Render("setpoint ") + valueStyle.Render(fmt.Sprintf("%7.1f deg", arm.SetpointDeg())),
		labelStyle.Render("kp ") + valueStyle.Render(fmt.Sprintf("%6.1f", m.kp)),
		labelStyle.Render("kd ") + valueStyle.Render(fmt.Sprintf("%5.1f", m.kd)),
		labelStyle.Render("cmd ") + valueStyle.Render(fmt.Sprintf("%6.2f V", arm.CommandedVolts())),
		labelStyle.Render("batt ") + valueStyle.Render(fmt.Sprintf("%5.2f V", arm.BatteryVolts())),
	}
	sb.WriteString(strings.Join(stats, "   "))
	sb.WriteString("\n")

	sb.WriteString(helpStyle.Render("up/down setpoint · [/] kp · {/} kd · space motor on/off · q quit"))
	sb.WriteString("\n")

	return sb.String()
}

// Run drives the live view until the user quits. The session's arm is closed
// on the way out.
func Run(session *sim.Session) error {
	defer session.Arm().Close()

	_, err := tea.NewProgram(NewModel(session), tea.WithAltScreen()).Run()
	return err
}
