package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/vitaminmoo/mt7697-tool/internal/board"
	"github.com/vitaminmoo/mt7697-tool/internal/config"
	"github.com/vitaminmoo/mt7697-tool/internal/peripheral"
	"github.com/vitaminmoo/mt7697-tool/internal/pins"
)

// Panel is one of the three client panels.
type Panel int

const (
	PanelPin Panel = iota
	PanelBuzzer
	PanelUltrasonic
	panelCount
)

// Full-scale values for the gauges.
const (
	analogInputFull = 1023
	outputFull      = 255
	servoFull       = 180
	distanceFullCm  = 400
)

// buzzSeconds is how long the buzz key sounds the buzzer.
const buzzSeconds = 1

// Link is a connected transport the monitor can drive and close.
type Link interface {
	peripheral.Transport
	Address() string
	Close() error
}

// Connector opens a Link to the board named in s.
type Connector func(ctx context.Context, s config.Settings) (Link, error)

// Model is the main Bubbletea model for the monitor.
type Model struct {
	settings config.Settings
	connect  Connector

	// State
	cursor     Panel
	width      int
	connecting bool
	link       Link
	board      *board.Board
	errorMsg   string
	statusMsg  string

	// Live readings
	watching   map[Panel]bool
	lastUpdate map[Panel]time.Time
	now        time.Time

	// Components
	pinGauge  Gauge
	distGauge Gauge
	keys      KeyMap
	help      help.Model
	spinner   spinner.Model
	styles    Styles
}

// --- Custom messages for async operations ---

// connectMsg signals connection attempt result.
type connectMsg struct {
	link Link
	err  error
}

// eventMsg delivers one event from the board.
type eventMsg board.Event

// tickMsg refreshes relative times and the link indicator.
type tickMsg time.Time

// NewModel creates a new TUI model.
func NewModel(s config.Settings, connect Connector) Model {
	h := help.New()
	h.ShowAll = false // Use ShortHelp for horizontal layout

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	return Model{
		settings:   s,
		connect:    connect,
		connecting: true, // Start connecting on launch
		watching:   make(map[Panel]bool),
		lastUpdate: make(map[Panel]time.Time),
		now:        time.Now(),
		pinGauge:   NewGauge(analogInputFull),
		distGauge:  NewGauge(distanceFullCm),
		keys:       DefaultKeyMap(),
		help:       h,
		spinner:    sp,
		styles:     DefaultStyles(),
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(connectCmd(m.connect, m.settings), m.spinner.Tick, tickCmd())
}

func connectCmd(connect Connector, s config.Settings) tea.Cmd {
	return func() tea.Msg {
		link, err := connect(context.Background(), s)
		return connectMsg{link: link, err: err}
	}
}

func waitForEvent(ch <-chan board.Event) tea.Cmd {
	return func() tea.Msg {
		return eventMsg(<-ch)
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case connectMsg:
		m.connecting = false
		if msg.err != nil {
			m.errorMsg = fmt.Sprintf("Connection failed: %v", msg.err)
			return m, nil
		}
		m.errorMsg = ""
		m.statusMsg = "Connected"
		if m.board != nil {
			// Reconnected: move the running clients over to the new link.
			old := m.link
			m.link = msg.link
			m.board.SetTransport(msg.link)
			m.watching = make(map[Panel]bool)
			if old != nil {
				old.Close()
			}
			return m, nil
		}
		m.link = msg.link
		m.board = board.New(msg.link, m.settings)
		return m, waitForEvent(m.board.Events())

	case eventMsg:
		m.handleEvent(board.Event(msg))
		if m.board == nil {
			return m, nil
		}
		return m, waitForEvent(m.board.Events())

	case tickMsg:
		m.now = time.Time(msg)
		return m, tickCmd()
	}

	return m, nil
}

func (m *Model) handleEvent(ev board.Event) {
	if ev.Err != nil {
		m.errorMsg = fmt.Sprintf("%s: %v", ev.Source, ev.Err)
		return
	}
	if ev.Name != peripheral.EventInputUpdated {
		return
	}
	switch ev.Source {
	case board.SourcePin:
		m.lastUpdate[PanelPin] = ev.At
	case board.SourceUltrasonic:
		m.lastUpdate[PanelUltrasonic] = ev.At
	}
	m.now = ev.At
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.cursor = (m.cursor + panelCount - 1) % panelCount
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.cursor = (m.cursor + 1) % panelCount
		return m, nil

	case key.Matches(msg, m.keys.Connect):
		if !m.connecting && (m.link == nil || !m.link.IsConnected()) {
			m.connecting = true
			m.errorMsg = ""
			m.statusMsg = "Searching..."
			return m, connectCmd(m.connect, m.settings)
		}
		return m, nil
	}

	if m.board == nil {
		return m, nil
	}

	var err error
	switch {
	case key.Matches(msg, m.keys.Left):
		err = m.stepPin(-1)
	case key.Matches(msg, m.keys.Right):
		err = m.stepPin(1)
	case key.Matches(msg, m.keys.Mode):
		err = m.cycleMode()
	case key.Matches(msg, m.keys.Inc):
		err = m.adjust(1)
	case key.Matches(msg, m.keys.Dec):
		err = m.adjust(-1)
	case key.Matches(msg, m.keys.Buzz):
		err = m.board.Buzzer.Buzz(buzzSeconds)
		if err == nil {
			m.statusMsg = fmt.Sprintf("Buzz %d Hz", m.board.Buzzer.Frequency())
		}
	case key.Matches(msg, m.keys.Unit):
		err = m.toggleUnit()
	case key.Matches(msg, m.keys.Watch):
		err = m.toggleWatch()
	case key.Matches(msg, m.keys.Read):
		m.board.Pin.Read()
	}
	if err != nil {
		m.errorMsg = err.Error()
	} else {
		m.errorMsg = ""
	}
	return m, nil
}

// shutdown stops the clients and drops the link.
func (m Model) shutdown() {
	if m.board != nil {
		m.board.Close()
	}
	if m.link != nil {
		m.link.Close()
	}
}

// stepLabel moves delta places through pins.Labels, wrapping at both ends.
func stepLabel(current string, delta int) string {
	n := len(pins.Labels)
	for i, label := range pins.Labels {
		if label == current {
			return pins.Labels[((i+delta)%n+n)%n]
		}
	}
	return pins.Labels[0]
}

// nextMode returns the pin mode after current in peripheral.PinModes.
func nextMode(current peripheral.Mode) peripheral.Mode {
	modes := peripheral.PinModes
	for i, mode := range modes {
		if mode == current {
			return modes[(i+1)%len(modes)]
		}
	}
	return modes[0]
}

// outputStep is how far one key press moves an output value in mode.
func outputStep(mode peripheral.Mode) int {
	switch mode {
	case peripheral.ModeDigitalOutput:
		return 1
	case peripheral.ModeServo:
		return 10
	default:
		return 16
	}
}

// frequencyStep is how far one key press moves the buzzer frequency.
const frequencyStep = 20

func (m *Model) stepPin(delta int) error {
	switch m.cursor {
	case PanelPin:
		m.watching[PanelPin] = false
		return m.board.Pin.SetPin(stepLabel(m.board.Pin.Pin(), delta))
	case PanelBuzzer:
		return m.board.Buzzer.SetPin(stepLabel(m.board.Buzzer.Pin(), delta))
	case PanelUltrasonic:
		m.watching[PanelUltrasonic] = false
		return m.board.Ultrasonic.SetPin(stepLabel(m.board.Ultrasonic.Pin(), delta))
	}
	return nil
}

func (m *Model) cycleMode() error {
	if m.cursor != PanelPin {
		return nil
	}
	m.watching[PanelPin] = false
	return m.board.Pin.SetMode(nextMode(m.board.Pin.Mode()).String())
}

func (m *Model) adjust(dir int) error {
	switch m.cursor {
	case PanelPin:
		p := m.board.Pin
		if !p.Mode().IsOutput() {
			return nil
		}
		return p.Write(p.Value() + dir*outputStep(p.Mode()))
	case PanelBuzzer:
		b := m.board.Buzzer
		return b.SetFrequency(b.Frequency() + dir*frequencyStep)
	}
	return nil
}

func (m *Model) toggleUnit() error {
	u := m.board.Ultrasonic
	if u.Unit() == peripheral.UnitCentimeters {
		return u.SetUnit(peripheral.UnitInches.String())
	}
	return u.SetUnit(peripheral.UnitCentimeters.String())
}

func (m *Model) toggleWatch() error {
	on := !m.watching[m.cursor]
	switch m.cursor {
	case PanelPin:
		if on && !m.board.Pin.Mode().IsInput() {
			return errors.New("pin is not in an input mode")
		}
		if on {
			m.board.Pin.RequestInputUpdates()
		} else {
			m.board.Pin.StopInputUpdates()
		}
	case PanelUltrasonic:
		if on {
			m.board.Ultrasonic.RequestInputUpdates()
		} else {
			m.board.Ultrasonic.StopInputUpdates()
		}
	default:
		return nil
	}
	m.watching[m.cursor] = on
	return nil
}

// View renders the model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderTitleBar("MT7697"))
	b.WriteString("\n")

	if m.errorMsg != "" {
		b.WriteString(m.styles.Error.Render(m.errorMsg))
		if m.board == nil && !m.connecting {
			connectKey := m.keys.Connect.Help().Key
			b.WriteString("  ")
			b.WriteString(m.styles.Muted.Render(fmt.Sprintf("['%s' to retry]", connectKey)))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.board == nil {
		if m.connecting {
			b.WriteString(m.spinner.View())
			b.WriteString(" ")
			b.WriteString(m.styles.Warning.Render(fmt.Sprintf("Searching for %s...", m.settings.Device)))
		}
	} else {
		b.WriteString(m.viewPin())
		b.WriteString("\n")
		b.WriteString(m.viewBuzzer())
		b.WriteString("\n")
		b.WriteString(m.viewUltrasonic())
	}

	helpView := m.styles.Help.Render(m.help.View(m.keys))
	return m.styles.App.Render(b.String() + "\n" + helpView)
}

// renderTitleBar renders the title bar with connection status.
func (m Model) renderTitleBar(title string) string {
	var parts []string

	parts = append(parts, m.styles.Title.Render(title))

	switch {
	case m.connecting:
		parts = append(parts, m.spinner.View()+" "+m.styles.Warning.Render("Connecting..."))
	case m.link != nil && m.link.IsConnected():
		parts = append(parts, m.styles.Success.Render("●"))
		parts = append(parts, m.styles.Muted.Render(m.link.Address()))
	default:
		parts = append(parts, m.styles.StatusOffline.Render("○ Offline"))
	}
	if m.statusMsg != "" && !m.connecting {
		parts = append(parts, m.styles.Muted.Render(m.statusMsg))
	}

	return strings.Join(parts, "  ")
}

func (m Model) renderHeader(p Panel, title string, supported bool) string {
	var b strings.Builder
	if m.cursor == p {
		b.WriteString(m.styles.MenuItemSelected.Render("> " + title))
	} else {
		b.WriteString(m.styles.MenuItem.Render("  " + title))
	}
	b.WriteString("  ")
	if supported {
		b.WriteString(m.styles.StatusOnline.Render("online"))
	} else {
		b.WriteString(m.styles.StatusOffline.Render("offline"))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) viewPin() string {
	var b strings.Builder
	p := m.board.Pin

	b.WriteString(m.renderHeader(PanelPin, "Pin", p.IsSupported()))
	b.WriteString(m.renderField("Pin", p.Pin()))
	b.WriteString(m.renderField("Mode", p.Mode().String()))
	b.WriteString(m.renderField("Value", fmt.Sprint(p.Value())))

	g := m.pinGauge
	switch p.Mode() {
	case peripheral.ModeAnalogOutput:
		g.full = outputFull
	case peripheral.ModeServo:
		g.full = servoFull
	case peripheral.ModeDigitalInput, peripheral.ModeDigitalOutput:
		g.full = 1
	}
	b.WriteString(g.View(float64(p.Value())))
	b.WriteString("\n")

	if p.Mode().IsInput() {
		b.WriteString(m.renderField("Watching", onOff(m.watching[PanelPin])))
		b.WriteString(m.renderField("Last update", m.since(PanelPin)))
	}
	return b.String()
}

func (m Model) viewBuzzer() string {
	var b strings.Builder
	bz := m.board.Buzzer

	b.WriteString(m.renderHeader(PanelBuzzer, "Buzzer", bz.IsSupported()))
	b.WriteString(m.renderField("Pin", bz.Pin()))
	b.WriteString(m.renderField("Frequency", fmt.Sprintf("%d Hz", bz.Frequency())))
	return b.String()
}

func (m Model) viewUltrasonic() string {
	var b strings.Builder
	u := m.board.Ultrasonic

	b.WriteString(m.renderHeader(PanelUltrasonic, "Ultrasonic", u.IsSupported()))
	b.WriteString(m.renderField("Pin", u.Pin()))
	b.WriteString(m.renderField("Distance", fmt.Sprintf("%.2f %s", u.Distance(), u.Unit())))

	g := m.distGauge
	if u.Unit() == peripheral.UnitInches {
		g.full = distanceFullCm * 0.393701
	}
	b.WriteString(g.View(u.Distance()))
	b.WriteString("\n")

	b.WriteString(m.renderField("Watching", onOff(m.watching[PanelUltrasonic])))
	b.WriteString(m.renderField("Last update", m.since(PanelUltrasonic)))
	return b.String()
}

func (m Model) since(p Panel) string {
	t, ok := m.lastUpdate[p]
	if !ok {
		return "never"
	}
	return humanize.RelTime(t, m.now, "ago", "from now")
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func (m Model) renderField(label, value string) string {
	return m.styles.Label.Render(label+":") + " " + m.styles.Value.Render(value) + "\n"
}
