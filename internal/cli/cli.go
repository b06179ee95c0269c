package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vitaminmoo/mt7697-tool/internal/ble"
	"github.com/vitaminmoo/mt7697-tool/internal/config"
	"github.com/vitaminmoo/mt7697-tool/internal/peripheral"
	"github.com/vitaminmoo/mt7697-tool/internal/pins"
	"github.com/vitaminmoo/mt7697-tool/internal/tui"
)

// CLI is the root command structure for mt7697.
type CLI struct {
	Verbose     bool          `short:"v" help:"Enable verbose debug output"`
	Config      string        `type:"path" help:"Settings file (default ~/.mt7697/config.yaml)"`
	Device      string        `help:"Advertised BLE name of the board"`
	ScanTimeout time.Duration `name:"scan-timeout" help:"How long to scan for the board"`
	Interval    time.Duration `help:"Period between state pushes to the board"`

	// Default command - TUI
	Monitor MonitorCmd `cmd:"" default:"withargs" help:"Launch live monitor TUI (default)"`

	Pin        PinCmd        `cmd:"" help:"Generic pin operations"`
	Buzz       BuzzCmd       `cmd:"" help:"Sound the buzzer"`
	Ultrasonic UltrasonicCmd `cmd:"" help:"Ultrasonic range sensor"`
	Explore    ExploreCmd    `cmd:"" help:"List all BLE services and characteristics"`
	Shell      ShellCmd      `cmd:"" help:"Interactive command shell"`
	Pins       PinsCmd       `cmd:"" help:"List pin labels and their characteristics (offline)"`
}

// Settings loads the settings file and applies command-line overrides.
func (c *CLI) Settings() (config.Settings, error) {
	config.SetVerbose(c.Verbose)

	path := c.Config
	if path == "" {
		if p, err := config.DefaultPath(); err == nil {
			path = p
		}
	}
	s, err := config.Load(path)
	if err != nil {
		return s, err
	}

	if c.Device != "" {
		s.Device = c.Device
	}
	if c.ScanTimeout > 0 {
		s.ScanTimeout = c.ScanTimeout
	}
	if c.Interval > 0 {
		s.SyncInterval = c.Interval
	}
	return s, nil
}

func connect(ctx context.Context, globals *CLI) (*ble.Transport, config.Settings, error) {
	s, err := globals.Settings()
	if err != nil {
		return nil, s, err
	}
	t, err := ble.Connect(ctx, s.Device, s.ScanTimeout)
	if err != nil {
		return nil, s, err
	}
	return t, s, nil
}

// modeToken accepts hyphenated spellings ("analog-input") on the command
// line.
func modeToken(arg string) string {
	return strings.ReplaceAll(strings.ToLower(arg), "-", " ")
}

// inputSink forwards InputUpdated payloads to ch without blocking.
func inputSink(ch chan<- any) peripheral.Sink {
	return peripheral.FuncSink{
		OnEvent: func(name string, payload any) {
			if name != peripheral.EventInputUpdated {
				return
			}
			select {
			case ch <- payload:
			default:
			}
		},
	}
}

// hold keeps clients alive so the scheduler pushes their state, until d
// elapses or ctx is done.
func hold(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// --- TUI Command ---

type MonitorCmd struct{}

func (c *MonitorCmd) Run(globals *CLI) error {
	s, err := globals.Settings()
	if err != nil {
		return err
	}
	return tui.Run(s)
}

// --- Pin Commands ---

type PinCmd struct {
	Mode  PinModeCmd  `cmd:"" help:"Set a pin's mode"`
	Write PinWriteCmd `cmd:"" help:"Set an output pin's value"`
	Read  PinReadCmd  `cmd:"" help:"Read an input pin once"`
	Watch PinWatchCmd `cmd:"" help:"Stream readings from an input pin"`
}

type PinModeCmd struct {
	Pin  string        `arg:"" help:"Pin label (2-17)"`
	Mode string        `arg:"" help:"analog-input, analog-output, digital-input, digital-output or servo"`
	Hold time.Duration `default:"2s" help:"How long to keep pushing the configuration"`
}

func (c *PinModeCmd) Run(ctx context.Context, globals *CLI) error {
	t, s, err := connect(ctx, globals)
	if err != nil {
		return err
	}
	defer t.Close()

	p := peripheral.NewPin(t, peripheral.Config{Interval: s.SyncInterval, Sink: peripheral.FuncSink{}})
	defer p.Close()

	if err := p.SetPin(c.Pin); err != nil {
		return err
	}
	if err := p.SetMode(modeToken(c.Mode)); err != nil {
		return err
	}
	fmt.Printf("Pin %s set to %s\n", p.Pin(), p.Mode())
	hold(ctx, c.Hold)
	return nil
}

type PinWriteCmd struct {
	Pin   string        `arg:"" help:"Pin label (2-17)"`
	Mode  string        `arg:"" help:"analog-output, digital-output or servo"`
	Value int           `arg:"" help:"Output value (0-255, 0-1 or 0-180 degrees)"`
	Hold  time.Duration `default:"2s" help:"How long to keep pushing the value"`
}

func (c *PinWriteCmd) Run(ctx context.Context, globals *CLI) error {
	t, s, err := connect(ctx, globals)
	if err != nil {
		return err
	}
	defer t.Close()

	p := peripheral.NewPin(t, peripheral.Config{Interval: s.SyncInterval, Sink: peripheral.FuncSink{}})
	defer p.Close()

	if err := p.SetPin(c.Pin); err != nil {
		return err
	}
	if err := p.SetMode(modeToken(c.Mode)); err != nil {
		return err
	}
	if err := p.Write(c.Value); err != nil {
		return err
	}
	fmt.Printf("Pin %s (%s) = %d\n", p.Pin(), p.Mode(), p.Value())
	hold(ctx, c.Hold)
	return nil
}

type PinReadCmd struct {
	Pin     string        `arg:"" help:"Pin label (2-17)"`
	Mode    string        `arg:"" optional:"" default:"analog-input" help:"analog-input or digital-input"`
	Timeout time.Duration `default:"5s" help:"How long to wait for the reading"`
}

func (c *PinReadCmd) Run(ctx context.Context, globals *CLI) error {
	mode, ok := peripheral.ParsePinMode(modeToken(c.Mode))
	if !ok || !mode.IsInput() {
		return fmt.Errorf("%q is not an input mode", c.Mode)
	}

	t, s, err := connect(ctx, globals)
	if err != nil {
		return err
	}
	defer t.Close()

	readings := make(chan any, 1)
	p := peripheral.NewPin(t, peripheral.Config{Interval: s.SyncInterval, Sink: inputSink(readings)})
	defer p.Close()

	if err := p.SetPin(c.Pin); err != nil {
		return err
	}
	if err := p.SetMode(mode.String()); err != nil {
		return err
	}
	if !p.IsSupported() {
		return fmt.Errorf("pin %s is not published by the board", p.Pin())
	}
	p.Read()

	select {
	case v := <-readings:
		fmt.Printf("Pin %s (%s): %v\n", p.Pin(), p.Mode(), v)
		return nil
	case <-time.After(c.Timeout):
		return errors.New("timed out waiting for a reading")
	case <-ctx.Done():
		return ctx.Err()
	}
}

type PinWatchCmd struct {
	Pin  string `arg:"" help:"Pin label (2-17)"`
	Mode string `arg:"" optional:"" default:"analog-input" help:"analog-input or digital-input"`
}

func (c *PinWatchCmd) Run(ctx context.Context, globals *CLI) error {
	mode, ok := peripheral.ParsePinMode(modeToken(c.Mode))
	if !ok || !mode.IsInput() {
		return fmt.Errorf("%q is not an input mode", c.Mode)
	}

	t, s, err := connect(ctx, globals)
	if err != nil {
		return err
	}
	defer t.Close()

	readings := make(chan any, 16)
	p := peripheral.NewPin(t, peripheral.Config{Interval: s.SyncInterval, Sink: inputSink(readings)})
	defer p.Close()

	if err := p.SetPin(c.Pin); err != nil {
		return err
	}
	if err := p.SetMode(mode.String()); err != nil {
		return err
	}
	p.RequestInputUpdates()
	defer p.StopInputUpdates()

	fmt.Printf("Watching pin %s (%s), Ctrl+C to stop\n", p.Pin(), p.Mode())
	return watch(ctx, readings, func(v any) string { return fmt.Sprint(v) })
}

func watch(ctx context.Context, readings <-chan any, format func(any) string) error {
	for {
		select {
		case v := <-readings:
			fmt.Printf("%s  %s\n", time.Now().Format("15:04:05.000"), format(v))
		case <-ctx.Done():
			return nil
		}
	}
}

// --- Buzzer Command ---

type BuzzCmd struct {
	Pin      string `arg:"" help:"Pin label (2-17)"`
	Duration int    `arg:"" help:"Duration in seconds"`
	Freq     int    `default:"440" help:"Tone frequency in Hz"`
}

func (c *BuzzCmd) Run(ctx context.Context, globals *CLI) error {
	if !pins.Valid(c.Pin) {
		return fmt.Errorf("invalid pin %q", c.Pin)
	}

	t, s, err := connect(ctx, globals)
	if err != nil {
		return err
	}
	defer t.Close()

	b := peripheral.NewBuzzer(t, peripheral.Config{Pin: c.Pin, Interval: s.SyncInterval, Sink: peripheral.FuncSink{}})
	defer b.Close()

	if err := b.SetFrequency(c.Freq); err != nil {
		return err
	}
	if err := b.Buzz(c.Duration); err != nil {
		return err
	}
	if !b.IsSupported() {
		return fmt.Errorf("pin %s is not published by the board", b.Pin())
	}
	fmt.Printf("Buzzing pin %s at %d Hz for %ds\n", b.Pin(), b.Frequency(), c.Duration)
	return nil
}

// --- Ultrasonic Commands ---

type UltrasonicCmd struct {
	Watch UltrasonicWatchCmd `cmd:"" help:"Stream distance readings"`
}

type UltrasonicWatchCmd struct {
	Pin  string `arg:"" optional:"" help:"Pin label (2-17)"`
	Unit string `default:"cm" enum:"cm,inch" help:"Distance unit (cm or inch)"`
}

func (c *UltrasonicWatchCmd) Run(ctx context.Context, globals *CLI) error {
	t, s, err := connect(ctx, globals)
	if err != nil {
		return err
	}
	defer t.Close()

	label := c.Pin
	if label == "" {
		label = s.Pins.Ultrasonic
	}

	readings := make(chan any, 16)
	u := peripheral.NewUltrasonic(t, peripheral.Config{Interval: s.SyncInterval, Sink: inputSink(readings)})
	defer u.Close()

	if err := u.SetPin(label); err != nil {
		return err
	}
	if err := u.SetUnit(c.Unit); err != nil {
		return err
	}
	u.RequestInputUpdates()
	defer u.StopInputUpdates()

	fmt.Printf("Watching ultrasonic on pin %s, Ctrl+C to stop\n", u.Pin())
	return watch(ctx, readings, func(v any) string {
		return fmt.Sprintf("%.2f %s", v, u.Unit())
	})
}

// --- Explore Command ---

type ExploreCmd struct{}

func (c *ExploreCmd) Run(ctx context.Context, globals *CLI) error {
	t, _, err := connect(ctx, globals)
	if err != nil {
		return err
	}
	defer t.Close()
	return t.Explore(os.Stdout)
}

// --- Pins Command ---

type PinsCmd struct{}

func (c *PinsCmd) Run() error {
	fmt.Printf("Service: %s\n\n", pins.ServiceUUID)
	fmt.Printf("%-4s  %-36s  %s\n", "PIN", "MODE", "DATA")
	for _, label := range pins.Labels {
		a, err := pins.Resolve(label)
		if err != nil {
			return err
		}
		fmt.Printf("%-4s  %s  %s\n", label, a.Mode, a.Data)
	}
	return nil
}
