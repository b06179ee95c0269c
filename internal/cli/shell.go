package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/vitaminmoo/mt7697-tool/internal/board"
	"github.com/vitaminmoo/mt7697-tool/internal/config"
)

// --- Shell Command ---

type ShellCmd struct{}

func (c *ShellCmd) Run(ctx context.Context, globals *CLI) error {
	t, s, err := connect(ctx, globals)
	if err != nil {
		return err
	}
	defer t.Close()

	b := board.New(t, s)
	defer b.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "mt7697> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	// Keep log lines from clobbering the prompt.
	config.Log.SetOutput(rl.Stderr())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sh := NewShell(b, rl.Stdout())
	go sh.PrintEvents(ctx)
	sh.PrintHelp()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(rl.Stdout(), "Exiting...")
			return nil
		}
		if sh.Exec(line) {
			return nil
		}
	}
}

// Shell executes interactive commands against a board.
type Shell struct {
	board *board.Board
	out   io.Writer
}

func NewShell(b *board.Board, out io.Writer) *Shell {
	return &Shell{board: b, out: out}
}

// PrintEvents writes input updates from the board until ctx is done.
// Rejected operations are already reported by Exec.
func (s *Shell) PrintEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.board.Events():
			if ev.Err != nil {
				continue
			}
			fmt.Fprintln(s.out, formatEvent(ev))
		}
	}
}

func formatEvent(ev board.Event) string {
	if ev.Err != nil {
		return fmt.Sprintf("[%s] %v", ev.Source, ev.Err)
	}
	switch v := ev.Payload.(type) {
	case float64:
		return fmt.Sprintf("[%s] %s %.2f", ev.Source, ev.Name, v)
	default:
		return fmt.Sprintf("[%s] %s %v", ev.Source, ev.Name, v)
	}
}

// Exec runs one command line and reports whether the shell should exit.
func (s *Shell) Exec(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		s.PrintHelp()
	case "pin":
		err = s.cmdPin(args)
	case "mode", "m":
		err = s.cmdMode(args)
	case "write", "w":
		err = s.cmdWrite(args)
	case "read", "r":
		s.board.Pin.Read()
	case "watch":
		err = s.cmdWatch(args, true)
	case "unwatch":
		err = s.cmdWatch(args, false)
	case "buzzer":
		err = s.withArg(args, "buzzer <pin>", s.board.Buzzer.SetPin)
	case "buzz", "b":
		err = s.cmdBuzz(args)
	case "freq":
		err = s.cmdFreq(args)
	case "ultrasonic":
		err = s.withArg(args, "ultrasonic <pin>", s.board.Ultrasonic.SetPin)
	case "unit":
		err = s.withArg(args, "unit <cm|inch>", s.board.Ultrasonic.SetUnit)
	case "distance", "d":
		u := s.board.Ultrasonic
		fmt.Fprintf(s.out, "%.2f %s\n", u.Distance(), u.Unit())
	case "status", "s":
		s.cmdStatus()
	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Exiting...")
		return true
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}

	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
	return false
}

func (s *Shell) PrintHelp() {
	fmt.Fprintln(s.out, `
MT7697 Commands:
  Pin:
    pin <label>          - Move the pin client to another pin (2-17)
    mode <mode>          - analog-input, analog-output, digital-input,
                           digital-output or servo
    write <value>        - Set the output value
    read                 - Request one reading
    watch [ultrasonic]   - Stream readings from the pin or the sensor
    unwatch [ultrasonic] - Stop streaming

  Buzzer:
    buzzer <label>       - Move the buzzer to another pin
    freq <hz>            - Set the tone frequency
    buzz <seconds>       - Sound the buzzer

  Ultrasonic:
    ultrasonic <label>   - Move the sensor to another pin
    unit <cm|inch>       - Set the distance unit
    distance             - Show the last distance

  General:
    status               - Show all clients
    help                 - Show this help
    quit                 - Exit`)
}

func (s *Shell) withArg(args []string, usage string, fn func(string) error) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s", usage)
	}
	return fn(args[0])
}

func intArg(args []string, usage string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	v, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", args[0])
	}
	return v, nil
}

func (s *Shell) cmdPin(args []string) error {
	return s.withArg(args, "pin <label>", s.board.Pin.SetPin)
}

func (s *Shell) cmdMode(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: mode <mode>")
	}
	return s.board.Pin.SetMode(modeToken(strings.Join(args, " ")))
}

func (s *Shell) cmdWrite(args []string) error {
	v, err := intArg(args, "write <value>")
	if err != nil {
		return err
	}
	return s.board.Pin.Write(v)
}

func (s *Shell) cmdWatch(args []string, on bool) error {
	target := board.SourcePin
	if len(args) > 0 {
		target = strings.ToLower(args[0])
	}

	switch target {
	case board.SourcePin:
		if on {
			if !s.board.Pin.Mode().IsInput() {
				return fmt.Errorf("pin %s is in %s mode", s.board.Pin.Pin(), s.board.Pin.Mode())
			}
			s.board.Pin.RequestInputUpdates()
		} else {
			s.board.Pin.StopInputUpdates()
		}
	case board.SourceUltrasonic:
		if on {
			s.board.Ultrasonic.RequestInputUpdates()
		} else {
			s.board.Ultrasonic.StopInputUpdates()
		}
	default:
		return fmt.Errorf("cannot watch %q", target)
	}
	return nil
}

func (s *Shell) cmdBuzz(args []string) error {
	d, err := intArg(args, "buzz <seconds>")
	if err != nil {
		return err
	}
	return s.board.Buzzer.Buzz(d)
}

func (s *Shell) cmdFreq(args []string) error {
	hz, err := intArg(args, "freq <hz>")
	if err != nil {
		return err
	}
	return s.board.Buzzer.SetFrequency(hz)
}

func (s *Shell) cmdStatus() {
	p, b, u := s.board.Pin, s.board.Buzzer, s.board.Ultrasonic
	fmt.Fprintf(s.out, "Pin:        %-3s %-15s value %d  %s\n", p.Pin(), p.Mode(), p.Value(), supported(p.IsSupported()))
	fmt.Fprintf(s.out, "Buzzer:     %-3s %d Hz  %s\n", b.Pin(), b.Frequency(), supported(b.IsSupported()))
	fmt.Fprintf(s.out, "Ultrasonic: %-3s %.2f %s  %s\n", u.Pin(), u.Distance(), u.Unit(), supported(u.IsSupported()))
	if n := s.board.Dropped(); n > 0 {
		fmt.Fprintf(s.out, "Dropped events: %d\n", n)
	}
}

func supported(ok bool) string {
	if ok {
		return "online"
	}
	return "offline"
}
