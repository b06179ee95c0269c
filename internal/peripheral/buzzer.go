package peripheral

const (
	defaultBuzzerPin = "10"
	defaultFrequency = 440

	// The packed (frequency << 16 | duration) value must stay a positive
	// signed 32-bit integer.
	maxFrequency = 0x7FFF
	maxDuration  = 0xFFFF
)

// Buzzer drives a piezo buzzer wired to one pin.
type Buzzer struct {
	device

	freq int
}

// NewBuzzer creates a Buzzer on the configured pin (default "10") at 440 Hz
// and starts its sync loop.
func NewBuzzer(t Transport, cfg Config) *Buzzer {
	b := newBuzzer(t, cfg)
	b.sched.Start()
	return b
}

func newBuzzer(t Transport, cfg Config) *Buzzer {
	b := &Buzzer{freq: defaultFrequency}
	b.init("buzzer", t, ModeBuzzer, cfg, b.sync)

	b.SetPin(defaultBuzzerPin)
	if cfg.Pin != "" {
		b.SetPin(cfg.Pin)
	}

	return b
}

// SetPin moves the buzzer to another pin.
func (b *Buzzer) SetPin(label string) error {
	if err := b.checkPin(label); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.assignPinLocked(label)
	if b.supportedLocked() {
		b.writeModeLocked()
	}
	return nil
}

// Frequency returns the tone frequency in Hz.
func (b *Buzzer) Frequency() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.freq
}

// SetFrequency sets the tone used by the next Buzz. Frequencies outside
// [0, 32767] would not fit the packed buzz value and are rejected with
// ErrInvalidFrequency.
func (b *Buzzer) SetFrequency(hz int) error {
	if hz < 0 || hz > maxFrequency {
		return b.reject("Frequency", ErrInvalidFrequency, "the frequency should be between 0 and 32767")
	}

	b.mu.Lock()
	b.freq = hz
	b.mu.Unlock()
	return nil
}

// Buzz sounds the buzzer for the given number of seconds.
func (b *Buzzer) Buzz(duration int) error {
	if duration <= 0 || duration > maxDuration {
		return b.reject("Buzz", ErrInvalidDuration, "the duration should be positive integers")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.supportedLocked() {
		return nil
	}
	b.writeDataLocked(EncodeBuzz(b.freq, duration))
	return nil
}

// EncodeBuzz packs a frequency and duration the way the firmware expects:
// frequency in the high 16 bits, duration in the low 16 bits.
func EncodeBuzz(freq, duration int) int {
	return freq<<16 | duration
}

// Buzz is a one-shot trigger, so only the mode is kept in sync.
func (b *Buzzer) sync() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.supportedLocked() {
		b.writeModeLocked()
	}
}
