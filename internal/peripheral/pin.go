package peripheral

const (
	// Data sentinels: nothing has been written since the mode was set.
	// Concrete outputs are stored negated, so they are always <= 0.
	noInputData  = -1
	noOutputData = 1

	maxOutput      = 255
	maxServoDegree = 180

	defaultPinLabel = "2"
	defaultPinMode  = ModeAnalogInput
)

// Pin controls a general purpose pin in one of the PinModes.
type Pin struct {
	device

	data  int // encoded output, or one of the sentinels
	value int // last decoded input or clamped output
}

// NewPin creates a Pin on the configured pin (default "2") in analog input
// mode and starts its sync loop.
func NewPin(t Transport, cfg Config) *Pin {
	p := newPin(t, cfg)
	p.sched.Start()
	return p
}

func newPin(t Transport, cfg Config) *Pin {
	p := &Pin{}
	p.init("pin", t, ModeUnset, cfg, p.sync)

	p.SetPin(defaultPinLabel)
	p.SetMode(defaultPinMode.String())
	if cfg.Pin != "" {
		p.SetPin(cfg.Pin)
	}

	return p
}

// SetPin moves the client to another pin. On success the current mode, and
// any output already written, is pushed to the new pin.
func (p *Pin) SetPin(label string) error {
	if err := p.checkPin(label); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.assignPinLocked(label)
	if p.supportedLocked() {
		p.writeModeLocked()
		if p.mode.IsOutput() && p.data <= 0 {
			p.writeDataLocked(p.data)
		}
	}
	return nil
}

// Mode returns the current mode.
func (p *Pin) Mode() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

// SetMode switches the pin to the mode named by token, discarding any
// queued output, the last value and any live input subscription.
func (p *Pin) SetMode(token string) error {
	m, ok := ParsePinMode(token)
	if !ok {
		return p.reject("Mode", ErrInvalidMode, "invalid mode value")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.unsubscribeLocked()
	p.gen++
	p.mode = m
	p.value = 0
	if m.IsInput() {
		p.data = noInputData
	} else {
		p.data = noOutputData
	}

	if p.supportedLocked() {
		p.writeModeLocked()
	}
	return nil
}

// Write sets the output level. Analog and digital outputs are clamped to
// [0, 255] and servo angles to [0, 180]. The value is pushed right away and
// on every sync tick after that. Write is a no-op while the pin is not
// supported.
func (p *Pin) Write(value int) error {
	p.mu.Lock()

	var limit int
	switch p.mode {
	case ModeAnalogOutput, ModeDigitalOutput:
		limit = maxOutput
	case ModeServo:
		limit = maxServoDegree
	default:
		p.mu.Unlock()
		return p.reject("Write", ErrInvalidState, "cannot call Write() on non-output or non-servo mode")
	}

	if !p.supportedLocked() {
		p.mu.Unlock()
		return nil
	}

	value = max(0, min(value, limit))
	p.data = -value
	p.value = value
	p.writeDataLocked(p.data)
	p.mu.Unlock()
	return nil
}

// Value returns the last input reading, or the last clamped output.
func (p *Pin) Value() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// Read requests a single reading. The result arrives as an InputUpdated
// event. Read does nothing outside the input modes.
func (p *Pin) Read() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.supportedLocked() && p.mode.IsInput() {
		p.readLocked(p.decode)
	}
}

// RequestInputUpdates subscribes to readings from an input pin.
func (p *Pin) RequestInputUpdates() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.supportedLocked() && p.mode.IsInput() {
		p.subscribeLocked(p.decode)
	}
}

// StopInputUpdates cancels RequestInputUpdates. Like RequestInputUpdates it
// only applies in the input modes.
func (p *Pin) StopInputUpdates() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.mode.IsInput() {
		p.unsubscribeLocked()
	}
}

func (p *Pin) decode(values []int) (any, bool) {
	v, ok := firstSample(values)
	if !ok {
		return nil, false
	}

	switch p.mode {
	case ModeDigitalInput:
		if v != 0 {
			v = 1
		}
	case ModeAnalogInput:
	default:
		return nil, false
	}

	p.value = v
	return v, true
}

func (p *Pin) sync() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.supportedLocked() {
		return
	}

	p.writeModeLocked()
	if p.mode.IsOutput() && p.data != noOutputData {
		p.writeDataLocked(p.data)
	}
}
