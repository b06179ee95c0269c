package peripheral

const (
	defaultUltrasonicPin = "8"

	inchesPerCm = 0.393701
)

// Unit is the display unit for distances. It is applied on the host only.
type Unit int

const (
	UnitCentimeters Unit = iota
	UnitInches
)

func (u Unit) String() string {
	if u == UnitInches {
		return "inch"
	}
	return "cm"
}

// ParseUnit accepts "cm" and "inch".
func ParseUnit(token string) (Unit, bool) {
	switch token {
	case "cm":
		return UnitCentimeters, true
	case "inch":
		return UnitInches, true
	}
	return UnitCentimeters, false
}

// Ultrasonic reads distances from an ultrasonic range sensor.
type Ultrasonic struct {
	device

	unit     Unit
	distance float64
}

// NewUltrasonic creates an Ultrasonic on the configured pin (default "8")
// reporting centimeters and starts its sync loop.
func NewUltrasonic(t Transport, cfg Config) *Ultrasonic {
	u := newUltrasonic(t, cfg)
	u.sched.Start()
	return u
}

func newUltrasonic(t Transport, cfg Config) *Ultrasonic {
	u := &Ultrasonic{}
	u.init("ultrasonic", t, ModeUltrasonic, cfg, u.sync)

	u.SetPin(defaultUltrasonicPin)
	if cfg.Pin != "" {
		u.SetPin(cfg.Pin)
	}

	return u
}

// SetPin moves the sensor to another pin, dropping any live subscription
// first.
func (u *Ultrasonic) SetPin(label string) error {
	if err := u.checkPin(label); err != nil {
		return err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	u.assignPinLocked(label)
	if u.supportedLocked() {
		u.writeModeLocked()
	}
	return nil
}

// Unit returns the display unit.
func (u *Ultrasonic) Unit() Unit {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.unit
}

// SetUnit changes the unit used for subsequent deliveries.
func (u *Ultrasonic) SetUnit(token string) error {
	unit, ok := ParseUnit(token)
	if !ok {
		return u.reject("Unit", ErrInvalidUnit, "the unit should be cm or inch")
	}

	u.mu.Lock()
	u.unit = unit
	u.mu.Unlock()
	return nil
}

// Distance returns the last delivered distance in the unit that was current
// at delivery.
func (u *Ultrasonic) Distance() float64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.distance
}

// RequestInputUpdates subscribes to distance readings.
func (u *Ultrasonic) RequestInputUpdates() {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.supportedLocked() {
		u.subscribeLocked(u.decode)
	}
}

// StopInputUpdates cancels RequestInputUpdates.
func (u *Ultrasonic) StopInputUpdates() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.unsubscribeLocked()
}

func (u *Ultrasonic) decode(values []int) (any, bool) {
	v, ok := firstSample(values)
	if !ok {
		return nil, false
	}

	d := float64(v)
	if u.unit == UnitInches {
		d *= inchesPerCm
	}
	u.distance = d
	return d, true
}

func (u *Ultrasonic) sync() {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.supportedLocked() {
		u.writeModeLocked()
	}
}
