package ble

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vitaminmoo/mt7697-tool/internal/config"

	"tinygo.org/x/bluetooth"
)

// ErrNotFound is returned when no device advertising the requested name is
// seen before the scan times out.
var ErrNotFound = errors.New("device not found")

// matchName reports whether an advertised local name matches the wanted one.
func matchName(advertised, want string) bool {
	return advertised != "" && strings.EqualFold(advertised, want)
}

// Connect scans for a device advertising name, connects to it and discovers
// its characteristics. The scan stops after timeout or when ctx is done.
func Connect(ctx context.Context, name string, timeout time.Duration) (*Transport, error) {
	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("enable bluetooth: %w", err)
	}

	config.Infof("Scanning for %s...", name)

	scanCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	go func() {
		<-scanCtx.Done()
		adapter.StopScan()
	}()

	var result bluetooth.ScanResult
	var found bool
	err := adapter.Scan(func(adapter *bluetooth.Adapter, r bluetooth.ScanResult) {
		local := r.LocalName()
		if local != "" {
			config.Debugf("  Found: '%s' (%s) rssi %d", local, r.Address.String(), r.RSSI)
		}
		if !found && matchName(local, name) {
			result = r
			found = true
			adapter.StopScan()
		}
	})
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if !found {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	t := newTransport()
	t.address = result.Address.String()
	adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if device.Address.String() != t.address {
			return
		}
		config.Debugf("Link %s connected=%v", t.address, connected)
		t.setConnected(connected)
	})

	config.Infof("Connecting to %s...", t.address)
	device, err := adapter.Connect(result.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", t.address, err)
	}
	t.device = device
	t.setConnected(true)

	if err := t.discover(); err != nil {
		device.Disconnect()
		return nil, err
	}
	if !t.hasService(PinServiceUUID) {
		config.Warnf("%s does not publish the pin service", name)
	}

	config.Infof("Connected!")
	return t, nil
}

func (t *Transport) hasService(service string) bool {
	svc := normalizeUUID(service)
	t.mu.Lock()
	defer t.mu.Unlock()
	for key := range t.chars {
		if key.service == svc {
			return true
		}
	}
	return false
}
