package ble

import (
	"fmt"
	"io"

	"github.com/vitaminmoo/mt7697-tool/internal/pins"
	"github.com/vitaminmoo/mt7697-tool/internal/util"
)

// Explore lists every service and characteristic the device publishes and
// the value of each readable characteristic. Pin characteristics are
// labelled with their pin and role.
func (t *Transport) Explore(w io.Writer) error {
	services, err := t.device.DiscoverServices(nil)
	if err != nil {
		return fmt.Errorf("discover services: %w", err)
	}

	fmt.Fprintf(w, "\nFound %d services:\n\n", len(services))

	for i, svc := range services {
		fmt.Fprintf(w, "Service #%d: %s\n", i+1, svc.UUID().String())

		chars, err := svc.DiscoverCharacteristics(nil)
		if err != nil {
			fmt.Fprintf(w, "  Error: %v\n\n", err)
			continue
		}

		for j, char := range chars {
			id := char.UUID().String()
			if label := describe(id); label != "" {
				fmt.Fprintf(w, "  [%d] %s (%s)\n", j+1, id, label)
			} else {
				fmt.Fprintf(w, "  [%d] %s\n", j+1, id)
			}

			buf := make([]byte, 256)
			n, err := char.Read(buf)
			if err == nil && n > 0 {
				data := buf[:n]
				fmt.Fprintf(w, "      Value: %s", util.FormatValue(data))
				if !util.IsTextData(data) && n%intSize == 0 {
					fmt.Fprintf(w, " %v", DecodeInts(true, data))
				}
				fmt.Fprintln(w)
			}
		}
		fmt.Fprintln(w)
	}
	return nil
}

// describe names a pin characteristic, or returns "" for anything else.
func describe(id string) string {
	id = normalizeUUID(id)
	for _, label := range pins.Labels {
		a, err := pins.Resolve(label)
		if err != nil {
			continue
		}
		switch id {
		case a.Mode:
			return "pin " + label + " mode"
		case a.Data:
			return "pin " + label + " data"
		}
	}
	return ""
}
