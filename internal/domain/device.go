package domain

import "strings"

// DeviceStatus is a read-only snapshot of a Tailwind device. Doors are keyed
// by their stable door identifier (e.g. "door1"); the numeric door index is
// the addressing key for operate commands.
type DeviceStatus struct {
	DeviceID         string
	FirmwareVersion  string
	Product          string
	ProtocolVersion  string
	LEDBrightness    int
	NightModeEnabled bool
	NumberOfDoors    int
	Doors            map[string]Door
}

func (s *DeviceStatus) DoorByIndex(index int) (Door, bool) {
	for _, door := range s.Doors {
		if door.Index == index {
			return door, true
		}
	}

	return Door{}, false
}

// MACAddress converts the device identifier into a MAC address,
// e.g. "_3c_e9_e_6d_21_84_" -> "3c:e9:0e:6d:21:84".
func (s *DeviceStatus) MACAddress() string {
	parts := strings.Split(strings.Trim(s.DeviceID, "_"), "_")
	for i, part := range parts {
		for len(part) < 2 {
			part = "0" + part
		}
		parts[i] = part
	}

	return strings.Join(parts, ":")
}
