package audio

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gen2brain/malgo"
)

// DeviceInfo contains information about an audio device
type DeviceInfo struct {
	ID        string    // Backend device identifier, e.g. "hw:1,0"
	Name      string    // Human-readable device name
	Direction Direction // Capture or playback
	IsDefault bool      // Whether this is the default device
}

// String returns a human-readable representation of the device
func (d DeviceInfo) String() string {
	defaultMarker := ""
	if d.IsDefault {
		defaultMarker = " [DEFAULT]"
	}
	return fmt.Sprintf("%s %s: %s%s", d.Direction, d.ID, d.Name, defaultMarker)
}

// ListDevices returns the capture devices followed by the playback devices
func (d *MalgoDriver) ListDevices() ([]DeviceInfo, error) {
	if d.ctx == nil {
		return nil, ErrClosed
	}

	var devices []DeviceInfo
	for _, dir := range []Direction{DirectionCapture, DirectionPlayback} {
		infos, err := d.ctx.Devices(dir.malgoType())
		if err != nil {
			return nil, fmt.Errorf("failed to enumerate %s devices: %w", dir, err)
		}
		for i := range infos {
			devices = append(devices, DeviceInfo{
				ID:        deviceID(infos[i]),
				Name:      infos[i].Name(),
				Direction: dir,
				IsDefault: infos[i].IsDefault > 0,
			})
		}
	}
	return devices, nil
}

// DefaultDevice returns the default device for the direction, or the first one
// when the backend does not flag a default
func DefaultDevice(devices []DeviceInfo, dir Direction) (*DeviceInfo, error) {
	var first *DeviceInfo
	for i := range devices {
		if devices[i].Direction != dir {
			continue
		}
		if devices[i].IsDefault {
			return &devices[i], nil
		}
		if first == nil {
			first = &devices[i]
		}
	}
	if first == nil {
		return nil, fmt.Errorf("no %s devices found", dir)
	}
	return first, nil
}

// FindDevice finds a device by exact id or by name (case-insensitive partial match)
func FindDevice(devices []DeviceInfo, dir Direction, query string) (*DeviceInfo, error) {
	search := strings.ToLower(query)
	for i := range devices {
		if devices[i].Direction == dir && devices[i].ID == query {
			return &devices[i], nil
		}
	}
	for i := range devices {
		if devices[i].Direction == dir && strings.Contains(strings.ToLower(devices[i].Name), search) {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("no %s device found matching: %s", dir, query)
}

// deviceID decodes the backend id, which malgo reports hex encoded
func deviceID(info malgo.DeviceInfo) string {
	raw := info.ID.String()
	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return raw
	}
	decoded = bytes.TrimRight(decoded, "\x00")
	if len(decoded) == 0 {
		return raw
	}
	return string(decoded)
}

func matchesDevice(info malgo.DeviceInfo, query string) bool {
	id := deviceID(info)
	return id == query || info.ID.String() == query || info.Name() == query ||
		strings.Contains(strings.ToLower(info.Name()), strings.ToLower(query))
}
