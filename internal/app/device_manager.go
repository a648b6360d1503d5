package app

import (
	"fmt"
	"io"
	"os"

	"github.com/emmett/supersid/internal/audio"
)

// DeviceManager handles audio device selection and listing
type DeviceManager struct {
	lister DeviceLister
	out    io.Writer
}

// NewDeviceManager creates a new DeviceManager instance
func NewDeviceManager(lister DeviceLister, out io.Writer) *DeviceManager {
	if out == nil {
		out = os.Stdout
	}
	return &DeviceManager{lister: lister, out: out}
}

// ListDevices prints all capture and playback devices
func (dm *DeviceManager) ListDevices() error {
	devices, err := dm.lister.ListDevices()
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	if len(devices) == 0 {
		fmt.Fprintln(dm.out, "No audio devices found.")
		return fmt.Errorf("no devices found")
	}

	for _, dir := range []audio.Direction{audio.DirectionCapture, audio.DirectionPlayback} {
		n := 0
		for _, device := range devices {
			if device.Direction != dir {
				continue
			}
			if n == 0 {
				fmt.Fprintf(dm.out, "%s devices:\n", dir)
			}
			n++
			marker := ""
			if device.IsDefault {
				marker = " [DEFAULT]"
			}
			fmt.Fprintf(dm.out, "%d. %s%s\n", n, device.Name, marker)
			fmt.Fprintf(dm.out, "   ID: %s\n", device.ID)
		}
		if n > 0 {
			fmt.Fprintln(dm.out)
		}
	}

	fmt.Fprintln(dm.out, "To use a specific device, run:")
	fmt.Fprintln(dm.out, "  supersid -device \"<device-id>\"")
	return nil
}

// SelectDevice finds the capture device by id or name, or returns the default one
func (dm *DeviceManager) SelectDevice(query string) (*audio.DeviceInfo, error) {
	devices, err := dm.lister.ListDevices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	if query == "" || query == "default" {
		return audio.DefaultDevice(devices, audio.DirectionCapture)
	}

	device, err := audio.FindDevice(devices, audio.DirectionCapture, query)
	if err != nil {
		return nil, fmt.Errorf("invalid audio device specified: %w", err)
	}
	return device, nil
}
