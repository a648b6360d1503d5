package audio

// Driver opens devices on a platform audio API
type Driver interface {
	// Open acquires the device in the given direction
	Open(deviceID string, dir Direction) (Handle, error)
}

// Handle is an open device. A Handle is owned by one session and is not
// safe for concurrent use.
type Handle interface {
	// Negotiate configures the hardware and returns the accepted parameters.
	// Backends that cannot read back the period or buffer size return the requested value.
	Negotiate(params HWParams) (HWParams, error)

	// Start starts the transfer, a started handle ignores further calls
	Start() error

	// Stop stops the transfer and drops pending frames
	Stop() error

	// Drain blocks until queued playback frames have been played
	Drain() error

	// Read fills buf with whole interleaved frames and returns the frame count
	Read(buf []byte) (int, error)

	// Write queues whole interleaved frames and returns how many were accepted
	Write(buf []byte) (int, error)

	// Close releases the device
	Close() error
}
