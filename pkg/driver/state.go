package driver

// State is a driver's lifecycle state.
type State string

const (
	// StateClosed means the driver has not been opened; nothing about the
	// hardware is known yet.
	StateClosed State = "closed"
	// StateOpened means the device is bound and its capabilities have
	// been probed.
	StateOpened State = "opened"
	// StateRunning means the device is acquiring and frames can be read.
	StateRunning State = "running"
)
