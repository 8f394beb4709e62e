package driver

import "sync"

// FilterFn decides whether a driver belongs in a query result.
type FilterFn func(Driver) bool

// FilterDeviceType matches drivers fronting the given device type.
func FilterDeviceType(t DeviceType) FilterFn {
	return func(d Driver) bool {
		return d.Info().DeviceType == t
	}
}

// Manager is a registry of drivers and their states.
type Manager struct {
	mu      sync.Mutex
	drivers map[string]Driver
}

var defaultManager = &Manager{
	drivers: make(map[string]Driver),
}

// GetManager returns the process-wide manager.
func GetManager() *Manager {
	return defaultManager
}

// Register wraps an adapter and adds it to the registry.
func (m *Manager) Register(a Adapter, info Info) Driver {
	d := wrapAdapter(a, info)
	m.mu.Lock()
	m.drivers[d.ID()] = d
	m.mu.Unlock()
	return d
}

// Unregister removes a driver from the registry.
func (m *Manager) Unregister(id string) {
	m.mu.Lock()
	delete(m.drivers, id)
	m.mu.Unlock()
}

// Query returns the registered drivers matching every given filter.
func (m *Manager) Query(filters ...FilterFn) []Driver {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]Driver, 0, len(m.drivers))
next:
	for _, d := range m.drivers {
		for _, f := range filters {
			if !f(d) {
				continue next
			}
		}
		results = append(results, d)
	}
	return results
}
