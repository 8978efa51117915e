package notification

import (
	"sync"
)

var (
	instance Dispatcher
	once     sync.Once
	mu       sync.RWMutex
)

// Initialize sets up the global dispatcher instance. The first call wins;
// later calls are no-ops.
func Initialize(d Dispatcher) {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		instance = d
	})
}

// GetDispatcher returns the global dispatcher instance, or nil if not
// initialized.
func GetDispatcher() Dispatcher {
	mu.RLock()
	defer mu.RUnlock()
	return instance
}

// SetDispatcherForTesting replaces the global dispatcher, bypassing the
// first-call-wins rule. Tests only.
func SetDispatcherForTesting(d Dispatcher) {
	mu.Lock()
	defer mu.Unlock()
	instance = d
}

// IsInitialized checks if the global dispatcher has been initialized.
func IsInitialized() bool {
	mu.RLock()
	defer mu.RUnlock()
	return instance != nil
}
