package testsupport

import (
	"context"
	"sync"
	"time"
)

// FakeMarker records calibration flashes without painting anything.
type FakeMarker struct {
	mu        sync.Mutex
	Err       error
	Flashes   int
	ShownAt   time.Time
	Dismissed time.Time
	Log       *CallLog
}

func (m *FakeMarker) Flash(_ context.Context, atDismiss func() error) error {
	m.mu.Lock()
	m.Flashes++
	m.ShownAt = time.Now()
	m.mu.Unlock()
	if m.Log != nil {
		m.Log.Add("marker:flash")
	}
	if m.Err != nil {
		return m.Err
	}
	err := atDismiss()
	m.mu.Lock()
	m.Dismissed = time.Now()
	m.mu.Unlock()
	return err
}
