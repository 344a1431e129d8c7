package testsupport

import (
	"sync"

	"wax/internal/recorders"
)

// KeyLog records shortcuts instead of pressing them.
type KeyLog struct {
	mu   sync.Mutex
	keys []string
}

func (k *KeyLog) Send(s recorders.Shortcut) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys = append(k.keys, s.Key)
	return nil
}

// Pressed returns the keys sent so far, without modifiers.
func (k *KeyLog) Pressed() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]string(nil), k.keys...)
}
