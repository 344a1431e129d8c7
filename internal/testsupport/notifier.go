package testsupport

import (
	"context"
	"fmt"
	"sync"

	"wax/internal/services"
)

// RecordingNotifier captures notifications for assertions.
type RecordingNotifier struct {
	mu       sync.Mutex
	Messages []string
}

func (n *RecordingNotifier) add(msg string) error {
	n.mu.Lock()
	n.Messages = append(n.Messages, msg)
	n.mu.Unlock()
	return nil
}

func (n *RecordingNotifier) NotifySessionStarted(_ context.Context, sessionID string, recorders []string) error {
	return n.add(fmt.Sprintf("started %s %v", sessionID, recorders))
}

func (n *RecordingNotifier) NotifySessionStopped(_ context.Context, sessionID string, phrases int) error {
	return n.add(fmt.Sprintf("stopped %s %d", sessionID, phrases))
}

func (n *RecordingNotifier) NotifyWarning(_ context.Context, title, detail string) error {
	return n.add("warning " + title + ": " + detail)
}

func (n *RecordingNotifier) NotifyError(_ context.Context, err error, _ string) error {
	return n.add("ERROR: " + services.UserMessage(err))
}

func (n *RecordingNotifier) TestNotification(context.Context) error {
	return n.add("test")
}

// All returns a copy of the captured messages.
func (n *RecordingNotifier) All() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.Messages...)
}
