package notifications

import (
	"context"

	"github.com/gen2brain/beeep"
)

// desktopNotifier shows notices through the platform notification center.
// High priority payloads use an alert so precondition failures are not missed.
type desktopNotifier struct{}

func (desktopNotifier) send(_ context.Context, data payload) error {
	if data.priority == "high" {
		return beeep.Alert(data.title, data.message, "")
	}
	return beeep.Notify(data.title, data.message, "")
}
