// Package notifications surfaces session events and failures to the user.
//
// Desktop notifications go through beeep; ntfy push is available for remote
// setups. Both can be active at once. Callers depend only on the Service
// interface, and delivery failures never change session control flow: log
// them and move on.
package notifications
