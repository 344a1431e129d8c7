// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI and the recognizer bridge.
//
// It owns socket lifecycle management and request/response DTOs. Session
// errors travel inside responses with their classification so callers can
// still use errors.Is on the client side.
package ipc
