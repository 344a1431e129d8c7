// Package testsupport holds fixtures shared by package tests: a config
// builder backed by temp directories, scripted fake recorders with a shared
// call log, and fakes for the marker, notifier, and display grabber.
package testsupport
