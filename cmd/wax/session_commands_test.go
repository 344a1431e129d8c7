package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"wax/internal/eventlog"
	"wax/internal/services"
	"wax/internal/testsupport"
)

func TestSessionCommandsRecordPhrases(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"start"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	requireContains(t, out, "Recorders: hotkey, git")

	out, _, err = runCLI(t, []string{"start"}, env.socketPath, env.configPath)
	if !errors.Is(err, services.ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v (%s)", err, out)
	}
	if exitCode(err) != 4 {
		t.Fatalf("unexpected exit code %d", exitCode(err))
	}

	pre := `{"words":[{"text":"tap","start":null,"end":null}],"text":"tap","speech_start":null,"now":12.5,"parsed":[],"sim":null,"speech_timeout":0.3,"modes":["command"],"tags":[]}`
	out, _, err = runCLIWithInput(t, []string{"phrase", "pre"}, env.socketPath, env.configPath, strings.NewReader(pre))
	if err != nil {
		t.Fatalf("phrase pre: %v", err)
	}
	requireContains(t, out, "opened ")
	phraseID := strings.TrimSpace(strings.TrimPrefix(out, "opened "))

	out, _, err = runCLI(t, []string{"screenshot", "menu"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("screenshot: %v", err)
	}
	requireContains(t, out, `Screenshot "menu" recorded`)

	postPath := filepath.Join(t.TempDir(), "post.json")
	if err := os.WriteFile(postPath, []byte(`{"now":13}`), 0o644); err != nil {
		t.Fatalf("write post event: %v", err)
	}
	out, _, err = runCLI(t, []string{"phrase", "post", "--file", postPath}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("phrase post: %v", err)
	}
	requireContains(t, out, "closed "+phraseID)

	out, _, err = runCLI(t, []string{"status", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var status struct {
		Running bool `json:"running"`
		Session *struct {
			ID      string `json:"id"`
			Dir     string `json:"dir"`
			Phrases int    `json:"phrases"`
		} `json:"session"`
	}
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if !status.Running || status.Session == nil || status.Session.Phrases != 1 {
		t.Fatalf("unexpected status %s", out)
	}
	sessionDir := status.Session.Dir

	out, _, err = runCLI(t, []string{"stop"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "(1 phrases)")
	if !slices.Equal(env.keys.Pressed(), []string{"r", "s"}) {
		t.Fatalf("unexpected key presses %v", env.keys.Pressed())
	}

	records := testsupport.ReadJSONL(t, filepath.Join(sessionDir, eventlog.FileName))
	phrases := testsupport.RecordsOfType(records, "talonCommandPhrase")
	if len(phrases) != 1 || phrases[0]["id"] != phraseID {
		t.Fatalf("expected one command phrase %s, got %v", phraseID, phrases)
	}
	shots, _ := phrases[0]["screenshots"].(map[string]any)
	if _, ok := shots["preCommand"]; !ok {
		t.Fatalf("pre window should carry preCommand, got %v", phrases[0]["screenshots"])
	}
	var completed map[string]any
	for _, record := range records {
		if record["commandCompleted"] == true {
			completed = record
		}
	}
	post, _ := completed["screenshots"].(map[string]any)
	if _, ok := post["postCommand"]; !ok || len(post) != 1 {
		t.Fatalf("post window is reset before capture, got %v", completed["screenshots"])
	}

	out, _, err = runCLI(t, []string{"stop"}, env.socketPath, env.configPath)
	if !errors.Is(err, services.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v (%s)", err, out)
	}

	out, _, err = runCLI(t, []string{"sessions"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	requireContains(t, out, "stopped")
	requireContains(t, out, "hotkey, git")

	out, _, err = runCLI(t, []string{"sessions", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("sessions --json: %v", err)
	}
	var listed []struct {
		Recorders []string
		Status    string
		Phrases   int
	}
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("decode sessions: %v (%s)", err, out)
	}
	if len(listed) != 1 || listed[0].Status != "stopped" || listed[0].Phrases != 1 {
		t.Fatalf("unexpected sessions %+v", listed)
	}

	out, _, err = runCLI(t, []string{"logs", "--session", "latest", "-n", "200"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "initialInfo")
	requireContains(t, out, phraseID)

	if _, _, err := runCLI(t, []string{"logs", "--session", "nope"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected unknown session to fail")
	}
}

func TestPhrasePreRejectsMalformedEvent(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLIWithInput(t, []string{"phrase", "pre"}, env.socketPath, env.configPath, strings.NewReader(`{"words":"nope"}`))
	if err == nil {
		t.Fatal("expected decode error")
	}
}

func TestStatusWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	missing := filepath.Join(t.TempDir(), "absent.sock")
	out, _, err := runCLI(t, []string{"status"}, missing, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Not running")

	if _, _, err := runCLI(t, []string{"stop"}, missing, env.configPath); err == nil || !strings.Contains(err.Error(), "run `wax daemon --detach` first") {
		t.Fatalf("expected dial hint, got %v", err)
	}
}
