package testsupport

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// WriteScript writes an executable shell script with the given body.
func WriteScript(t testing.TB, path, body string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write script %s: %v", path, err)
	}
}

// ReadJSONL decodes every line of a JSON lines file. Any line that is not a
// JSON object fails the test.
func ReadJSONL(t testing.TB, path string) []map[string]any {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	var records []map[string]any
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		var record map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("%s:%d: invalid JSON: %v", path, line, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan %s: %v", path, err)
	}
	return records
}

// RecordsOfType filters records by their type field.
func RecordsOfType(records []map[string]any, recordType string) []map[string]any {
	var out []map[string]any
	for _, record := range records {
		if record["type"] == recordType {
			out = append(out, record)
		}
	}
	return out
}
