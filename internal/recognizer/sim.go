package recognizer

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"wax/internal/services"
)

// Command is one command the engine ran for a phrase, recovered from its
// debug trace.
type Command struct {
	Num      int        `json:"num"`
	Phrase   string     `json:"phrase"`
	File     string     `json:"file"`
	Grammar  string     `json:"grammar"`
	UserRule *RuleMatch `json:"user_rule,omitempty"`
	Captures []any      `json:"captures,omitempty"`
}

// RuleMatch locates a grammar in its rule file. Line is 1-based.
type RuleMatch struct {
	Line int    `json:"line"`
	Rule string `json:"rule"`
}

// Unmatched names a command whose rule could not be found in its file.
type Unmatched struct {
	Grammar string
	File    string
}

var simPattern = regexp.MustCompile(`\[(\d+)] "([^"]+)"\s+path: ([^\n]+)\s+rule: "([^"]+)`)

// ParseSim extracts commands from a debug trace. It returns nil when the
// trace contains none.
func ParseSim(sim string) []Command {
	matches := simPattern.FindAllStringSubmatch(sim, -1)
	if len(matches) == 0 {
		return nil
	}
	commands := make([]Command, 0, len(matches))
	for _, m := range matches {
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		commands = append(commands, Command{
			Num:     num,
			Phrase:  m[2],
			File:    strings.TrimSpace(m[3]),
			Grammar: m[4],
		})
	}
	return commands
}

// MatchRule scans the rule file for the line declaring grammar. It returns
// nil without error when no line matches.
func MatchRule(root, file, grammar string) (*RuleMatch, error) {
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, file)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rule file: %w", err)
	}
	defer f.Close()

	pattern, err := regexp.Compile(`^\s*\^?\s*` + regexp.QuoteMeta(grammar) + `\s*\$?\s*:`)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := scanner.Text()
		if pattern.MatchString(text) {
			return &RuleMatch{Line: line, Rule: strings.TrimSpace(text)}, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}
	return nil, nil
}

// ResolveCommands parses sim and attaches the matching user rule to every
// command. Commands whose rule cannot be located are returned in unmatched
// and keep a nil UserRule. A rule file that cannot be read fails the whole
// resolution.
func ResolveCommands(sim, root string) ([]Command, []Unmatched, error) {
	commands := ParseSim(sim)
	var unmatched []Unmatched
	for i := range commands {
		match, err := MatchRule(root, commands[i].File, commands[i].Grammar)
		if err != nil {
			return nil, nil, err
		}
		if match == nil {
			unmatched = append(unmatched, Unmatched{Grammar: commands[i].Grammar, File: commands[i].File})
			continue
		}
		commands[i].UserRule = match
	}
	return commands, unmatched, nil
}

// Tracer asks the engine for the debug trace of a phrase.
type Tracer interface {
	Trace(ctx context.Context, text string) (string, error)
}

// CommandTracer runs an external program with the phrase text as its final
// argument and returns its stdout.
type CommandTracer struct {
	Command string
	Exec    services.Executor
}

func (t CommandTracer) Trace(ctx context.Context, text string) (string, error) {
	fields := strings.Fields(t.Command)
	if len(fields) == 0 {
		return "", services.Wrap(services.ErrConfiguration, "recognizer", "trace", "recognizer.sim_command is not set", nil)
	}
	exec := t.Exec
	if exec == nil {
		exec = services.CommandExecutor{}
	}
	out, err := exec.Output(ctx, services.Command{
		Binary: fields[0],
		Args:   append(append([]string(nil), fields[1:]...), text),
	})
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "recognizer", "trace", "Trace command failed", err)
	}
	return string(out), nil
}
