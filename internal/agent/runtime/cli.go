package runtime

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// CLIRuntime drives a local agent CLI (the claude binary by default) in
// non-interactive print mode: the prompt goes in on stdin, NDJSON stream
// events come out on stdout, and a terminal "result" line carries the
// self-reported outcome.
type CLIRuntime struct {
	Command string   // agent binary; "claude" when empty
	Args    []string // extra args inserted before the standard flags
	Model   string   // optional model override
}

func (r CLIRuntime) Name() string { return "cli" }

func (r CLIRuntime) RunSession(ctx context.Context, req SessionRequest, emit func(Event)) (SessionResult, error) {
	command := r.Command
	if command == "" {
		command = "claude"
	}
	args := append([]string{}, r.Args...)
	args = append(args, "-p", "--output-format", "stream-json", "--verbose")
	if req.MaxTurns > 0 {
		args = append(args, "--max-turns", strconv.Itoa(req.MaxTurns))
	}
	if req.SystemPrompt != "" {
		args = append(args, "--append-system-prompt", req.SystemPrompt)
	}
	if r.Model != "" {
		args = append(args, "--model", r.Model)
	}

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = req.WorkingDir
	cmd.Stdin = strings.NewReader(req.Prompt)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return SessionResult{}, err
	}
	if err := cmd.Start(); err != nil {
		return SessionResult{}, fmt.Errorf("start %s: %w", command, err)
	}

	var (
		output    strings.Builder
		res       SessionResult
		gotResult bool
	)
	sc := bufio.NewScanner(stdout)
	// Single stream events can carry whole file contents.
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var payload map[string]any
		if err := json.Unmarshal([]byte(line), &payload); err != nil {
			output.WriteString(line)
			output.WriteString("\n")
			continue
		}
		ev := eventFrom(payload)
		if ev.Type == "result" {
			gotResult = true
			res = resultFrom(payload)
			if res.Output != "" {
				output.WriteString(res.Output)
				output.WriteString("\n")
			}
		}
		emit(ev)
	}
	scanErr := sc.Err()
	waitErr := cmd.Wait()

	if scanErr != nil {
		return SessionResult{}, scanErr
	}
	if !gotResult {
		// No terminal result line means the agent died mid-session.
		msg := strings.TrimSpace(stderr.String())
		if msg == "" && waitErr != nil {
			msg = waitErr.Error()
		}
		if msg == "" {
			msg = "agent exited without a result"
		}
		return SessionResult{}, errors.New(msg)
	}
	res.Output = strings.TrimSpace(output.String())
	return res, nil
}

// eventFrom converts one parsed stream line into an Event, surfacing any
// assistant message text under Data["text"].
func eventFrom(payload map[string]any) Event {
	evType, _ := payload["type"].(string)
	ev := Event{Type: evType, Timestamp: time.Now().UTC(), Data: payload}
	if evType == "assistant" {
		if text := assistantText(payload); text != "" {
			ev.Data["text"] = text
		}
	}
	return ev
}

func assistantText(payload map[string]any) string {
	msg, _ := payload["message"].(map[string]any)
	blocks, _ := msg["content"].([]any)
	var parts []string
	for _, b := range blocks {
		block, _ := b.(map[string]any)
		if block["type"] == "text" {
			if s, _ := block["text"].(string); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.Join(parts, "\n")
}

func resultFrom(payload map[string]any) SessionResult {
	isError, _ := payload["is_error"].(bool)
	out, _ := payload["result"].(string)
	errText, _ := payload["error"].(string)
	return SessionResult{Success: !isError, Output: out, ErrorText: errText}
}
