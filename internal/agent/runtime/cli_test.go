package runtime

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestCLIRuntime_Name(t *testing.T) {
	t.Parallel()
	if (CLIRuntime{}).Name() != "cli" {
		t.Error("Name")
	}
}

func TestCLIRuntime_streamAndResult(t *testing.T) {
	t.Parallel()
	script := writeScript(t, `cat > /dev/null
echo '{"type":"system","subtype":"init"}'
echo '{"type":"assistant","message":{"content":[{"type":"text","text":"working on it"}]}}'
echo '{"type":"result","subtype":"success","is_error":false,"result":"all done"}'
`)
	r := CLIRuntime{Command: script}
	var events []Event
	res, err := r.RunSession(context.Background(), SessionRequest{Prompt: "go"}, func(ev Event) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("RunSession: %v", err)
	}
	if !res.Success {
		t.Error("want success from a non-error result line")
	}
	if !strings.Contains(res.Output, "all done") {
		t.Errorf("Output: %q", res.Output)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[1].Type != "assistant" || Text(events[1]) != "working on it" {
		t.Errorf("assistant event: %+v", events[1])
	}
}

func TestCLIRuntime_errorResult(t *testing.T) {
	t.Parallel()
	script := writeScript(t, `cat > /dev/null
echo '{"type":"result","subtype":"error_max_turns","is_error":true,"error":"max turns reached"}'
`)
	r := CLIRuntime{Command: script}
	res, err := r.RunSession(context.Background(), SessionRequest{Prompt: "go"}, func(Event) {})
	if err != nil {
		t.Fatalf("RunSession: %v", err)
	}
	if res.Success {
		t.Error("is_error result must not report success")
	}
	if res.ErrorText != "max turns reached" {
		t.Errorf("ErrorText: %q", res.ErrorText)
	}
}

func TestCLIRuntime_transportFailure(t *testing.T) {
	t.Parallel()
	script := writeScript(t, `cat > /dev/null
echo "segfault" >&2
exit 139
`)
	r := CLIRuntime{Command: script}
	_, err := r.RunSession(context.Background(), SessionRequest{Prompt: "go"}, func(Event) {})
	if err == nil {
		t.Fatal("want transport error when the agent dies without a result line")
	}
	if !strings.Contains(err.Error(), "segfault") {
		t.Errorf("error should surface stderr verbatim: %v", err)
	}
}

func TestCLIRuntime_missingBinary(t *testing.T) {
	t.Parallel()
	r := CLIRuntime{Command: filepath.Join(t.TempDir(), "no-such-binary")}
	_, err := r.RunSession(context.Background(), SessionRequest{Prompt: "go"}, func(Event) {})
	if err == nil {
		t.Fatal("want error for missing binary")
	}
}

func TestStubRuntime(t *testing.T) {
	t.Parallel()
	var n int
	res, err := StubRuntime{}.RunSession(context.Background(), SessionRequest{}, func(Event) { n++ })
	if err != nil {
		t.Fatalf("RunSession: %v", err)
	}
	if !res.Success || n == 0 {
		t.Errorf("stub should succeed and emit events: success=%v events=%d", res.Success, n)
	}
}
