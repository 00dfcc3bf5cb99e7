package format

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/alexsavio/vibe-reachout/internal/models"
)

func makeRequest(toolName string, toolInput any) models.PermissionRequest {
	raw, _ := json.Marshal(toolInput)
	return models.PermissionRequest{
		ToolName:  toolName,
		ToolInput: raw,
		Cwd:       "/home/user/my-project",
		SessionID: "abcdef1234567890",
	}
}

func TestPermissionMessageBash(t *testing.T) {
	msg := PermissionMessage(makeRequest("Bash", map[string]string{"command": "ls -la"}))
	if !strings.Contains(msg, "Bash") || !strings.Contains(msg, "ls -la") || !strings.Contains(msg, "my-project") {
		t.Errorf("missing expected content: %s", msg)
	}
}

func TestPermissionMessageWrite(t *testing.T) {
	content := strings.Repeat("a", 100)
	msg := PermissionMessage(makeRequest("Write", map[string]string{"file_path": "/tmp/test.rs", "content": content}))
	if !strings.Contains(msg, "/tmp/test.rs") || !strings.Contains(msg, "100 B") {
		t.Errorf("missing expected content: %s", msg)
	}
}

func TestPermissionMessageEdit(t *testing.T) {
	msg := PermissionMessage(makeRequest("Edit", map[string]string{
		"file_path":  "/tmp/test.rs",
		"old_string": "fn old()",
		"new_string": "fn new()",
	}))
	if !strings.Contains(msg, "fn old()") || !strings.Contains(msg, "fn new()") {
		t.Errorf("missing expected content: %s", msg)
	}
}

func TestPermissionMessageUnknownToolShowsJSON(t *testing.T) {
	msg := PermissionMessage(makeRequest("CustomTool", map[string]string{"key": "value"}))
	if !strings.Contains(msg, "CustomTool") || !strings.Contains(msg, "key") || !strings.Contains(msg, "value") {
		t.Errorf("missing expected content: %s", msg)
	}
}

func TestFieldTruncationAt500Chars(t *testing.T) {
	long := strings.Repeat("x", 600)
	msg := PermissionMessage(makeRequest("Bash", map[string]string{"command": long}))
	if !strings.Contains(msg, "... (truncated)") {
		t.Error("expected a truncation suffix")
	}
	if strings.Contains(msg, long) {
		t.Error("full 600-char command should not appear")
	}
}

func TestFieldTruncationPreservesValidUTF8OnMultiByteBoundary(t *testing.T) {
	// 600 multi-byte runes: a naive byte-slice at 500 bytes would land mid
	// character, since each "é" is 2 bytes.
	long := strings.Repeat("é", 600)
	msg := PermissionMessage(makeRequest("Bash", map[string]string{"command": long}))
	if !utf8.ValidString(msg) {
		t.Fatal("expected the rendered message to remain valid UTF-8")
	}
	if !strings.Contains(msg, "... (truncated)") {
		t.Error("expected a truncation suffix")
	}
}

func TestTotalMessageTruncationAt4000Chars(t *testing.T) {
	// The Bash command itself is capped at 500 chars, so the long text goes
	// into the assistant context to push the whole message past 4000.
	req := makeRequest("Bash", map[string]string{"command": "ls"})
	req.AssistantContext = strings.Repeat("y", 4500)
	msg := PermissionMessage(req)
	if n := utf8.RuneCountInString(msg); n > maxTotalChars+len("... (truncated)") {
		t.Errorf("message too long: %d chars", n)
	}
	if !strings.HasSuffix(msg, "... (truncated)") {
		t.Error("expected the whole message to end with the truncation suffix")
	}
}

func TestFormatSize(t *testing.T) {
	cases := map[int]string{
		0:        "0 B",
		512:      "512 B",
		1023:     "1023 B",
		1024:     "1.0 KB",
		1536:     "1.5 KB",
		1024*100: "100.0 KB",
		1024 * 1024:     "1.0 MB",
		1024 * 1024 * 5: "5.0 MB",
	}
	for bytes, want := range cases {
		if got := FormatSize(bytes); got != want {
			t.Errorf("FormatSize(%d) = %q, want %q", bytes, got, want)
		}
	}
}

func TestSessionIDTruncatedTo8Chars(t *testing.T) {
	msg := PermissionMessage(makeRequest("Bash", map[string]string{"command": "ls"}))
	if !strings.Contains(msg, "abcdef12") {
		t.Error("expected truncated session id")
	}
	if strings.Contains(msg, "abcdef1234567890") {
		t.Error("full session id should not appear")
	}
}

func TestPermissionMessageRendersAssistantContextAsHTML(t *testing.T) {
	req := makeRequest("Bash", map[string]string{"command": "ls"})
	req.AssistantContext = "I need to **run** this to check `go.mod`"
	msg := PermissionMessage(req)
	if !strings.Contains(msg, "<b>run</b>") || !strings.Contains(msg, "<code>go.mod</code>") {
		t.Errorf("expected markdown in assistant context to render as HTML: %s", msg)
	}
}

func TestPermissionMessageOmitsAssistantContextSectionWhenAbsent(t *testing.T) {
	msg := PermissionMessage(makeRequest("Bash", map[string]string{"command": "ls"}))
	if strings.Contains(msg, "\U0001F4AD") {
		t.Error("expected no assistant-context marker when AssistantContext is empty")
	}
}

func TestEscapeHTML(t *testing.T) {
	got := EscapeHTML("<b>a & b</b>")
	want := "&lt;b&gt;a &amp; b&lt;/b&gt;"
	if got != want {
		t.Errorf("EscapeHTML = %q, want %q", got, want)
	}
}
