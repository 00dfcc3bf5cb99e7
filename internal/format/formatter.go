// Package format renders a PermissionRequest as the HTML-formatted chat
// message shown to the human, tool-aware where the tool's shape is known.
//
// Grounded on original_source/src/telegram/formatter.rs for the layout and
// truncation rules, and on igoryanba-ricochet/internal/format/markdown.go's
// EscapeHTML for HTML-escaping under Telegram's ParseModeHTML.
package format

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alexsavio/vibe-reachout/internal/models"
)

const (
	maxFieldChars = 500
	maxTotalChars = 4000
)

// PermissionMessage renders the full notification body for req.
func PermissionMessage(req models.PermissionRequest) string {
	projectName := filepath.Base(req.Cwd)
	if projectName == "." || projectName == "/" {
		projectName = "unknown"
	}

	sessionShort := req.SessionID
	if len(sessionShort) > 8 {
		sessionShort = sessionShort[:8]
	}

	details := toolDetails(req.ToolName, req.ToolInput)

	msg := fmt.Sprintf(
		"\U0001F4CB %s\n\n\U0001F527 %s\n%s\n\n\U0001F4C1 %s\n\U0001F194 Session: %s",
		EscapeHTML(projectName),
		EscapeHTML(req.ToolName),
		details,
		EscapeHTML(req.Cwd),
		EscapeHTML(sessionShort),
	)

	if req.AssistantContext != "" {
		msg += fmt.Sprintf("\n\n\U0001F4AD %s", AssistantContextHTML(req.AssistantContext))
	}

	return truncate(msg, maxTotalChars)
}

func toolDetails(toolName string, rawInput json.RawMessage) string {
	var input map[string]any
	_ = json.Unmarshal(rawInput, &input)

	switch toolName {
	case "Bash":
		command, _ := input["command"].(string)
		if command == "" {
			command = "<no command>"
		}
		return fmt.Sprintf("<pre>%s</pre>", EscapeHTML(truncateField(command, maxFieldChars)))

	case "Write":
		filePath, _ := input["file_path"].(string)
		if filePath == "" {
			filePath = "<unknown file>"
		}
		content, _ := input["content"].(string)
		size := FormatSize(len(content))
		return fmt.Sprintf("\U0001F4C4 %s (%s)", EscapeHTML(filePath), size)

	case "Edit":
		filePath, _ := input["file_path"].(string)
		if filePath == "" {
			filePath = "<unknown file>"
		}
		oldStr, _ := input["old_string"].(string)
		newStr, _ := input["new_string"].(string)
		oldTrunc := truncateField(oldStr, maxFieldChars/2)
		newTrunc := truncateField(newStr, maxFieldChars/2)
		return fmt.Sprintf("\U0001F4C4 %s\n- %s\n+ %s", EscapeHTML(filePath), EscapeHTML(oldTrunc), EscapeHTML(newTrunc))

	default:
		pretty, err := json.MarshalIndent(input, "", "  ")
		if err != nil {
			pretty = rawInput
		}
		return fmt.Sprintf("<pre>%s</pre>", EscapeHTML(truncateField(string(pretty), maxFieldChars)))
	}
}

func truncateField(s string, max int) string {
	return truncate(s, max)
}

// truncate bounds s to max user-perceived characters, cutting on a rune
// boundary so a multi-byte UTF-8 character is never split (spec.md §6,
// Testable Property 9). Matches internal/hook.truncateRunes's technique.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "... (truncated)"
}

// FormatSize renders a byte count the way a human reads it: whole bytes
// under 1KiB, one decimal place above that.
func FormatSize(bytes int) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	}
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// EscapeHTML escapes the three characters Telegram's HTML parse mode treats
// specially. Grounded on igoryanba-ricochet/internal/format/markdown.go.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// StatusSuffix appends a terminal status line below the original message
// body, the way a resolved permission request is annotated in place rather
// than replaced (spec.md §4.7).
func StatusSuffix(originalText, status string) string {
	return originalText + "\n\n" + status
}
