// Package hook implements hook mode: the short-lived process Claude Code
// invokes once per PermissionRequest (spec.md §4.4).
//
// The overall read-stdin -> build-request -> connect -> map-decision shape
// is grounded on original_source/src/hook.rs. Transcript-derived
// assistant_context has no original_source counterpart — it is built
// directly from spec.md's own description using the standard library's
// bufio/json scanning, since no JSONL-transcript library appears anywhere
// in the pack (see DESIGN.md).
package hook

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/alexsavio/vibe-reachout/internal/config"
	"github.com/alexsavio/vibe-reachout/internal/ipc"
	"github.com/alexsavio/vibe-reachout/internal/models"
)

const maxAssistantContextChars = 500

// ExitTimeout is the process exit status for a Timeout decision (spec.md
// §4.4 step 5, §7): no structured output, so the assistant falls back to
// its own terminal prompt.
const ExitTimeout = 1

// ExitError is the process exit status for every other hook-side failure.
const ExitError = 1

// Run executes hook mode end to end: read stdin, derive context, round-trip
// the socket, write the mapped HookOutput to stdout. It returns the process
// exit code the caller should use.
func Run(cfg config.Config, stdin io.Reader, stdout io.Writer) int {
	raw, err := io.ReadAll(stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vibe-reachout: reading stdin: %v\n", err)
		return ExitError
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		fmt.Fprintln(os.Stderr, "vibe-reachout: empty stdin, no hook input received")
		return ExitError
	}

	var input models.HookInput
	if err := json.Unmarshal(raw, &input); err != nil {
		fmt.Fprintf(os.Stderr, "vibe-reachout: parsing hook input: %v\n", err)
		return ExitError
	}

	req := models.PermissionRequest{
		RequestID:             uuid.New(),
		ToolName:              input.ToolName,
		ToolInput:             input.ToolInput,
		Cwd:                   input.Cwd,
		SessionID:             input.SessionID,
		PermissionSuggestions: input.PermissionSuggestions,
		AssistantContext:      assistantContext(input.TranscriptPath),
	}

	socketPath := cfg.EffectiveSocketPath()
	ctx, cancel := context.WithTimeout(context.Background(), ipc.DeadlineFor(cfg.TimeoutSeconds))
	defer cancel()

	resp, err := ipc.SendRequest(ctx, socketPath, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vibe-reachout: %v\n", err)
		return ExitError
	}

	if resp.Decision == models.DecisionTimeout {
		return ExitTimeout
	}

	output, err := mapDecision(resp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vibe-reachout: %v\n", err)
		return ExitError
	}

	encoded, err := json.Marshal(output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vibe-reachout: encoding hook output: %v\n", err)
		return ExitError
	}
	fmt.Fprintln(stdout, string(encoded))
	return 0
}

// mapDecision implements spec.md §4.4 step 5's decision -> HookOutput table.
func mapDecision(resp models.DecisionResponse) (models.HookOutput, error) {
	switch resp.Decision {
	case models.DecisionAllow:
		return models.AllowOutput(), nil

	case models.DecisionDeny:
		msg := resp.Message
		if msg == "" {
			msg = "Denied via Telegram"
		}
		return models.DenyOutput(msg), nil

	case models.DecisionAlwaysAllow:
		var permissions []json.RawMessage
		if len(resp.AlwaysAllowSuggestion) > 0 {
			permissions = []json.RawMessage{resp.AlwaysAllowSuggestion}
		}
		return models.AllowAlwaysOutput(permissions), nil

	case models.DecisionReply:
		userMsg := resp.UserMessage
		if userMsg == "" {
			userMsg = "(no message)"
		}
		return models.DenyOutput("The user wants you to modify your approach: " + userMsg), nil

	default:
		return models.HookOutput{}, fmt.Errorf("unexpected decision %q", resp.Decision)
	}
}

// assistantContext derives the preformatted hint from the transcript file:
// the last JSONL record with top-level type "assistant" whose
// message.content carries at least one text block, concatenated with LF and
// truncated to 500 user-perceived characters on a rune boundary. Missing or
// unreadable transcripts yield no context, matching spec.md §4.4 step 2.
func assistantContext(transcriptPath string) string {
	if transcriptPath == "" {
		return ""
	}
	f, err := os.Open(transcriptPath)
	if err != nil {
		return ""
	}
	defer f.Close()

	var last string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		if text, ok := extractAssistantText(line); ok {
			last = text
		}
	}

	return truncateRunes(last, maxAssistantContextChars)
}

type transcriptRecord struct {
	Type    string `json:"type"`
	Message struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message"`
}

func extractAssistantText(line []byte) (string, bool) {
	var rec transcriptRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return "", false
	}
	if rec.Type != "assistant" {
		return "", false
	}

	var texts []string
	for _, block := range rec.Message.Content {
		if block.Type == "text" && block.Text != "" {
			texts = append(texts, block.Text)
		}
	}
	if len(texts) == 0 {
		return "", false
	}
	return strings.Join(texts, "\n"), true
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
