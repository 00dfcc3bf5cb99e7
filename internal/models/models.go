// Package models defines the wire and in-memory types shared between the
// hook client, the broker daemon, and the chat adapter.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// HookInput is Claude Code's JSON sent to the hook process via stdin.
type HookInput struct {
	SessionID            string            `json:"session_id"`
	TranscriptPath       string            `json:"transcript_path"`
	Cwd                  string            `json:"cwd"`
	PermissionMode       string            `json:"permission_mode"`
	HookEventName        string            `json:"hook_event_name"`
	ToolName             string            `json:"tool_name"`
	ToolInput            json.RawMessage   `json:"tool_input"`
	PermissionSuggestions []json.RawMessage `json:"permission_suggestions,omitempty"`
}

// HookBehavior is the coarse allow/deny verdict reported to the assistant.
type HookBehavior string

const (
	BehaviorAllow HookBehavior = "allow"
	BehaviorDeny  HookBehavior = "deny"
)

// HookDecision is the inner decision object of HookOutput.
type HookDecision struct {
	Behavior           HookBehavior      `json:"behavior"`
	Message            string            `json:"message,omitempty"`
	UpdatedPermissions []json.RawMessage `json:"updatedPermissions,omitempty"`
}

// MarshalJSON omits updatedPermissions only when it is nil; a non-nil empty
// slice serializes as an empty array.
func (d HookDecision) MarshalJSON() ([]byte, error) {
	type plain HookDecision
	if d.UpdatedPermissions == nil {
		return json.Marshal(plain(d))
	}
	return json.Marshal(struct {
		plain
		UpdatedPermissions []json.RawMessage `json:"updatedPermissions"`
	}{plain(d), d.UpdatedPermissions})
}

// HookSpecificOutput wraps HookDecision under the event name Claude Code expects.
type HookSpecificOutput struct {
	HookEventName string       `json:"hookEventName"`
	Decision      HookDecision `json:"decision"`
}

// HookOutput is the single JSON line the hook writes to stdout.
type HookOutput struct {
	HookSpecificOutput HookSpecificOutput `json:"hookSpecificOutput"`
}

// AllowOutput builds the plain-allow hook output.
func AllowOutput() HookOutput {
	return HookOutput{HookSpecificOutput: HookSpecificOutput{
		HookEventName: "PermissionRequest",
		Decision:      HookDecision{Behavior: BehaviorAllow},
	}}
}

// DenyOutput builds a deny hook output with a human-visible message.
func DenyOutput(message string) HookOutput {
	return HookOutput{HookSpecificOutput: HookSpecificOutput{
		HookEventName: "PermissionRequest",
		Decision:      HookDecision{Behavior: BehaviorDeny, Message: message},
	}}
}

// AllowAlwaysOutput builds an allow output carrying updated permission suggestions.
// permissions is never nil so the field always serializes (possibly as an empty array).
func AllowAlwaysOutput(permissions []json.RawMessage) HookOutput {
	if permissions == nil {
		permissions = []json.RawMessage{}
	}
	return HookOutput{HookSpecificOutput: HookSpecificOutput{
		HookEventName: "PermissionRequest",
		Decision:      HookDecision{Behavior: BehaviorAllow, UpdatedPermissions: permissions},
	}}
}

// Decision tags the variant of a DecisionResponse.
type Decision string

const (
	DecisionAllow       Decision = "Allow"
	DecisionDeny        Decision = "Deny"
	DecisionAlwaysAllow Decision = "AlwaysAllow"
	DecisionReply       Decision = "Reply"
	DecisionTimeout     Decision = "Timeout"
)

// PermissionRequest travels from hook to broker over the local socket, one per line.
type PermissionRequest struct {
	RequestID             uuid.UUID         `json:"request_id"`
	ToolName              string            `json:"tool_name"`
	ToolInput             json.RawMessage   `json:"tool_input"`
	Cwd                   string            `json:"cwd"`
	SessionID             string            `json:"session_id"`
	PermissionSuggestions []json.RawMessage `json:"permission_suggestions,omitempty"`
	AssistantContext      string            `json:"assistant_context,omitempty"`
}

// DecisionResponse travels from broker to hook over the local socket, one per line.
type DecisionResponse struct {
	RequestID             uuid.UUID       `json:"request_id"`
	Decision              Decision        `json:"decision"`
	Message               string          `json:"message,omitempty"`
	UserMessage           string          `json:"user_message,omitempty"`
	AlwaysAllowSuggestion json.RawMessage `json:"always_allow_suggestion,omitempty"`
}

// TimeoutResponse builds the terminal Timeout decision for a request id.
func TimeoutResponse(id uuid.UUID) DecisionResponse {
	return DecisionResponse{RequestID: id, Decision: DecisionTimeout}
}

// AllowResponse builds a plain Allow decision.
func AllowResponse(id uuid.UUID) DecisionResponse {
	return DecisionResponse{RequestID: id, Decision: DecisionAllow}
}

// DenyResponse builds a Deny decision with a message.
func DenyResponse(id uuid.UUID, message string) DecisionResponse {
	return DecisionResponse{RequestID: id, Decision: DecisionDeny, Message: message}
}

// AlwaysAllowResponse builds an AlwaysAllow decision, optionally carrying a suggestion.
func AlwaysAllowResponse(id uuid.UUID, suggestion json.RawMessage) DecisionResponse {
	return DecisionResponse{RequestID: id, Decision: DecisionAlwaysAllow, AlwaysAllowSuggestion: suggestion}
}

// ReplyResponse builds a Reply decision carrying the user's free-text message.
func ReplyResponse(id uuid.UUID, userMessage string) DecisionResponse {
	return DecisionResponse{RequestID: id, Decision: DecisionReply, UserMessage: userMessage}
}

// SentMessage records one chat message placed for a pending request, so its
// body can later be annotated without reformatting from scratch.
type SentMessage struct {
	ChatID    int64
	MessageID int
}

// PendingRequest is the broker-internal record linking a socket reply channel
// to the chat messages and metadata of one in-flight permission request.
//
// Ownership: the Pending Table exclusively owns a PendingRequest between
// Insert and Take; after Take, the taker owns it.
type PendingRequest struct {
	RequestID             uuid.UUID
	ReplyCh               chan DecisionResponse
	SentMessages          []SentMessage
	OriginalText          string
	PermissionSuggestions []json.RawMessage
	CreatedAt             time.Time
}
