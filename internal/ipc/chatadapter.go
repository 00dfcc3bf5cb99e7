package ipc

import "context"

// Button is one inline-keyboard entry offered alongside a permission
// notification. Payload format and the 64-byte bound are enforced by the
// caller building the keyboard (spec.md §4.7).
type Button struct {
	Text string
	Data string
}

// ChatAdapter is the abstract surface the broker core calls on the chat
// service (spec.md §4.7). The concrete implementation — internal/telegram —
// is an external collaborator from the core's point of view: nothing in
// this package imports it, avoiding any import cycle with the Decision
// Router, which does need the Pending Table defined here.
type ChatAdapter interface {
	// Send posts body with an inline keyboard to chatID and returns the
	// placed message's id. May fail per-chat.
	Send(ctx context.Context, chatID int64, body string, buttons []Button) (messageID int, err error)

	// Edit replaces the body of an already-sent message. Idempotent on the
	// final body; callers treat failures as best-effort.
	Edit(ctx context.Context, chatID int64, messageID int, body string) error

	// Delete removes a message. Best-effort.
	Delete(ctx context.Context, chatID int64, messageID int) error

	// PromptForText sends a message that hints the chat client to focus the
	// reply composer (a ForceReply-style prompt) and returns its message id.
	PromptForText(ctx context.Context, chatID int64, body string) (messageID int, err error)

	// AckCallback dismisses the pressed button, closing its spinner. A
	// non-empty text is shown as a toast; alert escalates it to a blocking
	// dialog the user must tap through. Best-effort.
	AckCallback(ctx context.Context, queryID string, text string, alert bool) error
}
