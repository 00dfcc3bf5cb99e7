// Package telegram implements the Chat Adapter (spec.md §4.7) and the
// Decision Router (spec.md §4.8) on top of go-telegram/bot, grounded on
// igoryanba-ricochet/internal/telegram/bot.go.
package telegram

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/alexsavio/vibe-reachout/internal/ipc"
)

// CallbackAction is the action half of a "{uuid}:{action}" callback payload.
type CallbackAction string

const (
	ActionAllow  CallbackAction = "allow"
	ActionDeny   CallbackAction = "deny"
	ActionReply  CallbackAction = "reply"
	ActionAlways CallbackAction = "always"
)

// MakeButtons builds the inline-keyboard row offered alongside a permission
// notification. Grounded on original_source/src/telegram/keyboard.rs: three
// buttons always, a fourth ("Always Allow") only when the request carries
// permission suggestions.
//
// A UUID (36 bytes) plus ":always" (7 bytes) is 43 bytes, comfortably under
// Telegram's 64-byte callback_data limit; this is asserted rather than
// silently relied on so a future requestID encoding change fails loudly.
func MakeButtons(requestID uuid.UUID, hasPermissionSuggestions bool) []ipc.Button {
	id := requestID.String()

	longest := fmt.Sprintf("%s:always", id)
	if len(longest) > 64 {
		panic("telegram: callback data exceeds Telegram's 64-byte limit")
	}

	buttons := []ipc.Button{
		{Text: "✅ Allow", Data: fmt.Sprintf("%s:%s", id, ActionAllow)},
		{Text: "❌ Deny", Data: fmt.Sprintf("%s:%s", id, ActionDeny)},
		{Text: "\U0001F4AC Reply", Data: fmt.Sprintf("%s:%s", id, ActionReply)},
	}
	if hasPermissionSuggestions {
		buttons = append(buttons, ipc.Button{
			Text: "\U0001F513 Always Allow",
			Data: fmt.Sprintf("%s:%s", id, ActionAlways),
		})
	}
	return buttons
}
