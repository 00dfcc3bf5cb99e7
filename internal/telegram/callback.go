package telegram

import (
	"strings"

	"github.com/google/uuid"
)

// CallbackData is the parsed form of a "{uuid}:{action}" callback payload.
type CallbackData struct {
	RequestID uuid.UUID
	Action    CallbackAction
}

// ParseCallbackData parses data, returning ok == false for anything that
// isn't exactly "{uuid}:{known-action}". Grounded on
// original_source/src/telegram/callback_data.rs::CallbackData::parse.
func ParseCallbackData(data string) (CallbackData, bool) {
	idStr, actionStr, found := strings.Cut(data, ":")
	if !found {
		return CallbackData{}, false
	}

	requestID, err := uuid.Parse(idStr)
	if err != nil {
		return CallbackData{}, false
	}

	switch CallbackAction(actionStr) {
	case ActionAllow, ActionDeny, ActionReply, ActionAlways:
		return CallbackData{RequestID: requestID, Action: CallbackAction(actionStr)}, true
	default:
		return CallbackData{}, false
	}
}
