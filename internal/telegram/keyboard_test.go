package telegram

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestKeyboardWithoutSuggestionsHas3Buttons(t *testing.T) {
	buttons := MakeButtons(uuid.New(), false)
	if len(buttons) != 3 {
		t.Fatalf("got %d buttons, want 3", len(buttons))
	}
}

func TestKeyboardWithSuggestionsHas4Buttons(t *testing.T) {
	buttons := MakeButtons(uuid.New(), true)
	if len(buttons) != 4 {
		t.Fatalf("got %d buttons, want 4", len(buttons))
	}
}

func TestButtonCallbackDataFormat(t *testing.T) {
	id := uuid.New()
	buttons := MakeButtons(id, true)
	want := map[string]string{
		"allow":  fmt.Sprintf("%s:allow", id),
		"deny":   fmt.Sprintf("%s:deny", id),
		"reply":  fmt.Sprintf("%s:reply", id),
		"always": fmt.Sprintf("%s:always", id),
	}
	for _, b := range buttons {
		idStr, action, found := strings.Cut(b.Data, ":")
		if !found {
			t.Fatalf("malformed callback data %q", b.Data)
		}
		if idStr != id.String() {
			t.Errorf("callback data %q does not carry request id %s", b.Data, id)
		}
		if want[action] != b.Data {
			t.Errorf("action %q: got data %q, want %q", action, b.Data, want[action])
		}
	}
}

func TestButtonCallbackDataUnder64Bytes(t *testing.T) {
	for _, b := range MakeButtons(uuid.New(), true) {
		if len(b.Data) > 64 {
			t.Errorf("callback data %q exceeds Telegram's 64-byte limit", b.Data)
		}
	}
}
