package telegram

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/alexsavio/vibe-reachout/internal/ipc"
	"github.com/alexsavio/vibe-reachout/internal/models"
)

type ack struct {
	queryID string
	text    string
	alert   bool
}

type fakeAdapter struct {
	sent      []string
	edited    []string
	deleted   []int
	prompts   int
	nextMsgID int
	acks      []ack
}

func (f *fakeAdapter) Send(ctx context.Context, chatID int64, body string, buttons []ipc.Button) (int, error) {
	f.sent = append(f.sent, body)
	f.nextMsgID++
	return f.nextMsgID, nil
}

func (f *fakeAdapter) Edit(ctx context.Context, chatID int64, messageID int, body string) error {
	f.edited = append(f.edited, body)
	return nil
}

func (f *fakeAdapter) Delete(ctx context.Context, chatID int64, messageID int) error {
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeAdapter) PromptForText(ctx context.Context, chatID int64, body string) (int, error) {
	f.prompts++
	f.nextMsgID++
	return f.nextMsgID, nil
}

func (f *fakeAdapter) AckCallback(ctx context.Context, queryID string, text string, alert bool) error {
	f.acks = append(f.acks, ack{queryID: queryID, text: text, alert: alert})
	return nil
}

func newTestRouter(allowed []int64) (*Router, *fakeAdapter, *ipc.PendingTable, *ipc.ReplyPromptState) {
	table := ipc.NewPendingTable()
	replyState := ipc.NewReplyPromptState()
	r := NewRouter(table, replyState, allowed)
	adapter := &fakeAdapter{}
	r.SetAdapter(adapter)
	return r, adapter, table, replyState
}

func TestHandleCallbackRejectsUnauthorizedChat(t *testing.T) {
	r, adapter, table, _ := newTestRouter([]int64{1})
	id := uuid.New()
	rec := &models.PendingRequest{RequestID: id, ReplyCh: make(chan models.DecisionResponse, 1)}
	table.Insert(rec)

	r.HandleCallback(context.Background(), 999, "q1", id.String()+":allow")

	if !table.Contains(id) {
		t.Error("request should remain pending, the chat was not authorized")
	}
	if len(adapter.acks) != 1 || adapter.acks[0].text != "Unauthorized" || !adapter.acks[0].alert {
		t.Errorf("expected an Unauthorized alert toast, got %+v", adapter.acks)
	}
}

func TestHandleCallbackAllowResolvesRequest(t *testing.T) {
	r, adapter, table, _ := newTestRouter(nil)
	id := uuid.New()
	rec := &models.PendingRequest{
		RequestID:    id,
		ReplyCh:      make(chan models.DecisionResponse, 1),
		SentMessages: []models.SentMessage{{ChatID: 1, MessageID: 5}},
		OriginalText: "body",
	}
	table.Insert(rec)

	r.HandleCallback(context.Background(), 1, "q1", id.String()+":allow")

	select {
	case resp := <-rec.ReplyCh:
		if resp.Decision != models.DecisionAllow {
			t.Errorf("decision = %s, want Allow", resp.Decision)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a reply on the channel")
	}
	if len(adapter.edited) != 1 {
		t.Errorf("expected exactly one annotation edit, got %d", len(adapter.edited))
	}
	if len(adapter.acks) != 1 || adapter.acks[0].queryID != "q1" {
		t.Errorf("expected the button tap to be acked with its query id, got %+v", adapter.acks)
	}
}

func TestHandleCallbackDoubleTakeOnlyResolvesOnce(t *testing.T) {
	r, adapter, table, _ := newTestRouter(nil)
	id := uuid.New()
	rec := &models.PendingRequest{RequestID: id, ReplyCh: make(chan models.DecisionResponse, 1)}
	table.Insert(rec)

	r.HandleCallback(context.Background(), 1, "q1", id.String()+":allow")
	r.HandleCallback(context.Background(), 1, "q2", id.String()+":deny") // already taken, should no-op

	resp := <-rec.ReplyCh
	if resp.Decision != models.DecisionAllow {
		t.Errorf("decision = %s, want Allow (first callback wins)", resp.Decision)
	}
	select {
	case <-rec.ReplyCh:
		t.Fatal("expected only one reply to ever be sent")
	default:
	}
	if len(adapter.acks) != 2 {
		t.Fatalf("expected both taps to be acked, got %+v", adapter.acks)
	}
	if !adapter.acks[1].alert || adapter.acks[1].text != "This request has already been handled." {
		t.Errorf("expected the second tap to get an already-handled alert, got %+v", adapter.acks[1])
	}
}

func TestHandleCallbackReplyPromptsForText(t *testing.T) {
	r, adapter, table, replyState := newTestRouter(nil)
	id := uuid.New()
	rec := &models.PendingRequest{RequestID: id, ReplyCh: make(chan models.DecisionResponse, 1)}
	table.Insert(rec)

	r.HandleCallback(context.Background(), 1, "q1", id.String()+":reply")

	if adapter.prompts != 1 {
		t.Fatalf("expected one prompt to be sent, got %d", adapter.prompts)
	}
	gotID, _, ok := replyState.Take(1)
	if !ok || gotID != id {
		t.Errorf("expected reply state recorded for chat 1, got ok=%v id=%s", ok, gotID)
	}
	if len(adapter.acks) != 1 {
		t.Errorf("expected the reply button tap to be acked, got %+v", adapter.acks)
	}
}

func TestHandleMessageResolvesTrackedReply(t *testing.T) {
	r, adapter, table, replyState := newTestRouter(nil)
	id := uuid.New()
	rec := &models.PendingRequest{RequestID: id, ReplyCh: make(chan models.DecisionResponse, 1)}
	table.Insert(rec)
	replyState.Set(1, id, 42)

	r.HandleMessage(context.Background(), 1, "please use a different flag")

	select {
	case resp := <-rec.ReplyCh:
		if resp.Decision != models.DecisionReply || resp.UserMessage != "please use a different flag" {
			t.Errorf("got %+v", resp)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a reply on the channel")
	}
	if len(adapter.deleted) != 1 || adapter.deleted[0] != 42 {
		t.Errorf("expected the prompt message to be deleted, got %v", adapter.deleted)
	}
}

func TestHandleMessageEmptyTextReprompts(t *testing.T) {
	r, adapter, table, replyState := newTestRouter(nil)
	id := uuid.New()
	rec := &models.PendingRequest{RequestID: id, ReplyCh: make(chan models.DecisionResponse, 1)}
	table.Insert(rec)
	replyState.Set(1, id, 42)

	r.HandleMessage(context.Background(), 1, "   ")

	if adapter.prompts != 1 {
		t.Fatalf("expected a re-prompt, got %d prompts", adapter.prompts)
	}
	if !table.Contains(id) {
		t.Error("request should still be pending after an empty reply")
	}
	if _, _, ok := replyState.Take(1); !ok {
		t.Error("expected the reply state to be reinstated for a second attempt")
	}
}

func TestHandleMessageIgnoredWithoutTrackedPrompt(t *testing.T) {
	r, adapter, _, _ := newTestRouter(nil)
	r.HandleMessage(context.Background(), 1, "hello")
	if len(adapter.sent) != 0 || len(adapter.deleted) != 0 {
		t.Error("expected no adapter activity for an untracked message")
	}
}
