package telegram

import (
	"context"
	"log"
	"strings"

	"github.com/alexsavio/vibe-reachout/internal/format"
	"github.com/alexsavio/vibe-reachout/internal/ipc"
	"github.com/alexsavio/vibe-reachout/internal/models"
)

// Router is the Decision Router (spec.md §4.8): it turns chat-side events
// (button taps, free-text replies) into DecisionResponses delivered over
// the matching PendingRequest's reply channel.
//
// Grounded on original_source/src/telegram/handler.rs::handle_callback and
// handle_message, translated from teloxide's endpoint-per-update dispatch
// to direct method calls invoked by the Chat Adapter's update callback.
type Router struct {
	adapter        ipc.ChatAdapter
	table          *ipc.PendingTable
	replyState     *ipc.ReplyPromptState
	allowedChatIDs map[int64]bool
}

// NewRouter builds a Router authorized for allowedChatIDs. The adapter must
// be supplied via SetAdapter before any update is routed: the Chat Adapter
// implementation (Bot) needs a constructed Router to dispatch updates to,
// so the two are wired together after both exist.
func NewRouter(table *ipc.PendingTable, replyState *ipc.ReplyPromptState, allowedChatIDs []int64) *Router {
	allowed := make(map[int64]bool, len(allowedChatIDs))
	for _, id := range allowedChatIDs {
		allowed[id] = true
	}
	return &Router{table: table, replyState: replyState, allowedChatIDs: allowed}
}

// SetAdapter wires the Chat Adapter the router dispatches actions to.
func (r *Router) SetAdapter(adapter ipc.ChatAdapter) {
	r.adapter = adapter
}

func (r *Router) authorized(chatID int64) bool {
	return len(r.allowedChatIDs) == 0 || r.allowedChatIDs[chatID]
}

// HandleCallback processes one button tap identified by queryID, the
// CallbackQuery id the caller's adapter must use to ack the tap (spec.md
// §4.7's ack_callback). Every path through this method acks exactly once.
func (r *Router) HandleCallback(ctx context.Context, chatID int64, queryID string, data string) {
	if !r.authorized(chatID) {
		log.Printf("telegram: unauthorized callback from chat %d", chatID)
		r.ack(ctx, queryID, "Unauthorized", true)
		return
	}

	cb, ok := ParseCallbackData(data)
	if !ok {
		r.ack(ctx, queryID, "", false)
		return
	}

	if cb.Action == ActionReply {
		if r.table.Contains(cb.RequestID) {
			promptMsgID, err := r.adapter.PromptForText(ctx, chatID, "Type your reply:")
			if err != nil {
				log.Printf("telegram: sending reply prompt: %v", err)
				r.ack(ctx, queryID, "", false)
				return
			}
			r.replyState.Set(chatID, cb.RequestID, promptMsgID)
			r.ack(ctx, queryID, "", false)
		} else {
			r.ack(ctx, queryID, "This request has already been handled.", true)
		}
		return
	}

	rec, ok := r.table.Take(cb.RequestID)
	if !ok {
		r.ack(ctx, queryID, "This request has already been handled.", true)
		return
	}

	var resp models.DecisionResponse
	var status string

	switch cb.Action {
	case ActionAllow:
		resp = models.AllowResponse(cb.RequestID)
		status = "✅ Approved"
	case ActionDeny:
		resp = models.DenyResponse(cb.RequestID, "Denied by user via Telegram")
		status = "❌ Denied"
	case ActionAlways:
		var suggestion []byte
		if len(rec.PermissionSuggestions) > 0 {
			suggestion = rec.PermissionSuggestions[0]
		}
		resp = models.AlwaysAllowResponse(cb.RequestID, suggestion)
		status = "\U0001F513 Always Allowed"
	}

	r.annotateSentMessages(ctx, rec, status)
	r.ack(ctx, queryID, status, false)
	rec.ReplyCh <- resp
}

// HandleMessage processes one plain text message, resolving the pending
// request it is the tracked free-text reply to, if any.
func (r *Router) HandleMessage(ctx context.Context, chatID int64, text string) {
	if !r.authorized(chatID) {
		log.Printf("telegram: unauthorized message from chat %d", chatID)
		return
	}

	requestID, promptMsgID, ok := r.replyState.Take(chatID)
	if !ok {
		return
	}

	text = strings.TrimSpace(text)
	if text == "" {
		newPromptID, err := r.adapter.PromptForText(ctx, chatID, "Reply cannot be empty. Type your reply:")
		if err != nil {
			log.Printf("telegram: re-sending reply prompt: %v", err)
			return
		}
		r.replyState.Set(chatID, requestID, newPromptID)
		return
	}

	rec, ok := r.table.Take(requestID)
	if !ok {
		r.sendBestEffort(ctx, chatID, "This request has already been handled.")
		return
	}

	r.annotateSentMessages(ctx, rec, "\U0001F4AC Replied")

	if err := r.adapter.Delete(ctx, chatID, promptMsgID); err != nil {
		log.Printf("telegram: deleting reply prompt: %v", err)
	}

	rec.ReplyCh <- models.ReplyResponse(requestID, text)
}

func (r *Router) annotateSentMessages(ctx context.Context, rec *models.PendingRequest, status string) {
	newText := format.StatusSuffix(rec.OriginalText, status)
	for _, sent := range rec.SentMessages {
		if err := r.adapter.Edit(ctx, sent.ChatID, sent.MessageID, newText); err != nil {
			log.Printf("telegram: annotating message %d in chat %d: %v", sent.MessageID, sent.ChatID, err)
		}
	}
}

func (r *Router) sendBestEffort(ctx context.Context, chatID int64, text string) {
	if _, err := r.adapter.Send(ctx, chatID, text, nil); err != nil {
		log.Printf("telegram: sending to chat %d: %v", chatID, err)
	}
}

// ack dismisses the pressed button's spinner, best-effort. There is no
// query id to ack for a plain text message reply (HandleMessage), so its
// own "already handled" case stays a regular sendBestEffort.
func (r *Router) ack(ctx context.Context, queryID string, text string, alert bool) {
	if err := r.adapter.AckCallback(ctx, queryID, text, alert); err != nil {
		log.Printf("telegram: acking callback %s: %v", queryID, err)
	}
}
