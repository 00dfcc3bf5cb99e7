package ipc

import (
	"sync"

	"github.com/google/uuid"

	"github.com/alexsavio/vibe-reachout/internal/models"
)

// PendingTable is the concurrent request-id -> PendingRequest map described
// in spec.md §4.3. Its take-once property — at most one successful Take per
// inserted id — is the sole mechanism that resolves races between a chat
// callback, a free-text reply, a per-request timeout, and global shutdown.
//
// Grounded on igoryanba-ricochet/internal/telegram/bot.go's mutex-guarded
// maps (activeSessions, pending, sessionResponses): a plain map behind a
// sync.Mutex, no generic concurrent-map library — the pack does not carry
// one (e.g. no DashMap equivalent such as orcaman/concurrent-map appears in
// any example go.mod), and request volume here is, per spec.md §9, "dozens
// of concurrent requests at most".
type PendingTable struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*models.PendingRequest
}

// NewPendingTable returns an empty table.
func NewPendingTable() *PendingTable {
	return &PendingTable{entries: make(map[uuid.UUID]*models.PendingRequest)}
}

// Insert registers a new pending record. It panics if the id is already
// present — per spec.md §4.3 this is never expected, since ids are unique.
func (t *PendingTable) Insert(rec *models.PendingRequest) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.entries[rec.RequestID]; exists {
		panic("ipc: duplicate pending request id " + rec.RequestID.String())
	}
	t.entries[rec.RequestID] = rec
}

// Take atomically removes and returns the record for id, if present. It is
// the only operation permitted to resolve a pending request, and it is
// safe to call concurrently from multiple goroutines racing to claim the
// same id — only one will see ok == true.
func (t *PendingTable) Take(id uuid.UUID) (*models.PendingRequest, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	return rec, ok
}

// Contains reports whether id is still pending, without taking it. Used by
// the Decision Router's "reply" callback branch, which must inspect
// liveness without claiming ownership (the pending record stays registered
// throughout the PROMPTED sub-state).
func (t *PendingTable) Contains(id uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[id]
	return ok
}

// Drain removes and returns every pending record, for the Shutdown
// Coordinator to resolve as Timeout.
func (t *PendingTable) Drain() []*models.PendingRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*models.PendingRequest, 0, len(t.entries))
	for id, rec := range t.entries {
		out = append(out, rec)
		delete(t.entries, id)
	}
	return out
}

// ReplyPromptState tracks, per chat, "this chat has been prompted for free
// text and the next text message in that chat resolves this request." At
// most one entry exists per chat at any time; a new prompt replaces the
// prior one (spec.md §3).
type ReplyPromptState struct {
	mu      sync.Mutex
	entries map[int64]replyPrompt
}

type replyPrompt struct {
	requestID      uuid.UUID
	promptMsgID    int
}

// NewReplyPromptState returns an empty tracker.
func NewReplyPromptState() *ReplyPromptState {
	return &ReplyPromptState{entries: make(map[int64]replyPrompt)}
}

// Set records (or replaces) the reply prompt for chatID.
func (s *ReplyPromptState) Set(chatID int64, requestID uuid.UUID, promptMsgID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[chatID] = replyPrompt{requestID: requestID, promptMsgID: promptMsgID}
}

// Take atomically removes and returns the reply prompt for chatID, if any.
func (s *ReplyPromptState) Take(chatID int64) (uuid.UUID, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rp, ok := s.entries[chatID]
	if !ok {
		return uuid.UUID{}, 0, false
	}
	delete(s.entries, chatID)
	return rp.requestID, rp.promptMsgID, true
}
