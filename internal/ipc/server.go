package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/alexsavio/vibe-reachout/internal/models"
)

// MaxConcurrentConnections bounds the Broker Acceptor (spec.md §6): beyond
// this many simultaneous connections, new ones are refused immediately
// rather than queued, since a queued hook process would itself eventually
// time out waiting to even be accepted.
const MaxConcurrentConnections = 50

// Acceptor is the Broker Acceptor (spec.md §4.5): binds the rendezvous
// socket, enforces the concurrency cap, and hands each accepted connection
// to a handler goroutine until its context is cancelled.
//
// Grounded on other_examples/211bf759_codefionn-scriptschnell__internal-socketserver-broker.go.go,
// which runs the same accept-loop-with-semaphore shape over a Unix socket.
type Acceptor struct {
	ln    *net.UnixListener
	path  string
	inUse int64
}

// Listen binds a Unix socket at path. The caller must have already run
// DetectAndCleanStale on path.
func Listen(path string) (*Acceptor, error) {
	addr, err := net.ResolveUnixAddr("unix", path)
	if err != nil {
		return nil, fmt.Errorf("ipc: resolving socket address: %w", err)
	}
	ln, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, fmt.Errorf("ipc: binding socket: %w", err)
	}
	return &Acceptor{ln: ln, path: path}, nil
}

// Addr returns the bound socket path.
func (a *Acceptor) Addr() string { return a.path }

// Close closes the listener and unlinks the socket file.
func (a *Acceptor) Close() error {
	err := a.ln.Close()
	if rmErr := os.Remove(a.path); rmErr != nil && !os.IsNotExist(rmErr) {
		if err == nil {
			err = rmErr
		}
	}
	return err
}

// HandlerFunc processes one accepted connection. It must not block past
// ctx's cancellation.
type HandlerFunc func(ctx context.Context, conn net.Conn)

// Serve accepts connections until ctx is cancelled, dispatching each to
// handle in its own goroutine. Connections arriving while
// MaxConcurrentConnections are already in flight are closed immediately
// (spec.md §6: "excess connections are dropped, not queued").
func (a *Acceptor) Serve(ctx context.Context, handle HandlerFunc) error {
	go func() {
		<-ctx.Done()
		a.ln.Close()
	}()

	for {
		conn, err := a.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && !netErr.Timeout() {
				return fmt.Errorf("ipc: accept: %w", err)
			}
			continue
		}

		if atomic.AddInt64(&a.inUse, 1) > MaxConcurrentConnections {
			atomic.AddInt64(&a.inUse, -1)
			conn.Close()
			log.Printf("ipc: connection dropped, %d already in flight", MaxConcurrentConnections)
			continue
		}

		go func() {
			defer atomic.AddInt64(&a.inUse, -1)
			handle(ctx, conn)
		}()
	}
}

// NotifyFunc delivers a freshly-received permission request to the chat
// side (formatting the body, sending to every configured chat id) and
// reports back which messages were placed and the body text they carry, so
// the handler can annotate them in place once the request resolves. It is
// supplied by the broker package, which owns the ChatAdapter and the
// formatter; this package never imports either.
type NotifyFunc func(ctx context.Context, req models.PermissionRequest) (sent []models.SentMessage, body string, err error)

// AnnotateFunc appends a terminal status line to every message already sent
// for a resolved or timed-out request. Best-effort: the caller logs errors
// and does not propagate them.
type AnnotateFunc func(ctx context.Context, sent []models.SentMessage, originalText, status string)

// HandleConnection implements the Request Handler (spec.md §4.6): read one
// request line, notify the chat side, register the request in the Pending
// Table once at least one chat accepted the notification, then wait for the
// first of a chat-originated decision, the per-request timeout, or broker
// shutdown — whichever comes first — and write exactly one DecisionResponse
// line back before closing. A malformed request, or a notification no chat
// accepted, closes the connection without a response.
//
// Grounded on original_source/src/ipc/server.rs::handle_connection.
func HandleConnection(
	ctx context.Context,
	conn net.Conn,
	table *PendingTable,
	notify NotifyFunc,
	annotate AnnotateFunc,
	timeout time.Duration,
) {
	defer conn.Close()

	var req models.PermissionRequest
	if err := readJSONLine(bufio.NewReader(conn), &req); err != nil {
		log.Printf("ipc: malformed request: %v", err)
		return
	}

	sent, body, err := notify(ctx, req)
	if err != nil {
		log.Printf("ipc: notify failed for %s: %v", req.RequestID, err)
	}
	if len(sent) == 0 {
		// Zero chats accepted the notification: fail the handler without
		// registering a pending record, and without a response — the hook
		// times out (spec.md §4.6 step 3).
		log.Printf("ipc: no chat accepted the notification for %s, closing without a response", req.RequestID)
		return
	}

	rec := &models.PendingRequest{
		RequestID:             req.RequestID,
		ReplyCh:               make(chan models.DecisionResponse, 1),
		PermissionSuggestions: req.PermissionSuggestions,
		SentMessages:          sent,
		OriginalText:          body,
		CreatedAt:             time.Now(),
	}
	table.Insert(rec)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var resp models.DecisionResponse
	select {
	case resp = <-rec.ReplyCh:
	case <-timer.C:
		if _, ok := table.Take(req.RequestID); ok {
			resp = models.TimeoutResponse(req.RequestID)
			annotate(ctx, rec.SentMessages, rec.OriginalText, "⏱️ Timed out")
		} else {
			// Someone claimed it between the timer firing and now; honor
			// that decision instead of racing a stale timeout past it.
			resp = <-rec.ReplyCh
		}
	case <-ctx.Done():
		// Shutdown drains without touching chat messages (spec: global
		// cancellation resolves pending requests silently).
		table.Take(req.RequestID)
		resp = models.TimeoutResponse(req.RequestID)
	}

	if err := writeJSONLine(conn, &resp); err != nil {
		log.Printf("ipc: writing response for %s: %v", req.RequestID, err)
	}
}
