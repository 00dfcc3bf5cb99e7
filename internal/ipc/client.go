package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/alexsavio/vibe-reachout/internal/models"
)

// Client error kinds (spec.md §7): the hook process reports these with
// distinct stderr messages rather than collapsing them into one generic
// failure, so a user can tell "broker not running" apart from "broker
// hung". All of them end the hook with exit status 1.
var (
	ErrSocketAbsent     = errors.New("ipc: socket does not exist")
	ErrConnectionRefused = errors.New("ipc: socket exists but nobody is listening")
	ErrInvalidResponse  = errors.New("ipc: invalid response from broker")
	ErrDeadlineExceeded = errors.New("ipc: request timed out")
	ErrConnectionFailed = errors.New("ipc: transport failure")
	ErrMismatchedID     = errors.New("ipc: response request id does not match")
)

// SendRequest implements the Hook Client (spec.md §4.4): dial the socket
// once, write exactly one PermissionRequest line, half-close the write side,
// then block for exactly one DecisionResponse line or ctx's deadline.
//
// Grounded on original_source/src/ipc/client.rs, which performs the same
// connect -> write -> shutdown(Write) -> read sequence over a
// UnixStream; Go's net.UnixConn.CloseWrite is the direct analogue of
// Rust's AsyncWriteExt::shutdown on the write half.
func SendRequest(ctx context.Context, socketPath string, req models.PermissionRequest) (models.DecisionResponse, error) {
	var zero models.DecisionResponse

	if _, err := os.Stat(socketPath); err != nil {
		if os.IsNotExist(err) {
			return zero, fmt.Errorf("%w: %s", ErrSocketAbsent, socketPath)
		}
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return zero, fmt.Errorf("%w: %v", ErrDeadlineExceeded, err)
		}
		if isRefused(err) {
			return zero, fmt.Errorf("%w: %v", ErrConnectionRefused, err)
		}
		return zero, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := writeJSONLine(conn, &req); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	if uc, ok := conn.(*net.UnixConn); ok {
		if err := uc.CloseWrite(); err != nil {
			return zero, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
		}
	}

	var resp models.DecisionResponse
	if err := readJSONLine(bufio.NewReader(conn), &resp); err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return zero, fmt.Errorf("%w: %v", ErrDeadlineExceeded, err)
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return zero, fmt.Errorf("%w: %v", ErrDeadlineExceeded, err)
		}
		return zero, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if resp.RequestID != req.RequestID {
		return zero, fmt.Errorf("%w: got %s want %s", ErrMismatchedID, resp.RequestID, req.RequestID)
	}

	return resp, nil
}

func isRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}

// DeadlineFor returns the Hook Client's deadline for a request whose broker
// side times out after timeoutSeconds: spec.md §4.4 adds a fixed 30s grace
// period on top so a broker-side Timeout response has time to arrive over
// the socket before the client's own read gives up.
func DeadlineFor(timeoutSeconds int) time.Duration {
	return time.Duration(timeoutSeconds+30) * time.Second
}
