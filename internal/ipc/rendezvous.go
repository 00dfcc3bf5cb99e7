package ipc

import (
	"errors"
	"fmt"
	"net"
	"os"
)

// ErrAlreadyRunning is returned by DetectAndCleanStale when a peer is
// actively listening on the socket path.
var ErrAlreadyRunning = errors.New("ipc: already running")

// DetectAndCleanStale implements the Rendezvous Guard (spec.md §4.2):
// absent -> proceed; active peer -> ErrAlreadyRunning; stale file -> unlink
// and proceed. Grounded on original_source/src/ipc/server.rs's
// detect_and_clean_stale_socket, adapted from std::os::unix::net::UnixStream
// to Go's net.Dial("unix", ...).
func DetectAndCleanStale(socketPath string) error {
	if _, err := os.Stat(socketPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		// Any other stat error: treat as stale, same as the original's
		// "unknown socket state" branch.
		return removeStale(socketPath)
	}

	conn, err := net.Dial("unix", socketPath)
	if err == nil {
		conn.Close()
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, socketPath)
	}

	// Connection refused (or any other dial failure) means the file is
	// stale: nothing is listening behind it.
	return removeStale(socketPath)
}

func removeStale(socketPath string) error {
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ipc: removing stale socket: %w", err)
	}
	return nil
}
