package procio

import (
	"os"

	"github.com/cuemby/netresolved/pkg/dnserr"
)

// readyByte is the single byte the child writes to its parent to signal
// that the initial configuration has been loaded and every listener socket
// is bound.
const readyByte = 0x31

// ReadyPipeFDEnv names the environment variable through which the launcher
// passes down the inherited file descriptor (a decimal fd number) the
// daemon writes its readiness byte to. Absent means "no parent is
// waiting" and readiness signaling is skipped entirely.
const ReadyPipeFDEnv = "NETRESOLVED_READY_FD"

// OpenReadyPipe wraps fd as a writable file, or returns nil if fd is
// negative (no readiness pipe was inherited).
func OpenReadyPipe(fd int) *os.File {
	if fd < 0 {
		return nil
	}
	return os.NewFile(uintptr(fd), "ready-pipe")
}

// SignalReady writes the readiness byte to pipe and closes it. A nil pipe
// is a no-op: there may be no parent waiting.
func SignalReady(pipe *os.File) error {
	if pipe == nil {
		return nil
	}
	defer pipe.Close()

	if _, err := pipe.Write([]byte{readyByte}); err != nil {
		return dnserr.WrapIO("writing readiness byte", err)
	}
	return nil
}
