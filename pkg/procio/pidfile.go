package procio

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/cuemby/netresolved/pkg/dnserr"
)

// PIDFile is a scoped owner for the daemon's PID file: it is written once
// at startup and removed by the signal-triggered shutdown and by the
// empty-config shutdown. A startup failure after it is written (for
// example a failed readiness write) leaves the file in place.
type PIDFile struct {
	path string
}

// WritePIDFile creates path containing the current process id in decimal.
// Callers keep the returned handle so they can remove it on shutdown.
func WritePIDFile(path string) (*PIDFile, error) {
	contents := strconv.Itoa(os.Getpid())
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return nil, dnserr.WrapIO("writing PID file "+path, err)
	}
	return &PIDFile{path: path}, nil
}

// Path returns the PID file's location, joined from a config directory and
// the reserved file name the configuration parser skips.
func Path(configDir, name string) string {
	return filepath.Join(configDir, name)
}

// Remove deletes the PID file. A missing file is not an error: the
// empty-config shutdown path may race a concurrent cleanup.
func (p *PIDFile) Remove() error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return dnserr.WrapIO("removing PID file "+p.path, err)
	}
	return nil
}
