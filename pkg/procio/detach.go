package procio

import (
	"os"

	"github.com/cuemby/netresolved/pkg/dnserr"
)

// DetachStdio redirects stdin, stdout, and stderr to /dev/null. Called
// once readiness has been signaled, so the daemon stops holding the
// launcher's terminal or pipes open once it no longer needs them.
func DetachStdio() error {
	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return dnserr.WrapIO("opening "+os.DevNull, err)
	}
	defer devNull.Close()

	if err := dup2(devNull.Fd(), os.Stdin.Fd()); err != nil {
		return dnserr.WrapIO("redirecting stdin", err)
	}
	if err := dup2(devNull.Fd(), os.Stdout.Fd()); err != nil {
		return dnserr.WrapIO("redirecting stdout", err)
	}
	if err := dup2(devNull.Fd(), os.Stderr.Fd()); err != nil {
		return dnserr.WrapIO("redirecting stderr", err)
	}
	return nil
}
