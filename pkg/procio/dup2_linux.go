package procio

import "golang.org/x/sys/unix"

// unix.Dup2 covers both amd64 (a direct dup2 syscall) and arm64 (which has
// no dup2 syscall and falls back to dup3 internally), unlike syscall.Dup2
// which is undefined on arm64.
func dup2(oldfd, newfd uintptr) error {
	return unix.Dup2(int(oldfd), int(newfd))
}
