package cli

import (
	"io"
	"os"
)

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok || f == nil {
		return false
	}

	return isTerminalFd(f.Fd())
}
