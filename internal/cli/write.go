package cli

import (
	"io"

	"github.com/natefinch/atomic"
)

// writeFileAtomic streams what produce writes into path. The file is replaced
// only when produce and the write both succeed; memory use does not depend on
// the size of the output.
func writeFileAtomic(path string, produce func(w io.Writer) error) error {
	pr, pw := io.Pipe()
	done := make(chan error, 1)

	go func() {
		err := produce(pw)
		_ = pw.CloseWithError(err)
		done <- err
	}()

	writeErr := atomic.WriteFile(path, pr)

	// Unblocks produce if the write stopped reading early.
	_ = pr.CloseWithError(writeErr)

	if err := <-done; err != nil {
		return err
	}

	return writeErr
}
