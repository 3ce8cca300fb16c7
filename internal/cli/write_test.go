package cli

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_WriteFileAtomic_Streams_Output_When_Produce_Succeeds(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.txt")
	line := strings.Repeat("x", 1023) + "\n"

	err := writeFileAtomic(path, func(w io.Writer) error {
		for range 1024 {
			if _, err := io.WriteString(w, line); err != nil {
				return err
			}
		}

		return nil
	})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1024*1024), info.Size())
}

func Test_WriteFileAtomic_Keeps_Old_File_When_Produce_Fails(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o600))

	errBoom := errors.New("boom")

	err := writeFileAtomic(path, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial\n")

		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(got))
}

func Test_WriteFileAtomic_Returns_Error_When_Directory_Missing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing", "out.txt")

	err := writeFileAtomic(path, func(w io.Writer) error {
		for range 1024 {
			if _, err := io.WriteString(w, "line\n"); err != nil {
				return err
			}
		}

		return nil
	})
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
