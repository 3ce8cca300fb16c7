package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_IO_Prints_Warning_Twice_When_Recorded_Before_Output(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer

	o := NewIO(&out, &errOut)
	o.Warn("stale", "refresh")
	o.Println("result")

	assert.Equal(t, 1, o.Finish())
	assert.Equal(t, "result\n", out.String())
	assert.Equal(t, "warning: stale: refresh\nwarning: stale: refresh\n", errOut.String())
}

func Test_IO_Prints_Warning_Once_When_Recorded_After_Streamed_Output(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer

	o := NewIO(&out, &errOut)
	_, _ = o.Out().Write([]byte("1\n"))
	o.Warn("line 2: bad", "command skipped")

	assert.Equal(t, 1, o.Finish())
	assert.Equal(t, "warning: line 2: bad: command skipped\n", errOut.String())
}

func Test_IO_Prints_Warning_Once_When_No_Output(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer

	o := NewIO(&out, &errOut)
	o.Warn("nothing", "ignore")

	assert.Equal(t, 1, o.Finish())
	assert.Empty(t, out.String())
	assert.Equal(t, "warning: nothing: ignore\n", errOut.String())
}

func Test_IO_Finish_Returns_Zero_When_No_Warnings(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer

	o := NewIO(&out, &errOut)
	o.Println("ok")

	assert.Equal(t, 0, o.Finish())
	assert.Empty(t, errOut.String())
}
