package devmem

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devmem/internal/common"
	"devmem/internal/memacc"
)

func newDeviceFile(t *testing.T) string {
	t.Helper()
	buf := make([]byte, 2*memacc.PageSize)
	for i := range buf {
		buf[i] = byte(i)
	}
	path := filepath.Join(t.TempDir(), "mem")
	require.NoError(t, os.WriteFile(path, buf, 0o600))
	return path
}

func run(t *testing.T, cfg Config) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := Run(cfg, &out, common.NewNopLogger())
	return out.String(), err
}

func lines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func TestRunRead(t *testing.T) {
	dev := newDeviceFile(t)

	out, err := run(t, Config{Device: dev, Target: 0x20, Type: "w"})
	require.NoError(t, err)

	l := lines(out)
	require.Len(t, l, 3)
	assert.Equal(t, dev+" opened.", l[0])
	assert.Regexp(t, `^Memory mapped at address 0x[0-9a-f]+\.$`, l[1])
	want := binary.NativeEndian.Uint32([]byte{0x20, 0x21, 0x22, 0x23})
	assert.Regexp(t, fmt.Sprintf(`^Value at address 0x20 \(0x[0-9a-f]+\): 0x%X$`, want), l[2])
}

func TestRunDefaultTypeIsWord(t *testing.T) {
	dev := newDeviceFile(t)

	def, err := run(t, Config{Device: dev, Target: 0x40})
	require.NoError(t, err)
	word, err := run(t, Config{Device: dev, Target: 0x40, Type: "w"})
	require.NoError(t, err)

	assert.Equal(t, valueOf(t, word), valueOf(t, def))
}

func TestRunUpperCaseType(t *testing.T) {
	dev := newDeviceFile(t)

	out, err := run(t, Config{Device: dev, Target: 0x7, Type: "B"})
	require.NoError(t, err)
	assert.Equal(t, "0x7", valueOf(t, out))
}

func TestRunWriteThenRead(t *testing.T) {
	for _, tc := range []struct {
		typ   string
		value uint64
		want  string
	}{
		{"b", 0xAB, "0xAB"},
		{"b", 0x1234, "0x34"},
		{"h", 0xBEEF, "0xBEEF"},
		{"w", 0xDEADBEEF, "0xDEADBEEF"},
		{"w", 0x1_0000_0001, "0x1"},
	} {
		t.Run(tc.typ+"-"+tc.want, func(t *testing.T) {
			dev := newDeviceFile(t)

			out, err := run(t, Config{Device: dev, Target: 0x100, Type: tc.typ, Value: tc.value, Write: true})
			require.NoError(t, err)
			l := lines(out)
			require.Len(t, l, 3)
			assert.Equal(t, fmt.Sprintf("Written 0x%X", tc.value), l[2])

			out, err = run(t, Config{Device: dev, Target: 0x100, Type: tc.typ})
			require.NoError(t, err)
			assert.Equal(t, tc.want, valueOf(t, out))
		})
	}
}

func TestRunReadback(t *testing.T) {
	dev := newDeviceFile(t)

	out, err := run(t, Config{Device: dev, Target: 0x300, Type: "h", Value: 0x12345, Write: true, Readback: true})
	require.NoError(t, err)

	l := lines(out)
	require.Len(t, l, 4)
	assert.Equal(t, "Written 0x12345", l[2])
	assert.Equal(t, "Readback 0x2345", l[3])
}

func TestRunIllegalType(t *testing.T) {
	dev := newDeviceFile(t)

	for _, write := range []bool{false, true} {
		out, err := run(t, Config{Device: dev, Target: 0x0, Type: "x", Value: 1, Write: write})
		require.Error(t, err)
		assert.Equal(t, 2, common.ExitCode(err))
		assert.EqualError(t, err, "Illegal data type 'x'.")

		// open and map already happened
		l := lines(out)
		require.Len(t, l, 2)
		assert.Equal(t, dev+" opened.", l[0])
		assert.True(t, strings.HasPrefix(l[1], "Memory mapped at address "))
	}

	buf, err := os.ReadFile(dev)
	require.NoError(t, err)
	assert.Equal(t, byte(0x00), buf[0], "illegal write must not store")
}

func TestRunCrossesPage(t *testing.T) {
	dev := newDeviceFile(t)

	_, err := run(t, Config{Device: dev, Target: 0xFFD, Type: "w"})
	require.Error(t, err)
	assert.Equal(t, 2, common.ExitCode(err))
}

func TestRunMissingDevice(t *testing.T) {
	out, err := run(t, Config{Device: filepath.Join(t.TempDir(), "absent"), Target: 0x0})
	require.Error(t, err)
	assert.Equal(t, 1, common.ExitCode(err))
	assert.Empty(t, out)

	var diag bytes.Buffer
	common.Report(&diag, err)
	assert.Regexp(t, `^Error at line \d+, file device\.go \(2\) \[no such file or directory\]\n$`, diag.String())
}

func TestRunFlushesEachLine(t *testing.T) {
	dev := newDeviceFile(t)

	var sink bytes.Buffer
	w := bufio.NewWriterSize(&sink, 4096)
	require.NoError(t, Run(Config{Device: dev, Target: 0x0, Type: "b"}, w, common.NewNopLogger()))

	assert.Zero(t, w.Buffered())
	assert.Len(t, lines(sink.String()), 3)
}

func TestRunDebugLogging(t *testing.T) {
	dev := newDeviceFile(t)

	var out, logs bytes.Buffer
	err := Run(Config{Device: dev, Target: 0x10, Type: "b"}, &out, common.NewLogger(&logs, common.SeverityDebug))
	require.NoError(t, err)

	for _, want := range []string{`msg="opening device"`, `msg="mapped page"`, "size=\"4.0 KiB\"", "width=byte", `msg="unmapped page"`} {
		assert.Contains(t, logs.String(), want)
	}
}

// valueOf returns the value printed on the last line of a read.
func valueOf(t *testing.T, out string) string {
	t.Helper()
	l := lines(out)
	last := l[len(l)-1]
	i := strings.LastIndex(last, ": ")
	require.NotEqual(t, -1, i, "no value in %q", last)
	return last[i+2:]
}
