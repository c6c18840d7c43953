package procio

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalReadyWritesReadyByte(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, SignalReady(w))

	buf := make([]byte, 1)
	n, err := r.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, byte(readyByte), buf[0])
}

func TestSignalReadyClosesPipe(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, SignalReady(w))

	// Writing to the now-closed pipe must fail.
	_, err = w.Write([]byte{0x00})
	assert.Error(t, err)
}

func TestSignalReadyWithNilPipeIsNoop(t *testing.T) {
	assert.NoError(t, SignalReady(nil))
}

func TestOpenReadyPipeWithNegativeFDReturnsNil(t *testing.T) {
	assert.Nil(t, OpenReadyPipe(-1))
}

func TestOpenReadyPipeWithValidFDReturnsFile(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	f := OpenReadyPipe(int(w.Fd()))
	require.NotNil(t, f)
}
