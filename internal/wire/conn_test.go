package wire_test

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/macroflight/frankenrouter/internal/wire"
)

func TestWriteLineEmitsCRLF(t *testing.T) {
	a, b := net.Pipe()
	client := wire.NewConn(a)
	defer client.Close()
	defer b.Close()

	raw := bufio.NewReader(b)
	done := make(chan string, 1)
	go func() {
		line, _ := raw.ReadString('\n')
		done <- line
	}()

	require.NoError(t, client.WriteLineString("id=42"))
	select {
	case line := <-done:
		require.Equal(t, "id=42\r\n", line)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for line")
	}
}

func TestRoundTripBareLF(t *testing.T) {
	a, b := net.Pipe()
	client := wire.NewConn(a)
	defer client.Close()
	defer b.Close()

	go func() {
		_, _ = b.Write([]byte("bang\n"))
	}()

	line, err := client.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "bang", string(line))
}

func TestRoundTripMaxLine(t *testing.T) {
	a, b := net.Pipe()
	client := wire.NewConn(a)
	server := wire.NewConn(b)
	defer client.Close()
	defer server.Close()

	payload := make([]byte, wire.MaxLineLength-2)
	for i := range payload {
		payload[i] = 'x'
	}

	go func() {
		_ = server.WriteLine(payload)
	}()

	line, err := client.ReadLine()
	require.NoError(t, err)
	require.Equal(t, len(payload), len(line))
}

func TestWriteDeadline(t *testing.T) {
	a, b := net.Pipe()
	client := wire.NewConn(a)
	defer client.Close()
	defer b.Close()

	require.NoError(t, client.SetWriteDeadline(time.Now().Add(time.Millisecond)))
}
