package stdout

import (
	"bufio"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemunozm/service-io/channel"
	"github.com/lemunozm/service-io/message"
)

func TestStdoutDumpsEachMessage(t *testing.T) {
	pipeReader, pipeWriter := io.Pipe()
	t.Cleanup(func() { _ = pipeReader.Close() })

	sender, receiver := channel.New[message.Message](1)

	done := make(chan error, 1)
	go func() { done <- New(pipeWriter).Run(t.Context(), receiver) }()

	require.NoError(t, sender.Send(t.Context(), message.Message{User: "u0", ServiceName: "echo", Body: "hi"}))

	lines := bufio.NewReader(pipeReader)

	line, err := readLineWithTimeout(t, lines, time.Second)
	require.NoError(t, err)
	assert.True(t, strings.Contains(line, "echo"))

	sender.Close()
	_ = pipeWriter.Close()
}

func readLineWithTimeout(t *testing.T, r *bufio.Reader, timeout time.Duration) (string, error) {
	t.Helper()

	type result struct {
		line string
		err  error
	}

	out := make(chan result, 1)

	go func() {
		line, err := r.ReadString('\n')
		out <- result{line, err}
	}()

	select {
	case res := <-out:
		return res.line, res.err
	case <-time.After(timeout):
		t.Fatal("timed out waiting for stdout dump")

		return "", nil
	}
}
