package stdin

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemunozm/service-io/channel"
	"github.com/lemunozm/service-io/message"
)

func TestStdinTokenizesLinesAndSkipsBlank(t *testing.T) {
	input := "echo hello world\n\nalarm wake-up 5\n"
	sender, receiver := channel.New[message.Message](4)

	done := make(chan error, 1)
	go func() { done <- New("u0", strings.NewReader(input)).Run(t.Context(), sender) }()

	first, err := receiver.Recv(t.Context())
	require.NoError(t, err)
	assert.Equal(t, message.Message{User: "u0", ServiceName: "echo", Args: []string{"hello", "world"}}, first)

	second, err := receiver.Recv(t.Context())
	require.NoError(t, err)
	assert.Equal(t, message.Message{User: "u0", ServiceName: "alarm", Args: []string{"wake-up", "5"}}, second)

	require.NoError(t, <-done, "EOF must terminate cleanly")
}
