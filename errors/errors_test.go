package errors_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lemunozm/service-io/errors"
	"github.com/lemunozm/service-io/message"
)

func TestNew(t *testing.T) {
	err := errors.New(errors.CodeTransient, "connection reset")

	assert.Equal(t, errors.CodeTransient, err.Code)
	assert.Equal(t, "connection reset", err.Message)
	assert.Empty(t, err.Meta)
	assert.Equal(t, "connection reset", err.Error())
}

func TestAddMetaValidPairs(t *testing.T) {
	err := errors.New(errors.CodeAuthChallenge, "token rejected").
		AddMeta("mechanism", "XOAUTH2")

	assert.Equal(t, "XOAUTH2", err.Meta["mechanism"])
}

func TestAddMetaInvalidPairs(t *testing.T) {
	err := errors.New(errors.CodeFormat, "bad args").
		AddMeta("field")

	assert.Contains(t, err.Meta, "error")
	assert.Equal(t, "invalid meta key/value args", err.Meta["error"])
}

func TestFormatError(t *testing.T) {
	req := message.Message{User: "alice", ServiceName: "s-alarm"}

	resp := errors.FormatError(req, "Expected args: <name> <minutes>")

	assert.Equal(t, "alice", resp.User)
	assert.Equal(t, "s-alarm", resp.ServiceName)
	assert.Equal(t, []string{"format error"}, resp.Args)
	assert.Equal(t, "Expected args: <name> <minutes>", resp.Body)
}
