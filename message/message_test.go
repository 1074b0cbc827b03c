package message_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lemunozm/service-io/message"
)

func TestFirstCharLowercase(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"capitalized", "S-test", "s-test"},
		{"already lowercase", "s-test", "s-test"},
		{"empty stays empty", "", ""},
		{"single capital", "S", "s"},
		{"unicode first letter", "Écho", "écho"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := message.FirstCharLowercase(message.Message{ServiceName: tt.in})
			assert.Equal(t, tt.want, got.ServiceName)
		})
	}
}

func TestFirstCharLowercaseIdempotent(t *testing.T) {
	m := message.Message{ServiceName: "S-test"}

	once := message.FirstCharLowercase(m)
	twice := message.FirstCharLowercase(once)

	assert.Equal(t, once, twice)
}

func TestFirstCharLowercasePreservesOtherFields(t *testing.T) {
	m := message.Message{
		User:        "alice",
		ServiceName: "S-test",
		Args:        []string{"a", "b"},
		Body:        "hello",
		Attachments: map[string][]byte{"f": {1, 2, 3}},
	}

	got := message.FirstCharLowercase(m)

	assert.Equal(t, "alice", got.User)
	assert.Equal(t, []string{"a", "b"}, got.Args)
	assert.Equal(t, "hello", got.Body)
	assert.Equal(t, m.Attachments, got.Attachments)
}

func TestResponseCopiesRoutingFieldsOnly(t *testing.T) {
	req := message.Message{
		User:        "alice",
		ServiceName: "s-test",
		Args:        []string{"ignored"},
		Body:        "ignored",
		Attachments: map[string][]byte{"ignored": {1}},
	}

	resp := message.Response(req)

	assert.Equal(t, "alice", resp.User)
	assert.Equal(t, "s-test", resp.ServiceName)
	assert.Empty(t, resp.Args)
	assert.Empty(t, resp.Body)
	assert.Empty(t, resp.Attachments)
}

func TestCloneIsIndependent(t *testing.T) {
	m := message.Message{
		Args:        []string{"a"},
		Attachments: map[string][]byte{"f": {1, 2}},
	}

	clone := m.Clone()
	clone.Args[0] = "mutated"
	clone.Attachments["f"][0] = 9

	assert.Equal(t, "a", m.Args[0])
	assert.EqualValues(t, 1, m.Attachments["f"][0])
}
