package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KaramelBytes/samarth-cli/internal/ai"
)

func TestConversationTrimsOldestPairs(t *testing.T) {
	c := NewConversation(30)
	c.Add(strings.Repeat("a", 40), strings.Repeat("b", 40)) // 20 tokens
	c.Add(strings.Repeat("c", 20), strings.Repeat("d", 20)) // 10 tokens
	msgs := c.Messages()
	assert.Len(t, msgs, 4)

	c.Add("e", "f")
	msgs = c.Messages()
	assert.Len(t, msgs, 4)
	assert.Equal(t, strings.Repeat("c", 20), msgs[0].Content)
	assert.Equal(t, ai.RoleUser, msgs[0].Role)
	assert.Equal(t, ai.RoleAssistant, msgs[3].Role)
	assert.LessOrEqual(t, c.Tokens(), 30)
}

func TestConversationKeepsLatestPairEvenIfLarge(t *testing.T) {
	c := NewConversation(5)
	c.Add(strings.Repeat("a", 400), "ok")
	assert.Equal(t, 2, c.Len())
	c.Reset()
	assert.Zero(t, c.Len())
}

func TestConversationMessagesIsCopy(t *testing.T) {
	c := NewConversation(0)
	c.Add("q", "a")
	m := c.Messages()
	m[0].Content = "changed"
	assert.Equal(t, "q", c.Messages()[0].Content)
}
