package agent

import (
	"github.com/KaramelBytes/samarth-cli/internal/ai"
	"github.com/KaramelBytes/samarth-cli/internal/utils"
)

// Conversation accumulates user and assistant turns. Tool traffic is not
// kept. The oldest turns are dropped once the estimated token count exceeds
// the limit.
type Conversation struct {
	limit int
	turns []ai.Message
}

// NewConversation returns an empty conversation bounded by limit tokens.
func NewConversation(limit int) *Conversation {
	return &Conversation{limit: limit}
}

// Add records one question and its answer.
func (c *Conversation) Add(question, answer string) {
	c.turns = append(c.turns,
		ai.Message{Role: ai.RoleUser, Content: question},
		ai.Message{Role: ai.RoleAssistant, Content: answer},
	)
	c.trim()
}

// Messages returns a copy of the retained turns, oldest first.
func (c *Conversation) Messages() []ai.Message {
	out := make([]ai.Message, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of retained messages.
func (c *Conversation) Len() int { return len(c.turns) }

// Tokens estimates the size of the retained turns.
func (c *Conversation) Tokens() int {
	n := 0
	for _, m := range c.turns {
		n += utils.CountTokens(m.Content)
	}
	return n
}

// Reset forgets every turn.
func (c *Conversation) Reset() { c.turns = nil }

// trim drops whole question/answer pairs, oldest first.
func (c *Conversation) trim() {
	if c.limit <= 0 {
		return
	}
	for len(c.turns) > 2 && c.Tokens() > c.limit {
		c.turns = c.turns[2:]
	}
}
