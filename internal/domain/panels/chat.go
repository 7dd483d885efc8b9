package panels

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/id"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/notify"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/utils"
)

// Role of a chat participant
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat message
type Message struct {
	ID        id.MessageID `json:"id"`
	Role      Role         `json:"role"`
	Content   string       `json:"content"`
	Timestamp time.Time    `json:"timestamp"`
}

// Chat holds the conversation with the assistant. Every user message is
// answered with a canned reply after a random delay.
type Chat struct {
	mu       sync.Mutex
	messages []Message
	pending  map[*time.Timer]struct{}
	closed   bool

	replies   []string
	minDelay  time.Duration
	maxDelay  time.Duration
	rng       *rand.Rand
	sanitizer *bluemonday.Policy
	subs      notify.Broadcaster[Message]
}

// NewChat creates an empty conversation
func NewChat(replies []string, minDelay, maxDelay time.Duration, rng *rand.Rand) *Chat {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Chat{
		pending:   make(map[*time.Timer]struct{}),
		replies:   replies,
		minDelay:  minDelay,
		maxDelay:  maxDelay,
		rng:       rng,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Send appends a user message and schedules the assistant reply. Markup is
// stripped from the content.
func (c *Chat) Send(content string) (Message, error) {
	if err := utils.ValidateMessage(content); err != nil {
		return Message{}, err
	}
	clean := strings.TrimSpace(c.sanitizer.Sanitize(content))
	if clean == "" {
		return Message{}, utils.ValidateMessage(clean)
	}

	c.mu.Lock()
	msg := c.appendLocked(RoleUser, clean)
	if !c.closed && len(c.replies) > 0 {
		reply := c.replies[c.rng.IntN(len(c.replies))]
		delay := c.minDelay
		if span := c.maxDelay - c.minDelay; span > 0 {
			delay += time.Duration(c.rng.Int64N(int64(span)))
		}
		var t *time.Timer
		t = time.AfterFunc(delay, func() { c.reply(t, reply) })
		c.pending[t] = struct{}{}
	}
	c.mu.Unlock()

	c.subs.Publish(msg)
	return msg, nil
}

func (c *Chat) reply(t *time.Timer, content string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	delete(c.pending, t)
	msg := c.appendLocked(RoleAssistant, content)
	c.mu.Unlock()

	c.subs.Publish(msg)
}

func (c *Chat) appendLocked(role Role, content string) Message {
	msg := Message{ID: id.NewMessageID(), Role: role, Content: content, Timestamp: time.Now()}
	c.messages = append(c.messages, msg)
	return msg
}

// Messages returns the conversation, oldest first
func (c *Chat) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Typing reports whether a reply is pending
func (c *Chat) Typing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending) > 0
}

// Subscribe registers fn for new messages
func (c *Chat) Subscribe(fn func(Message)) func() {
	return c.subs.Subscribe(fn)
}

// Close cancels pending replies
func (c *Chat) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	for t := range c.pending {
		t.Stop()
	}
	c.pending = make(map[*time.Timer]struct{})
}
