package panels

import (
	"sync"
	"time"
)

// Email is an inbox message
type Email struct {
	ID      string    `json:"id"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Date    time.Time `json:"date"`
	Read    bool      `json:"read"`
	Starred bool      `json:"starred"`
}

// Mailbox is the Mail app inbox
type Mailbox struct {
	mu     sync.RWMutex
	emails []Email
}

// NewMailbox seeds the inbox, ageing messages relative to now
func NewMailbox(seed []SeedEmail, now time.Time) *Mailbox {
	m := &Mailbox{}
	for _, s := range seed {
		m.emails = append(m.emails, Email{
			ID:      s.ID,
			From:    s.From,
			To:      s.To,
			Subject: s.Subject,
			Body:    s.Body,
			Date:    now.Add(-time.Duration(s.AgeHours) * time.Hour),
			Read:    s.Read,
			Starred: s.Starred,
		})
	}
	return m
}

// List returns the inbox, newest first as seeded
func (m *Mailbox) List() []Email {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Email(nil), m.emails...)
}

// Get returns one message
func (m *Mailbox) Get(emailID string) (Email, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.emails {
		if e.ID == emailID {
			return e, true
		}
	}
	return Email{}, false
}

// ToggleRead flips the read flag
func (m *Mailbox) ToggleRead(emailID string) (Email, bool) {
	return m.update(emailID, func(e *Email) { e.Read = !e.Read })
}

// ToggleStar flips the starred flag
func (m *Mailbox) ToggleStar(emailID string) (Email, bool) {
	return m.update(emailID, func(e *Email) { e.Starred = !e.Starred })
}

// Unread counts unread messages
func (m *Mailbox) Unread() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, e := range m.emails {
		if !e.Read {
			n++
		}
	}
	return n
}

func (m *Mailbox) update(emailID string, fn func(*Email)) (Email, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.emails {
		if m.emails[i].ID == emailID {
			fn(&m.emails[i])
			return m.emails[i], true
		}
	}
	return Email{}, false
}
