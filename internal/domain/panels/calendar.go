package panels

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/id"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/utils"
)

// Event is a calendar entry
type Event struct {
	ID    id.EventID `json:"id"`
	Title string     `json:"title"`
	Date  time.Time  `json:"date"`
	Time  string     `json:"time,omitempty"`
	Color string     `json:"color"`
}

// Calendar holds events
type Calendar struct {
	mu      sync.RWMutex
	events  []Event
	palette []string
	rng     *rand.Rand
}

// NewCalendar seeds events relative to the day of now
func NewCalendar(seed []SeedEvent, palette []string, now time.Time, rng *rand.Rand) *Calendar {
	day := startOfDay(now)
	c := &Calendar{palette: palette, rng: rng}
	for _, s := range seed {
		c.events = append(c.events, Event{
			ID:    id.NewEventID(),
			Title: s.Title,
			Date:  day.AddDate(0, 0, s.DayOffset),
			Time:  s.Time,
			Color: s.Color,
		})
	}
	return c
}

// Add creates an event with a colour picked from the palette
func (c *Calendar) Add(title string, date time.Time, at string) (Event, error) {
	if err := utils.ValidateString(title, "title", 1, utils.MaxTitleLength, true); err != nil {
		return Event{}, err
	}
	if err := utils.ValidateTimeOfDay(at); err != nil {
		return Event{}, err
	}
	if date.IsZero() {
		return Event{}, fmt.Errorf("%w: date is required", utils.ErrInvalid)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ev := Event{
		ID:    id.NewEventID(),
		Title: title,
		Date:  startOfDay(date),
		Time:  at,
		Color: c.palette[c.rng.IntN(len(c.palette))],
	}
	c.events = append(c.events, ev)
	return ev, nil
}

// Remove deletes an event
func (c *Calendar) Remove(eventID id.EventID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, ev := range c.events {
		if ev.ID == eventID {
			c.events = append(c.events[:i], c.events[i+1:]...)
			return true
		}
	}
	return false
}

// List returns events ordered by date then time
func (c *Calendar) List() []Event {
	c.mu.RLock()
	out := append([]Event(nil), c.events...)
	c.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Time < out[j].Time
	})
	return out
}

// On returns the events of one day
func (c *Calendar) On(day time.Time) []Event {
	d := startOfDay(day)
	var out []Event
	for _, ev := range c.List() {
		if ev.Date.Equal(d) {
			out = append(out, ev)
		}
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
