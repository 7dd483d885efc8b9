package panels

import (
	"fmt"
	"sync"

	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/utils"
)

// Mode selects how much detail the Settings app shows
type Mode string

const (
	ModeSimple Mode = "simple"
	ModePro    Mode = "pro"
)

// Settings holds per-session preferences
type Settings struct {
	mu   sync.RWMutex
	mode Mode
}

// NewSettings starts in simple mode
func NewSettings() *Settings {
	return &Settings{mode: ModeSimple}
}

// Mode returns the current mode
func (s *Settings) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetMode switches mode
func (s *Settings) SetMode(m Mode) error {
	if m != ModeSimple && m != ModePro {
		return fmt.Errorf("%w: unknown settings mode %q", utils.ErrInvalid, string(m))
	}
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
	return nil
}
