package panels

import (
	"sync"
	"time"
)

// AgentStatus is the lifecycle state of an agent
type AgentStatus string

const (
	AgentActive  AgentStatus = "active"
	AgentIdle    AgentStatus = "idle"
	AgentOffline AgentStatus = "offline"
)

// Next returns the status that follows s in the active, idle, offline cycle
func (s AgentStatus) Next() AgentStatus {
	switch s {
	case AgentActive:
		return AgentIdle
	case AgentIdle:
		return AgentOffline
	}
	return AgentActive
}

// Glyph is the terminal marker for s
func (s AgentStatus) Glyph() string {
	switch s {
	case AgentActive:
		return "●"
	case AgentIdle:
		return "○"
	}
	return "✗"
}

// Agent is a background assistant
type Agent struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Status      AgentStatus `json:"status"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	LastActive  time.Time   `json:"last_active"`
}

// Agents is the Agents app roster
type Agents struct {
	mu     sync.RWMutex
	agents []Agent
	now    func() time.Time
}

// NewAgents seeds the roster
func NewAgents(seed []SeedAgent, now func() time.Time) *Agents {
	a := &Agents{now: now}
	start := now()
	for _, s := range seed {
		a.agents = append(a.agents, Agent{
			ID:          s.ID,
			Name:        s.Name,
			Status:      s.Status,
			Type:        s.Type,
			Description: s.Description,
			LastActive:  start.Add(-time.Duration(s.IdleMinutes) * time.Minute),
		})
	}
	return a
}

// List returns every agent
func (a *Agents) List() []Agent {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]Agent(nil), a.agents...)
}

// Cycle advances an agent to its next status and touches LastActive
func (a *Agents) Cycle(agentID string) (Agent, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range a.agents {
		if a.agents[i].ID == agentID {
			a.agents[i].Status = a.agents[i].Status.Next()
			a.agents[i].LastActive = a.now()
			return a.agents[i], true
		}
	}
	return Agent{}, false
}

// Count returns how many agents are in status s
func (a *Agents) Count(s AgentStatus) int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	n := 0
	for _, ag := range a.agents {
		if ag.Status == s {
			n++
		}
	}
	return n
}
