package panels

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/goccy/go-yaml"
)

//go:embed seed.yaml
var seedYAML []byte

// Seed is the sample data a workspace starts from
type Seed struct {
	Skills      []Skill     `yaml:"skills"`
	Store       []StoreItem `yaml:"store"`
	Files       []SeedFile  `yaml:"files"`
	Calendar    []SeedEvent `yaml:"calendar"`
	Palette     []string    `yaml:"palette"`
	Mail        []SeedEmail `yaml:"mail"`
	Agents      []SeedAgent `yaml:"agents"`
	ChatReplies []string    `yaml:"chat_replies"`
	Fortunes    []string    `yaml:"fortunes"`
}

// SeedFile is a file or folder of the virtual tree
type SeedFile struct {
	Path    string `yaml:"path"`
	Folder  bool   `yaml:"folder"`
	Content string `yaml:"content"`
	Base64  string `yaml:"base64"`
}

// SeedEvent is a calendar event relative to the session start day
type SeedEvent struct {
	Title     string `yaml:"title"`
	DayOffset int    `yaml:"day_offset"`
	Time      string `yaml:"time"`
	Color     string `yaml:"color"`
}

// SeedEmail is an inbox message aged relative to the session start
type SeedEmail struct {
	ID       string `yaml:"id"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	Subject  string `yaml:"subject"`
	Body     string `yaml:"body"`
	AgeHours int    `yaml:"age_hours"`
	Read     bool   `yaml:"read"`
	Starred  bool   `yaml:"starred"`
}

// SeedAgent is an agent whose last activity is relative to the session start
type SeedAgent struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Status      AgentStatus `yaml:"status"`
	Type        string      `yaml:"type"`
	Description string      `yaml:"description"`
	IdleMinutes int         `yaml:"idle_minutes"`
}

var (
	defaultSeed     *Seed
	defaultSeedErr  error
	defaultSeedOnce sync.Once
)

// ParseSeed decodes a seed document
func ParseSeed(data []byte) (*Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	if len(s.Palette) == 0 {
		return nil, fmt.Errorf("failed to parse seed: empty calendar palette")
	}
	return &s, nil
}

// DefaultSeed returns the embedded seed, parsed once
func DefaultSeed() (*Seed, error) {
	defaultSeedOnce.Do(func() {
		defaultSeed, defaultSeedErr = ParseSeed(seedYAML)
	})
	return defaultSeed, defaultSeedErr
}
