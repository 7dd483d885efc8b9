package installer

import (
	"fmt"
	"time"
)

// InstallStatus is the lifecycle of the local MoltBot install
type InstallStatus string

const (
	StatusChecking     InstallStatus = "checking"
	StatusNotInstalled InstallStatus = "not_installed"
	StatusInstalling   InstallStatus = "installing"
	StatusConfigured   InstallStatus = "configured"
	StatusConnected    InstallStatus = "connected"
)

// Method is how the user chose to install
type Method string

const (
	MethodNPM    Method = "npm"
	MethodScript Method = "script"
	MethodManual Method = "manual"
)

// ParseMethod validates an install method received from a client
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodNPM, MethodScript, MethodManual:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

const (
	DefaultVersion    = "2025.1.28"
	DefaultModel      = "anthropic/claude-opus-4-5"
	DefaultWorkspace  = "~/clawd"
	DefaultConfigPath = "~/.clawdbot/moltbot.json"
	DefaultPort       = 18789
)

// GatewayURL is the local gateway address for port
func GatewayURL(port int) string {
	return fmt.Sprintf("ws://127.0.0.1:%d", port)
}

// BotConfig is what a completed install writes
type BotConfig struct {
	Version     string `json:"version"`
	GatewayPort int    `json:"gateway_port"`
	GatewayURL  string `json:"gateway_url"`
	Model       string `json:"model"`
	Workspace   string `json:"workspace"`
	ConfigPath  string `json:"config_path"`
}

// DefaultBotConfig is the configuration of a fresh install
func DefaultBotConfig() BotConfig {
	return BotConfig{
		Version:     DefaultVersion,
		GatewayPort: DefaultPort,
		GatewayURL:  GatewayURL(DefaultPort),
		Model:       DefaultModel,
		Workspace:   DefaultWorkspace,
		ConfigPath:  DefaultConfigPath,
	}
}

// ConfigPatch changes selected fields of BotConfig; zero fields are kept
type ConfigPatch struct {
	Model       string `json:"model,omitempty"`
	Workspace   string `json:"workspace,omitempty"`
	GatewayPort int    `json:"gateway_port,omitempty"`
}

func (p ConfigPatch) apply(c BotConfig) BotConfig {
	if p.Model != "" {
		c.Model = p.Model
	}
	if p.Workspace != "" {
		c.Workspace = p.Workspace
	}
	if p.GatewayPort != 0 {
		c.GatewayPort = p.GatewayPort
		c.GatewayURL = GatewayURL(p.GatewayPort)
	}
	return c
}

// Progress is one install step
type Progress struct {
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

// Steps are the install stages in order
var Steps = []Progress{
	{10, "Checking system requirements..."},
	{20, "Downloading MoltBot..."},
	{40, "Installing dependencies..."},
	{60, "Setting up MoltBot..."},
	{75, "Installing daemon service..."},
	{85, "Configuring gateway..."},
	{95, "Running moltbot doctor..."},
	{100, "Installation complete!"},
}

// State is the status pushed to the menu bar and the setup wizard
type State struct {
	InstallStatus  InstallStatus `json:"install_status"`
	GatewayRunning bool          `json:"is_gateway_running"`
	Version        string        `json:"version,omitempty"`
	Model          string        `json:"model,omitempty"`
	Config         *BotConfig    `json:"config,omitempty"`
	Progress       *Progress     `json:"progress,omitempty"`
}

// Installed reports whether a configuration exists
func (s State) Installed() bool {
	return s.Config != nil
}

// Timing holds the simulated delays
type Timing struct {
	Check      time.Duration
	Step       time.Duration
	StepJitter time.Duration
	Configure  time.Duration
	Start      time.Duration
	Stop       time.Duration
	Connect    time.Duration
	ReplyMin   time.Duration
	ReplySpan  time.Duration
}

// DefaultTiming mirrors how long the real tool takes to feel responsive
func DefaultTiming() Timing {
	return Timing{
		Check:      500 * time.Millisecond,
		Step:       800 * time.Millisecond,
		StepJitter: 400 * time.Millisecond,
		Configure:  500 * time.Millisecond,
		Start:      time.Second,
		Stop:       500 * time.Millisecond,
		Connect:    time.Second,
		ReplyMin:   500 * time.Millisecond,
		ReplySpan:  time.Second,
	}
}
