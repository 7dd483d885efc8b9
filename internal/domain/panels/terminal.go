package panels

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/MoltOS/backend/internal/services/status"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/utils"
)

const (
	Prompt        = "moltbot@moltos ~ % "
	terminalTitle = "Welcome to MoltOS Terminal v1.0"
)

// TerminalEnv supplies the live data some commands print
type TerminalEnv struct {
	Status func() status.Status
	Skills func() []Skill
	Agents func() []Agent
	Now    func() time.Time
}

// Terminal is the command table shell
type Terminal struct {
	mu       sync.Mutex
	history  []string
	output   []string
	env      TerminalEnv
	fortunes []string
	rng      *rand.Rand
}

// NewTerminal creates a terminal showing the welcome banner
func NewTerminal(env TerminalEnv, fortunes []string, rng *rand.Rand) *Terminal {
	if env.Now == nil {
		env.Now = time.Now
	}
	return &Terminal{
		output:   []string{terminalTitle, `Type "help" for available commands.`, ""},
		env:      env,
		fortunes: fortunes,
		rng:      rng,
	}
}

// Execute runs one command line and returns the lines it printed.
// "clear" empties the output buffer. Unknown commands print an error
// line; they never fail.
func (t *Terminal) Execute(command string) ([]string, error) {
	if err := utils.ValidateCommand(command); err != nil {
		return nil, err
	}
	cmd := strings.ToLower(strings.TrimSpace(command))

	t.mu.Lock()
	defer t.mu.Unlock()

	t.history = append(t.history, command)
	if cmd == "clear" {
		t.output = nil
		return nil, nil
	}

	lines := t.run(cmd, command)
	t.output = append(t.output, Prompt+command)
	t.output = append(t.output, lines...)
	return lines, nil
}

// run must hold lock
func (t *Terminal) run(cmd, raw string) []string {
	switch cmd {
	case "help":
		return []string{
			"Available commands:",
			"  help     - Show this help message",
			"  clear    - Clear terminal output",
			"  status   - Show system status",
			"  skills   - List installed skills",
			"  agents   - List active agents",
			"  whoami   - Display current user",
			"  date     - Show current date and time",
			"  cowsay   - Fun cow ASCII art",
			"  matrix   - Enter the matrix",
			"  fortune  - Get a random fortune",
			"",
		}
	case "status":
		st := status.Initial()
		if t.env.Status != nil {
			st = t.env.Status()
		}
		return []string{
			"┌─────────────────────────────────┐",
			"│     MoltOS System Status        │",
			"├─────────────────────────────────┤",
			fmt.Sprintf("│  CPU:      %3d%%                 │", st.CPU),
			fmt.Sprintf("│  Memory:   %3d%%                 │", st.Memory),
			fmt.Sprintf("│  Disk:     %3d%%                 │", st.Disk),
			fmt.Sprintf("│  Clawdbot: %-20s │", st.Gateway),
			"└─────────────────────────────────┘",
			"",
		}
	case "skills":
		lines := []string{"Installed Skills:"}
		if t.env.Skills != nil {
			for _, s := range t.env.Skills() {
				if s.Installed {
					lines = append(lines, fmt.Sprintf("  %s %s", s.Icon, s.Name))
				}
			}
		}
		return append(lines, "")
	case "agents":
		lines := []string{"Active Agents:"}
		if t.env.Agents != nil {
			for _, a := range t.env.Agents() {
				lines = append(lines, fmt.Sprintf("  [%s] %s (%s)", a.Status.Glyph(), a.Name, a.Type))
			}
		}
		return append(lines, "")
	case "whoami":
		return []string{"moltbot@moltos", ""}
	case "date":
		return []string{t.env.Now().Format("1/2/2006, 3:04:05 PM"), ""}
	case "cowsay":
		return []string{
			" _________________",
			"< Moo! I'm Clawdbot! >",
			" -----------------",
			`        \   ^__^`,
			`         \  (oo)\_______`,
			`            (__)\       )\/\`,
			"                ||----w |",
			"                ||     ||",
			"",
		}
	case "matrix":
		return []string{
			"01001101 01001111 01001100 01010100 01001111 01010011",
			"Wake up, Neo...",
			"The Matrix has you...",
			"Follow the white rabbit.",
			"",
		}
	case "fortune":
		if len(t.fortunes) == 0 {
			return []string{""}
		}
		return []string{"🔮 " + t.fortunes[t.rng.IntN(len(t.fortunes))], ""}
	}
	return []string{"Command not found: " + raw, `Type "help" for available commands.`, ""}
}

// Output returns the visible output buffer
func (t *Terminal) Output() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.output...)
}

// History returns every command entered, oldest first
func (t *Terminal) History() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.history...)
}

// Clear empties the output buffer without recording history
func (t *Terminal) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.output = nil
}
