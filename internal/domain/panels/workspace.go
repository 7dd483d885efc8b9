package panels

import (
	"math/rand/v2"
	"time"
)

// Options tunes a workspace
type Options struct {
	ChatReplyMin time.Duration
	ChatReplyMax time.Duration
	Status       StatusSource
	Now          func() time.Time
	// Seed for the per-panel random sources; zero picks one from the clock
	RandSeed uint64
}

// Workspace is the panel state of one desktop session
type Workspace struct {
	Chat     *Chat
	Terminal *Terminal
	Skills   *Catalog[Skill]
	Store    *Catalog[StoreItem]
	Files    *Files
	Calendar *Calendar
	Mail     *Mailbox
	Agents   *Agents
	Settings *Settings
	Monitor  *Monitor
}

// NewWorkspace builds every panel from seed
func NewWorkspace(seed *Seed, opts Options) (*Workspace, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	now := opts.Now()
	s := opts.RandSeed
	if s == 0 {
		s = uint64(now.UnixNano())
	}
	newRand := func(stream uint64) *rand.Rand { return rand.New(rand.NewPCG(s, stream)) }

	files, err := NewFiles(seed.Files, now)
	if err != nil {
		return nil, err
	}

	w := &Workspace{
		Chat:     NewChat(seed.ChatReplies, opts.ChatReplyMin, opts.ChatReplyMax, newRand(1)),
		Skills:   NewSkills(seed.Skills),
		Store:    NewStore(seed.Store),
		Files:    files,
		Calendar: NewCalendar(seed.Calendar, seed.Palette, now, newRand(2)),
		Mail:     NewMailbox(seed.Mail, now),
		Agents:   NewAgents(seed.Agents, opts.Now),
		Settings: NewSettings(),
	}

	env := TerminalEnv{
		Skills: w.Skills.List,
		Agents: w.Agents.List,
		Now:    opts.Now,
	}
	if opts.Status != nil {
		env.Status = opts.Status.Current
		w.Monitor = NewMonitor(opts.Status)
	}
	w.Terminal = NewTerminal(env, seed.Fortunes, newRand(3))
	return w, nil
}

// Close releases timers held by the panels
func (w *Workspace) Close() {
	w.Chat.Close()
}
