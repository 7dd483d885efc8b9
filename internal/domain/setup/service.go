package setup

import (
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/MoltOS/backend/internal/infrastructure/logging"
)

// Status is what the frontend needs to decide whether to show the wizard
type Status struct {
	Completed  bool `json:"completed"`
	ShowWizard bool `json:"show_wizard"`
}

// Service tracks the wizard. Only completion is durable; wizard
// visibility resets to "show unless completed" on restart.
type Service struct {
	mu         sync.RWMutex
	completed  bool
	showWizard bool

	store  Store
	logger *logging.Logger
}

// NewService loads the persisted flag
func NewService(store Store, logger *logging.Logger) (*Service, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	doc, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Service{
		completed:  doc.SetupComplete,
		showWizard: !doc.SetupComplete,
		store:      store,
		logger:     logger,
	}, nil
}

// Status returns the current wizard status
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{Completed: s.completed, ShowWizard: s.showWizard}
}

// Complete marks setup as done and hides the wizard
func (s *Service) Complete() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(Document{SetupComplete: true}); err != nil {
		return Status{Completed: s.completed, ShowWizard: s.showWizard}, err
	}
	s.completed = true
	s.showWizard = false
	s.logger.Info("setup completed")
	return Status{Completed: true, ShowWizard: false}, nil
}

// Skip dismisses the wizard; skipping counts as completing
func (s *Service) Skip() (Status, error) {
	return s.Complete()
}

// SetShowWizard reopens or hides the wizard without touching completion
func (s *Service) SetShowWizard(show bool) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.showWizard = show
	s.logger.Debug("setup wizard visibility changed", zap.Bool("show", show))
	return Status{Completed: s.completed, ShowWizard: show}
}
