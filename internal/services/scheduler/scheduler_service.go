package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/inveniodev/invenio/internal/common"
	"github.com/inveniodev/invenio/internal/orchestrator"
)

// searchEntry represents a registered recurring search with metadata
type searchEntry struct {
	name      string
	schedule  string
	query     string
	city      string
	cronID    cron.EntryID
	lastRun   *time.Time
	lastError string
	isRunning bool
}

// SearchStatus is the externally visible state of a registered search.
type SearchStatus struct {
	Name      string
	Schedule  string
	Query     string
	LastRun   *time.Time
	NextRun   *time.Time
	IsRunning bool
	LastError string
}

// Service runs the configured recurring discovery searches on their cron
// schedules. Runs are serialized so concurrent schedules never hammer the
// providers at the same time.
type Service struct {
	orch     *orchestrator.Orchestrator
	cron     *cron.Cron
	logger   arbor.ILogger
	mu       sync.Mutex // Protects searches map
	globalMu sync.Mutex // Serializes search execution
	searches map[string]*searchEntry
	running  bool
}

// NewService creates a scheduler over the orchestrator.
func NewService(orch *orchestrator.Orchestrator, logger arbor.ILogger) *Service {
	return &Service{
		orch:     orch,
		cron:     cron.New(),
		logger:   logger,
		searches: make(map[string]*searchEntry),
	}
}

// RegisterSearch registers a recurring search with the scheduler
func (s *Service) RegisterSearch(cfg common.ScheduledSearch) error {
	if err := common.ValidateSchedule(cfg.Schedule); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.searches[cfg.Name]; exists {
		return fmt.Errorf("search %s already registered", cfg.Name)
	}

	entry := &searchEntry{
		name:     cfg.Name,
		schedule: cfg.Schedule,
		query:    cfg.Query,
		city:     cfg.City,
	}

	cronID, err := s.cron.AddFunc(cfg.Schedule, func() {
		s.executeSearch(cfg.Name)
	})
	if err != nil {
		return fmt.Errorf("failed to add search to cron: %w", err)
	}

	entry.cronID = cronID
	s.searches[cfg.Name] = entry

	s.logger.Info().
		Str("search_name", cfg.Name).
		Str("schedule", cfg.Schedule).
		Msg("Recurring search registered")

	return nil
}

// Start begins the scheduler
func (s *Service) Start() error {
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	s.cron.Start()
	s.running = true

	s.mu.Lock()
	count := len(s.searches)
	s.mu.Unlock()

	s.logger.Info().Int("search_count", count).Msg("Scheduler started")
	return nil
}

// Stop halts the scheduler, waiting for an in-flight run to finish.
func (s *Service) Stop() error {
	if !s.running {
		return nil
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.globalMu.Lock()
	s.globalMu.Unlock()

	s.running = false
	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// IsRunning returns true if scheduler is active
func (s *Service) IsRunning() bool {
	return s.running
}

// TriggerSearch manually triggers a registered search to run immediately
func (s *Service) TriggerSearch(name string) error {
	s.mu.Lock()
	entry, exists := s.searches[name]
	if !exists {
		s.mu.Unlock()
		return fmt.Errorf("search %s not found", name)
	}
	if entry.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("search %s is already running", name)
	}
	s.mu.Unlock()

	s.logger.Info().
		Str("search_name", name).
		Msg("Manually triggering search execution")

	go s.executeSearch(name)
	return nil
}

// GetSearchStatus returns the status of a specific registered search
func (s *Service) GetSearchStatus(name string) (*SearchStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.searches[name]
	if !exists {
		return nil, fmt.Errorf("search %s not found", name)
	}

	var nextRun *time.Time
	for _, cronEntry := range s.cron.Entries() {
		if cronEntry.ID == entry.cronID {
			next := cronEntry.Next
			nextRun = &next
			break
		}
	}

	return &SearchStatus{
		Name:      entry.name,
		Schedule:  entry.schedule,
		Query:     entry.query,
		LastRun:   entry.lastRun,
		NextRun:   nextRun,
		IsRunning: entry.isRunning,
		LastError: entry.lastError,
	}, nil
}

// executeSearch wraps a run with the global mutex, panic recovery, and
// status tracking
func (s *Service) executeSearch(name string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("search_name", name).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("PANIC RECOVERED in search execution")

			s.mu.Lock()
			if entry, exists := s.searches[name]; exists {
				entry.isRunning = false
				entry.lastError = fmt.Sprintf("panic: %v", r)
			}
			s.mu.Unlock()
		}
	}()

	s.globalMu.Lock()
	defer s.globalMu.Unlock()

	s.mu.Lock()
	entry, exists := s.searches[name]
	if !exists {
		s.mu.Unlock()
		s.logger.Warn().Str("search_name", name).Msg("Search not found")
		return
	}
	entry.isRunning = true
	query := entry.query
	city := entry.city
	s.mu.Unlock()

	started := time.Now()
	s.logger.Info().
		Str("search_name", name).
		Str("query", query).
		Msg("Scheduled search started")

	resp, err := s.orch.ExecuteEnhancedSearch(context.Background(), orchestrator.SearchRequest{
		Query: query,
		City:  city,
	})

	completionTime := time.Now()
	s.mu.Lock()
	entry.isRunning = false
	entry.lastRun = &completionTime
	if err != nil {
		entry.lastError = err.Error()
	} else {
		entry.lastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().
			Str("search_name", name).
			Err(err).
			Dur("duration", time.Since(started)).
			Msg("Scheduled search failed")
		return
	}

	s.logger.Info().
		Str("search_name", name).
		Str("run_id", resp.RunID).
		Int("admitted", len(resp.Events)).
		Dur("duration", time.Since(started)).
		Msg("Scheduled search completed")
}
