package ui

import (
	"sync"
	"time"
)

// ProgressTracker holds the state shown by the TUI.
// It is safe for concurrent use.
type ProgressTracker struct {
	mu         sync.RWMutex
	stage      Stage
	current    int
	total      int
	checkID    string
	startTime  time.Time
	stageStart time.Time
}

// ProgressStats contains a snapshot of current progress.
type ProgressStats struct {
	Stage    Stage
	Current  int
	Total    int
	Progress float64
	CheckID  string
	Elapsed  time.Duration
}

// NewProgressTracker creates a new progress tracker.
func NewProgressTracker() *ProgressTracker {
	now := time.Now()
	return &ProgressTracker{
		stage:      StagePreconditions,
		startTime:  now,
		stageStart: now,
	}
}

// Update records a progress event, switching stage when it changes.
func (p *ProgressTracker) Update(event ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if event.Stage != p.stage {
		p.stage = event.Stage
		p.stageStart = time.Now()
	}
	p.current = event.Current
	p.total = event.Total
	p.checkID = event.CheckID
}

// Stats returns a snapshot.
func (p *ProgressTracker) Stats() ProgressStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var progress float64
	if p.total > 0 {
		progress = float64(p.current) / float64(p.total)
		if progress > 1 {
			progress = 1
		}
	}

	return ProgressStats{
		Stage:    p.stage,
		Current:  p.current,
		Total:    p.total,
		Progress: progress,
		CheckID:  p.checkID,
		Elapsed:  time.Since(p.startTime),
	}
}
