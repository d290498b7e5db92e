// Package state provides thread-safe state management for the application.
package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/litescript/ls-nightsky/internal/conditions"
	"github.com/litescript/ls-nightsky/internal/ephem"
)

// EventType represents the type of sky change event.
type EventType string

const (
	EventPlanetRose       EventType = "PLANET_ROSE"
	EventPlanetSet        EventType = "PLANET_SET"
	EventConditionChanged EventType = "CONDITION_CHANGED"
	EventPhaseChanged     EventType = "PHASE_CHANGED"
	EventLocationChanged  EventType = "LOCATION_CHANGED"
)

// Event represents a change between two consecutive reports.
type Event struct {
	Type      EventType  `json:"type"`
	Timestamp time.Time  `json:"timestamp"`
	Body      ephem.Body `json:"body,omitempty"`
	From      string     `json:"from,omitempty"`
	To        string     `json:"to,omitempty"`
}

// String describes the event for display.
func (e Event) String() string {
	switch e.Type {
	case EventPlanetRose:
		return fmt.Sprintf("%s rose above the horizon", e.Body)
	case EventPlanetSet:
		return fmt.Sprintf("%s set", e.Body)
	case EventConditionChanged:
		return fmt.Sprintf("Conditions %s → %s", e.From, e.To)
	case EventPhaseChanged:
		return fmt.Sprintf("Moon phase %s → %s", e.From, e.To)
	case EventLocationChanged:
		return fmt.Sprintf("Moved to %s", e.To)
	default:
		return string(e.Type)
	}
}

// HistoryEntry represents a single point in the history buffer.
type HistoryEntry struct {
	Timestamp time.Time
	Report    *conditions.Report
}

// TimeSeries is a single data point with timestamp.
type TimeSeries struct {
	Timestamp time.Time
	Value     float64
}

// Manager handles all shared application state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	// Current state
	current       *conditions.Report
	lastUpdate    time.Time
	lastError     error
	queryDuration time.Duration

	// History buffers
	history       []HistoryEntry
	maxHistoryLen int
	scoreHistory  []TimeSeries

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int

	// Configuration
	refreshInterval time.Duration
}

// Config holds configuration for the state manager.
type Config struct {
	MaxHistoryLen   int
	MaxEvents       int
	RefreshInterval time.Duration
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxHistoryLen:   120, // two hours at one report per minute
		MaxEvents:       50,
		RefreshInterval: time.Minute,
	}
}

// NewManager creates a new state manager.
func NewManager(cfg Config) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	maxHistory := cfg.MaxHistoryLen
	if maxHistory <= 0 {
		maxHistory = 1
	}
	return &Manager{
		maxHistoryLen:   maxHistory,
		maxEvents:       maxEvents,
		events:          make([]Event, 0, maxEvents),
		refreshInterval: cfg.RefreshInterval,
	}
}

// Update records the outcome of a report query. A failed query (nil
// report) only records the error and keeps the previous report. A report
// from an older engine generation than the current one is discarded and
// Update returns false.
func (m *Manager) Update(r *conditions.Report, queryDuration time.Duration, err error) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r != nil && m.current != nil && r.Generation < m.current.Generation {
		return false
	}

	m.lastUpdate = time.Now()
	m.lastError = err
	m.queryDuration = queryDuration

	if r == nil {
		return true
	}

	if m.current != nil && r.Generation != m.current.Generation {
		// New location: history from the old one no longer applies.
		m.history = nil
		m.scoreHistory = nil
		m.addEvent(Event{
			Type:      EventLocationChanged,
			Timestamp: r.Time,
			From:      m.current.Location.String(),
			To:        r.Location.String(),
		})
	} else if m.current != nil {
		m.detectEvents(m.current, r)
	}

	m.current = r

	m.history = append(m.history, HistoryEntry{Timestamp: r.Time, Report: r})
	if len(m.history) > m.maxHistoryLen {
		m.history = m.history[1:]
	}
	m.scoreHistory = append(m.scoreHistory, TimeSeries{Timestamp: r.Time, Value: r.Conditions.Score})
	if len(m.scoreHistory) > m.maxHistoryLen {
		m.scoreHistory = m.scoreHistory[1:]
	}
	return true
}

// detectEvents compares two reports for the same location.
func (m *Manager) detectEvents(prev, next *conditions.Report) {
	ts := next.Time

	wasVisible := make(map[ephem.Body]bool, len(prev.Planets.Planets))
	for _, p := range prev.Planets.Planets {
		wasVisible[p.Name] = true
	}
	isVisible := make(map[ephem.Body]bool, len(next.Planets.Planets))
	for _, p := range next.Planets.Planets {
		isVisible[p.Name] = true
		if !wasVisible[p.Name] {
			m.addEvent(Event{Type: EventPlanetRose, Timestamp: ts, Body: p.Name})
		}
	}
	// A planet whose geometry failed this time is not reported as set.
	failed := make(map[ephem.Body]bool, len(next.Planets.Warnings))
	for _, w := range next.Planets.Warnings {
		failed[w.Body] = true
	}
	for _, p := range prev.Planets.Planets {
		if !isVisible[p.Name] && !failed[p.Name] {
			m.addEvent(Event{Type: EventPlanetSet, Timestamp: ts, Body: p.Name})
		}
	}

	if prev.Conditions.Condition != next.Conditions.Condition {
		m.addEvent(Event{
			Type:      EventConditionChanged,
			Timestamp: ts,
			From:      prev.Conditions.Condition.String(),
			To:        next.Conditions.Condition.String(),
		})
	}
	if prev.Moon.Phase != next.Moon.Phase {
		m.addEvent(Event{
			Type:      EventPhaseChanged,
			Timestamp: ts,
			Body:      ephem.Moon,
			From:      prev.Moon.Phase.String(),
			To:        next.Moon.Phase.String(),
		})
	}
}

// addEvent adds an event to the ring buffer.
func (m *Manager) addEvent(e Event) {
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	Report        *conditions.Report
	LastUpdate    time.Time
	LastError     error
	QueryDuration time.Duration
	ScoreHistory  []TimeSeries
	Events        []Event
}

// Snapshot returns a consistent snapshot of current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	scores := make([]TimeSeries, len(m.scoreHistory))
	copy(scores, m.scoreHistory)

	return Snapshot{
		Report:        m.current,
		LastUpdate:    m.lastUpdate,
		LastError:     m.lastError,
		QueryDuration: m.queryDuration,
		ScoreHistory:  scores,
		Events:        m.getEventsOrdered(),
	}
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	// If buffer isn't full yet, just copy
	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		idx := (m.eventWriteAt + i) % m.maxEvents
		result[i] = m.events[idx]
	}
	return result
}

// RecentEvents returns the last n events.
func (m *Manager) RecentEvents(n int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.getEventsOrdered()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// History returns the retained reports, oldest first.
func (m *Manager) History() []HistoryEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]HistoryEntry, len(m.history))
	copy(out, m.history)
	return out
}

// ScoreTrend returns the score change per hour between the last two
// reports, zero with fewer than two.
func (m *Manager) ScoreTrend() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.scoreHistory)
	if n < 2 {
		return 0
	}
	p1 := m.scoreHistory[n-2]
	p2 := m.scoreHistory[n-1]

	hours := p2.Timestamp.Sub(p1.Timestamp).Hours()
	if hours <= 0 {
		return 0
	}
	return (p2.Value - p1.Value) / hours
}

// RefreshInterval returns the configured refresh interval.
func (m *Manager) RefreshInterval() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refreshInterval
}

// SetRefreshInterval updates the refresh interval.
func (m *Manager) SetRefreshInterval(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshInterval = d
}

// HasData returns true if at least one report succeeded.
func (m *Manager) HasData() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}
