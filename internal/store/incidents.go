// Package store holds the authoritative in-memory incident list.
package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"incident-board/internal/generator"
	"incident-board/internal/models"

	"github.com/google/uuid"
)

// ErrInvalidIncidentID 表示 addIncident 的标识符不符合约束
var ErrInvalidIncidentID = errors.New("invalid incident id")

// IncidentStore is the single source of truth for incidents.
// All mutation entry points are mutex-guarded; callers get deep copies,
// so a broadcast never observes a partially mutated incident.
type IncidentStore struct {
	mu          sync.RWMutex
	incidents   []models.Incident
	gen         *generator.Generator
	maxReadings int
}

func NewIncidentStore(gen *generator.Generator, maxReadings int) *IncidentStore {
	if maxReadings <= 0 {
		maxReadings = models.MaxReadings
	}
	return &IncidentStore{
		incidents:   []models.Incident{},
		gen:         gen,
		maxReadings: maxReadings,
	}
}

// Add validates the identifier, seeds one reading when the incident carries
// none, and prepends it to the list. Returns the stored copy for broadcast.
func (s *IncidentStore) Add(inc models.Incident) (models.Incident, error) {
	if !models.ValidIncidentID(inc.IncidentID) {
		return models.Incident{}, fmt.Errorf("%w: %q", ErrInvalidIncidentID, inc.IncidentID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := inc.Clone()
	now := time.Now()
	if stored.CreatedAt == "" {
		stored.CreatedAt = now.UTC().Format(time.RFC3339)
	}
	if len(stored.Readings) == 0 {
		stored.Readings = []models.Reading{s.gen.Next(nil, now)}
	}

	// add 不去重：与 upsert 语义区分，由前端保证不重复 add
	s.incidents = append([]models.Incident{stored}, s.incidents...)
	return stored.Clone(), nil
}

// Upsert replaces the incident with a matching id in place, or prepends it
// when no match exists. It never fails: an update for an unknown id inserts
// a fresh incident without id-pattern validation (accepted tradeoff, see
// the ambiguity note in the store tests).
func (s *IncidentStore) Upsert(inc models.Incident) models.Incident {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := inc.Clone()
	stored.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	for i := range s.incidents {
		if s.incidents[i].IncidentID == stored.IncidentID {
			// createdAt 创建后不可变：保留原值
			stored.CreatedAt = s.incidents[i].CreatedAt
			s.incidents[i] = stored
			return stored.Clone()
		}
	}

	if stored.CreatedAt == "" {
		stored.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	s.incidents = append([]models.Incident{stored}, s.incidents...)
	return stored.Clone()
}

// AdvanceReadings generates one reading per incident from its last one,
// appends it and truncates history to maxReadings. Returns copies of every
// mutated incident for broadcast.
func (s *IncidentStore) AdvanceReadings(now time.Time) []models.Incident {
	s.mu.Lock()
	defer s.mu.Unlock()

	mutated := make([]models.Incident, 0, len(s.incidents))
	for i := range s.incidents {
		var prev *models.Reading
		if n := len(s.incidents[i].Readings); n > 0 {
			prev = &s.incidents[i].Readings[n-1]
		}
		next := s.gen.Next(prev, now)
		s.incidents[i].Readings = truncateFront(append(s.incidents[i].Readings, next), s.maxReadings)
		mutated = append(mutated, s.incidents[i].Clone())
	}
	return mutated
}

// AppendReading appends an externally sourced reading (MQTT ingest) to the
// incident with the given id. The second return is false when the id is
// unknown; no incident is created for stray device data.
func (s *IncidentStore) AppendReading(incidentID string, r models.Reading) (models.Incident, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.incidents {
		if s.incidents[i].IncidentID == incidentID {
			s.incidents[i].Readings = truncateFront(append(s.incidents[i].Readings, r), s.maxReadings)
			return s.incidents[i].Clone(), true
		}
	}
	return models.Incident{}, false
}

// Snapshot returns a deep copy of the full list, newest first.
func (s *IncidentStore) Snapshot() []models.Incident {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Incident, 0, len(s.incidents))
	for i := range s.incidents {
		out = append(out, s.incidents[i].Clone())
	}
	return out
}

// Len returns the current incident count.
func (s *IncidentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.incidents)
}

// Seed populates the store with n demo incidents referencing real catalog
// ids, each carrying a full reading history.
func (s *IncidentStore) Seed(catalog models.Catalog, n int) {
	now := time.Now()
	catalog = catalog.Normalize()

	for i := 0; i < n; i++ {
		inc := models.Incident{
			IncidentID:        fmt.Sprintf("seed-%s", uuid.NewString()[:8]),
			Priority:          1 + i%5,
			CreatedAt:         now.UTC().Format(time.RFC3339),
			StateID:           models.StateOpen,
			IncidentTypeIDs:   []string{},
			AssignedTo:        nil,
			EscalationLevelID: pickID(catalog.EscalationLevels, i),
			SiteID:            pickID(catalog.Sites, i),
			AssetID:           pickID(catalog.Assets, i),
			AlarmID:           pickID(catalog.Alarms, i),
		}
		if len(catalog.IncidentTypes) > 0 {
			inc.IncidentTypeIDs = []string{catalog.IncidentTypes[i%len(catalog.IncidentTypes)].ID}
		}

		readings := make([]models.Reading, 0, s.maxReadings)
		var prev *models.Reading
		for j := 0; j < s.maxReadings; j++ {
			ts := now.Add(-time.Duration(s.maxReadings-j) * time.Minute)
			next := s.gen.Next(prev, ts)
			readings = append(readings, next)
			prev = &readings[len(readings)-1]
		}
		inc.Readings = readings

		s.mu.Lock()
		s.incidents = append([]models.Incident{inc}, s.incidents...)
		s.mu.Unlock()
	}
}

func pickID(entries []models.CatalogEntry, i int) string {
	if len(entries) == 0 {
		return ""
	}
	return entries[i%len(entries)].ID
}

func truncateFront(readings []models.Reading, max int) []models.Reading {
	if len(readings) <= max {
		return readings
	}
	return readings[len(readings)-max:]
}
