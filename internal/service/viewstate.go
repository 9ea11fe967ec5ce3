package service

import (
	"sync"

	"github.com/classdesk/classdesk-api/internal/models"
)

// viewKey identifies one loaded assignment view.
type viewKey struct {
	classroomID  uint
	assignmentID uint
}

// viewState is the in-memory resolved state for one assignment view. Each
// view owns its own copy; nothing is shared across views, so no
// finer-grained locking is needed than the store mutex.
type viewState struct {
	assignment models.AssignmentDetail
	progress   []models.StudentProgress
	stats      models.AggregateStats
	degraded   bool
}

// ViewStore holds resolved views and the per-view in-flight fetch guard. A
// duplicate resolution request while one is running is skipped, not
// cancelled, so two fetches never race writes to the same state. The store
// is shared between the view resolver and the mutation service so
// optimistic updates operate on the same state the resolver last produced.
type ViewStore struct {
	mu       sync.RWMutex
	views    map[viewKey]*viewState
	inFlight map[viewKey]bool
}

// NewViewStore constructs an empty view state store.
func NewViewStore() *ViewStore {
	return &ViewStore{
		views:    make(map[viewKey]*viewState),
		inFlight: make(map[viewKey]bool),
	}
}

// beginFetch marks a resolution as in flight. It reports false when another
// resolution for the same view is already running.
func (s *ViewStore) beginFetch(key viewKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[key] {
		return false
	}
	s.inFlight[key] = true
	return true
}

func (s *ViewStore) endFetch(key viewKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, key)
}

func (s *ViewStore) get(key viewKey) (*viewState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.views[key]
	return state, ok
}

func (s *ViewStore) put(key viewKey, state *viewState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[key] = state
}

func (s *ViewStore) drop(key viewKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.views, key)
}

// updateProgress swaps the progress collection of a loaded view and
// recomputes nothing; callers recompute stats explicitly so the swap and
// the recompute stay a single locked operation.
func (s *ViewStore) updateProgress(key viewKey, records []models.StudentProgress, stats models.AggregateStats) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.views[key]
	if !ok {
		return false
	}
	state.progress = records
	state.stats = stats
	return true
}

// snapshotProgress deep-copies a progress collection so a failed optimistic
// mutation can restore the exact prior state. Record structs are copied by
// value; pointer fields are safe to share because mutations replace whole
// records instead of writing through pointers.
func snapshotProgress(records []models.StudentProgress) []models.StudentProgress {
	if records == nil {
		return nil
	}
	copied := make([]models.StudentProgress, len(records))
	copy(copied, records)
	return copied
}

// applyAssign returns a new collection with the student transitioned to an
// assigned, not-started record. The input is not mutated.
func applyAssign(records []models.StudentProgress, studentID uint) []models.StudentProgress {
	next := snapshotProgress(records)
	for i := range next {
		if next[i].StudentID == studentID {
			next[i].Status = models.StatusNotStarted
			next[i].IsAssigned = true
			next[i].Score = nil
			next[i].SubmissionDate = nil
			next[i].Attempts = 0
			next[i].LastActivity = nil
			next[i].Timestamps = nil
		}
	}
	return next
}

// applyUnassign returns a new collection with the student reverted to the
// synthetic unassigned record. The input is not mutated.
func applyUnassign(records []models.StudentProgress, studentID uint) []models.StudentProgress {
	next := snapshotProgress(records)
	for i := range next {
		if next[i].StudentID == studentID {
			next[i].Status = models.StatusUnassigned
			next[i].IsAssigned = false
			next[i].Score = nil
			next[i].SubmissionDate = nil
			next[i].Attempts = 0
			next[i].LastActivity = nil
			next[i].Timestamps = nil
		}
	}
	return next
}

// findRecord locates one student's record in a collection.
func findRecord(records []models.StudentProgress, studentID uint) (models.StudentProgress, bool) {
	for _, record := range records {
		if record.StudentID == studentID {
			return record, true
		}
	}
	return models.StudentProgress{}, false
}
