package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/classdesk/classdesk-api/internal/dto"
	"github.com/classdesk/classdesk-api/internal/models"
	"github.com/classdesk/classdesk-api/internal/observability"
)

// ErrIndexOutOfRange indicates a reorder request referenced a position
// outside the loaded content list.
var ErrIndexOutOfRange = errors.New("content index out of range")

// UpstreamContentAPI is the content surface of the platform API.
type UpstreamContentAPI interface {
	ListContents(ctx context.Context, assignmentID uint) ([]models.ContentItem, error)
	ReorderContents(ctx context.Context, assignmentID uint, orderedIDs []uint) error
}

// ContentService lists assignment contents and applies drag-reorder moves
// optimistically, restoring the exact pre-drag order when the upstream
// rejects the new one.
type ContentService interface {
	List(ctx context.Context, assignmentID uint) ([]models.ContentItem, error)
	Reorder(ctx context.Context, actor ActivityActor, assignmentID uint, fromIndex, toIndex int) ([]models.ContentItem, error)
}

type contentService struct {
	upstream UpstreamContentAPI
	activity ActivityRecorder
	events   EventService
	logger   zerolog.Logger

	mu     sync.Mutex
	loaded map[uint][]models.ContentItem
}

// NewContentService builds the content ordering service.
func NewContentService(api UpstreamContentAPI, activity ActivityRecorder, events EventService, logger zerolog.Logger) ContentService {
	return &contentService{
		upstream: api,
		activity: activity,
		events:   events,
		logger:   logger.With().Str("component", "content_service").Logger(),
		loaded:   make(map[uint][]models.ContentItem),
	}
}

func (s *contentService) List(ctx context.Context, assignmentID uint) ([]models.ContentItem, error) {
	items, err := s.upstream.ListContents(ctx, assignmentID)
	if err != nil {
		observability.UpstreamFailures().WithLabelValues("contents").Inc()
		return nil, err
	}

	s.mu.Lock()
	s.loaded[assignmentID] = snapshotContents(items)
	s.mu.Unlock()

	return items, nil
}

func (s *contentService) Reorder(ctx context.Context, actor ActivityActor, assignmentID uint, fromIndex, toIndex int) ([]models.ContentItem, error) {
	s.mu.Lock()
	current, ok := s.loaded[assignmentID]
	s.mu.Unlock()
	if !ok {
		refreshed, err := s.List(ctx, assignmentID)
		if err != nil {
			return nil, err
		}
		current = refreshed
	}

	if fromIndex < 0 || fromIndex >= len(current) || toIndex < 0 || toIndex >= len(current) {
		return nil, ErrIndexOutOfRange
	}
	if fromIndex == toIndex {
		return snapshotContents(current), nil
	}

	snapshot := snapshotContents(current)
	next := moveContent(current, fromIndex, toIndex)

	s.mu.Lock()
	s.loaded[assignmentID] = next
	s.mu.Unlock()

	orderedIDs := make([]uint, len(next))
	for i, item := range next {
		orderedIDs[i] = item.ID
	}

	if err := s.upstream.ReorderContents(ctx, assignmentID, orderedIDs); err != nil {
		// Restore the exact pre-drag order, not a re-derived one.
		s.mu.Lock()
		s.loaded[assignmentID] = snapshot
		s.mu.Unlock()
		observability.OptimisticRollbacks().WithLabelValues("reorder").Inc()
		s.recordReorder(ctx, actor, assignmentID, fromIndex, toIndex, models.ActivityOutcomeRolledBack, err)
		s.logger.Warn().Err(err).Uint("assignment_id", assignmentID).Msg("reorder rejected upstream, order restored")
		return nil, err
	}

	s.recordReorder(ctx, actor, assignmentID, fromIndex, toIndex, models.ActivityOutcomeApplied, nil)
	if s.events != nil {
		s.events.Publish(ctx, dto.Event{
			Type: dto.EventContentReordered,
			Payload: map[string]interface{}{
				"assignment_id": assignmentID,
			},
		})
	}

	return snapshotContents(next), nil
}

func (s *contentService) recordReorder(ctx context.Context, actor ActivityActor, assignmentID uint, fromIndex, toIndex int, outcome string, cause error) {
	if s.activity == nil {
		return
	}

	metadata := map[string]interface{}{
		"from_index": fromIndex,
		"to_index":   toIndex,
	}
	if cause != nil {
		metadata["reason"] = cause.Error()
	}

	entityID := assignmentID
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "reorder_contents",
		EntityType: "assignment",
		EntityID:   &entityID,
		Outcome:    outcome,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record activity entry")
	}
}

func snapshotContents(items []models.ContentItem) []models.ContentItem {
	if items == nil {
		return nil
	}
	copied := make([]models.ContentItem, len(items))
	copy(copied, items)
	return copied
}

// moveContent removes the item at fromIndex and reinserts it at toIndex,
// renumbering positions so they stay dense. The input is not mutated.
func moveContent(items []models.ContentItem, fromIndex, toIndex int) []models.ContentItem {
	next := snapshotContents(items)
	moved := next[fromIndex]
	next = append(next[:fromIndex], next[fromIndex+1:]...)

	tail := make([]models.ContentItem, 0, len(items))
	tail = append(tail, next[:toIndex]...)
	tail = append(tail, moved)
	tail = append(tail, next[toIndex:]...)

	for i := range tail {
		tail[i].Position = i
	}
	return tail
}
