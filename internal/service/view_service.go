package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/classdesk/classdesk-api/internal/dto"
	"github.com/classdesk/classdesk-api/internal/models"
	"github.com/classdesk/classdesk-api/internal/observability"
	"github.com/classdesk/classdesk-api/internal/progress"
)

// ErrAssignmentUnavailable indicates the assignment detail itself could not
// be fetched; unlike roster or progress failures this one is fatal to the
// view, because there is nothing to render around.
var ErrAssignmentUnavailable = errors.New("assignment unavailable")

// ErrStudentNotInRoster indicates the requested student is not part of the
// classroom roster backing the view.
var ErrStudentNotInRoster = errors.New("student not in roster")

// UpstreamReader is the read surface of the platform API the view resolver
// depends on.
type UpstreamReader interface {
	GetAssignment(ctx context.Context, id uint) (models.AssignmentDetail, error)
	ListRoster(ctx context.Context, classroomID uint) ([]models.Student, error)
	FetchProgress(ctx context.Context, assignmentID uint) ([]progress.RawRecord, error)
}

// AssignmentViewService resolves and serves the aggregated teacher view of
// an assignment.
type AssignmentViewService interface {
	GetView(ctx context.Context, classroomID, assignmentID uint) (dto.AssignmentViewResponse, error)
	GetStepper(ctx context.Context, classroomID, assignmentID, studentID uint) (dto.StepperResponse, error)
	Refresh(ctx context.Context, classroomID, assignmentID uint) (dto.AssignmentViewResponse, error)
	Invalidate(ctx context.Context, classroomID, assignmentID uint)
}

type assignmentViewService struct {
	upstream UpstreamReader
	store    *ViewStore
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewAssignmentViewService builds the view resolver. The cache client may
// be nil; resolution then always goes upstream.
func NewAssignmentViewService(reader UpstreamReader, store *ViewStore, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) AssignmentViewService {
	return &assignmentViewService{
		upstream: reader,
		store:    store,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "assignment_view_service").Logger(),
	}
}

func viewCacheKey(key viewKey) string {
	return fmt.Sprintf("view:classroom:%d:assignment:%d", key.classroomID, key.assignmentID)
}

func (s *assignmentViewService) GetView(ctx context.Context, classroomID, assignmentID uint) (dto.AssignmentViewResponse, error) {
	key := viewKey{classroomID: classroomID, assignmentID: assignmentID}

	if s.cache != nil {
		if _, loaded := s.store.get(key); loaded {
			if cached, err := s.cache.Get(ctx, viewCacheKey(key)).Result(); err == nil {
				var response dto.AssignmentViewResponse
				if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
					s.logger.Debug().Uint("assignment_id", assignmentID).Msg("view cache hit")
					return response, nil
				}
			} else if err != redis.Nil {
				s.logger.Warn().Err(err).Msg("failed to read view cache")
			}
		}
	}

	return s.resolve(ctx, key)
}

func (s *assignmentViewService) Refresh(ctx context.Context, classroomID, assignmentID uint) (dto.AssignmentViewResponse, error) {
	key := viewKey{classroomID: classroomID, assignmentID: assignmentID}
	s.Invalidate(ctx, classroomID, assignmentID)
	return s.resolve(ctx, key)
}

func (s *assignmentViewService) Invalidate(ctx context.Context, classroomID, assignmentID uint) {
	key := viewKey{classroomID: classroomID, assignmentID: assignmentID}
	if s.cache != nil {
		if err := s.cache.Del(ctx, viewCacheKey(key)).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to invalidate view cache")
		}
	}
}

func (s *assignmentViewService) GetStepper(ctx context.Context, classroomID, assignmentID, studentID uint) (dto.StepperResponse, error) {
	view, err := s.GetView(ctx, classroomID, assignmentID)
	if err != nil {
		return dto.StepperResponse{}, err
	}

	record, ok := findRecord(view.Progress, studentID)
	if !ok {
		return dto.StepperResponse{}, ErrStudentNotInRoster
	}

	return dto.StepperResponse{
		StudentID: studentID,
		Status:    string(record.Status),
		Steps:     progress.Steps(record),
	}, nil
}

// resolve runs the strictly ordered fetch sequence: assignment detail, then
// roster, then progress. The progress fetch is issued only once the roster
// is in hand, and a duplicate resolution for the same view is skipped in
// favour of the last resolved state.
func (s *assignmentViewService) resolve(ctx context.Context, key viewKey) (dto.AssignmentViewResponse, error) {
	tracer := otel.Tracer("github.com/classdesk/classdesk-api/internal/service/assignment_view")
	ctx, span := tracer.Start(ctx, "view.resolve")
	span.SetAttributes(
		attribute.Int64("view.classroom_id", int64(key.classroomID)),
		attribute.Int64("view.assignment_id", int64(key.assignmentID)),
	)
	defer span.End()

	if !s.store.beginFetch(key) {
		if state, ok := s.store.get(key); ok {
			s.logger.Debug().Uint("assignment_id", key.assignmentID).Msg("resolution in flight, serving last resolved state")
			return stateToResponse(state), nil
		}
		return dto.AssignmentViewResponse{}, ErrAssignmentUnavailable
	}
	defer s.store.endFetch(key)

	detail, err := s.upstream.GetAssignment(ctx, key.assignmentID)
	if err != nil {
		observability.UpstreamFailures().WithLabelValues("assignment").Inc()
		span.RecordError(err)
		return dto.AssignmentViewResponse{}, fmt.Errorf("%w: %v", ErrAssignmentUnavailable, err)
	}
	if detail.ClassroomID == 0 {
		detail.ClassroomID = key.classroomID
	}

	roster, err := s.upstream.ListRoster(ctx, key.classroomID)
	if err != nil {
		observability.UpstreamFailures().WithLabelValues("roster").Inc()
		s.logger.Warn().Err(err).Uint("classroom_id", key.classroomID).Msg("roster fetch failed, rendering empty roster")
		roster = nil
	}

	degraded := false
	raw, err := s.upstream.FetchProgress(ctx, key.assignmentID)
	if err != nil {
		observability.UpstreamFailures().WithLabelValues("progress").Inc()
		s.logger.Warn().Err(err).Uint("assignment_id", key.assignmentID).Msg("progress fetch failed, deriving from assignment metadata")
		raw = recordsFromMetadata(detail)
		degraded = true
	}

	resolved := progress.Merge(roster, raw, s.logger)
	stats := progress.ComputeStats(resolved)

	outcome := "ok"
	if degraded {
		outcome = "degraded"
	}
	observability.ProgressResolutions().WithLabelValues(outcome).Inc()

	state := &viewState{
		assignment: detail,
		progress:   resolved,
		stats:      stats,
		degraded:   degraded,
	}
	s.store.put(key, state)

	response := stateToResponse(state)
	s.storeCache(ctx, key, response)

	return response, nil
}

func (s *assignmentViewService) storeCache(ctx context.Context, key viewKey, response dto.AssignmentViewResponse) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, viewCacheKey(key), payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store view cache")
	}
}

// recordsFromMetadata synthesizes assigned-but-unknown records from the
// assignment's own assigned-student list, so a failed progress fetch still
// renders the roster truthfully: assigned students as NOT_STARTED, the rest
// as UNASSIGNED, and never a fabricated score or date.
func recordsFromMetadata(detail models.AssignmentDetail) []progress.RawRecord {
	assigned := true
	records := make([]progress.RawRecord, 0, len(detail.AssignedStudentIDs))
	for _, studentID := range detail.AssignedStudentIDs {
		records = append(records, progress.RawRecord{StudentID: studentID, IsAssigned: &assigned})
	}
	return records
}

func stateToResponse(state *viewState) dto.AssignmentViewResponse {
	return dto.AssignmentViewResponse{
		Assignment: state.assignment,
		Progress:   snapshotProgress(state.progress),
		Stats:      state.stats,
		Degraded:   state.degraded,
	}
}
