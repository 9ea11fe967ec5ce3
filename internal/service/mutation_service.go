package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/classdesk/classdesk-api/internal/dto"
	"github.com/classdesk/classdesk-api/internal/models"
	"github.com/classdesk/classdesk-api/internal/observability"
	"github.com/classdesk/classdesk-api/internal/progress"
	"github.com/classdesk/classdesk-api/internal/upstream"
)

// ErrViewNotLoaded indicates a mutation arrived before the assignment view
// was ever resolved, so there is no local state to mutate optimistically.
var ErrViewNotLoaded = errors.New("assignment view not loaded")

// ErrWorkAlreadyRecorded blocks unassigning a student whose record already
// carries submitted or graded work. The block is decided locally, before
// any upstream request is issued.
var ErrWorkAlreadyRecorded = errors.New("student has recorded work")

// ErrConfirmationRequired indicates the unassign would discard an
// in-progress attempt and the caller has not confirmed that.
var ErrConfirmationRequired = errors.New("confirmation required for in-progress work")

// UpstreamRosterWriter is the mutation surface of the platform API used for
// roster membership changes.
type UpstreamRosterWriter interface {
	AssignStudent(ctx context.Context, assignmentID, studentID uint) error
	UnassignStudent(ctx context.Context, assignmentID, studentID uint) error
}

// RosterMutationService applies assignment roster changes optimistically:
// the local view updates first, the upstream request follows, and a failed
// request restores the exact prior state.
type RosterMutationService interface {
	Assign(ctx context.Context, actor ActivityActor, classroomID, assignmentID, studentID uint) (dto.AssignmentViewResponse, error)
	Unassign(ctx context.Context, actor ActivityActor, classroomID, assignmentID, studentID uint, confirmed bool) (dto.AssignmentViewResponse, error)
}

type rosterMutationService struct {
	upstream UpstreamRosterWriter
	store    *ViewStore
	views    AssignmentViewService
	activity ActivityRecorder
	events   EventService
	logger   zerolog.Logger
}

// NewRosterMutationService builds the roster mutation service. It shares
// the view store with the resolver so optimistic updates and resolution
// operate on the same state.
func NewRosterMutationService(writer UpstreamRosterWriter, store *ViewStore, views AssignmentViewService, activity ActivityRecorder, events EventService, logger zerolog.Logger) RosterMutationService {
	return &rosterMutationService{
		upstream: writer,
		store:    store,
		views:    views,
		activity: activity,
		events:   events,
		logger:   logger.With().Str("component", "roster_mutation_service").Logger(),
	}
}

func (s *rosterMutationService) Assign(ctx context.Context, actor ActivityActor, classroomID, assignmentID, studentID uint) (dto.AssignmentViewResponse, error) {
	tracer := otel.Tracer("github.com/classdesk/classdesk-api/internal/service/roster_mutation")
	ctx, span := tracer.Start(ctx, "roster.assign")
	span.SetAttributes(
		attribute.Int64("assignment.id", int64(assignmentID)),
		attribute.Int64("student.id", int64(studentID)),
	)
	defer span.End()

	key := viewKey{classroomID: classroomID, assignmentID: assignmentID}
	state, ok := s.store.get(key)
	if !ok {
		return dto.AssignmentViewResponse{}, ErrViewNotLoaded
	}

	record, found := findRecord(state.progress, studentID)
	if !found {
		return dto.AssignmentViewResponse{}, ErrStudentNotInRoster
	}
	if record.IsAssigned {
		// Already assigned: nothing to change locally or upstream.
		return stateToResponse(state), nil
	}

	snapshot := snapshotProgress(state.progress)
	priorStats := state.stats

	next := applyAssign(state.progress, studentID)
	s.store.updateProgress(key, next, progress.ComputeStats(next))

	if err := s.upstream.AssignStudent(ctx, assignmentID, studentID); err != nil {
		s.rollback(ctx, key, snapshot, priorStats, "assign")
		s.record(ctx, actor, "assign_student", assignmentID, studentID, models.ActivityOutcomeRolledBack, err)
		span.RecordError(err)
		return dto.AssignmentViewResponse{}, err
	}

	// The cached response predates the mutation; drop it so the next read
	// reconciles against the upstream instead of serving the stale view.
	s.views.Invalidate(ctx, classroomID, assignmentID)
	s.record(ctx, actor, "assign_student", assignmentID, studentID, models.ActivityOutcomeApplied, nil)
	s.publishInvalidated(ctx, classroomID, assignmentID)

	state, _ = s.store.get(key)
	return stateToResponse(state), nil
}

func (s *rosterMutationService) Unassign(ctx context.Context, actor ActivityActor, classroomID, assignmentID, studentID uint, confirmed bool) (dto.AssignmentViewResponse, error) {
	tracer := otel.Tracer("github.com/classdesk/classdesk-api/internal/service/roster_mutation")
	ctx, span := tracer.Start(ctx, "roster.unassign")
	span.SetAttributes(
		attribute.Int64("assignment.id", int64(assignmentID)),
		attribute.Int64("student.id", int64(studentID)),
	)
	defer span.End()

	key := viewKey{classroomID: classroomID, assignmentID: assignmentID}
	state, ok := s.store.get(key)
	if !ok {
		return dto.AssignmentViewResponse{}, ErrViewNotLoaded
	}

	record, found := findRecord(state.progress, studentID)
	if !found {
		return dto.AssignmentViewResponse{}, ErrStudentNotInRoster
	}
	if !record.IsAssigned {
		return stateToResponse(state), nil
	}

	// Both guards are decided against local state; a blocked unassign never
	// reaches the upstream API and never changes the view.
	if record.Status.HasRecordedWork() {
		s.record(ctx, actor, "unassign_student", assignmentID, studentID, models.ActivityOutcomeBlocked, ErrWorkAlreadyRecorded)
		return dto.AssignmentViewResponse{}, ErrWorkAlreadyRecorded
	}
	if record.Status == models.StatusInProgress && !confirmed {
		s.record(ctx, actor, "unassign_student", assignmentID, studentID, models.ActivityOutcomeBlocked, ErrConfirmationRequired)
		return dto.AssignmentViewResponse{}, ErrConfirmationRequired
	}

	snapshot := snapshotProgress(state.progress)
	priorStats := state.stats

	next := applyUnassign(state.progress, studentID)
	s.store.updateProgress(key, next, progress.ComputeStats(next))

	if err := s.upstream.UnassignStudent(ctx, assignmentID, studentID); err != nil {
		s.rollback(ctx, key, snapshot, priorStats, "unassign")
		s.record(ctx, actor, "unassign_student", assignmentID, studentID, models.ActivityOutcomeRolledBack, err)
		span.RecordError(err)
		return dto.AssignmentViewResponse{}, err
	}

	s.views.Invalidate(ctx, classroomID, assignmentID)
	s.record(ctx, actor, "unassign_student", assignmentID, studentID, models.ActivityOutcomeApplied, nil)
	s.publishInvalidated(ctx, classroomID, assignmentID)

	state, _ = s.store.get(key)
	return stateToResponse(state), nil
}

func (s *rosterMutationService) rollback(ctx context.Context, key viewKey, snapshot []models.StudentProgress, stats models.AggregateStats, operation string) {
	s.store.updateProgress(key, snapshot, stats)
	observability.OptimisticRollbacks().WithLabelValues(operation).Inc()
	s.views.Invalidate(ctx, key.classroomID, key.assignmentID)
	s.logger.Warn().
		Uint("assignment_id", key.assignmentID).
		Str("operation", operation).
		Msg("upstream mutation failed, local state restored")
}

func (s *rosterMutationService) record(ctx context.Context, actor ActivityActor, action string, assignmentID, studentID uint, outcome string, cause error) {
	if s.activity == nil {
		return
	}

	metadata := map[string]interface{}{
		"student_id": studentID,
	}
	if cause != nil {
		metadata["reason"] = cause.Error()
		var protected *upstream.ProtectedError
		if errors.As(cause, &protected) {
			metadata["protected"] = protected.Reasons
		}
	}

	entityID := assignmentID
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "assignment",
		EntityID:   &entityID,
		Outcome:    outcome,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record activity entry")
	}
}

func (s *rosterMutationService) publishInvalidated(ctx context.Context, classroomID, assignmentID uint) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, dto.Event{
		Type: dto.EventProgressInvalidated,
		Payload: map[string]interface{}{
			"classroom_id":  classroomID,
			"assignment_id": assignmentID,
		},
	})
}
