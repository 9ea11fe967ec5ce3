package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/classdesk/classdesk-api/internal/dto"
	"github.com/classdesk/classdesk-api/internal/models"
	"github.com/classdesk/classdesk-api/internal/observability"
	"github.com/classdesk/classdesk-api/internal/upstream"
	"github.com/classdesk/classdesk-api/pkg/ai"
)

// UpstreamReviewAPI is the grading surface of the platform API.
type UpstreamReviewAPI interface {
	SubmitReview(ctx context.Context, assignmentID, studentID uint, score *float64, feedback string) error
	FetchSpeechScore(ctx context.Context, assignmentID, studentID uint) (upstream.SpeechScore, error)
}

// ReviewService records a teacher's grade and feedback for one submission
// and optionally digests the speech-scoring result into review notes.
type ReviewService interface {
	Review(ctx context.Context, actor ActivityActor, classroomID, assignmentID, studentID uint, req dto.ReviewRequest) (dto.ReviewResponse, error)
}

type reviewService struct {
	upstream   UpstreamReviewAPI
	views      AssignmentViewService
	activity   ActivityRecorder
	summarizer ai.Summarizer
	validate   *validator.Validate
	sanitizer  *bluemonday.Policy
	logger     zerolog.Logger
}

// NewReviewService builds the review service. The summarizer may be nil;
// AI summaries are then skipped silently.
func NewReviewService(api UpstreamReviewAPI, views AssignmentViewService, activity ActivityRecorder, summarizer ai.Summarizer, logger zerolog.Logger) ReviewService {
	return &reviewService{
		upstream:   api,
		views:      views,
		activity:   activity,
		summarizer: summarizer,
		validate:   validator.New(),
		sanitizer:  bluemonday.StrictPolicy(),
		logger:     logger.With().Str("component", "review_service").Logger(),
	}
}

func (s *reviewService) Review(ctx context.Context, actor ActivityActor, classroomID, assignmentID, studentID uint, req dto.ReviewRequest) (dto.ReviewResponse, error) {
	tracer := otel.Tracer("github.com/classdesk/classdesk-api/internal/service/review")
	ctx, span := tracer.Start(ctx, "review.submit")
	span.SetAttributes(
		attribute.Int64("assignment.id", int64(assignmentID)),
		attribute.Int64("student.id", int64(studentID)),
	)
	defer span.End()

	if err := s.validate.Struct(req); err != nil {
		return dto.ReviewResponse{}, err
	}

	// Feedback is rendered back to students verbatim, so strip markup here
	// rather than trusting every render site to escape it.
	feedback := strings.TrimSpace(s.sanitizer.Sanitize(req.Feedback))

	if err := s.upstream.SubmitReview(ctx, assignmentID, studentID, req.Score, feedback); err != nil {
		observability.UpstreamFailures().WithLabelValues("review").Inc()
		s.recordReview(ctx, actor, assignmentID, studentID, models.ActivityOutcomeRolledBack, err)
		span.RecordError(err)
		return dto.ReviewResponse{}, err
	}

	s.recordReview(ctx, actor, assignmentID, studentID, models.ActivityOutcomeApplied, nil)
	s.views.Invalidate(ctx, classroomID, assignmentID)

	response := dto.ReviewResponse{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Score:        req.Score,
		Feedback:     feedback,
	}

	if req.IncludeAISummary && s.summarizer != nil {
		response.AISummary = s.summarizeScore(ctx, classroomID, assignmentID, studentID)
	}

	return response, nil
}

// summarizeScore is best effort: a missing speech score or a summarizer
// failure never fails the review itself.
func (s *reviewService) summarizeScore(ctx context.Context, classroomID, assignmentID, studentID uint) string {
	score, err := s.upstream.FetchSpeechScore(ctx, assignmentID, studentID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("speech score unavailable, skipping summary")
		return ""
	}

	input := ai.ReviewInput{
		Overall:       score.Overall,
		Pronunciation: score.Pronunciation,
		Fluency:       score.Fluency,
		Completeness:  score.Completeness,
		Transcript:    score.Transcript,
	}
	if view, viewErr := s.views.GetView(ctx, classroomID, assignmentID); viewErr == nil {
		input.AssignmentTitle = view.Assignment.Title
		if record, ok := findRecord(view.Progress, studentID); ok {
			input.StudentName = record.StudentName
		}
	}

	summary, err := s.summarizer.Summarize(ctx, input)
	if err != nil {
		s.logger.Warn().Err(err).Msg("ai summary failed")
		return ""
	}
	return summary.Summary
}

func (s *reviewService) recordReview(ctx context.Context, actor ActivityActor, assignmentID, studentID uint, outcome string, cause error) {
	if s.activity == nil {
		return
	}

	metadata := map[string]interface{}{
		"student_id": studentID,
	}
	if cause != nil {
		metadata["reason"] = cause.Error()
	}

	entityID := assignmentID
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "review_submission",
		EntityType: "submission",
		EntityID:   &entityID,
		Outcome:    outcome,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record activity entry")
	}
}
