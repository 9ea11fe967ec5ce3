package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/classdesk/classdesk-api/internal/dto"
	"github.com/classdesk/classdesk-api/internal/upstream"
	"github.com/classdesk/classdesk-api/pkg/ai"
)

type reviewAPIStub struct {
	submitErr error
	scoreErr  error
	score     upstream.SpeechScore

	submittedFeedback string
	submittedScore    *float64
}

func (r *reviewAPIStub) SubmitReview(ctx context.Context, assignmentID, studentID uint, score *float64, feedback string) error {
	if r.submitErr != nil {
		return r.submitErr
	}
	r.submittedScore = score
	r.submittedFeedback = feedback
	return nil
}

func (r *reviewAPIStub) FetchSpeechScore(ctx context.Context, assignmentID, studentID uint) (upstream.SpeechScore, error) {
	if r.scoreErr != nil {
		return upstream.SpeechScore{}, r.scoreErr
	}
	return r.score, nil
}

type summarizerStub struct {
	summary ai.ReviewSummary
	err     error
	input   ai.ReviewInput
}

func (s *summarizerStub) Summarize(ctx context.Context, input ai.ReviewInput) (ai.ReviewSummary, error) {
	s.input = input
	if s.err != nil {
		return ai.ReviewSummary{}, s.err
	}
	return s.summary, nil
}

func newReviewFixture(api *reviewAPIStub, summarizer ai.Summarizer) ReviewService {
	views := NewAssignmentViewService(newViewFixture(), NewViewStore(), nil, time.Minute, testLogger())
	return NewReviewService(api, views, &recorderStub{}, summarizer, testLogger())
}

func TestReviewSanitizesFeedback(t *testing.T) {
	api := &reviewAPIStub{}
	svc := newReviewFixture(api, nil)

	score := 88.0
	resp, err := svc.Review(context.Background(), ActivityActor{ID: 9}, 3, 7, 1, dto.ReviewRequest{
		Score:    &score,
		Feedback: "<script>alert('x')</script>Great pacing",
	})
	require.NoError(t, err)
	require.Equal(t, "Great pacing", resp.Feedback)
	require.Equal(t, "Great pacing", api.submittedFeedback)
	require.Equal(t, &score, api.submittedScore)
}

func TestReviewRejectsOutOfRangeScore(t *testing.T) {
	api := &reviewAPIStub{}
	svc := newReviewFixture(api, nil)

	score := 140.0
	_, err := svc.Review(context.Background(), ActivityActor{ID: 9}, 3, 7, 1, dto.ReviewRequest{Score: &score})
	require.Error(t, err)
	require.Empty(t, api.submittedFeedback)
}

func TestReviewPropagatesUpstreamFailure(t *testing.T) {
	api := &reviewAPIStub{submitErr: errors.New("upstream 500")}
	svc := newReviewFixture(api, nil)

	_, err := svc.Review(context.Background(), ActivityActor{ID: 9}, 3, 7, 1, dto.ReviewRequest{Feedback: "ok"})
	require.Error(t, err)
}

func TestReviewIncludesAISummary(t *testing.T) {
	api := &reviewAPIStub{score: upstream.SpeechScore{
		Overall:       81,
		Pronunciation: 78,
		Fluency:       84,
		Completeness:  90,
		Transcript:    "the quick brown fox",
	}}
	summarizer := &summarizerStub{summary: ai.ReviewSummary{Summary: "Solid fluency, work on vowels."}}
	svc := newReviewFixture(api, summarizer)

	resp, err := svc.Review(context.Background(), ActivityActor{ID: 9}, 3, 7, 1, dto.ReviewRequest{
		Feedback:         "Nice work",
		IncludeAISummary: true,
	})
	require.NoError(t, err)
	require.Equal(t, "Solid fluency, work on vowels.", resp.AISummary)
	require.Equal(t, "Chapter 4 Reading", summarizer.input.AssignmentTitle)
	require.Equal(t, 81.0, summarizer.input.Overall)
}

func TestReviewSummaryFailureDoesNotFailReview(t *testing.T) {
	api := &reviewAPIStub{scoreErr: errors.New("no recording")}
	summarizer := &summarizerStub{}
	svc := newReviewFixture(api, summarizer)

	resp, err := svc.Review(context.Background(), ActivityActor{ID: 9}, 3, 7, 1, dto.ReviewRequest{
		Feedback:         "Nice work",
		IncludeAISummary: true,
	})
	require.NoError(t, err)
	require.Empty(t, resp.AISummary)
	require.Equal(t, "Nice work", resp.Feedback)
}

func TestReviewWithoutRecordedStudentStillSubmits(t *testing.T) {
	api := &reviewAPIStub{}
	svc := newReviewFixture(api, nil)

	resp, err := svc.Review(context.Background(), ActivityActor{ID: 9}, 3, 7, 99, dto.ReviewRequest{Feedback: "ok"})
	require.NoError(t, err)
	require.Equal(t, uint(99), resp.StudentID)
}
