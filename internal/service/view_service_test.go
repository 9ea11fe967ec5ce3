package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/classdesk/classdesk-api/internal/dto"
	"github.com/classdesk/classdesk-api/internal/models"
	"github.com/classdesk/classdesk-api/internal/progress"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type upstreamStub struct {
	mu sync.Mutex

	assignment    models.AssignmentDetail
	assignmentErr error
	roster        []models.Student
	rosterErr     error
	records       []progress.RawRecord
	progressErr   error

	progressCalls int
}

func (u *upstreamStub) GetAssignment(ctx context.Context, id uint) (models.AssignmentDetail, error) {
	if u.assignmentErr != nil {
		return models.AssignmentDetail{}, u.assignmentErr
	}
	return u.assignment, nil
}

func (u *upstreamStub) ListRoster(ctx context.Context, classroomID uint) ([]models.Student, error) {
	if u.rosterErr != nil {
		return nil, u.rosterErr
	}
	return u.roster, nil
}

func (u *upstreamStub) FetchProgress(ctx context.Context, assignmentID uint) ([]progress.RawRecord, error) {
	u.mu.Lock()
	u.progressCalls++
	u.mu.Unlock()
	if u.progressErr != nil {
		return nil, u.progressErr
	}
	return u.records, nil
}

func boolPtr(v bool) *bool { return &v }

func strPtr(v string) *string { return &v }

func newViewFixture() *upstreamStub {
	return &upstreamStub{
		assignment: models.AssignmentDetail{
			ID:                 7,
			ClassroomID:        3,
			Title:              "Chapter 4 Reading",
			AssignedStudentIDs: []uint{1, 2},
		},
		roster: []models.Student{
			{ID: 1, Name: "Ana"},
			{ID: 2, Name: "Ben"},
			{ID: 3, Name: "Cleo"},
		},
		records: []progress.RawRecord{
			{StudentID: 1, Status: strPtr("GRADED"), IsAssigned: boolPtr(true)},
			{StudentID: 2, Status: strPtr("IN_PROGRESS"), IsAssigned: boolPtr(true)},
		},
	}
}

func TestGetViewResolvesRosterOrder(t *testing.T) {
	stub := newViewFixture()
	svc := NewAssignmentViewService(stub, NewViewStore(), nil, time.Minute, testLogger())

	view, err := svc.GetView(context.Background(), 3, 7)
	require.NoError(t, err)
	require.False(t, view.Degraded)
	require.Len(t, view.Progress, 3)
	require.Equal(t, uint(1), view.Progress[0].StudentID)
	require.Equal(t, uint(3), view.Progress[2].StudentID)
	require.Equal(t, models.StatusUnassigned, view.Progress[2].Status)
	require.Equal(t, 2, view.Stats.Total)
	require.Equal(t, 50, view.Stats.CompletionRate)
}

func TestGetViewDegradesWhenProgressFails(t *testing.T) {
	stub := newViewFixture()
	stub.progressErr = errors.New("upstream 502")
	svc := NewAssignmentViewService(stub, NewViewStore(), nil, time.Minute, testLogger())

	view, err := svc.GetView(context.Background(), 3, 7)
	require.NoError(t, err)
	require.True(t, view.Degraded)

	// Assigned students render as NOT_STARTED from assignment metadata, the
	// rest stay unassigned, and nothing carries fabricated detail.
	require.Equal(t, models.StatusNotStarted, view.Progress[0].Status)
	require.True(t, view.Progress[0].IsAssigned)
	require.Nil(t, view.Progress[0].Score)
	require.Equal(t, models.StatusUnassigned, view.Progress[2].Status)
}

func TestGetViewFailsWhenAssignmentUnavailable(t *testing.T) {
	stub := newViewFixture()
	stub.assignmentErr = errors.New("upstream down")
	svc := NewAssignmentViewService(stub, NewViewStore(), nil, time.Minute, testLogger())

	_, err := svc.GetView(context.Background(), 3, 7)
	require.ErrorIs(t, err, ErrAssignmentUnavailable)
}

func TestGetViewRendersEmptyRosterOnRosterFailure(t *testing.T) {
	stub := newViewFixture()
	stub.rosterErr = errors.New("roster down")
	svc := NewAssignmentViewService(stub, NewViewStore(), nil, time.Minute, testLogger())

	view, err := svc.GetView(context.Background(), 3, 7)
	require.NoError(t, err)
	require.Empty(t, view.Progress)
	require.False(t, view.Degraded)
}

func TestGetViewSkipsDuplicateResolution(t *testing.T) {
	stub := newViewFixture()
	store := NewViewStore()
	svc := NewAssignmentViewService(stub, store, nil, time.Minute, testLogger())

	first, err := svc.GetView(context.Background(), 3, 7)
	require.NoError(t, err)

	// A second request while a resolution is marked in flight must serve the
	// last resolved state without issuing another fetch sequence.
	key := viewKey{classroomID: 3, assignmentID: 7}
	require.True(t, store.beginFetch(key))
	calls := stub.progressCalls

	second, err := svc.Refresh(context.Background(), 3, 7)
	require.NoError(t, err)
	require.Equal(t, first.Stats, second.Stats)
	require.Equal(t, calls, stub.progressCalls)
	store.endFetch(key)
}

func TestGetViewServesCachedResponse(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	stub := newViewFixture()
	svc := NewAssignmentViewService(stub, NewViewStore(), redisClient, time.Minute, testLogger())

	_, err = svc.GetView(context.Background(), 3, 7)
	require.NoError(t, err)
	calls := stub.progressCalls

	cached, err := svc.GetView(context.Background(), 3, 7)
	require.NoError(t, err)
	require.Equal(t, calls, stub.progressCalls)
	require.Len(t, cached.Progress, 3)

	svc.Invalidate(context.Background(), 3, 7)
	_, err = svc.GetView(context.Background(), 3, 7)
	require.NoError(t, err)
	require.Equal(t, calls+1, stub.progressCalls)
}

func TestGetStepperForStudent(t *testing.T) {
	stub := newViewFixture()
	svc := NewAssignmentViewService(stub, NewViewStore(), nil, time.Minute, testLogger())

	stepper, err := svc.GetStepper(context.Background(), 3, 7, 1)
	require.NoError(t, err)
	require.Equal(t, string(models.StatusGraded), stepper.Status)
	require.Len(t, stepper.Steps, 7)

	_, err = svc.GetStepper(context.Background(), 3, 7, 99)
	require.ErrorIs(t, err, ErrStudentNotInRoster)
}

type recorderStub struct {
	mu      sync.Mutex
	entries []ActivityEntry
}

func (r *recorderStub) Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return dto.ActivityResponse{}, nil
}

func (r *recorderStub) last(t *testing.T) ActivityEntry {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.entries)
	return r.entries[len(r.entries)-1]
}

type eventSinkStub struct {
	mu     sync.Mutex
	events []dto.Event
}

func (e *eventSinkStub) Publish(ctx context.Context, event dto.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

func (e *eventSinkStub) Subscribe() (<-chan dto.Event, func()) {
	channel := make(chan dto.Event)
	close(channel)
	return channel, func() {}
}

func (e *eventSinkStub) Start(ctx context.Context) {}

func (e *eventSinkStub) types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	kinds := make([]string, len(e.events))
	for i, event := range e.events {
		kinds[i] = event.Type
	}
	return kinds
}
