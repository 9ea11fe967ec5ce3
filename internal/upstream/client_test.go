package upstream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{BaseURL: server.URL, Token: "test-token"}, zerolog.New(io.Discard))
	require.NoError(t, err)
	return client
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Config{}, zerolog.New(io.Discard))
	require.Error(t, err)
}

func TestAssignmentFieldFallbacks(t *testing.T) {
	cases := []struct {
		name             string
		body             string
		wantInstructions string
		wantAssignedAt   string
	}{
		{
			name:             "primary keys win",
			body:             `{"id":5,"title":"Essay","instructions":"write it","description":"ignored","assigned_at":"2026-01-10T08:00:00Z","assigned_date":"2026-01-11T08:00:00Z"}`,
			wantInstructions: "write it",
			wantAssignedAt:   "2026-01-10T08:00:00Z",
		},
		{
			name:             "description fallback",
			body:             `{"id":5,"title":"Essay","description":"fallback text","assigned_date":"2026-01-11T08:00:00Z"}`,
			wantInstructions: "fallback text",
			wantAssignedAt:   "2026-01-11T08:00:00Z",
		},
		{
			name:             "created_at as last resort",
			body:             `{"id":5,"title":"Essay","created_at":"2026-01-12T08:00:00Z"}`,
			wantInstructions: "",
			wantAssignedAt:   "2026-01-12T08:00:00Z",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/api/assignments/5", r.URL.Path)
				require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.body))
			})

			detail, err := client.GetAssignment(context.Background(), 5)
			require.NoError(t, err)
			require.Equal(t, uint(5), detail.ID)
			require.Equal(t, tc.wantInstructions, detail.Instructions)
			if tc.wantAssignedAt == "" {
				require.Nil(t, detail.AssignedAt)
			} else {
				require.NotNil(t, detail.AssignedAt)
				require.Equal(t, tc.wantAssignedAt, detail.AssignedAt.UTC().Format("2006-01-02T15:04:05Z"))
			}
		})
	}
}

func TestFetchProgressBothShapes(t *testing.T) {
	bodies := map[string]string{
		"bare array": `[{"student_id":1,"status":"SUBMITTED"},{"student_id":2,"status":"GRADED"}]`,
		"data envelope": `{"data":[{"student_id":1,"status":"SUBMITTED"},{"student_id":2,"status":"GRADED"}]}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/api/assignments/3/progress", r.URL.Path)
				_, _ = w.Write([]byte(body))
			})

			records, err := client.FetchProgress(context.Background(), 3)
			require.NoError(t, err)
			require.Len(t, records, 2)
			require.Equal(t, uint(1), records[0].StudentID)
			require.Equal(t, uint(2), records[1].StudentID)
		})
	}
}

func TestFetchProgressStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"backend unavailable"}`))
	})

	_, err := client.FetchProgress(context.Background(), 3)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusBadGateway, statusErr.Code)
	require.Contains(t, statusErr.Message, "backend unavailable")
}

func TestProtectedRejectionSurfacesReasons(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"protected":["submission already graded","grade locked by policy"]}`))
	})

	err := client.UnassignStudent(context.Background(), 3, 7)
	var protectedErr *ProtectedError
	require.ErrorAs(t, err, &protectedErr)
	require.Equal(t, []string{"submission already graded", "grade locked by policy"}, protectedErr.Reasons)
	require.False(t, errors.As(err, new(*StatusError)))
}

func TestListRosterDecodesStudents(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/classrooms/12/students", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":1,"name":"A","email":"a@school.test","student_number":"S-001"},{"id":2,"name":"B","email":"b@school.test"}]`))
	})

	roster, err := client.ListRoster(context.Background(), 12)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	require.Equal(t, "S-001", roster[0].StudentNumber)
}

func TestGetSubscriptionTierFallback(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"tier":"pro","state":"active","seats":30,"renewal_date":"2026-12-01T00:00:00Z"}`))
	})

	subscription, err := client.GetSubscription(context.Background())
	require.NoError(t, err)
	require.Equal(t, "pro", subscription.Plan)
	require.Equal(t, "active", subscription.Status)
	require.Equal(t, 30, subscription.Seats)
	require.NotNil(t, subscription.RenewsAt)
	require.True(t, subscription.IsActive())
}
