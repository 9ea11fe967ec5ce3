package progress

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/classdesk/classdesk-api/internal/models"
)

func TestComputeStatsEmptyCollection(t *testing.T) {
	stats := ComputeStats(nil)

	require.Zero(t, stats.Total)
	require.Zero(t, stats.CompletionRate)
}

func TestComputeStatsNoAssignedStudents(t *testing.T) {
	records := []models.StudentProgress{
		{StudentID: 1, Status: models.StatusUnassigned},
		{StudentID: 2, Status: models.StatusUnassigned},
	}

	stats := ComputeStats(records)
	require.Zero(t, stats.Total)
	require.Equal(t, 2, stats.Unassigned)
	require.Zero(t, stats.CompletionRate, "no division-by-zero artifacts allowed")
}

func TestComputeStatsCounts(t *testing.T) {
	records := []models.StudentProgress{
		{StudentID: 1, Status: models.StatusNotStarted, IsAssigned: true},
		{StudentID: 2, Status: models.StatusInProgress, IsAssigned: true},
		{StudentID: 3, Status: models.StatusSubmitted, IsAssigned: true},
		{StudentID: 4, Status: models.StatusReturned, IsAssigned: true},
		{StudentID: 5, Status: models.StatusResubmitted, IsAssigned: true},
		{StudentID: 6, Status: models.StatusGraded, IsAssigned: true},
		{StudentID: 7, Status: models.StatusUnassigned},
	}

	stats := ComputeStats(records)
	require.Equal(t, 6, stats.Total)
	require.Equal(t, 1, stats.NotStarted)
	require.Equal(t, 1, stats.InProgress)
	require.Equal(t, 1, stats.Submitted)
	require.Equal(t, 1, stats.Returned)
	require.Equal(t, 1, stats.Resubmitted)
	require.Equal(t, 1, stats.Graded)
	require.Equal(t, 1, stats.Unassigned)
	require.Equal(t, 17, stats.CompletionRate)
}

func TestCompletionRateBounds(t *testing.T) {
	cases := []struct {
		name    string
		records []models.StudentProgress
		want    int
	}{
		{
			name: "all graded",
			records: []models.StudentProgress{
				{StudentID: 1, Status: models.StatusGraded, IsAssigned: true},
				{StudentID: 2, Status: models.StatusGraded, IsAssigned: true},
			},
			want: 100,
		},
		{
			name: "rounded up",
			records: []models.StudentProgress{
				{StudentID: 1, Status: models.StatusGraded, IsAssigned: true},
				{StudentID: 2, Status: models.StatusGraded, IsAssigned: true},
				{StudentID: 3, Status: models.StatusSubmitted, IsAssigned: true},
			},
			want: 67,
		},
		{
			name: "none graded",
			records: []models.StudentProgress{
				{StudentID: 1, Status: models.StatusInProgress, IsAssigned: true},
			},
			want: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stats := ComputeStats(tc.records)
			require.Equal(t, tc.want, stats.CompletionRate)
			require.GreaterOrEqual(t, stats.CompletionRate, 0)
			require.LessOrEqual(t, stats.CompletionRate, 100)
		})
	}
}
