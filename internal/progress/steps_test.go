package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/classdesk/classdesk-api/internal/models"
)

func assignedRecord(status models.AssignmentStatus) models.StudentProgress {
	return models.StudentProgress{
		StudentID:   1,
		StudentName: "A",
		Status:      status,
		IsAssigned:  true,
	}
}

func TestGradedWithoutReturnTimestamps(t *testing.T) {
	record := assignedRecord(models.StatusGraded)

	require.Equal(t, StepPassed, StateFor(models.StatusNotStarted, record))
	require.Equal(t, StepPassed, StateFor(models.StatusInProgress, record))
	require.Equal(t, StepPassed, StateFor(models.StatusSubmitted, record))
	require.Equal(t, StepNotReached, StateFor(models.StatusReturned, record))
	require.Equal(t, StepNotReached, StateFor(models.StatusResubmitted, record))
	require.Equal(t, StepActive, StateFor(models.StatusGraded, record))
}

func TestGradedWithReturnCycleEvidence(t *testing.T) {
	returnedAt := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	resubmittedAt := returnedAt.Add(48 * time.Hour)

	record := assignedRecord(models.StatusGraded)
	record.Timestamps = &models.StatusTimestamps{
		ReturnedAt:    &returnedAt,
		ResubmittedAt: &resubmittedAt,
	}

	require.Equal(t, StepPassed, StateFor(models.StatusReturned, record))
	require.Equal(t, StepPassed, StateFor(models.StatusResubmitted, record))
}

func TestReturnedSlotPassedWhileResubmitted(t *testing.T) {
	// A currently-resubmitted record passed through RETURNED even when the
	// backend never populated returned_at.
	record := assignedRecord(models.StatusResubmitted)

	require.Equal(t, StepPassed, StateFor(models.StatusReturned, record))
	require.Equal(t, StepActive, StateFor(models.StatusResubmitted, record))
	require.Equal(t, StepNotReached, StateFor(models.StatusGraded, record))
}

func TestAssignedPseudoSlot(t *testing.T) {
	require.Equal(t, StepActive, AssignedState(assignedRecord(models.StatusNotStarted)))
	require.Equal(t, StepPassed, AssignedState(assignedRecord(models.StatusInProgress)))
	require.Equal(t, StepPassed, AssignedState(assignedRecord(models.StatusGraded)))

	unassigned := models.StudentProgress{StudentID: 2, Status: models.StatusUnassigned}
	require.Equal(t, StepNotReached, AssignedState(unassigned))
}

func TestUnassignedRecordReachesNothing(t *testing.T) {
	record := models.StudentProgress{StudentID: 2, Status: models.StatusUnassigned}

	for _, step := range Steps(record) {
		require.Equal(t, StepNotReached, step.State, "slot %s", step.Slot)
	}
}

func TestStepsLayout(t *testing.T) {
	steps := Steps(assignedRecord(models.StatusSubmitted))

	require.Len(t, steps, 7)
	require.Equal(t, AssignedSlot, steps[0].Slot)
	require.Equal(t, StepPassed, steps[0].State)
	require.Equal(t, string(models.StatusSubmitted), steps[3].Slot)
	require.Equal(t, StepActive, steps[3].State)
	require.Equal(t, string(models.StatusGraded), steps[6].Slot)
	require.Equal(t, StepNotReached, steps[6].State)
}
