package progress

import "github.com/classdesk/classdesk-api/internal/models"

// StepState is how one slot of the horizontal progress stepper renders.
type StepState string

const (
	StepNotReached StepState = "not_reached"
	StepActive     StepState = "active"
	StepPassed     StepState = "passed"
)

// AssignedSlot is the pseudo-slot drawn before the real statuses.
const AssignedSlot = "ASSIGNED"

// Step pairs a stepper slot with its resolved rendering state.
type Step struct {
	Slot  string    `json:"slot"`
	State StepState `json:"state"`
}

// stepperSlots lists the real-status slots in display order.
var stepperSlots = []models.AssignmentStatus{
	models.StatusNotStarted,
	models.StatusInProgress,
	models.StatusSubmitted,
	models.StatusReturned,
	models.StatusResubmitted,
	models.StatusGraded,
}

// StateFor resolves the rendering state of one real-status slot. A slot is
// passed when the record's ordinal strictly exceeds the slot's; the
// RETURNED and RESUBMITTED slots additionally require evidence that the
// return/resubmit branch actually happened, because GRADED alone is
// ambiguous about whether the cycle occurred.
func StateFor(slot models.AssignmentStatus, record models.StudentProgress) StepState {
	if !record.IsAssigned || !slot.IsReal() {
		return StepNotReached
	}

	if record.Status == slot {
		return StepActive
	}

	if record.Status.Ordinal() <= slot.Ordinal() {
		return StepNotReached
	}

	switch slot {
	case models.StatusReturned:
		if record.Status == models.StatusResubmitted || hasReturnedAt(record) {
			return StepPassed
		}
		return StepNotReached
	case models.StatusResubmitted:
		if hasResubmittedAt(record) {
			return StepPassed
		}
		return StepNotReached
	default:
		return StepPassed
	}
}

// AssignedState resolves the leading ASSIGNED pseudo-slot: passed for any
// assigned record, active only while the student has not yet started.
func AssignedState(record models.StudentProgress) StepState {
	if !record.IsAssigned {
		return StepNotReached
	}
	if record.Status == models.StatusNotStarted {
		return StepActive
	}
	return StepPassed
}

// Steps renders the full stepper for one record: the ASSIGNED pseudo-slot
// followed by the six real slots in progression order.
func Steps(record models.StudentProgress) []Step {
	steps := make([]Step, 0, len(stepperSlots)+1)
	steps = append(steps, Step{Slot: AssignedSlot, State: AssignedState(record)})
	for _, slot := range stepperSlots {
		steps = append(steps, Step{Slot: string(slot), State: StateFor(slot, record)})
	}
	return steps
}

func hasReturnedAt(record models.StudentProgress) bool {
	return record.Timestamps != nil && record.Timestamps.ReturnedAt != nil
}

func hasResubmittedAt(record models.StudentProgress) bool {
	return record.Timestamps != nil && record.Timestamps.ResubmittedAt != nil
}
