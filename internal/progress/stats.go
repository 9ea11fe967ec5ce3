package progress

import (
	"math"

	"github.com/classdesk/classdesk-api/internal/models"
)

// ComputeStats recomputes aggregate statistics for a resolved collection.
// Total counts assigned records only; CompletionRate is a rounded
// percentage guarded to 0 when nobody is assigned, so the rendering layer
// never sees NaN or Inf.
func ComputeStats(records []models.StudentProgress) models.AggregateStats {
	stats := models.AggregateStats{}

	for _, record := range records {
		if !record.IsAssigned {
			stats.Unassigned++
			continue
		}

		stats.Total++
		switch record.Status {
		case models.StatusNotStarted:
			stats.NotStarted++
		case models.StatusInProgress:
			stats.InProgress++
		case models.StatusSubmitted:
			stats.Submitted++
		case models.StatusReturned:
			stats.Returned++
		case models.StatusResubmitted:
			stats.Resubmitted++
		case models.StatusGraded:
			stats.Graded++
		}
	}

	if stats.Total > 0 {
		stats.CompletionRate = int(math.Round(float64(stats.Graded) / float64(stats.Total) * 100))
	}

	return stats
}
