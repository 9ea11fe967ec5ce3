// Package progress resolves canonical per-student assignment progress from
// the sparse, inconsistently-shaped records the upstream platform returns.
package progress

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/classdesk/classdesk-api/internal/models"
)

// identityKeys is the fallback priority for the database student identity in
// raw payloads. The human-facing student_number is deliberately absent: it
// is a display code, not a key.
var identityKeys = []string{"student_id", "studentId", "user_id", "id"}

// RawRecord is a partial progress record decoded from an upstream payload.
// StudentID is 0 when no usable database identity could be extracted; such
// records are skipped during merge.
type RawRecord struct {
	StudentID      uint
	Status         *string
	IsAssigned     *bool
	Score          *float64
	SubmissionDate *time.Time
	Attempts       *int
	LastActivity   *time.Time
	Timestamps     *models.StatusTimestamps
}

// UnmarshalJSON tolerates the field-name and type variance observed in
// upstream progress payloads instead of failing the whole fetch.
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	for _, key := range identityKeys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if id, ok := parseIdentity(raw); ok {
			r.StudentID = id
			break
		}
	}

	if raw, ok := fields["status"]; ok {
		var status string
		if err := json.Unmarshal(raw, &status); err == nil && status != "" {
			r.Status = &status
		}
	}

	for _, key := range []string{"is_assigned", "assigned"} {
		if raw, ok := fields[key]; ok {
			var assigned bool
			if err := json.Unmarshal(raw, &assigned); err == nil {
				r.IsAssigned = &assigned
				break
			}
		}
	}

	if raw, ok := fields["score"]; ok {
		var score float64
		if err := json.Unmarshal(raw, &score); err == nil {
			r.Score = &score
		}
	}

	if raw, ok := fields["attempts"]; ok {
		var attempts int
		if err := json.Unmarshal(raw, &attempts); err == nil {
			r.Attempts = &attempts
		}
	}

	r.SubmissionDate = parseInstant(fields["submission_date"])
	r.LastActivity = parseInstant(fields["last_activity"])

	if raw, ok := fields["timestamps"]; ok {
		var stamps models.StatusTimestamps
		if err := json.Unmarshal(raw, &stamps); err == nil {
			r.Timestamps = &stamps
		}
	}

	return nil
}

func parseIdentity(raw json.RawMessage) (uint, bool) {
	var numeric uint64
	if err := json.Unmarshal(raw, &numeric); err == nil && numeric > 0 {
		return uint(numeric), true
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		parsed, err := strconv.ParseUint(strings.TrimSpace(text), 10, 64)
		if err == nil && parsed > 0 {
			return uint(parsed), true
		}
	}

	return 0, false
}

func parseInstant(raw json.RawMessage) *time.Time {
	if len(raw) == 0 {
		return nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil || text == "" {
		return nil
	}
	instant, err := time.Parse(time.RFC3339, text)
	if err != nil {
		return nil
	}
	return &instant
}

// Merge produces exactly one StudentProgress per roster entry, in roster
// order, by joining the sparse raw records onto the dense roster. Raw
// records without a usable identity are skipped, never fatal. A roster
// student with no raw record is emitted as unassigned with every optional
// field absent; nothing is fabricated for them.
func Merge(roster []models.Student, raw []RawRecord, logger zerolog.Logger) []models.StudentProgress {
	lookup := make(map[uint]RawRecord, len(raw))
	for _, record := range raw {
		if record.StudentID == 0 {
			logger.Warn().Msg("progress record without usable student identity skipped")
			continue
		}
		lookup[record.StudentID] = record
	}

	resolved := make([]models.StudentProgress, 0, len(roster))
	for _, student := range roster {
		entry := models.StudentProgress{
			StudentID:   student.ID,
			StudentName: student.Name,
			Status:      models.StatusUnassigned,
			IsAssigned:  false,
		}

		record, ok := lookup[student.ID]
		if !ok {
			resolved = append(resolved, entry)
			continue
		}

		entry.Status = resolveStatus(record, logger)
		entry.IsAssigned = entry.Status != models.StatusUnassigned
		entry.Score = record.Score
		entry.SubmissionDate = record.SubmissionDate
		entry.LastActivity = record.LastActivity
		entry.Timestamps = record.Timestamps
		if record.Attempts != nil {
			entry.Attempts = *record.Attempts
		}

		resolved = append(resolved, entry)
	}

	return resolved
}

func resolveStatus(record RawRecord, logger zerolog.Logger) models.AssignmentStatus {
	if record.Status != nil {
		if status, ok := models.ParseStatus(*record.Status); ok {
			return status
		}
		logger.Warn().Uint("student_id", record.StudentID).Str("status", *record.Status).Msg("unrecognized progress status")
	}

	if record.IsAssigned != nil && *record.IsAssigned {
		return models.StatusNotStarted
	}

	return models.StatusUnassigned
}
