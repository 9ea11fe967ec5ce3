package models

// Student is a classroom roster entry as returned by the upstream platform.
// ID is the durable database identity; StudentNumber is the human-facing
// code and must never be used as a merge key.
type Student struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	StudentNumber string `json:"student_number,omitempty"`
}
