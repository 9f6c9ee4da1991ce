package intake

import (
	"time"

	"github.com/google/uuid"
)

// SessionState tracks where an intake session is in its lifecycle.
type SessionState string

const (
	StateCollectingProfile  SessionState = "collecting_profile"
	StateCollectingSymptoms SessionState = "collecting_symptoms"
	StateComplete           SessionState = "complete"
)

// Slot names accepted by ValidateField.
const (
	SlotName           = "name"
	SlotAge            = "age"
	SlotGender         = "gender"
	SlotLocation       = "location"
	SlotOccupation     = "occupation"
	SlotMedicalHistory = "medical_history"
)

// PatientProfile holds the demographics collected during intake.
// Name, age, gender and location only ever carry validated, normalized
// values; occupation and medical history are free text.
type PatientProfile struct {
	PatientID      int64  `json:"patient_id" db:"patient_id"`
	Name           string `json:"name" db:"name"`
	Age            string `json:"age" db:"age"`
	Gender         string `json:"gender" db:"gender"`
	Location       string `json:"location" db:"location"`
	Occupation     string `json:"occupation" db:"occupation"`
	MedicalHistory string `json:"medical_history" db:"medical_history"`
}

// SymptomRecord is one structured symptom extracted from free text.
// RedFlag carries the classification assigned by the extraction model.
type SymptomRecord struct {
	SymptomID int64  `json:"symptom_id,omitempty" db:"symptom_id"`
	PatientID int64  `json:"patient_id,omitempty" db:"patient_id"`
	Symptom   string `json:"symptom" db:"symptom"`
	Duration  string `json:"duration" db:"duration"`
	Severity  string `json:"severity" db:"severity"`
	RedFlag   bool   `json:"red_flag" db:"red_flag"`
}

// ExtractionResult is the ordered sequence of candidate records produced
// from one block of raw text. An empty result means nothing usable was
// extracted; it is consumed immediately and never persisted as its own
// entity.
type ExtractionResult struct {
	Symptoms []SymptomRecord `json:"symptoms"`
}

// Session is one patient intake conversation. The dialogue layer
// serializes turns for a conversation, so the session itself carries no
// lock; only the service's session map is guarded.
type Session struct {
	ID        uuid.UUID      `json:"id"`
	State     SessionState   `json:"state"`
	Profile   PatientProfile `json:"profile"`
	PatientID *int64         `json:"patient_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// SlotResult is the caller-facing validator contract: Value is nil when
// the slot was rejected, and Message is the single text to display so
// the dialogue layer can re-prompt for the same slot.
type SlotResult struct {
	Slot    string  `json:"slot"`
	Value   *string `json:"value"`
	Message string  `json:"message,omitempty"`
}

// ProfileResult reports the outcome of the single profile insert.
// PatientID is nil when the insert did not happen; Message explains why.
type ProfileResult struct {
	PatientID *int64 `json:"patient_id"`
	Message   string `json:"message,omitempty"`
}

// SymptomBatch reports the outcome of one symptom submission. Accepted
// is true only when the whole batch was committed; Inserted counts rows
// actually written, so a mid-batch storage failure is visible to the
// caller even though earlier rows stay persisted.
type SymptomBatch struct {
	Accepted         bool            `json:"accepted"`
	Symptoms         []SymptomRecord `json:"symptoms,omitempty"`
	Inserted         int             `json:"inserted"`
	RedFlagTriggered bool            `json:"red_flag_triggered"`
	Message          string          `json:"message,omitempty"`
}
