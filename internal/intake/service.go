package intake

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Extractor converts free text into structured symptom records. It never
// fails: an empty result covers both "nothing mentioned" and any failure
// around the extraction call.
type Extractor interface {
	Extract(ctx context.Context, rawText string) ExtractionResult
}

// ReportBuilder renders the clinician-facing intake summary.
type ReportBuilder interface {
	BuildIntakeSummary(p PatientProfile, records []SymptomRecord) ([]byte, error)
}

// AlertService delivers urgent-care alerts to the clinician channel.
type AlertService interface {
	SendRedFlagAlert(ctx context.Context, p PatientProfile, records []SymptomRecord) error
}

var (
	// ErrSessionNotFound is returned for unknown session IDs.
	ErrSessionNotFound = errors.New("intake session not found")

	// ErrNoPatient is a session-integrity fault: symptom collection was
	// attempted before a patient identifier was assigned. The intake
	// must be restarted.
	ErrNoPatient = errors.New("patient ID not found, intake must be restarted")
)

type Service interface {
	StartSession() *Session
	ValidateField(sessionID uuid.UUID, slot, raw string) (SlotResult, error)
	CompleteProfile(ctx context.Context, sessionID uuid.UUID) (ProfileResult, error)
	SubmitSymptoms(ctx context.Context, sessionID uuid.UUID, rawText string) (SymptomBatch, error)
	IntakeSummary(ctx context.Context, sessionID uuid.UUID) ([]byte, error)
}

type service struct {
	repo      Repository
	extractor Extractor
	reports   ReportBuilder
	alerts    AlertService // nil when no alert channel is configured

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

func NewService(repo Repository, extractor Extractor, reports ReportBuilder, alerts AlertService) Service {
	return &service{
		repo:      repo,
		extractor: extractor,
		reports:   reports,
		alerts:    alerts,
		sessions:  make(map[uuid.UUID]*Session),
	}
}

func (s *service) StartSession() *Session {
	sess := &Session{
		ID:        uuid.New(),
		State:     StateCollectingProfile,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

func (s *service) session(id uuid.UUID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// ValidateField validates one raw slot value. A rejection nulls the slot
// and carries exactly one field-specific message; the dialogue layer
// re-prompts for the same slot. Accepted values are stored on the
// session profile until the single insert in CompleteProfile.
func (s *service) ValidateField(sessionID uuid.UUID, slot, raw string) (SlotResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return SlotResult{}, err
	}
	if sess.State != StateCollectingProfile {
		return SlotResult{}, fmt.Errorf("profile for session %s is already stored", sessionID)
	}

	var value string
	var fieldErr *FieldError
	switch slot {
	case SlotName:
		value, fieldErr = ValidateName(raw)
	case SlotAge:
		value, fieldErr = ValidateAge(raw)
	case SlotGender:
		value, fieldErr = ValidateGender(raw)
	case SlotLocation:
		value, fieldErr = ValidateLocation(raw)
	case SlotOccupation, SlotMedicalHistory:
		// Free text, unvalidated.
		value = strings.TrimSpace(raw)
	default:
		return SlotResult{}, fmt.Errorf("unknown slot %q", slot)
	}

	if fieldErr != nil {
		// Rejection nulls the slot, including a previously accepted
		// value, so the dialogue layer re-prompts from scratch.
		setProfileSlot(&sess.Profile, slot, "")
		sess.UpdatedAt = time.Now()
		return SlotResult{Slot: slot, Message: fieldErr.Message}, nil
	}

	setProfileSlot(&sess.Profile, slot, value)
	sess.UpdatedAt = time.Now()
	return SlotResult{Slot: slot, Value: &value}, nil
}

func setProfileSlot(p *PatientProfile, slot, value string) {
	switch slot {
	case SlotName:
		p.Name = value
	case SlotAge:
		p.Age = value
	case SlotGender:
		p.Gender = value
	case SlotLocation:
		p.Location = value
	case SlotOccupation:
		p.Occupation = value
	case SlotMedicalHistory:
		p.MedicalHistory = value
	}
}

// CompleteProfile performs the single patient insert once every required
// slot has passed validation. A storage fault is recoverable: no patient
// identifier is assigned, the session stays in COLLECTING_PROFILE and
// the caller may retry.
func (s *service) CompleteProfile(ctx context.Context, sessionID uuid.UUID) (ProfileResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return ProfileResult{}, err
	}
	if sess.State != StateCollectingProfile {
		return ProfileResult{}, fmt.Errorf("profile already completed for session %s", sessionID)
	}
	if missing := missingProfileSlots(sess.Profile); len(missing) > 0 {
		return ProfileResult{Message: "Missing required fields: " + strings.Join(missing, ", ")}, nil
	}

	patientID, err := s.repo.InsertPatient(ctx, sess.Profile)
	if err != nil {
		log.Printf("patient insert failed for session %s: %v", sessionID, err)
		return ProfileResult{Message: "Sorry, there was an error saving your information: " + err.Error()}, nil
	}

	sess.Profile.PatientID = patientID
	sess.PatientID = &patientID
	sess.State = StateCollectingSymptoms
	sess.UpdatedAt = time.Now()
	return ProfileResult{PatientID: &patientID}, nil
}

func missingProfileSlots(p PatientProfile) []string {
	var missing []string
	if p.Name == "" {
		missing = append(missing, SlotName)
	}
	if p.Age == "" {
		missing = append(missing, SlotAge)
	}
	if p.Gender == "" {
		missing = append(missing, SlotGender)
	}
	if p.Location == "" {
		missing = append(missing, SlotLocation)
	}
	return missing
}

// SubmitSymptoms runs the extraction pipeline over one block of raw
// text. Records are inserted in extractor order; the urgent-care notice
// is set only after the whole batch has been committed, never
// interleaved with the inserts.
func (s *service) SubmitSymptoms(ctx context.Context, sessionID uuid.UUID, rawText string) (SymptomBatch, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return SymptomBatch{}, err
	}
	if sess.PatientID == nil {
		return SymptomBatch{}, ErrNoPatient
	}

	result := s.extractor.Extract(ctx, rawText)
	if len(result.Symptoms) == 0 {
		// Extraction failure and "no symptoms mentioned" are not
		// distinguished here: both null the slot for a re-prompt.
		return SymptomBatch{Message: MsgUnclearSymptoms}, nil
	}

	patientID := *sess.PatientID
	batch := SymptomBatch{}
	redFlag := false
	for _, rec := range result.Symptoms {
		rec.PatientID = patientID
		if err := s.repo.InsertSymptom(ctx, patientID, rec); err != nil {
			// Rows already inserted from this batch stay persisted.
			log.Printf("symptom insert failed for patient %d: %v", patientID, err)
			batch.Message = "Error processing symptoms: " + err.Error()
			return batch, nil
		}
		batch.Inserted++
		batch.Symptoms = append(batch.Symptoms, rec)
		if rec.RedFlag {
			redFlag = true
		}
	}
	batch.Accepted = true

	if redFlag {
		batch.RedFlagTriggered = true
		batch.Message = MsgEmergency
		s.sendRedFlagAlert(ctx, sess.Profile, batch.Symptoms)
	}
	sess.State = StateComplete
	sess.UpdatedAt = time.Now()
	return batch, nil
}

// sendRedFlagAlert fans the alert out to the clinician channel. Alert
// delivery is best effort and never surfaces into the patient flow.
func (s *service) sendRedFlagAlert(ctx context.Context, p PatientProfile, records []SymptomRecord) {
	if s.alerts == nil {
		return
	}
	if err := s.alerts.SendRedFlagAlert(ctx, p, records); err != nil {
		log.Printf("red flag alert failed for patient %d: %v", p.PatientID, err)
	}
}

// IntakeSummary renders the clinician PDF for a session whose profile
// has been stored, reading the persisted rows back for review.
func (s *service) IntakeSummary(ctx context.Context, sessionID uuid.UUID) ([]byte, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.PatientID == nil {
		return nil, ErrNoPatient
	}
	profile, err := s.repo.GetPatient(ctx, *sess.PatientID)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.ListSymptoms(ctx, *sess.PatientID)
	if err != nil {
		return nil, err
	}
	return s.reports.BuildIntakeSummary(*profile, records)
}
