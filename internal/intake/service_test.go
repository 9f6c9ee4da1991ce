package intake

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo implements Repository in memory and logs operations so tests
// can assert ordering across collaborators.
type fakeRepo struct {
	ops *[]string

	patientErr error
	symptomErr error
	// failOnInsert fails the Nth symptom insert (1-based); 0 disables.
	failOnInsert int

	nextPatientID int64
	patients      map[int64]PatientProfile
	symptoms      []SymptomRecord
}

func newFakeRepo(ops *[]string) *fakeRepo {
	return &fakeRepo{ops: ops, patients: make(map[int64]PatientProfile)}
}

func (f *fakeRepo) InsertPatient(ctx context.Context, p PatientProfile) (int64, error) {
	if f.patientErr != nil {
		return 0, f.patientErr
	}
	f.nextPatientID++
	p.PatientID = f.nextPatientID
	f.patients[p.PatientID] = p
	*f.ops = append(*f.ops, "insert_patient")
	return p.PatientID, nil
}

func (f *fakeRepo) InsertSymptom(ctx context.Context, patientID int64, rec SymptomRecord) error {
	if f.symptomErr != nil {
		return f.symptomErr
	}
	if f.failOnInsert > 0 && len(f.symptoms)+1 == f.failOnInsert {
		return errors.New("storage unavailable")
	}
	rec.PatientID = patientID
	f.symptoms = append(f.symptoms, rec)
	*f.ops = append(*f.ops, "insert_symptom:"+rec.Symptom)
	return nil
}

func (f *fakeRepo) GetPatient(ctx context.Context, patientID int64) (*PatientProfile, error) {
	p, ok := f.patients[patientID]
	if !ok {
		return nil, fmt.Errorf("patient %d not found", patientID)
	}
	return &p, nil
}

func (f *fakeRepo) ListSymptoms(ctx context.Context, patientID int64) ([]SymptomRecord, error) {
	var out []SymptomRecord
	for _, rec := range f.symptoms {
		if rec.PatientID == patientID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type fakeExtractor struct {
	result ExtractionResult
}

func (f *fakeExtractor) Extract(ctx context.Context, rawText string) ExtractionResult {
	return f.result
}

type fakeAlerter struct {
	ops   *[]string
	calls int
	last  []SymptomRecord
}

func (f *fakeAlerter) SendRedFlagAlert(ctx context.Context, p PatientProfile, records []SymptomRecord) error {
	f.calls++
	f.last = records
	*f.ops = append(*f.ops, "alert")
	return nil
}

type fakeReports struct{}

func (fakeReports) BuildIntakeSummary(p PatientProfile, records []SymptomRecord) ([]byte, error) {
	return []byte("%PDF-fake"), nil
}

type testEnv struct {
	ops       []string
	repo      *fakeRepo
	extractor *fakeExtractor
	alerter   *fakeAlerter
	svc       Service
}

func newTestEnv(t *testing.T, result ExtractionResult) *testEnv {
	t.Helper()
	env := &testEnv{extractor: &fakeExtractor{result: result}}
	env.repo = newFakeRepo(&env.ops)
	env.alerter = &fakeAlerter{ops: &env.ops}
	env.svc = NewService(env.repo, env.extractor, fakeReports{}, env.alerter)
	return env
}

// fillProfile walks a session through valid profile slots.
func fillProfile(t *testing.T, svc Service, id uuid.UUID) {
	t.Helper()
	slots := map[string]string{
		SlotName:           "john smith",
		SlotAge:            "34",
		SlotGender:         "M",
		SlotLocation:       "new york",
		SlotOccupation:     "teacher",
		SlotMedicalHistory: "asthma",
	}
	for slot, raw := range slots {
		res, err := svc.ValidateField(id, slot, raw)
		require.NoError(t, err)
		require.NotNil(t, res.Value, "slot %s should validate", slot)
	}
}

func TestIntakeFlow_TwoSymptomsOneRedFlag(t *testing.T) {
	env := newTestEnv(t, ExtractionResult{Symptoms: []SymptomRecord{
		{Symptom: "headache", Duration: "2 days", Severity: "not specified", RedFlag: false},
		{Symptom: "chest pain", Duration: "1 hour", Severity: "severe", RedFlag: true},
	}})

	sess := env.svc.StartSession()
	assert.Equal(t, StateCollectingProfile, sess.State)

	fillProfile(t, env.svc, sess.ID)
	profile, err := env.svc.CompleteProfile(context.Background(), sess.ID)
	require.NoError(t, err)
	require.NotNil(t, profile.PatientID)
	assert.Equal(t, int64(1), *profile.PatientID)
	assert.Equal(t, StateCollectingSymptoms, sess.State)

	batch, err := env.svc.SubmitSymptoms(context.Background(), sess.ID, "I have a headache for 2 days, severe chest pain for 1 hour")
	require.NoError(t, err)

	assert.True(t, batch.Accepted)
	assert.Equal(t, 2, batch.Inserted)
	assert.True(t, batch.RedFlagTriggered)
	assert.Equal(t, MsgEmergency, batch.Message)
	assert.Equal(t, StateComplete, sess.State)

	// Exactly two rows, extractor order preserved, exactly one alert
	// emitted after the full batch committed.
	require.Len(t, env.repo.symptoms, 2)
	assert.Equal(t, "headache", env.repo.symptoms[0].Symptom)
	assert.Equal(t, "chest pain", env.repo.symptoms[1].Symptom)
	assert.Equal(t, 1, env.alerter.calls)
	assert.Equal(t, []string{"insert_patient", "insert_symptom:headache", "insert_symptom:chest pain", "alert"}, env.ops)

	// Normalized values reached storage.
	stored := env.repo.patients[1]
	assert.Equal(t, "John Smith", stored.Name)
	assert.Equal(t, "34", stored.Age)
	assert.Equal(t, "male", stored.Gender)
	assert.Equal(t, "New York", stored.Location)
}

func TestValidateField_RejectionNullsSlot(t *testing.T) {
	env := newTestEnv(t, ExtractionResult{})
	sess := env.svc.StartSession()

	res, err := env.svc.ValidateField(sess.ID, SlotAge, "thirty")
	require.NoError(t, err)
	assert.Nil(t, res.Value)
	assert.Equal(t, MsgInvalidAge, res.Message)
	assert.Empty(t, sess.Profile.Age)

	// A rejection also clears a previously accepted value.
	_, err = env.svc.ValidateField(sess.ID, SlotAge, "34")
	require.NoError(t, err)
	assert.Equal(t, "34", sess.Profile.Age)
	_, err = env.svc.ValidateField(sess.ID, SlotAge, "121")
	require.NoError(t, err)
	assert.Empty(t, sess.Profile.Age)
}

func TestValidateField_UnknownSlot(t *testing.T) {
	env := newTestEnv(t, ExtractionResult{})
	sess := env.svc.StartSession()

	_, err := env.svc.ValidateField(sess.ID, "favourite_color", "blue")
	assert.Error(t, err)
}

func TestValidateField_UnknownSession(t *testing.T) {
	env := newTestEnv(t, ExtractionResult{})

	_, err := env.svc.ValidateField(uuid.New(), SlotName, "jane doe")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCompleteProfile_MissingFields(t *testing.T) {
	env := newTestEnv(t, ExtractionResult{})
	sess := env.svc.StartSession()

	_, err := env.svc.ValidateField(sess.ID, SlotName, "jane doe")
	require.NoError(t, err)

	res, err := env.svc.CompleteProfile(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Nil(t, res.PatientID)
	assert.Contains(t, res.Message, SlotAge)
	assert.Empty(t, env.repo.patients)
	assert.Equal(t, StateCollectingProfile, sess.State)
}

func TestCompleteProfile_StorageFaultIsRecoverable(t *testing.T) {
	env := newTestEnv(t, ExtractionResult{})
	sess := env.svc.StartSession()
	fillProfile(t, env.svc, sess.ID)

	env.repo.patientErr = errors.New("connection refused")
	res, err := env.svc.CompleteProfile(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Nil(t, res.PatientID)
	assert.Contains(t, res.Message, "connection refused")
	assert.Nil(t, sess.PatientID)
	assert.Equal(t, StateCollectingProfile, sess.State)

	// Retry succeeds once storage is back.
	env.repo.patientErr = nil
	res, err = env.svc.CompleteProfile(context.Background(), sess.ID)
	require.NoError(t, err)
	require.NotNil(t, res.PatientID)
	assert.Equal(t, StateCollectingSymptoms, sess.State)
}

func TestSubmitSymptoms_NoPatientIDIsFatal(t *testing.T) {
	env := newTestEnv(t, ExtractionResult{Symptoms: []SymptomRecord{{Symptom: "cough"}}})
	sess := env.svc.StartSession()

	_, err := env.svc.SubmitSymptoms(context.Background(), sess.ID, "coughing a lot")
	assert.ErrorIs(t, err, ErrNoPatient)
	assert.Empty(t, env.repo.symptoms)
}

func TestSubmitSymptoms_EmptyExtractionRejectsSlot(t *testing.T) {
	env := newTestEnv(t, ExtractionResult{})
	sess := env.svc.StartSession()
	fillProfile(t, env.svc, sess.ID)
	_, err := env.svc.CompleteProfile(context.Background(), sess.ID)
	require.NoError(t, err)

	batch, err := env.svc.SubmitSymptoms(context.Background(), sess.ID, "qwmeavnk lskdfj")
	require.NoError(t, err)
	assert.False(t, batch.Accepted)
	assert.Equal(t, 0, batch.Inserted)
	assert.Equal(t, MsgUnclearSymptoms, batch.Message)
	// Session stays open for a clarified re-submission.
	assert.Equal(t, StateCollectingSymptoms, sess.State)
}

func TestSubmitSymptoms_MidBatchFailureKeepsEarlierRows(t *testing.T) {
	env := newTestEnv(t, ExtractionResult{Symptoms: []SymptomRecord{
		{Symptom: "headache", Duration: "2 days", Severity: "mild", RedFlag: false},
		{Symptom: "chest pain", Duration: "1 hour", Severity: "severe", RedFlag: true},
	}})
	sess := env.svc.StartSession()
	fillProfile(t, env.svc, sess.ID)
	_, err := env.svc.CompleteProfile(context.Background(), sess.ID)
	require.NoError(t, err)

	env.repo.failOnInsert = 2
	batch, err := env.svc.SubmitSymptoms(context.Background(), sess.ID, "headache and chest pain")
	require.NoError(t, err)

	assert.False(t, batch.Accepted)
	assert.Equal(t, 1, batch.Inserted)
	assert.Contains(t, batch.Message, "storage unavailable")
	// First row stays persisted; no urgent-care notice for a partial batch.
	require.Len(t, env.repo.symptoms, 1)
	assert.False(t, batch.RedFlagTriggered)
	assert.Equal(t, 0, env.alerter.calls)
}

func TestSubmitSymptoms_NoRedFlagNoAlert(t *testing.T) {
	env := newTestEnv(t, ExtractionResult{Symptoms: []SymptomRecord{
		{Symptom: "runny nose", Duration: "3 days", Severity: "mild", RedFlag: false},
	}})
	sess := env.svc.StartSession()
	fillProfile(t, env.svc, sess.ID)
	_, err := env.svc.CompleteProfile(context.Background(), sess.ID)
	require.NoError(t, err)

	batch, err := env.svc.SubmitSymptoms(context.Background(), sess.ID, "runny nose for three days")
	require.NoError(t, err)
	assert.True(t, batch.Accepted)
	assert.False(t, batch.RedFlagTriggered)
	assert.Empty(t, batch.Message)
	assert.Equal(t, 0, env.alerter.calls)
}

func TestIntakeSummary(t *testing.T) {
	env := newTestEnv(t, ExtractionResult{Symptoms: []SymptomRecord{
		{Symptom: "headache", Duration: "2 days", Severity: "mild", RedFlag: false},
	}})
	sess := env.svc.StartSession()

	_, err := env.svc.IntakeSummary(context.Background(), sess.ID)
	assert.ErrorIs(t, err, ErrNoPatient)

	fillProfile(t, env.svc, sess.ID)
	_, err = env.svc.CompleteProfile(context.Background(), sess.ID)
	require.NoError(t, err)
	_, err = env.svc.SubmitSymptoms(context.Background(), sess.ID, "headache for two days")
	require.NoError(t, err)

	pdfData, err := env.svc.IntakeSummary(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, pdfData)
}
