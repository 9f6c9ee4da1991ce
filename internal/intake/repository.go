package intake

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository is the persistence gateway for patients and symptoms. Both
// writes are synchronous single-row operations; the core performs no
// multi-row transactions across them.
type Repository interface {
	InsertPatient(ctx context.Context, p PatientProfile) (int64, error)
	InsertSymptom(ctx context.Context, patientID int64, rec SymptomRecord) error
	GetPatient(ctx context.Context, patientID int64) (*PatientProfile, error)
	ListSymptoms(ctx context.Context, patientID int64) ([]SymptomRecord, error)
}

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) InsertPatient(ctx context.Context, p PatientProfile) (int64, error) {
	query := `
		INSERT INTO patients (name, age, gender, location, occupation, medical_history)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING patient_id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		p.Name, p.Age, p.Gender, p.Location, p.Occupation, p.MedicalHistory).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert patient: %w", err)
	}
	return id, nil
}

func (r *postgresRepo) InsertSymptom(ctx context.Context, patientID int64, rec SymptomRecord) error {
	// red_flag is stored as 'yes'/'no' text, matching the review tooling.
	redFlag := "no"
	if rec.RedFlag {
		redFlag = "yes"
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO symptoms (patient_id, symptom, severity, duration, red_flag)
		VALUES ($1, $2, $3, $4, $5)`,
		patientID, rec.Symptom, rec.Severity, rec.Duration, redFlag)
	if err != nil {
		return fmt.Errorf("insert symptom: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetPatient(ctx context.Context, patientID int64) (*PatientProfile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT patient_id, name, age, gender, location, occupation, medical_history
		FROM patients
		WHERE patient_id = $1`, patientID)

	var p PatientProfile
	var occupation, history sql.NullString
	err := row.Scan(&p.PatientID, &p.Name, &p.Age, &p.Gender, &p.Location, &occupation, &history)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("patient %d not found", patientID)
		}
		return nil, err
	}
	p.Occupation = occupation.String
	p.MedicalHistory = history.String
	return &p, nil
}

func (r *postgresRepo) ListSymptoms(ctx context.Context, patientID int64) ([]SymptomRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT symptom_id, patient_id, symptom, severity, duration, red_flag
		FROM symptoms
		WHERE patient_id = $1
		ORDER BY symptom_id ASC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []SymptomRecord
	for rows.Next() {
		var rec SymptomRecord
		var redFlag string
		if err := rows.Scan(&rec.SymptomID, &rec.PatientID, &rec.Symptom, &rec.Severity, &rec.Duration, &redFlag); err != nil {
			return nil, err
		}
		rec.RedFlag = redFlag == "yes"
		records = append(records, rec)
	}
	return records, rows.Err()
}
