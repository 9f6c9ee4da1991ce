package report

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/signintech/gopdf"

	"medical-intake-agent/internal/intake"
)

// TelegramClient sends alerts to the clinician chat.
type TelegramClient interface {
	SendMessage(chatID int64, text string) error
	SendDocument(chatID int64, fileData []byte, fileName string) error
}

// Service renders clinician intake summaries and delivers red-flag
// alerts to the configured chat.
type Service struct {
	tgClient     TelegramClient
	doctorChatID int64
}

func NewService(tg TelegramClient, doctorChatID int64) *Service {
	return &Service{
		tgClient:     tg,
		doctorChatID: doctorChatID,
	}
}

// BuildIntakeSummary renders the intake as a PDF: demographics first,
// then the reported symptoms with red flags marked.
func (s *Service) BuildIntakeSummary(p intake.PatientProfile, records []intake.SymptomRecord) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	// Common DejaVuSans locations across base images.
	fontPaths := []string{
		"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	}

	var fontErr error
	fontLoaded := false
	for _, path := range fontPaths {
		if err := pdf.AddTTFFont("DejaVu", path); err == nil {
			fontLoaded = true
			break
		} else {
			fontErr = err
		}
	}
	if !fontLoaded {
		return nil, fmt.Errorf("failed to load font for PDF, ensure ttf-dejavu is installed: %w", fontErr)
	}

	if err := pdf.SetFont("DejaVu", "", 20); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Patient Intake Summary")
	pdf.Br(30)

	if err := pdf.SetFont("DejaVu", "", 12); err != nil {
		return nil, err
	}
	pdf.Cell(nil, fmt.Sprintf("Date: %s", time.Now().Format("02.01.2006 15:04")))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("Patient ID: %d", p.PatientID))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("Name: %s    Age: %s    Gender: %s", p.Name, p.Age, p.Gender))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("Location: %s", p.Location))
	pdf.Br(15)
	if p.Occupation != "" {
		pdf.Cell(nil, fmt.Sprintf("Occupation: %s", p.Occupation))
		pdf.Br(15)
	}
	if p.MedicalHistory != "" {
		lines, _ := pdf.SplitText(fmt.Sprintf("Medical history: %s", p.MedicalHistory), 500)
		for _, l := range lines {
			pdf.Cell(nil, l)
			pdf.Br(12)
		}
	}
	pdf.Br(15)

	if err := pdf.SetFont("DejaVu", "", 14); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Reported symptoms:")
	pdf.Br(15)

	if err := pdf.SetFont("DejaVu", "", 11); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		pdf.Cell(nil, "- None recorded.")
		pdf.Br(15)
	}
	redFlags := 0
	for _, rec := range records {
		line := fmt.Sprintf("- %s (duration: %s, severity: %s)", rec.Symptom, rec.Duration, rec.Severity)
		if rec.RedFlag {
			line += "  [RED FLAG]"
			redFlags++
		}
		lines, _ := pdf.SplitText(line, 500)
		for _, l := range lines {
			pdf.Cell(nil, l)
			pdf.Br(12)
		}
		pdf.Br(5)
	}

	if redFlags > 0 {
		pdf.Br(10)
		if err := pdf.SetFont("DejaVu", "", 12); err != nil {
			return nil, err
		}
		pdf.Cell(nil, fmt.Sprintf("URGENT: %d red-flag symptom(s) reported. Immediate review advised.", redFlags))
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// SendRedFlagAlert notifies the clinician chat about red-flagged
// symptoms and attaches the intake summary when it can be rendered.
func (s *Service) SendRedFlagAlert(ctx context.Context, p intake.PatientProfile, records []intake.SymptomRecord) error {
	if s.tgClient == nil || s.doctorChatID == 0 {
		return fmt.Errorf("alert channel not configured")
	}

	var flagged []string
	for _, rec := range records {
		if rec.RedFlag {
			flagged = append(flagged, rec.Symptom)
		}
	}
	text := fmt.Sprintf("URGENT: patient %d (%s) reported red-flag symptoms: %s",
		p.PatientID, p.Name, strings.Join(flagged, ", "))
	if err := s.tgClient.SendMessage(s.doctorChatID, text); err != nil {
		return err
	}

	pdfData, err := s.BuildIntakeSummary(p, records)
	if err != nil {
		// The text alert already went out; the attachment is best effort.
		log.Printf("intake summary for alert failed: %v", err)
		return nil
	}
	fileName := fmt.Sprintf("intake_%d_%s.pdf", p.PatientID, time.Now().Format("20060102_1504"))
	return s.tgClient.SendDocument(s.doctorChatID, pdfData, fileName)
}
