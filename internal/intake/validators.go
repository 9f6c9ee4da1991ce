package intake

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FieldError is a validation rejection: expected, user-correctable input
// feedback, never a system error. Message is stable per slot so the
// dialogue layer can render field-appropriate guidance.
type FieldError struct {
	Slot    string
	Message string
}

func (e *FieldError) Error() string { return e.Slot + ": " + e.Message }

// Rejection and notice messages, one per slot.
const (
	MsgInvalidName     = "Please enter a valid name using letters only (at least 2 characters)."
	MsgInvalidAge      = "Please enter a valid age between 1 and 120."
	MsgInvalidGender   = "Please enter your gender (for example: male, female, m, f)."
	MsgInvalidLocation = "Please enter a valid location using letters only."

	MsgUnclearSymptoms = "I couldn't extract any symptoms from your description. Please describe your symptoms more clearly. For example: 'I have a headache for 2 days, severe chest pain for 1 hour.'"
	MsgEmergency       = "Your symptoms may indicate a serious condition. Please seek urgent medical care immediately."
)

// titleCase normalizes a value to title case. A Caser is stateful, so
// one is created per call rather than shared across sessions.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// genderSynonyms is the closed set of accepted gender inputs. Only
// values literally listed here are accepted; widening the set is a data
// change, not a code change.
var genderSynonyms = map[string]string{
	"male":      "male",
	"m":         "male",
	"man":       "male",
	"boy":       "male",
	"gentleman": "male",
	"female":    "female",
	"f":         "female",
	"woman":     "female",
	"girl":      "female",
	"lady":      "female",
}

// ValidateName accepts letters and spaces with at least two letters and
// returns the title-cased value.
func ValidateName(raw string) (string, *FieldError) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return "", &FieldError{Slot: SlotName, Message: MsgInvalidName}
	}
	letters := 0
	for _, r := range cleaned {
		if unicode.IsLetter(r) {
			letters++
			continue
		}
		if !unicode.IsSpace(r) {
			return "", &FieldError{Slot: SlotName, Message: MsgInvalidName}
		}
	}
	if letters < 2 {
		return "", &FieldError{Slot: SlotName, Message: MsgInvalidName}
	}
	return titleCase(cleaned), nil
}

// ValidateAge accepts integers in [1, 120] and returns the canonical
// string form.
func ValidateAge(raw string) (string, *FieldError) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return "", &FieldError{Slot: SlotAge, Message: MsgInvalidAge}
	}
	age, err := strconv.Atoi(cleaned)
	if err != nil || age < 1 || age > 120 {
		return "", &FieldError{Slot: SlotAge, Message: MsgInvalidAge}
	}
	return strconv.Itoa(age), nil
}

// ValidateGender maps the input through the synonym table to a canonical
// label. Inputs absent from the table are rejected.
func ValidateGender(raw string) (string, *FieldError) {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return "", &FieldError{Slot: SlotGender, Message: MsgInvalidGender}
	}
	canonical, ok := genderSynonyms[cleaned]
	if !ok {
		return "", &FieldError{Slot: SlotGender, Message: MsgInvalidGender}
	}
	return canonical, nil
}

// ValidateLocation accepts letters and spaces and returns the
// title-cased value.
func ValidateLocation(raw string) (string, *FieldError) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return "", &FieldError{Slot: SlotLocation, Message: MsgInvalidLocation}
	}
	for _, r := range cleaned {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
			return "", &FieldError{Slot: SlotLocation, Message: MsgInvalidLocation}
		}
	}
	return titleCase(cleaned), nil
}
