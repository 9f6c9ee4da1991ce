package extract

import (
	"fmt"
	"strings"
)

// redFlagConditions is the catalog of clinically urgent symptom
// patterns. It is data, not code: the list is interpolated verbatim into
// the extraction prompt and the model is the sole red-flag classifier,
// so updating triage criteria is an edit to this slice only.
var redFlagConditions = []string{
	"Chest pain, especially left-sided or radiating to arm/jaw/back",
	"Severe headache (worst ever, sudden onset)",
	"Difficulty breathing at rest",
	"Coughing up blood",
	"Vomiting blood or blood in stool",
	"Sudden severe abdominal pain",
	"Loss of consciousness",
	"Seizures",
	"Sudden vision loss or double vision",
	"Sudden weakness or numbness",
	"Difficulty speaking",
	"Severe allergic reaction",
	"High fever with stiff neck or confusion",
	"Suicidal thoughts or self-harm ideation",
	"Severe bleeding that won't stop",
	"Sudden severe pain (any location)",
}

const promptTemplate = `Extract medical symptoms and identify any red flag conditions from the following text.

User input: "%s"

Return ONLY a JSON object in this exact format:
{
  "symptoms": [
    {
      "symptom": "symptom name",
      "duration": "duration",
      "severity": "severity level",
      "red_flag": true/false
    }
  ]
}

RED FLAG CONDITIONS:
%s

SYMPTOM EXTRACTION RULES:
- Include symptom, duration, severity, and red_flag (true/false)
- Use "not specified" if duration or severity is missing
- Only extract symptoms that are clearly stated in the text
- If the input is unclear, meaningless, or gibberish, return:
  "symptoms": []
- Return ONLY the JSON object, no other text
`

// buildPrompt embeds the raw user text verbatim and the red-flag catalog
// into the fixed instruction template.
func buildPrompt(userText string) string {
	var list strings.Builder
	for i, cond := range redFlagConditions {
		if i > 0 {
			list.WriteString("\n")
		}
		list.WriteString("- ")
		list.WriteString(cond)
	}
	return fmt.Sprintf(promptTemplate, userText, list.String())
}
