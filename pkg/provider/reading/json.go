package reading

import (
	"encoding/json"
	"fmt"
	"strings"
)

// readingSchema is the JSON schema sent to backends that support structured
// output, and referenced in the prompt for backends that do not.
const readingSchema = `{
  "type": "object",
  "properties": {
    "lagna": {"type": "string", "description": "The calculated Lagna (Ascendant) in Sinhala"},
    "summary": {"type": "string", "description": "Overall life summary in Sinhala"},
    "predictions": {
      "type": "object",
      "properties": {
        "health": {"type": "string"},
        "wealth": {"type": "string"},
        "career": {"type": "string"},
        "love": {"type": "string"}
      },
      "required": ["health", "wealth", "career", "love"]
    },
    "luckyNumbers": {"type": "array", "items": {"type": "integer"}},
    "luckyColor": {"type": "string", "description": "Lucky color in Sinhala"}
  },
  "required": ["lagna", "summary", "predictions", "luckyNumbers", "luckyColor"]
}`

// DecodeReading parses a model response into a LagnaReading. Models sometimes
// wrap JSON in a Markdown code fence even when asked not to; the fence is
// stripped before decoding.
func DecodeReading(text string) (*LagnaReading, error) {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	var r LagnaReading
	if err := json.Unmarshal([]byte(cleaned), &r); err != nil {
		return nil, fmt.Errorf("reading: decode response: %w", err)
	}
	if r.Lagna == "" {
		return nil, fmt.Errorf("reading: response missing lagna")
	}
	return &r, nil
}

// PersonalizedPrompt builds the generation prompt for a structured reading.
func PersonalizedPrompt(info BirthInfo) string {
	return fmt.Sprintf(
		"Generate a detailed Sri Lankan traditional astrology (Jyotish) reading in Sinhala "+
			"for a person born on %s at %s in %s. "+
			"The response must be valid JSON matching this schema, with no surrounding prose:\n%s\n"+
			"Ensure the tone is professional, traditional, and culturally appropriate for Sri Lanka.",
		info.BirthDate, info.BirthTime, info.BirthPlace, readingSchema,
	)
}

// HoroscopePrompt builds the generation prompt for a daily horoscope.
func HoroscopePrompt(lagna string) string {
	return fmt.Sprintf(
		"Write a short daily horoscope prediction for %s lagna in Sinhala. "+
			"Focus on positive guidance. Keep it under 100 words.",
		lagna,
	)
}
