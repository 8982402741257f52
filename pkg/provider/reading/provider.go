// Package reading defines the Provider interface for astrology text
// generation: a personalized birth-chart reading and a short daily horoscope.
//
// Both operations are stateless request/response calls against a generative
// model backend. Implementations live in subpackages (reading/anyllm,
// reading/openai) and must be safe for concurrent use.
package reading

import "context"

// BirthInfo identifies the birth moment and place a personalized reading is
// computed from.
type BirthInfo struct {
	Name       string `json:"name"`
	BirthDate  string `json:"birthDate"`
	BirthTime  string `json:"birthTime"`
	BirthPlace string `json:"birthPlace"`
}

// Predictions holds the per-life-area prediction texts of a reading.
type Predictions struct {
	Health string `json:"health"`
	Wealth string `json:"wealth"`
	Career string `json:"career"`
	Love   string `json:"love"`
}

// LagnaReading is a structured Sri Lankan traditional astrology (Jyotish)
// reading. The Lagna is the ascendant sign computed from the birth moment.
type LagnaReading struct {
	Lagna        string      `json:"lagna"`
	Summary      string      `json:"summary"`
	Predictions  Predictions `json:"predictions"`
	LuckyNumbers []int       `json:"luckyNumbers"`
	LuckyColor   string      `json:"luckyColor"`
}

// Provider is the abstraction over any text-generation backend capable of
// producing readings.
type Provider interface {
	// PersonalizedReading generates a structured reading for the given birth
	// info. The response is produced in Sinhala.
	PersonalizedReading(ctx context.Context, info BirthInfo) (*LagnaReading, error)

	// DailyHoroscope generates a short (under 100 words) positive daily
	// guidance text in Sinhala for the given lagna.
	DailyHoroscope(ctx context.Context, lagna string) (string, error)
}
