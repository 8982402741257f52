// Package mock provides an in-memory fake implementation of the
// [reading.Provider] interface for use in unit tests.
package mock

import (
	"context"
	"sync"

	"github.com/suryalive/suryalive/pkg/provider/reading"
)

// Provider is a fake implementation of [reading.Provider].
// Set the exported Result/Error fields before use; inspect the Call* fields after.
type Provider struct {
	mu sync.Mutex

	// PersonalizedReadingResult is returned when PersonalizedReadingError is nil.
	PersonalizedReadingResult *reading.LagnaReading

	// PersonalizedReadingError, when non-nil, is returned by PersonalizedReading.
	PersonalizedReadingError error

	// DailyHoroscopeResult is returned when DailyHoroscopeError is nil.
	DailyHoroscopeResult string

	// DailyHoroscopeError, when non-nil, is returned by DailyHoroscope.
	DailyHoroscopeError error

	// CallCountPersonalizedReading records how many times PersonalizedReading was called.
	CallCountPersonalizedReading int

	// CallCountDailyHoroscope records how many times DailyHoroscope was called.
	CallCountDailyHoroscope int

	// RecordedBirthInfos holds the info argument of each PersonalizedReading call.
	RecordedBirthInfos []reading.BirthInfo

	// RecordedLagnas holds the lagna argument of each DailyHoroscope call.
	RecordedLagnas []string
}

var _ reading.Provider = (*Provider)(nil)

// PersonalizedReading records info and returns the configured result or error.
func (p *Provider) PersonalizedReading(_ context.Context, info reading.BirthInfo) (*reading.LagnaReading, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CallCountPersonalizedReading++
	p.RecordedBirthInfos = append(p.RecordedBirthInfos, info)
	if p.PersonalizedReadingError != nil {
		return nil, p.PersonalizedReadingError
	}
	return p.PersonalizedReadingResult, nil
}

// DailyHoroscope records lagna and returns the configured result or error.
func (p *Provider) DailyHoroscope(_ context.Context, lagna string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CallCountDailyHoroscope++
	p.RecordedLagnas = append(p.RecordedLagnas, lagna)
	if p.DailyHoroscopeError != nil {
		return "", p.DailyHoroscopeError
	}
	return p.DailyHoroscopeResult, nil
}
