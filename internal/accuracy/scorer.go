// Package accuracy tracks how often the classifier's choice of registration
// type is confirmed by users, per predicted type.
package accuracy

import (
	"math"
	"time"

	"github.com/MikeSquared-Agency/roadlog/internal/registration"
)

const (
	// InitialScore is the score of a type with no feedback yet.
	InitialScore = 0.5

	// DefaultDecayRate pulls stale scores back toward InitialScore per day.
	DefaultDecayRate = 0.01

	// confidentMiss is the classifier confidence at which a wrong guess
	// triggers the cliff drop.
	confidentMiss = 0.85
)

// SignalWeight returns the score increment for feedback on a prediction
// made with the given confidence. Confident predictions move the score more.
func SignalWeight(confidence float64) float64 {
	switch {
	case confidence >= 0.8:
		return 0.05
	case confidence >= 0.6:
		return 0.03
	default:
		return 0.01
	}
}

// UpdateScore calculates the new score after one feedback signal.
// Degradation is asymmetric: wrong predictions count 2x.
func UpdateScore(currentScore, confidence float64, correct bool) float64 {
	weight := SignalWeight(confidence)
	if correct {
		return clamp(currentScore + weight)
	}
	return clamp(currentScore - weight*2.0)
}

// ConfidentMissDrop applies a cliff drop when a prediction the classifier
// was sure about turns out wrong.
func ConfidentMissDrop(currentScore float64) float64 {
	score := currentScore - 0.3
	if score < 0.0 {
		return 0.0
	}
	return score
}

// DecayScore pulls a stale score toward InitialScore. days is the number of
// whole days since the last signal.
func DecayScore(currentScore, decayRate float64, days int) float64 {
	if days <= 0 {
		return clamp(currentScore)
	}
	keep := math.Pow(1.0-decayRate, float64(days))
	return clamp(InitialScore + (currentScore-InitialScore)*keep)
}

func clamp(score float64) float64 {
	if score < 0.0 {
		return 0.0
	}
	if score > 1.0 {
		return 1.0
	}
	return score
}

// Stats is the running accuracy for one predicted registration type.
type Stats struct {
	RegistrationType registration.Type `json:"registration_type"`
	Score            float64           `json:"score"`
	Correct          int               `json:"correct"`
	Wrong            int               `json:"wrong"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// NewStats returns the neutral starting point for a type.
func NewStats(t registration.Type) Stats {
	return Stats{RegistrationType: t, Score: InitialScore}
}

// Apply records one feedback signal at time now.
func (s *Stats) Apply(confidence float64, correct bool, now time.Time) {
	s.Score = s.Current(now)
	if correct {
		s.Correct++
		s.Score = UpdateScore(s.Score, confidence, true)
	} else {
		s.Wrong++
		if confidence >= confidentMiss {
			s.Score = ConfidentMissDrop(s.Score)
		} else {
			s.Score = UpdateScore(s.Score, confidence, false)
		}
	}
	s.UpdatedAt = now
}

// Current returns the score with decay applied up to now.
func (s Stats) Current(now time.Time) float64 {
	if s.UpdatedAt.IsZero() {
		return s.Score
	}
	days := int(now.Sub(s.UpdatedAt).Hours() / 24)
	return DecayScore(s.Score, DefaultDecayRate, days)
}

// Rate is the plain share of confirmed predictions, or 0 without feedback.
func (s Stats) Rate() float64 {
	total := s.Correct + s.Wrong
	if total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(total)
}
