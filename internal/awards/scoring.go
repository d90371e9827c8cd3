package awards

import (
	"fmt"
	"math"
)

// Tally is the number of public and jury ballots a nominee received.
type Tally struct {
	PublicVotes int `json:"public_votes"`
	JuryVotes   int `json:"jury_votes"`
}

// Total returns the number of ballots of either kind.
func (t Tally) Total() int { return t.PublicVotes + t.JuryVotes }

// Weights splits the final score between public and jury ballots.
type Weights struct {
	Public float64
	Jury   float64
}

// DefaultWeights gives the public vote 60% and the jury 40%.
var DefaultWeights = Weights{Public: 0.6, Jury: 0.4}

// Validate checks that both weights are non-negative and sum to one.
func (w Weights) Validate() error {
	if w.Public < 0 || w.Jury < 0 {
		return fmt.Errorf("%w: score weights must be non-negative", ErrInvalidInput)
	}
	if math.Abs(w.Public+w.Jury-1) > 1e-9 {
		return fmt.Errorf("%w: score weights must sum to 1, got %.4f", ErrInvalidInput, w.Public+w.Jury)
	}
	return nil
}

// FinalScore blends raw ballot counts: Public*publicVotes + Jury*juryVotes.
// The result is rounded to four decimal places so repeated runs store
// identical values.
func FinalScore(t Tally, w Weights) float64 {
	score := w.Public*float64(t.PublicVotes) + w.Jury*float64(t.JuryVotes)
	return math.Round(score*1e4) / 1e4
}
