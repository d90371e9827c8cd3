package awards

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// DefaultTopN is the number of nominees per category kept in the snapshot.
const DefaultTopN = 3

// Standing is a nominee's position within its category.
type Standing struct {
	NomineeID uuid.UUID `json:"nominee_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	Tally
	FinalScore float64 `json:"final_score"`
	Rank       int     `json:"rank"`
}

// Rank orders standings by final score, highest first, and assigns dense
// ranks: equal scores share a rank and the next distinct score gets the
// following integer. Ties are ordered by nominee creation time, then id,
// so the output is reproducible. The input slice is not modified.
func Rank(standings []Standing) []Standing {
	ranked := make([]Standing, len(standings))
	copy(ranked, standings)

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.FinalScore != b.FinalScore {
			return a.FinalScore > b.FinalScore
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.NomineeID.String() < b.NomineeID.String()
	})

	rank := 0
	for i := range ranked {
		if i == 0 || ranked[i].FinalScore != ranked[i-1].FinalScore {
			rank++
		}
		ranked[i].Rank = rank
	}
	return ranked
}

// TopN returns the first n entries of an already ranked slice.
func TopN(ranked []Standing, n int) []Standing {
	if n < 0 {
		n = 0
	}
	if len(ranked) <= n {
		return ranked
	}
	return ranked[:n]
}

// withBallots drops nominees that received no ballots at all.
func withBallots(ranked []Standing) []Standing {
	out := make([]Standing, 0, len(ranked))
	for _, s := range ranked {
		if s.Total() > 0 {
			out = append(out, s)
		}
	}
	return out
}
