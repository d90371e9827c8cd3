package awards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalScore(t *testing.T) {
	tests := []struct {
		name  string
		tally Tally
		want  float64
	}{
		{name: "no ballots", tally: Tally{}, want: 0},
		{name: "public only", tally: Tally{PublicVotes: 10}, want: 6},
		{name: "jury only", tally: Tally{JuryVotes: 5}, want: 2},
		{name: "mixed", tally: Tally{PublicVotes: 7, JuryVotes: 3}, want: 5.4},
		{name: "rounded to four places", tally: Tally{PublicVotes: 3}, want: 1.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, FinalScore(tt.tally, DefaultWeights), 1e-9)
		})
	}
}

func TestFinalScoreCustomWeights(t *testing.T) {
	w := Weights{Public: 0.5, Jury: 0.5}
	require.NoError(t, w.Validate())
	assert.InDelta(t, 3.5, FinalScore(Tally{PublicVotes: 3, JuryVotes: 4}, w), 1e-9)
}

func TestWeightsValidate(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
		wantErr bool
	}{
		{name: "default", weights: DefaultWeights},
		{name: "all public", weights: Weights{Public: 1}},
		{name: "negative jury", weights: Weights{Public: 1.2, Jury: -0.2}, wantErr: true},
		{name: "does not sum to one", weights: Weights{Public: 0.6, Jury: 0.6}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTallyTotal(t *testing.T) {
	assert.Equal(t, 7, Tally{PublicVotes: 4, JuryVotes: 3}.Total())
}
