package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := map[string]string{
		"Best Shonen":            "best-shonen",
		"Best Shōnen!":           "best-shonen",
		"  Anime of the Year  ":  "anime-of-the-year",
		"Best OST / Soundtrack":  "best-ost-soundtrack",
		"Pokémon & Friends 2024": "pokemon-friends-2024",
		"---":                    "",
		"Best_Opening--Sequence": "best-opening-sequence",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			got := Make(in)
			assert.Equal(t, want, got)
			if want != "" {
				assert.True(t, Valid(got))
			}
		})
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("best-shonen"))
	assert.True(t, Valid("aoty2024"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("Best-Shonen"))
	assert.False(t, Valid("-best"))
	assert.False(t, Valid("best--shonen"))
	assert.False(t, Valid("best shonen"))
}
