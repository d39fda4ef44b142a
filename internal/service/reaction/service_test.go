package reaction

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/shotme/tonight/internal/domain"
)

func TestDecide(t *testing.T) {
	existing := &domain.Reaction{
		ID:      uuid.New(),
		EntryID: uuid.New(),
		UserID:  42,
		Symbol:  "🙌",
	}

	tests := []struct {
		name     string
		existing *domain.Reaction
		symbol   string
		want     Outcome
	}{
		{"no prior reaction", nil, "🙌", OutcomeApplied},
		{"same symbol toggles off", existing, "🙌", OutcomeRemoved},
		{"different symbol replaces", existing, "🍻", OutcomeReplaced},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decide(tt.existing, tt.symbol))
		})
	}
}

// Reacting twice with the same symbol nets out to no reaction: the first
// decide applies, and a second decide against the applied row removes.
func TestDecideDoubleToggleNetsZero(t *testing.T) {
	assert.Equal(t, OutcomeApplied, decide(nil, "🍻"))

	applied := &domain.Reaction{Symbol: "🍻"}
	assert.Equal(t, OutcomeRemoved, decide(applied, "🍻"))
}
