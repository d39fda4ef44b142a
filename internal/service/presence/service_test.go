package presence

import (
	"testing"

	"github.com/shotme/tonight/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		user domain.User
		want string
	}{
		{"full name", domain.User{FirstName: "Ada", LastName: "Lovelace"}, "Ada Lovelace"},
		{"first only", domain.User{FirstName: "Ada"}, "Ada"},
		{"last only", domain.User{LastName: "Lovelace"}, "Lovelace"},
		{"empty", domain.User{}, "Someone"},
		{"whitespace", domain.User{FirstName: " ", LastName: " "}, "Someone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, displayName(&tt.user))
		})
	}
}
