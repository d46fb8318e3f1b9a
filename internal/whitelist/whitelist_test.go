package whitelist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestChecker_IsWhitelisted(t *testing.T) {
	checker := NewChecker([]string{" Bank.Example ", "corp.example", ""}, zap.NewNop())

	tests := []struct {
		name     string
		from     string
		expected bool
	}{
		{name: "bare address", from: "alerts@bank.example", expected: true},
		{name: "mixed case domain", from: "alerts@BANK.example", expected: true},
		{name: "display name", from: "Corp IT <it@corp.example>", expected: true},
		{name: "look-alike domain", from: "alerts@bank.example.evil", expected: false},
		{name: "subdomain not implied", from: "alerts@mail.bank.example", expected: false},
		{name: "no domain", from: "postmaster", expected: false},
		{name: "empty", from: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, checker.IsWhitelisted(tt.from))
		})
	}
}

func TestChecker_EmptyList(t *testing.T) {
	checker := NewChecker(nil, nil)

	assert.False(t, checker.IsWhitelisted("a@bank.example"))
}
