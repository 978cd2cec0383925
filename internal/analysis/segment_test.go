package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", []string{}},
		{"no delimiters", "works as advertised", []string{"works as advertised"}},
		{"single run of delimiters", "Great!!! Really?!", []string{"Great", "Really"}},
		{"only delimiters", "...!?", []string{}},
		{"trims whitespace", "  first .  second  ", []string{"first", "second"}},
		{"keeps casing", "The Battery died. Shipping FAST", []string{"The Battery died", "Shipping FAST"}},
		{"whitespace spans dropped", "one.   . two", []string{"one", "two"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitSentences(tt.input))
		})
	}
}

func TestMentions(t *testing.T) {
	keywords := []string{"charge", "battery"}

	assert.True(t, Mentions("charging takes forever", keywords), "substring match on stems")
	assert.True(t, Mentions("the battery.", keywords))
	assert.False(t, Mentions("shipping was quick", keywords))
	assert.False(t, Mentions("", keywords))
}

func TestRelevantSentences(t *testing.T) {
	sentences := []string{"The BATTERY died", "Shipping was fine", "Charge lasts a day"}

	relevant := RelevantSentences(sentences, []string{"battery", "charge"})
	assert.Equal(t, []string{"The BATTERY died", "Charge lasts a day"}, relevant)

	assert.Empty(t, RelevantSentences(sentences, []string{"price"}))
}
