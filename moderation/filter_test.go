package moderation

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// TestFilter_Classify
// The dictionary uses specific words to avoid partial collisions (e.g., "he" inside "The")
func TestFilter_Classify(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	dictionary := []string{"badger", "snake", "mushroom"}
	filter, err := NewFilter(dictionary, replacementChar, log)
	req.NoError(err)

	tests := []struct {
		name    string
		input   string
		flagged bool
		matches []string
	}{
		{
			name:    "Clean text",
			input:   "What a great stream",
			flagged: false,
			matches: nil,
		},
		{
			name:    "Simple hit",
			input:   "The badger is here",
			flagged: true,
			matches: []string{"badger"},
		},
		{
			name:    "Case insensitive",
			input:   "BADGER incoming",
			flagged: true,
			matches: []string{"badger"},
		},
		{
			name:    "Leet speak evasion",
			input:   "that b4dg3r again",
			flagged: true,
			matches: []string{"badger"},
		},
		{
			name:    "Punctuation evasion",
			input:   "s.n.a.k.e alert",
			flagged: true,
			matches: []string{"snake"},
		},
		{
			name:    "Hit hidden inside a word",
			input:   "unsnakelike",
			flagged: true,
			matches: []string{"snake"},
		},
		{
			name:    "Multiple hits keep match order",
			input:   "snake meets badger",
			flagged: true,
			matches: []string{"snake", "badger"},
		},
		{
			name:    "Empty input",
			input:   "",
			flagged: false,
			matches: nil,
		},
		{
			name:    "Noise only",
			input:   "... ,,, ???",
			flagged: false,
			matches: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := filter.Classify(tt.input)
			req.NoError(err)
			req.Equal(tt.flagged, verdict.Flagged, "test=%s,", tt.name)
			req.Equal(tt.matches, verdict.Matches, "input=%s,matches=%s", tt.input, verdict.Matches)
		})
	}
}

// TestFilter_ClassifyFailsClosed
// A filter that was never built must flag everything rather than let
// text through unclassified.
func TestFilter_ClassifyFailsClosed(t *testing.T) {
	req := require.New(t)

	var broken Filter
	verdict, err := broken.Classify("anything at all")
	req.Error(err)
	req.True(verdict.Flagged)
}

func TestFilter_Censor(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	dictionary := []string{"badger", "snake", "mushroom"}
	filter, err := NewFilter(dictionary, replacementChar, log)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
		words    []string
	}{
		{
			name:     "Simple word and space preservation",
			input:    "The badger is here",
			expected: "The ****** is here",
			words:    []string{"badger"},
		},
		{
			name:     "Multiple occurrences and preserved spacing",
			input:    "badger badger badger",
			expected: "****** ****** ******",
			words:    []string{"badger", "badger", "badger"},
		},
		{
			name:     "Leet speak and internal punctuation",
			input:    "Look at B.4.d.g.€r !",
			expected: "Look at ********** !",
			words:    []string{"badger"},
		},
		{
			name:     "Accents and special characters (UTF-8)",
			input:    "Un été avec un badger",
			expected: "Un été avec un ******",
			words:    []string{"badger"},
		},
		{
			name:     "Word adjacent to trailing punctuation",
			input:    "I love badger!",
			expected: "I love ******!",
			words:    []string{"badger"},
		},
		{
			name:     "Nothing to censor",
			input:    "This overlay is amazing",
			expected: "This overlay is amazing",
			words:    nil,
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
			words:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, words := filter.Censor(tt.input)
			req.Equal(tt.expected, content, "test=%s,", tt.name)
			req.Equal(tt.words, words, "expected=%s,words=%s", tt.expected, words)
		})
	}
}

func TestFilter_CornerCases(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given real noise and not Leet Speak associated
	dictionary := []string{"...", ",,,", "", "badger"}

	filter, err := NewFilter(dictionary, replacementChar, log)
	req.NoError(err)

	// Then the sentence is censored
	input := "The badger is safe"
	expected := "The ****** is safe"
	content, words := filter.Censor(input)
	req.Equal(expected, content)
	req.Equal([]string{"badger"}, words)

	// Then real noise is uncensored
	input = "Hello ..."
	expected = "Hello ..."
	content, words = filter.Censor(input)
	req.Equal(expected, content)
	req.Nil(words)
}

func TestFilter_EmptyDictionary(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	_, err := NewFilter(nil, replacementChar, log)
	req.Error(err)

	_, err = NewFilter([]string{"...", ""}, replacementChar, log)
	req.Error(err)
}

func TestDenylist_LoadDefault(t *testing.T) {
	req := require.New(t)

	data, err := LoadDefault()
	req.NoError(err)
	req.NotEmpty(data.Words)
	req.Contains(data.Languages, "en")
	req.Contains(data.Languages, "fr")
}
