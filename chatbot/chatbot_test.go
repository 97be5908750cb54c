package chatbot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVerdict(t *testing.T) {
	testCases := []struct {
		description string
		raw         string
		relevant    bool
	}{
		{"plain yes is relevant", "yes", true},
		{"yes with casing and whitespace is relevant", "  Yes\n", true},
		{"yes with trailing punctuation is relevant", "Yes.", true},
		{"yes leading a sentence is relevant", "yes, this one fits", true},
		{"plain no is not relevant", "no", false},
		{"hedging is not relevant", "maybe", false},
		{"empty output is not relevant", "", false},
		{"yes buried mid-sentence is not relevant", "I would say yes", false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			assert.Equal(t, testCase.relevant, parseVerdict(testCase.raw))
		})
	}
}

func TestStripWrappingQuotes(t *testing.T) {
	testCases := []struct {
		description string
		raw         string
		expected    string
	}{
		{"strips a full wrap", `"Great post!"`, "Great post!"},
		{"keeps inner quotes when not wrapped", `Great post! "really"`, `Great post! "really"`},
		{"keeps inner quotes when stripping a wrap", `"she said "hi" to me"`, `she said "hi" to me`},
		{"leaves unquoted text alone", "Great post!", "Great post!"},
		{"leaves a lone quote alone", `"`, `"`},
		{"strips an empty wrap", `""`, ""},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			assert.Equal(t, testCase.expected, stripWrappingQuotes(testCase.raw))
		})
	}
}
