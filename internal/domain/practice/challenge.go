package practice

import (
	"context"
	"strings"
)

// Age brackets for challenge generation.
const (
	AgeInfant    = "0"
	AgeToddler   = "1"
	AgePreschool = "2-3"
	AgeChild     = "4-6"

	DefaultAge = AgeChild
)

// Challenge sentences used when generation is unavailable.
const (
	FallbackEmptySentence = "The gentle wind rustled the leaves on the big oak tree."
	FallbackErrorSentence = "Practice makes perfect when learning new skills."
)

// AgePrompt describes how to generate and what to expect for one bracket.
type AgePrompt struct {
	Prompt      string
	Examples    []string
	Description string
}

var agePrompts = map[string]AgePrompt{
	AgeInfant: {
		Prompt:      `Generate a single simple vowel sound or babbling sound appropriate for a 0-year-old baby, such as "aaa", "ooo", "eee", "mmm", "baba", "dada". Return ONLY the sound, nothing else. Keep it 1-3 syllables maximum.`,
		Examples:    []string{"aaa", "ooo", "mmm", "baba", "mama", "dada"},
		Description: "Simple sounds & babbling",
	},
	AgeToddler: {
		Prompt:      `Generate a single simple word or repeated syllable appropriate for a 1-year-old child, such as "ball", "mama", "dada", "cup", "dog", "cat", "more", "up". Return ONLY the word, nothing else. Maximum 2 syllables.`,
		Examples:    []string{"ball", "mama", "more", "dog", "cup", "milk"},
		Description: "First words",
	},
	AgePreschool: {
		Prompt:      `Generate a simple 2-4 word phrase appropriate for a 2-3 year old child, such as "want milk", "play ball", "big dog", "go outside", "my toy". Use simple, common words. Return ONLY the phrase, nothing else.`,
		Examples:    []string{"want milk", "play ball", "big truck", "go park", "my toy", "red car"},
		Description: "Short phrases",
	},
	AgeChild: {
		Prompt: "Generate a simple, clear sentence 6-12 words long appropriate for a 4-6 year old child to practice pronunciation. The sentence should use common words, proper grammar, and be easy to understand. Topics can include daily activities, animals, toys, family, or nature. Return ONLY the sentence, nothing else.",
		Examples: []string{
			"I like to play with my friends at the park.",
			"The big brown dog runs fast in the yard.",
			"My favorite color is blue like the sky.",
			"We eat breakfast together every morning.",
		},
		Description: "Complete sentences",
	},
}

// NormalizeAge maps unknown or empty brackets to DefaultAge.
func NormalizeAge(age string) string {
	if _, ok := agePrompts[age]; ok {
		return age
	}
	return DefaultAge
}

// PromptFor returns the generation prompt for an age bracket.
func PromptFor(age string) AgePrompt {
	return agePrompts[NormalizeAge(age)]
}

// SentenceGenerator produces challenge text from a prompt.
type SentenceGenerator interface {
	GenerateSentence(ctx context.Context, prompt string) (string, error)
}

// Picker selects an index in [0,n).
type Picker interface {
	Intn(n int) int
}

// ChallengeFor returns a challenge for age. With a generator it follows the
// generator's answer, using the fixed fallbacks on error or empty output.
// Without one it picks from the bracket's examples.
func ChallengeFor(ctx context.Context, gen SentenceGenerator, pick Picker, age string) string {
	p := PromptFor(age)
	if gen == nil {
		return p.Examples[pick.Intn(len(p.Examples))]
	}
	s, err := gen.GenerateSentence(ctx, p.Prompt)
	if err != nil {
		return FallbackErrorSentence
	}
	s = CleanSentence(s)
	if s == "" {
		return FallbackEmptySentence
	}
	return s
}

// CleanSentence trims whitespace and one pair of surrounding quotes.
func CleanSentence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimPrefix(s, `'`)
	s = strings.TrimSuffix(s, `"`)
	s = strings.TrimSuffix(s, `'`)
	return strings.TrimSpace(s)
}
