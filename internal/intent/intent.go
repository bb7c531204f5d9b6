// Package intent classifies a user utterance into the action Aura should take.
//
// Classification is plain case-insensitive substring matching over phrase
// sets. Rules are checked in a fixed order and the first match wins:
//
//  1. [ImageGeneration]: a generation verb and the word "image".
//  2. [SavePrevious]: a save-previous phrase in a short utterance.
//  3. [ChatAndSave]: a save-current phrase without a long save-previous phrase.
//  4. [Chat]: everything else.
//
// The short-utterance limit for rule 2 is a heuristic that trades recall for
// precision ("save it" alone is a command, "can you save it for later and
// ..." is not). It is configurable through [WithMaxSavePreviousTokens].
package intent

import "strings"

// Kind is the classified action for one utterance.
type Kind string

const (
	Chat            Kind = "chat"
	ChatAndSave     Kind = "chat_and_save"
	SavePrevious    Kind = "save_previous"
	ImageGeneration Kind = "image_generation"
)

// String implements fmt.Stringer.
func (k Kind) String() string { return string(k) }

// Result is the outcome of classifying one utterance.
type Result struct {
	Kind Kind
	// Query is the lower-cased input for ImageGeneration and the unmodified
	// input otherwise.
	Query string
}

// DefaultMaxSavePreviousTokens is the largest whitespace token count an
// utterance may have and still be read as a save-previous command.
const DefaultMaxSavePreviousTokens = 3

// longPhraseLen is the length a save-previous phrase must exceed to block a
// chat-and-save match.
const longPhraseLen = 6

// Phrases holds the phrase sets the classifier matches against. All entries
// must be lower case.
type Phrases struct {
	GenerationVerbs []string
	ImageNoun       string
	SavePrevious    []string
	SaveCurrent     []string
}

// DefaultPhrases are the English and Hinglish phrases Aura recognises.
var DefaultPhrases = Phrases{
	GenerationVerbs: []string{"generate", "create", "draw", "make"},
	ImageNoun:       "image",
	SavePrevious:    []string{"save that", "save the last one", "save previous", "save the draft", "isko save karo", "save it"},
	SaveCurrent:     []string{"and save", "and save it", "save as pdf", "save it as pdf", "aur save karo"},
}

// Classifier maps utterances to intents. The zero value is not usable; create
// one with [New]. A Classifier is immutable and safe for concurrent use.
type Classifier struct {
	phrases   Phrases
	maxTokens int
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithPhrases replaces the default phrase sets.
func WithPhrases(p Phrases) Option {
	return func(c *Classifier) { c.phrases = p }
}

// WithMaxSavePreviousTokens sets the save-previous token limit. Values below
// one keep the default.
func WithMaxSavePreviousTokens(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// New returns a Classifier using [DefaultPhrases] unless overridden.
func New(opts ...Option) *Classifier {
	c := &Classifier{phrases: DefaultPhrases, maxTokens: DefaultMaxSavePreviousTokens}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Classify returns the intent of text. Callers filter out blank input first;
// blank input classifies as Chat.
func (c *Classifier) Classify(text string) Result {
	lower := strings.ToLower(text)

	if c.IsImageGeneration(lower) {
		return Result{Kind: ImageGeneration, Query: lower}
	}

	if containsAny(lower, c.phrases.SavePrevious, 0) && len(strings.Fields(lower)) <= c.maxTokens {
		return Result{Kind: SavePrevious, Query: text}
	}

	if containsAny(lower, c.phrases.SaveCurrent, 0) && !containsAny(lower, c.phrases.SavePrevious, longPhraseLen) {
		return Result{Kind: ChatAndSave, Query: text}
	}

	return Result{Kind: Chat, Query: text}
}

// IsImageGeneration reports whether text asks for a new image.
func (c *Classifier) IsImageGeneration(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, c.phrases.ImageNoun) && containsAny(lower, c.phrases.GenerationVerbs, 0)
}

// containsAny reports whether s contains a phrase longer than minLen.
func containsAny(s string, phrases []string, minLen int) bool {
	for _, p := range phrases {
		if len(p) > minLen && strings.Contains(s, p) {
			return true
		}
	}
	return false
}
