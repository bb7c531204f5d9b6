package assistant

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// minFuzzyJaroWinkler is the string similarity a phonetically equal word must
// also reach to count as a fuzzy exit match.
const minFuzzyJaroWinkler = 0.85

// exitMatcher decides whether an utterance ends the session.
type exitMatcher struct {
	phrases []string
	fuzzy   bool
}

// matches reports whether text contains an exit phrase. Matching is a
// case-insensitive substring test. With fuzzy matching enabled a phrase also
// matches when a run of words sounds like it, which catches transcription
// slips such as "good by" or "alvidaa".
func (m exitMatcher) matches(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range m.phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	if !m.fuzzy {
		return false
	}

	words := strings.FieldsFunc(lower, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ',' || r == '.' || r == '!' || r == '?'
	})
	for _, p := range m.phrases {
		if soundsLike(words, strings.Fields(p)) {
			return true
		}
	}
	// Transcribers sometimes split a single word ("good bye").
	joined := strings.Join(words, "")
	for _, p := range m.phrases {
		if !strings.Contains(p, " ") && len(p) >= 4 && strings.Contains(joined, p) {
			return true
		}
	}
	return false
}

// soundsLike reports whether any window of words phonetically matches phrase.
func soundsLike(words, phrase []string) bool {
	if len(phrase) == 0 || len(words) < len(phrase) {
		return false
	}
	for i := 0; i+len(phrase) <= len(words); i++ {
		ok := true
		for j, want := range phrase {
			if !wordSoundsLike(words[i+j], want) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func wordSoundsLike(got, want string) bool {
	if got == want {
		return true
	}
	if len(got) < 3 || len(want) < 3 {
		return false
	}
	gp, gs := matchr.DoubleMetaphone(got)
	wp, ws := matchr.DoubleMetaphone(want)
	if gp != wp && gp != ws && gs != wp {
		return false
	}
	return matchr.JaroWinkler(got, want, false) >= minFuzzyJaroWinkler
}
