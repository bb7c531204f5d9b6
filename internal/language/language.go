// Package language decides which of Aura's two output languages a user
// utterance is in.
//
// Detection is trigram based (github.com/abadojack/whatlanggo) and restricted
// to English and Hindi, so Devanagari input resolves to Hindi and everything
// else, including romanised Hindi, resolves to English. Anything the
// classifier is not sure about falls back to English.
package language

import (
	"strings"

	"github.com/abadojack/whatlanggo"

	"github.com/MrWong99/aura/pkg/types"
)

// Detector classifies text into one of the supported languages.
type Detector struct {
	opts whatlanggo.Options
}

// NewDetector returns a Detector limited to English and Hindi.
func NewDetector() *Detector {
	return &Detector{
		opts: whatlanggo.Options{
			Whitelist: map[whatlanggo.Lang]bool{
				whatlanggo.Eng: true,
				whatlanggo.Hin: true,
			},
		},
	}
}

// Detect returns [types.Hindi] only for a reliable Hindi detection and
// [types.English] in every other case, including empty input.
func (d *Detector) Detect(text string) types.Language {
	if strings.TrimSpace(text) == "" {
		return types.English
	}
	info := whatlanggo.DetectWithOptions(text, d.opts)
	if info.Lang == whatlanggo.Hin && info.IsReliable() {
		return types.Hindi
	}
	return types.English
}
