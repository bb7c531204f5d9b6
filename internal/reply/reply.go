// Package reply splits a raw model reply into the main response and an
// optional follow-up question.
//
// The system prompt asks the model to format answers as
//
//	Response: <main answer>
//	Follow-up: <optional question>
//
// but models do not always comply, so both labels are optional and matched
// case-insensitively.
package reply

import (
	"regexp"
	"strings"
)

var (
	followUpRe = regexp.MustCompile(`(?is)(?:^|\n)\s*Follow-up:(.*)`)
	responseRe = regexp.MustCompile(`(?i)^\s*Response:`)
)

// Split is a parsed model reply.
type Split struct {
	Main        string
	FollowUp    string
	HasFollowUp bool
}

// Parse splits raw at the first line starting with "Follow-up:". Everything
// before that line is the main response with a leading "Response:" label
// removed; everything after the label is the follow-up. A follow-up that is
// blank after trimming counts as absent.
//
// Parse(Parse(x).Main) never has a follow-up.
func Parse(raw string) Split {
	if raw == "" {
		return Split{}
	}

	var out Split
	main := raw
	if loc := followUpRe.FindStringSubmatchIndex(main); loc != nil {
		out.take(main[loc[2]:loc[3]])
		main = main[:loc[0]]
	}
	main = cleanMain(main)

	// Stripping a label can expose another marker at the start of the text,
	// so keep cutting until none is left, even behind repeated labels.
	for {
		loc := followUpRe.FindStringSubmatchIndex(main)
		if loc == nil {
			if !exposesMarker(main) {
				break
			}
			main = cleanMain(main)
			continue
		}
		out.take(main[loc[2]:loc[3]])
		main = cleanMain(main[:loc[0]])
	}
	out.Main = main
	return out
}

// take records f as the follow-up unless one is already set or f is blank.
func (s *Split) take(f string) {
	if s.HasFollowUp {
		return
	}
	if f = strings.TrimSpace(f); f != "" {
		s.FollowUp, s.HasFollowUp = f, true
	}
}

func cleanMain(s string) string {
	if loc := responseRe.FindStringIndex(s); loc != nil {
		s = s[loc[1]:]
	}
	return strings.TrimSpace(s)
}

// exposesMarker reports whether removing every leading "Response:" label from
// s leaves a follow-up marker.
func exposesMarker(s string) bool {
	for {
		next := cleanMain(s)
		if next == s {
			return followUpRe.MatchString(s)
		}
		s = next
	}
}
