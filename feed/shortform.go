package feed

import (
	"strings"

	"github.com/samber/lo"
)

// shortFormPhrases are description fragments that mark a video as short-form
// even when the link itself does not say so.
var shortFormPhrases = []string{
	"youtube shorts",
	"yt shorts",
	"short video",
	"short form",
}

// IsShortForm reports whether an item looks like a short-form video. Only
// YouTube links qualify; everything else is long-form by definition. The
// check is a pure predicate over its inputs.
func IsShortForm(link, title, description string) bool {
	if link == "" {
		return false
	}
	if !strings.Contains(link, "youtube.com") && !strings.Contains(link, "youtu.be") {
		return false
	}
	if strings.Contains(link, "/shorts/") {
		return true
	}

	title = strings.ToLower(title)
	description = strings.ToLower(description)

	if hasShortsTag(title) || hasShortsTag(description) {
		return true
	}

	// The phrases alone are too weak; they only count when the description
	// also mentions shorts.
	return strings.Contains(description, "shorts") &&
		lo.SomeBy(shortFormPhrases, func(phrase string) bool {
			return strings.Contains(description, phrase)
		})
}

func hasShortsTag(text string) bool {
	return strings.Contains(text, "#shorts") ||
		strings.Contains(text, "#short ") ||
		strings.HasSuffix(text, "#short")
}
