// Package intent classifies incoming text messages into generation intents.
// Classification is deliberately simple: case-insensitive prefix matching on
// the trimmed message against a fixed, configurable phrase list. It is not a
// natural-language layer.
package intent

import "strings"

// Outcome is the closed set of classification results.
type Outcome int

const (
	// FreshGeneration is the default: generate a new image from the text.
	FreshGeneration Outcome = iota

	// EditLastImage means the text asks to modify the chat's previous image
	// and such an image exists.
	EditLastImage

	// EditRequestedButNoImage means the text asks for an edit but the chat
	// has no prior image. The caller must report this to the user rather
	// than silently falling back to a fresh generation.
	EditRequestedButNoImage
)

// String returns the outcome name for logging.
func (o Outcome) String() string {
	switch o {
	case EditLastImage:
		return "edit_last_image"
	case EditRequestedButNoImage:
		return "edit_requested_but_no_image"
	default:
		return "fresh_generation"
	}
}

// Classifier matches messages against a set of edit-phrase prefixes.
type Classifier struct {
	prefixes []string
}

// NewClassifier creates a classifier with the given edit-phrase prefixes.
// Prefixes are matched case-insensitively; empty entries are ignored.
func NewClassifier(prefixes []string) *Classifier {
	lowered := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			lowered = append(lowered, p)
		}
	}
	return &Classifier{prefixes: lowered}
}

// Classify determines the intent of a text message. hasPriorImage reports
// whether the chat image memory holds an entry for the originating chat.
func (c *Classifier) Classify(text string, hasPriorImage bool) Outcome {
	lowered := strings.ToLower(strings.TrimSpace(text))

	for _, p := range c.prefixes {
		if strings.HasPrefix(lowered, p) {
			if hasPriorImage {
				return EditLastImage
			}
			return EditRequestedButNoImage
		}
	}
	return FreshGeneration
}
