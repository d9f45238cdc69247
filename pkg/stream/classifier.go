package stream

import (
	"fmt"
	"strings"
)

// Sentinels written by instrumented simulations.
const (
	StartMarker = "##SEC_STUDENT_CAN_SEE"
	EndMarker   = "##END_STUDENT_CAN_SEE"
)

// MatchMode selects how a line is compared against the sentinels.
type MatchMode int

const (
	// MatchContains matches when the trimmed line contains the sentinel.
	MatchContains MatchMode = iota
	// MatchExact matches only when the trimmed line equals the sentinel.
	MatchExact
)

// ParseMatchMode converts a config value ("contains" or "exact").
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "contains":
		return MatchContains, nil
	case "exact":
		return MatchExact, nil
	default:
		return MatchContains, fmt.Errorf("unknown match mode %q (expected contains or exact)", s)
	}
}

func (m MatchMode) String() string {
	if m == MatchExact {
		return "exact"
	}
	return "contains"
}

// Kind is the classification of one line.
type Kind int

const (
	// KindHidden lines are dropped from the visible log.
	KindHidden Kind = iota
	// KindVisible lines are forwarded verbatim.
	KindVisible
	// KindHeader replaces a start sentinel with the section header.
	KindHeader
	// KindEnd is an end sentinel; nothing is emitted.
	KindEnd
)

// Classified is the outcome of feeding one line to a Classifier.
type Classified struct {
	Kind Kind
	Text string
}

// Emits reports whether the line produces visible output.
func (c Classified) Emits() bool {
	return c.Kind == KindVisible || c.Kind == KindHeader
}

// Classifier is the visible-span state machine. It is created fresh for each
// job and is not safe for concurrent use.
type Classifier struct {
	mode    MatchMode
	header  string
	visible bool
}

// NewClassifier returns a classifier that emits header whenever a start
// sentinel opens a visible span.
func NewClassifier(mode MatchMode, header string) *Classifier {
	return &Classifier{mode: mode, header: header}
}

// Classify consumes one line (without its newline) and updates the state.
func (c *Classifier) Classify(line string) Classified {
	trimmed := strings.TrimSpace(line)
	switch {
	case c.matches(trimmed, StartMarker):
		c.visible = true
		return Classified{Kind: KindHeader, Text: c.header}
	case c.matches(trimmed, EndMarker):
		c.visible = false
		return Classified{Kind: KindEnd}
	case c.visible:
		return Classified{Kind: KindVisible, Text: line}
	default:
		return Classified{Kind: KindHidden, Text: line}
	}
}

// Visible reports whether the classifier is inside a visible span.
func (c *Classifier) Visible() bool {
	return c.visible
}

func (c *Classifier) matches(trimmed, marker string) bool {
	if c.mode == MatchExact {
		return trimmed == marker
	}
	return strings.Contains(trimmed, marker)
}
