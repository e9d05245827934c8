// Package classify holds the lightweight content-pattern heuristics that
// nudge slide-type and layout selection. Signals are advisory: they break
// ties only and never override an outline's explicit suggested type.
package classify

import (
	"regexp"
	"strings"

	"github.com/sander-arti/gamma-klone-sub003/internal/domain"
)

// Signal is the classifier's advisory output. Zero value means no signal.
type Signal struct {
	SuggestedType domain.SlideType
	Variant       string
}

var (
	quarterRe    = regexp.MustCompile(`(?i)\bQ[1-4]\b`)
	yearSeqRe    = regexp.MustCompile(`\b(19|20)\d{2}\b.*\b(19|20)\d{2}\b`)
	stepRe       = regexp.MustCompile(`(?i)\b(step\s+\d|phase\s+\d|first(ly)?\b.*\bthen\b|\bthen\b.*\bfinally\b)`)
	comparisonRe = regexp.MustCompile(`(?i)\b(vs\.?|versus|compared to|pros and cons|before and after)\b`)
	percentRe    = regexp.MustCompile(`\d+(\.\d+)?\s*%`)
	numberedRe   = regexp.MustCompile(`(?m)^\s*\d+[.)]\s`)
)

// Classify inspects raw input text for structural patterns.
func Classify(text string) Signal {
	if strings.TrimSpace(text) == "" {
		return Signal{}
	}

	// Sequential markers dominate: quarter sequences, year ranges and
	// explicit steps all read as a roadmap.
	if len(quarterRe.FindAllString(text, -1)) >= 2 || yearSeqRe.MatchString(text) || stepRe.MatchString(text) {
		return Signal{SuggestedType: domain.SlideTypeTimeline, Variant: "horizontal"}
	}

	if comparisonRe.MatchString(text) {
		return Signal{SuggestedType: domain.SlideTypeComparison}
	}

	// Three or more percentages read as a stat summary.
	if len(percentRe.FindAllString(text, -1)) >= 3 {
		return Signal{SuggestedType: domain.SlideTypeStats, Variant: "stats_inline"}
	}

	if len(numberedRe.FindAllString(text, -1)) >= 3 {
		return Signal{SuggestedType: domain.SlideTypeNumberedList}
	}

	return Signal{}
}

// ResolveSlideType picks the slide type for one outline entry. The
// outline's explicit suggestion always wins; the classifier signal breaks
// the tie when the outline left the type open.
func ResolveSlideType(suggested domain.SlideType, signal Signal, fallback domain.SlideType) domain.SlideType {
	if suggested != "" {
		return suggested
	}
	if signal.SuggestedType != "" {
		return signal.SuggestedType
	}
	return fallback
}
