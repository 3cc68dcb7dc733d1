// Package display renders streamed output for a human watching a terminal.
package display

import "github.com/davidbz/prism/internal/domain"

// Printer receives the rendering events of one or more calls.
type Printer interface {
	// Header introduces a section. afterThinking is set on the answer header
	// when a thinking section was shown before it.
	Header(kind domain.ContentKind, afterThinking bool)
	Text(kind domain.ContentKind, text string)
	Newline()
}

// Observer tracks which section headers have been printed during one call.
// It is not safe for concurrent use; create one per call.
type Observer struct {
	printer      Printer
	showThinking bool

	thinkingHeader bool
	answerHeader   bool
	printed        bool
}

// NewObserver creates an observer writing to p. Thinking fragments are
// dropped unless showThinking is set.
func NewObserver(p Printer, showThinking bool) *Observer {
	return &Observer{
		printer:      p,
		showThinking: showThinking,
	}
}

// OnChunk renders one fragment, printing its section header the first time
// the kind is seen.
func (o *Observer) OnChunk(kind domain.ContentKind, text string) {
	if text == "" {
		return
	}

	switch kind {
	case domain.ContentThinking:
		if !o.showThinking {
			return
		}
		if !o.thinkingHeader {
			o.printer.Header(domain.ContentThinking, false)
			o.thinkingHeader = true
		}
	default:
		kind = domain.ContentAnswer
		if !o.answerHeader {
			o.printer.Header(domain.ContentAnswer, o.thinkingHeader)
			o.answerHeader = true
		}
	}

	o.printer.Text(kind, text)
	o.printed = true
}

// Close ends the call's output with a newline if anything was printed.
func (o *Observer) Close() {
	if o.printed {
		o.printer.Newline()
		o.printed = false
	}
}
