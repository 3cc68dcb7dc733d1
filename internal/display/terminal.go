package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/davidbz/prism/internal/domain"
)

const ruleWidth = 40

//nolint:gochecknoglobals // palette
var (
	Amber = lipgloss.Color("#FFB000")
	Cyan  = lipgloss.Color("#00D7FF")
	Gray  = lipgloss.Color("#8A8A8A")
)

// TerminalPrinter writes fragments to w as they arrive, without buffering.
type TerminalPrinter struct {
	mu sync.Mutex
	w  io.Writer

	thinkingTitle lipgloss.Style
	answerTitle   lipgloss.Style
	rule          lipgloss.Style
	thinkingText  lipgloss.Style
}

// NewTerminalPrinter creates a printer writing to w.
func NewTerminalPrinter(w io.Writer) *TerminalPrinter {
	return &TerminalPrinter{
		w:             w,
		thinkingTitle: lipgloss.NewStyle().Foreground(Amber).Bold(true),
		answerTitle:   lipgloss.NewStyle().Foreground(Cyan).Bold(true),
		rule:          lipgloss.NewStyle().Foreground(Gray),
		thinkingText:  lipgloss.NewStyle().Foreground(Gray).Italic(true).TabWidth(lipgloss.NoTabConversion),
	}
}

func (p *TerminalPrinter) Header(kind domain.ContentKind, afterThinking bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if kind == domain.ContentThinking {
		fmt.Fprintln(p.w, p.thinkingTitle.Render("🤔 Thinking:"))
		fmt.Fprintln(p.w, p.rule.Render(strings.Repeat("-", ruleWidth)))
		return
	}

	if afterThinking {
		fmt.Fprintln(p.w)
		fmt.Fprintln(p.w, p.rule.Render(strings.Repeat("=", ruleWidth)))
	}
	fmt.Fprintln(p.w, p.answerTitle.Render("💡 Answer:"))
}

func (p *TerminalPrinter) Text(kind domain.ContentKind, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if kind == domain.ContentThinking {
		text = renderInline(p.thinkingText, text)
	}
	fmt.Fprint(p.w, text)
}

func (p *TerminalPrinter) Newline() {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.w)
}

// renderInline styles each line separately so multi-line fragments are not
// padded into a block.
func renderInline(style lipgloss.Style, text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = style.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
