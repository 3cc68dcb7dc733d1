package display_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/prism/internal/display"
	"github.com/davidbz/prism/internal/domain"
)

// recorder captures printer events as readable strings.
type recorder struct {
	events []string
}

func (r *recorder) Header(kind domain.ContentKind, afterThinking bool) {
	if afterThinking {
		r.events = append(r.events, fmt.Sprintf("header:%s:separated", kind))
		return
	}
	r.events = append(r.events, "header:"+string(kind))
}

func (r *recorder) Text(_ domain.ContentKind, text string) {
	r.events = append(r.events, text)
}

func (r *recorder) Newline() {
	r.events = append(r.events, "newline")
}

func TestObserver_OnChunk(t *testing.T) {
	t.Run("should print each header once at the first chunk of its kind", func(t *testing.T) {
		rec := &recorder{}
		obs := display.NewObserver(rec, true)

		obs.OnChunk(domain.ContentThinking, "x")
		obs.OnChunk(domain.ContentThinking, "y")
		obs.OnChunk(domain.ContentAnswer, "z")

		require.Equal(t, []string{"header:thinking", "x", "y", "header:answer:separated", "z"}, rec.events)
	})

	t.Run("should not repeat headers when kinds alternate", func(t *testing.T) {
		rec := &recorder{}
		obs := display.NewObserver(rec, true)

		obs.OnChunk(domain.ContentAnswer, "a")
		obs.OnChunk(domain.ContentThinking, "t")
		obs.OnChunk(domain.ContentAnswer, "b")

		require.Equal(t, []string{"header:answer", "a", "header:thinking", "t", "b"}, rec.events)
	})

	t.Run("should skip thinking when hidden", func(t *testing.T) {
		rec := &recorder{}
		obs := display.NewObserver(rec, false)

		obs.OnChunk(domain.ContentThinking, "hidden")
		obs.OnChunk(domain.ContentAnswer, "shown")
		obs.Close()

		require.Equal(t, []string{"header:answer", "shown", "newline"}, rec.events)
	})

	t.Run("should ignore empty fragments", func(t *testing.T) {
		rec := &recorder{}
		obs := display.NewObserver(rec, true)

		obs.OnChunk(domain.ContentAnswer, "")
		obs.Close()

		require.Empty(t, rec.events)
	})
}

func TestTerminalPrinter(t *testing.T) {
	t.Run("should write headers and text in order", func(t *testing.T) {
		var buf bytes.Buffer
		obs := display.NewObserver(display.NewTerminalPrinter(&buf), true)

		obs.OnChunk(domain.ContentThinking, "pondering")
		obs.OnChunk(domain.ContentAnswer, "Hello")
		obs.OnChunk(domain.ContentAnswer, ", world")
		obs.Close()

		out := buf.String()
		require.Contains(t, out, "Thinking:")
		require.Contains(t, out, "pondering")
		require.Contains(t, out, "Answer:")
		require.Contains(t, out, "Hello, world")
		require.Less(t, bytes.Index(buf.Bytes(), []byte("Thinking:")), bytes.Index(buf.Bytes(), []byte("Answer:")))
	})
}
