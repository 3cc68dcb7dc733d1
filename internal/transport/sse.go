package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// maxSSELineSize is the maximum size of a single SSE line (1 MB). Larger
// lines end the stream with an error wrapping bufio.ErrTooLong.
const maxSSELineSize = 1 * 1024 * 1024

// doneSentinel ends OpenAI-compatible streams.
const doneSentinel = "[DONE]"

// Scanner reads Server-Sent Events data payloads from a reader.
type Scanner struct {
	scanner *bufio.Scanner
}

// NewScanner creates a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELineSize)
	return &Scanner{scanner: scanner}
}

// Next returns the next data payload. Comment lines and fields other than
// data are skipped; consecutive data lines are joined with newlines. Returns
// io.EOF at the end of input or at the [DONE] sentinel.
func (s *Scanner) Next() (string, error) {
	var dataLines []string

	for s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" {
			if len(dataLines) > 0 {
				return strings.Join(dataLines, "\n"), nil
			}
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == doneSentinel {
			return "", io.EOF
		}
		dataLines = append(dataLines, data)
	}

	if err := s.scanner.Err(); err != nil {
		return "", fmt.Errorf("SSE scanner error: %w", err)
	}

	if len(dataLines) > 0 {
		return strings.Join(dataLines, "\n"), nil
	}
	return "", io.EOF
}

// SSEStream decodes each data payload of an SSE body into a C.
type SSEStream[C any] struct {
	body    io.ReadCloser
	scanner *Scanner
	cur     C
	err     error
}

// NewSSEStream reads chunks from body until EOF or [DONE].
func NewSSEStream[C any](body io.ReadCloser) *SSEStream[C] {
	return &SSEStream[C]{body: body, scanner: NewScanner(body)}
}

// OpenStream posts body to path and returns the decoded chunk stream.
func OpenStream[C any](ctx context.Context, c *Client, path string, body any) (*SSEStream[C], error) {
	//nolint:bodyclose // closed by SSEStream.Close
	resp, err := c.PostStream(ctx, path, body)
	if err != nil {
		return nil, err
	}
	return NewSSEStream[C](resp.Body), nil
}

func (s *SSEStream[C]) Next() bool {
	if s.err != nil {
		return false
	}

	payload, err := s.scanner.Next()
	if err != nil {
		if err != io.EOF {
			s.err = err
		}
		return false
	}

	var chunk C
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		s.err = fmt.Errorf("failed to decode chunk: %w", err)
		return false
	}
	s.cur = chunk
	return true
}

func (s *SSEStream[C]) Current() C {
	return s.cur
}

func (s *SSEStream[C]) Err() error {
	return s.err
}

func (s *SSEStream[C]) Close() error {
	return s.body.Close()
}
