package platform

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/emberwatch/emberwatch/internal/domain"
)

// Larger than any real post payload; guards against unbounded lines.
const maxLineBytes = 1 << 20

// NDJSONSource reads newline-delimited JSON posts from a stream, one post
// per line. It backs the collect command, which pipes platform exports
// through stdin.
type NDJSONSource struct {
	r io.Reader
}

func NewNDJSONSource(r io.Reader) *NDJSONSource {
	return &NDJSONSource{r: r}
}

var _ Source = (*NDJSONSource)(nil)

func (s *NDJSONSource) Posts(ctx context.Context) (<-chan Result, error) {
	out := make(chan Result)

	go func() {
		defer close(out)

		scanner := bufio.NewScanner(s.r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

		line := 0
		for scanner.Scan() {
			line++
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}

			var post domain.RawPost
			res := Result{}
			if err := json.Unmarshal([]byte(text), &post); err != nil {
				res.Err = fmt.Errorf("line %d: %w", line, err)
			} else {
				res.Post = &post
			}

			select {
			case <-ctx.Done():
				return
			case out <- res:
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case <-ctx.Done():
			case out <- Result{Err: fmt.Errorf("read posts: %w", err)}:
			}
		}
	}()

	return out, nil
}
