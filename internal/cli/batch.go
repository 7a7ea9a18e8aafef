package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/infra-nli/internal/controller"
	"github.com/infra-nli/internal/domain"
)

// BatchResult is the outcome of one line of a batch file
type BatchResult struct {
	Line     int              `json:"line" yaml:"line"`
	Command  string           `json:"command" yaml:"command"`
	Response *domain.Response `json:"response,omitempty" yaml:"response,omitempty"`
	Error    string           `json:"error,omitempty" yaml:"error,omitempty"`
}

type batchItem struct {
	line int
	text string
}

// readCommands returns the non-blank, non-comment lines of r
func readCommands(r io.Reader) ([]batchItem, error) {
	var items []batchItem
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		items = append(items, batchItem{line: line, text: text})
	}
	return items, scanner.Err()
}

// runBatch compiles items with bounded parallelism. Per-command validation
// failures are reported in the result; cancellation aborts the batch.
func (c *CLI) runBatch(ctx context.Context, items []batchItem, concurrency int, cc *domain.CommandContext) ([]BatchResult, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]BatchResult, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, item := range items {
		g.Go(func() error {
			resp, err := c.ctrl.Parse(gctx, controller.ParseRequest{Command: item.text, Context: cc})
			results[i] = BatchResult{Line: item.line, Command: item.text, Response: resp}
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				results[i].Error = err.Error()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
