package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"wikibot/internal/domain"
	"wikibot/internal/ports"
)

const (
	maxStderr = 1024
	waitDelay = time.Second
)

// Command pipes article text through an external program: wikitext on
// stdin, rewritten wikitext on stdout.
type Command struct {
	path    string
	args    []string
	timeout time.Duration
}

var _ ports.Transformer = (*Command)(nil)

// NewCommand builds a transformer; a zero timeout means no limit beyond ctx.
func NewCommand(path string, args []string, timeout time.Duration) *Command {
	return &Command{path: path, args: args, timeout: timeout}
}

// Transform runs the program once. Any abnormal exit is a TransformError.
func (c *Command) Transform(ctx context.Context, title, text string) (string, error) {
	if c.path == "" {
		return "", &domain.TransformError{Title: title, Err: errors.New("no transform command configured")}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.path, c.args...)
	cmd.Stdin = strings.NewReader(text)
	cmd.Env = append(cmd.Environ(), "WIKIBOT_TITLE="+title)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return "", &domain.TransformError{Title: title, Stderr: trimStderr(stderr.String()), Err: err}
	}

	return stdout.String(), nil
}

func trimStderr(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderr {
		s = s[:maxStderr] + "..."
	}
	return s
}
