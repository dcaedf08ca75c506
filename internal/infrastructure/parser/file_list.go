package parser

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"wikibot/internal/candidates"
)

// FileList reads one title per line. Blank lines and lines starting with
// '#' are skipped.
type FileList struct{}

// NewFileList builds the file-backed loader.
func NewFileList() *FileList {
	return &FileList{}
}

// Name identifies the loader inside the registry.
func (f *FileList) Name() string {
	return candidates.KindFile
}

// Load reads the whole file once.
func (f *FileList) Load(ctx context.Context, req candidates.Request) ([]string, error) {
	file, err := os.Open(req.Source)
	if err != nil {
		return nil, fmt.Errorf("open candidate list: %w", err)
	}
	defer file.Close()

	var titles []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		titles = append(titles, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read candidate list: %w", err)
	}

	return titles, nil
}
