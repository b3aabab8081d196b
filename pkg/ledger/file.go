package ledger

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"course-migrator/pkg/urls"
)

// File stores one normalized URL per line
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile creates a ledger backed by the text file at path
func NewFile(path string) *File {
	return &File{path: path}
}

// Contains reports whether the normalized URL is present
func (f *File) Contains(_ context.Context, rawURL string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	want := urls.Normalize(rawURL)
	file, err := os.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && urls.Normalize(line) == want {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("failed to read ledger: %w", err)
	}
	return false, nil
}

// Append adds the normalized URL as a new line
func (f *File) Append(_ context.Context, rawURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}
	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	if _, err := file.WriteString(urls.Normalize(rawURL) + "\n"); err != nil {
		file.Close()
		return fmt.Errorf("failed to append to ledger: %w", err)
	}
	return file.Close()
}
