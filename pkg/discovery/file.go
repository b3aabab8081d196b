package discovery

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"course-migrator/pkg/urls"
)

// FileParser reads one URL per line. Blank lines and # comments are skipped.
type FileParser struct{}

// NewFileParser creates a file parser
func NewFileParser() *FileParser {
	return &FileParser{}
}

// Parse reads the URLs in path
func (p *FileParser) Parse(path string) ([]urls.URL, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var out []urls.URL
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimRight(line, ", \t")
		if line == "" {
			continue
		}
		out = append(out, urls.URL{Location: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file at line %d: %w", lineNum, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w in file", ErrNoURLs)
	}
	return out, nil
}
