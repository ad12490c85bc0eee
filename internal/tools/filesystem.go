package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Scratch is the directory external capture programs write into. Every path
// it hands out or reads back is contained in that directory.
type Scratch struct {
	workingDir string
}

func NewScratch(workingDir string) *Scratch {
	if workingDir == "" {
		workingDir = os.TempDir()
	}
	return &Scratch{
		workingDir: workingDir,
	}
}

// Dir returns the scratch directory.
func (s *Scratch) Dir() string {
	return s.workingDir
}

// resolve makes path absolute and rejects anything outside the scratch dir.
func (s *Scratch) resolve(path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.workingDir, path)
	}

	absWorkingDir, err := filepath.Abs(s.workingDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve scratch directory: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}

	rel, err := filepath.Rel(absWorkingDir, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("access denied: path outside scratch directory")
	}
	return absPath, nil
}

// TempFile reserves a new empty file named by pattern (see os.CreateTemp)
// and returns its path with a cleanup func that removes it.
func (s *Scratch) TempFile(pattern string) (string, func(), error) {
	if err := os.MkdirAll(s.workingDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	file, err := os.CreateTemp(s.workingDir, pattern)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	path := file.Name()
	file.Close()
	return path, func() { os.Remove(path) }, nil
}

// ReadFile reads a file inside the scratch directory.
func (s *Scratch) ReadFile(path string) ([]byte, error) {
	absPath, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return content, nil
}
