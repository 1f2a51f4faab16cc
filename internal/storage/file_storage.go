// Package storage keeps inbound attachment files on the local filesystem.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPathTraversal = errors.New("path traversal detected")
	ErrFileNotFound  = errors.New("file not found")
	ErrFileTooLarge  = errors.New("file exceeds size limit")
	ErrBlockedExt    = errors.New("file extension is blocked")
)

// MaxFileSize is the largest attachment accepted (25 MB)
const MaxFileSize = 25 * 1024 * 1024

// BlockedExtensions are never written to disk
var BlockedExtensions = map[string]bool{
	".exe": true, ".bat": true, ".cmd": true, ".com": true,
	".pif": true, ".scr": true, ".vbs": true, ".js": true,
	".jar": true, ".ps1": true, ".sh": true, ".bash": true,
	".msi": true, ".dll": true, ".sys": true,
}

// FileStorage stores attachment content and hands back a relative path.
type FileStorage interface {
	Save(filename string, content io.Reader) (string, error)
	Get(filePath string) (io.ReadCloser, error)
	Delete(filePath string) error
}

type localStorage struct {
	basePath string
	now      func() time.Time
}

// NewLocalStorage creates the base directory if needed.
func NewLocalStorage(basePath string) (FileStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &localStorage{basePath: basePath, now: time.Now}, nil
}

// ValidateFile checks file extension and size
func ValidateFile(filename string, size int64) error {
	if BlockedExtensions[strings.ToLower(filepath.Ext(filename))] {
		return ErrBlockedExt
	}
	if size > MaxFileSize {
		return ErrFileTooLarge
	}
	return nil
}

// validatePath resolves filePath under basePath and rejects anything escaping it
func (s *localStorage) validatePath(filePath string) (string, error) {
	normalized := strings.ReplaceAll(filePath, "\\", "/")
	if strings.HasPrefix(normalized, "/") || filepath.IsAbs(filePath) || filepath.VolumeName(filePath) != "" ||
		(len(normalized) > 1 && normalized[1] == ':') {
		return "", ErrPathTraversal
	}
	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return "", ErrPathTraversal
		}
	}

	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(absBase, filepath.FromSlash(normalized)))
	if err != nil {
		return "", fmt.Errorf("invalid file path: %w", err)
	}
	if absPath != absBase && !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}
	return absPath, nil
}

// Save writes content under <yyyy>/<mm>/<uuid><ext>. Content past MaxFileSize
// is rejected and the partial file removed.
func (s *localStorage) Save(filename string, content io.Reader) (string, error) {
	if err := ValidateFile(filename, 0); err != nil {
		return "", err
	}

	now := s.now().UTC()
	relDir := filepath.Join(now.Format("2006"), now.Format("01"))
	if err := os.MkdirAll(filepath.Join(s.basePath, relDir), 0o755); err != nil {
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}

	relPath := filepath.Join(relDir, uuid.NewString()+strings.ToLower(filepath.Ext(filename)))
	fullPath := filepath.Join(s.basePath, relPath)

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(file, io.LimitReader(content, MaxFileSize+1))
	closeErr := file.Close()
	switch {
	case err != nil:
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	case written > MaxFileSize:
		os.Remove(fullPath)
		return "", ErrFileTooLarge
	case closeErr != nil:
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	return filepath.ToSlash(relPath), nil
}

func (s *localStorage) Get(filePath string) (io.ReadCloser, error) {
	fullPath, err := s.validatePath(filePath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file. A missing file is not an error.
func (s *localStorage) Delete(filePath string) error {
	fullPath, err := s.validatePath(filePath)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
