package mocks

import (
	"bytes"
	"io"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/welldanyogia/webrana-unibox-backend/internal/storage"
)

var _ storage.FileStorage = (*MockFileStorage)(nil)

// MockFileStorage stands in for attachment storage. Save drains the reader
// so tests can inspect what would have been written.
type MockFileStorage struct {
	mock.Mock

	mu    sync.Mutex
	saved map[string][]byte
}

func (m *MockFileStorage) Save(filename string, content io.Reader) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	m.saved[filename] = data
	m.mu.Unlock()

	args := m.Called(filename, bytes.NewReader(data))
	return args.String(0), args.Error(1)
}

// Saved returns the bytes handed to Save under filename
func (m *MockFileStorage) Saved(filename string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.saved[filename]
	return data, ok
}

func (m *MockFileStorage) Get(filePath string) (io.ReadCloser, error) {
	args := m.Called(filePath)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *MockFileStorage) Delete(filePath string) error {
	return m.Called(filePath).Error(0)
}
