package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MediaStore keeps uploaded audio and generated reports on the local
// filesystem under a single media root.
type MediaStore struct {
	root string
}

func NewMediaStore(root string) (*MediaStore, error) {
	for _, dir := range []string{"call_recordings", "reports"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create media dir %s: %w", dir, err)
		}
	}
	return &MediaStore{root: root}, nil
}

func (s *MediaStore) Root() string {
	return s.root
}

// SaveRecording streams an uploaded audio file into the call_recordings
// directory under a generated name and returns the stored file name. The
// original name only contributes its extension.
func (s *MediaStore) SaveRecording(src io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = ".mp3"
	}
	fileName := uuid.NewString() + ext
	path := filepath.Join(s.root, "call_recordings", fileName)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create recording file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("write recording file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close recording file: %w", err)
	}
	return fileName, nil
}

// RecordingPath resolves a stored recording file name to its absolute path.
func (s *MediaStore) RecordingPath(fileName string) string {
	return filepath.Join(s.root, "call_recordings", fileName)
}

// RemoveRecording deletes a stored recording file, for uploads whose database
// row could not be created.
func (s *MediaStore) RemoveRecording(fileName string) error {
	if err := os.Remove(s.RecordingPath(fileName)); err != nil {
		return fmt.Errorf("remove recording file: %w", err)
	}
	return nil
}
