package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveRecording(t *testing.T) {
	root := t.TempDir()
	store, err := NewMediaStore(root)
	if err != nil {
		t.Fatal(err)
	}

	fileName, err := store.SaveRecording(strings.NewReader("audio bytes"), "Customer Call.WAV")
	if err != nil {
		t.Fatalf("SaveRecording() error = %v", err)
	}

	if !strings.HasSuffix(fileName, ".wav") {
		t.Errorf("file name = %q, want .wav suffix", fileName)
	}
	if strings.Contains(fileName, "Customer") {
		t.Errorf("file name %q should not carry the original name", fileName)
	}

	data, err := os.ReadFile(store.RecordingPath(fileName))
	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}
	if string(data) != "audio bytes" {
		t.Errorf("stored content = %q", data)
	}
}

func TestSaveRecordingNoExtension(t *testing.T) {
	store, err := NewMediaStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	fileName, err := store.SaveRecording(strings.NewReader("x"), "upload")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Ext(fileName) != ".mp3" {
		t.Errorf("file name = %q, want .mp3 fallback", fileName)
	}
}

func TestRemoveRecording(t *testing.T) {
	store, err := NewMediaStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	fileName, err := store.SaveRecording(strings.NewReader("audio data"), "call.wav")
	if err != nil {
		t.Fatal(err)
	}

	if err := store.RemoveRecording(fileName); err != nil {
		t.Fatalf("RemoveRecording() error = %v", err)
	}
	if _, err := os.Stat(store.RecordingPath(fileName)); !os.IsNotExist(err) {
		t.Errorf("recording file still present after removal: %v", err)
	}

	if err := store.RemoveRecording(fileName); err == nil {
		t.Error("expected error for missing file")
	}
}
