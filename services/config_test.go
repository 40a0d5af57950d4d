package services

import (
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	config := LoadConfig()

	if config.Server.Port != "8080" {
		t.Errorf("port = %q, want 8080", config.Server.Port)
	}
	if config.AI.AssemblyAIURL != "https://api.assemblyai.com" {
		t.Errorf("assemblyai url = %q", config.AI.AssemblyAIURL)
	}
	if config.AI.AnalysisModel != "gemini-2.0-flash" {
		t.Errorf("analysis model = %q", config.AI.AnalysisModel)
	}
	if config.AI.PollIntervalMS != 1500 {
		t.Errorf("poll interval = %d, want 1500", config.AI.PollIntervalMS)
	}
	if config.Storage.MediaRoot != "./media" {
		t.Errorf("media root = %q, want ./media", config.Storage.MediaRoot)
	}
	if config.Queue.Subject != "recordings.uploaded" {
		t.Errorf("queue subject = %q", config.Queue.Subject)
	}
	if !config.Database.Seed {
		t.Error("seed should default to true")
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ASSEMBLY_AI_API_KEY", "aai-key")
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("MEDIA_ROOT", "/var/media")
	t.Setenv("QUEUE_URL", "nats://localhost:4222")
	t.Setenv("DATABASE_SEED", "false")

	config := LoadConfig()

	if config.Server.Port != "9090" {
		t.Errorf("port = %q, want 9090", config.Server.Port)
	}
	if config.AI.AssemblyAIKey != "aai-key" {
		t.Errorf("assemblyai key = %q", config.AI.AssemblyAIKey)
	}
	if config.AI.GeminiAPIKey != "gem-key" {
		t.Errorf("gemini key = %q", config.AI.GeminiAPIKey)
	}
	if config.Storage.MediaRoot != "/var/media" {
		t.Errorf("media root = %q", config.Storage.MediaRoot)
	}
	if config.Queue.URL != "nats://localhost:4222" {
		t.Errorf("queue url = %q", config.Queue.URL)
	}
	if config.Database.Seed {
		t.Error("seed should be disabled by env")
	}
}
