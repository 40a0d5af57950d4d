package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Utterance is one diarized line of the conversation.
type Utterance struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	StartMS int    `json:"start"`
	EndMS   int    `json:"end"`
}

// Transcript is the result of transcribing one call: the full text plus the
// conversation partitioned between the two speakers. Speaker "A" is the
// agent, speaker "B" the customer.
type Transcript struct {
	FullText     string
	AgentText    string
	CustomerText string
	Utterances   []Utterance
}

// TranscriptionService wraps the AssemblyAI speech-to-text API, configured
// for two-speaker diarization of English calls.
type TranscriptionService struct {
	apiKey       string
	baseURL      string
	pollInterval time.Duration
	client       *http.Client
}

func NewTranscriptionService(apiKey, baseURL string, pollInterval time.Duration) *TranscriptionService {
	if pollInterval <= 0 {
		pollInterval = 1500 * time.Millisecond
	}
	return &TranscriptionService{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		pollInterval: pollInterval,
		client:       &http.Client{Timeout: 30 * time.Second},
	}
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptRequest struct {
	AudioURL         string `json:"audio_url"`
	SpeakerLabels    bool   `json:"speaker_labels"`
	SpeakersExpected int    `json:"speakers_expected"`
	LanguageCode     string `json:"language_code"`
}

type transcriptResponse struct {
	ID         string      `json:"id"`
	Status     string      `json:"status"` // queued, processing, completed, error
	Text       string      `json:"text"`
	Error      string      `json:"error"`
	Utterances []Utterance `json:"utterances"`
}

// Transcribe uploads the audio file, requests a diarized transcript and polls
// until the job finishes. All failures come back as *AdapterError; nothing
// else crosses this boundary.
func (t *TranscriptionService) Transcribe(ctx context.Context, audioPath string) (*Transcript, error) {
	slog.Info("Starting transcription", "audio_path", audioPath)

	audioURL, err := t.upload(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	jobID, err := t.createJob(ctx, audioURL)
	if err != nil {
		return nil, err
	}

	final, err := t.poll(ctx, jobID)
	if err != nil {
		return nil, err
	}

	agentText, customerText := SplitSpeakers(final.Utterances)
	transcript := &Transcript{
		FullText:     final.Text,
		AgentText:    agentText,
		CustomerText: customerText,
		Utterances:   final.Utterances,
	}

	slog.Info("Transcription completed", "job_id", jobID, "utterances", len(final.Utterances))
	return transcript, nil
}

// SplitSpeakers partitions utterances between speaker "A" (agent) and "B"
// (customer), joining each side's lines with newlines in original order.
func SplitSpeakers(utterances []Utterance) (agentText, customerText string) {
	var agent, customer []string
	for _, u := range utterances {
		switch u.Speaker {
		case "A":
			agent = append(agent, u.Text)
		case "B":
			customer = append(customer, u.Text)
		}
	}
	return strings.Join(agent, "\n"), strings.Join(customer, "\n")
}

func (t *TranscriptionService) upload(ctx context.Context, audioPath string) (string, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return "", NewAdapterError(ErrService, "transcription.upload", err)
	}

	build := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/v2/upload", bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", t.apiKey)
		req.Header.Set("Content-Type", "application/octet-stream")
		return req, nil
	}

	var resp uploadResponse
	if err := t.doJSON(ctx, build, &resp); err != nil {
		return "", tagTranscriptionError("transcription.upload", err)
	}
	if resp.UploadURL == "" {
		return "", NewAdapterError(ErrMalformedResponse, "transcription.upload", fmt.Errorf("empty upload_url"))
	}
	return resp.UploadURL, nil
}

func (t *TranscriptionService) createJob(ctx context.Context, audioURL string) (string, error) {
	body, err := json.Marshal(transcriptRequest{
		AudioURL:         audioURL,
		SpeakerLabels:    true,
		SpeakersExpected: 2, // agent and customer
		LanguageCode:     "en",
	})
	if err != nil {
		return "", NewAdapterError(ErrService, "transcription.create", err)
	}

	build := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/v2/transcript", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", t.apiKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	var resp transcriptResponse
	if err := t.doJSON(ctx, build, &resp); err != nil {
		return "", tagTranscriptionError("transcription.create", err)
	}
	if resp.ID == "" {
		return "", NewAdapterError(ErrMalformedResponse, "transcription.create", fmt.Errorf("empty transcript id"))
	}
	if resp.Status == "error" {
		return "", NewAdapterError(ErrService, "transcription.create", fmt.Errorf("%s", resp.Error))
	}
	return resp.ID, nil
}

func (t *TranscriptionService) poll(ctx context.Context, jobID string) (*transcriptResponse, error) {
	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, NewAdapterError(ErrTransport, "transcription.poll", ctx.Err())
		case <-ticker.C:
		}

		build := func() (*http.Request, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/v2/transcript/"+jobID, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Authorization", t.apiKey)
			return req, nil
		}

		var resp transcriptResponse
		if err := t.doJSON(ctx, build, &resp); err != nil {
			return nil, tagTranscriptionError("transcription.poll", err)
		}

		slog.Info("Polling transcription job", "job_id", jobID, "status", resp.Status)

		switch resp.Status {
		case "completed":
			return &resp, nil
		case "error":
			return nil, NewAdapterError(ErrService, "transcription.poll", fmt.Errorf("%s", resp.Error))
		}
	}
}

// statusError carries the HTTP status for kind tagging after retries.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

// doJSON executes the request, retrying transient failures with exponential
// backoff, and decodes the JSON body into target. build must return a fresh
// request each attempt so its body can be re-read.
func (t *TranscriptionService) doJSON(ctx context.Context, build func() (*http.Request, error), target interface{}) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 15 * time.Second

	var lastErr error
	op := func() error {
		req, err := build()
		if err != nil {
			lastErr = err
			return backoff.Permanent(err)
		}
		resp, err := t.client.Do(req)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = &statusError{code: resp.StatusCode, body: string(body)}
			return lastErr
		}
		if resp.StatusCode >= 400 {
			lastErr = &statusError{code: resp.StatusCode, body: string(body)}
			return backoff.Permanent(lastErr)
		}
		if err := json.Unmarshal(body, target); err != nil {
			lastErr = fmt.Errorf("json decode error: %w", err)
			return backoff.Permanent(lastErr)
		}
		lastErr = nil
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return lastErr
	}
	return nil
}

// tagTranscriptionError maps a raw HTTP-level failure to an adapter error kind.
func tagTranscriptionError(op string, err error) error {
	var se *statusError
	if ok := asStatusError(err, &se); ok {
		switch {
		case se.code == http.StatusUnauthorized || se.code == http.StatusForbidden:
			return NewAdapterError(ErrAuth, op, err)
		case se.code >= 500:
			return NewAdapterError(ErrTransport, op, err)
		default:
			return NewAdapterError(ErrService, op, err)
		}
	}
	if strings.Contains(err.Error(), "json decode") {
		return NewAdapterError(ErrMalformedResponse, op, err)
	}
	return NewAdapterError(ErrTransport, op, err)
}

func asStatusError(err error, target **statusError) bool {
	for err != nil {
		if se, ok := err.(*statusError); ok {
			*target = se
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
