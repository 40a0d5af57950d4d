package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"google.golang.org/genai"
)

// Evaluation is the scored assessment of an agent's written training response.
type Evaluation struct {
	ToneScore     float64 `json:"tone_score"`
	ClarityScore  float64 `json:"clarity_score"`
	AccuracyScore float64 `json:"accuracy_score"`
	Feedback      string  `json:"feedback"`
}

// TrainingService wraps the Gemini model that scores training drill responses.
type TrainingService struct {
	genaiClient *genai.Client
	model       string
}

func NewTrainingService(apiKey, model string) *TrainingService {
	genaiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		slog.Error("Failed to create genai client", "error", err)
		return nil
	}
	return &TrainingService{genaiClient: genaiClient, model: model}
}

// EvaluateResponse scores the agent's written answer to a simulated customer
// query. Failures are tagged adapter errors, same discipline as the call
// analysis adapter. The caller persists the scores and completes the session.
func (t *TrainingService) EvaluateResponse(ctx context.Context, queryText, agentResponse string) (*Evaluation, error) {
	if t == nil || t.genaiClient == nil {
		return nil, NewAdapterError(ErrAuth, "training.generate", fmt.Errorf("genai client not initialized"))
	}

	slog.Info("Evaluating training response", "query_length", len(queryText), "response_length", len(agentResponse))

	prompt := buildEvaluationPrompt(queryText, agentResponse)
	result, err := t.genaiClient.Models.GenerateContent(
		ctx,
		t.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		return nil, NewAdapterError(ErrTransport, "training.generate", err)
	}

	evaluation, err := parseEvaluationResponse(result.Text())
	if err != nil {
		return nil, err
	}

	slog.Info("Training evaluation completed",
		"tone_score", evaluation.ToneScore,
		"clarity_score", evaluation.ClarityScore,
		"accuracy_score", evaluation.AccuracyScore)
	return evaluation, nil
}

func buildEvaluationPrompt(queryText, agentResponse string) string {
	return fmt.Sprintf(`You are an expert insurance call quality trainer.

I will provide you with a customer query and an insurance agent's response.

Evaluate the agent's response on the following criteria:

1. Tone (0-10): How appropriate and professional was the agent's tone?
2. Clarity (0-10): How clear and understandable was the agent's explanation?
3. Accuracy (0-10): How accurately did the agent address the customer's concern?
4. Feedback: Provide specific constructive feedback for the agent to improve.

Customer Query:
%s

Agent Response:
%s

Respond with ONLY a JSON object with these keys:
tone_score, clarity_score, accuracy_score, feedback`, queryText, agentResponse)
}

// parseEvaluationResponse validates the model's reply against the evaluation
// schema; violations fail as ErrMalformedResponse.
func parseEvaluationResponse(raw string) (*Evaluation, error) {
	payload := extractJSON(raw)

	var parsed struct {
		ToneScore     *float64 `json:"tone_score"`
		ClarityScore  *float64 `json:"clarity_score"`
		AccuracyScore *float64 `json:"accuracy_score"`
		Feedback      *string  `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, NewAdapterError(ErrMalformedResponse, "training.parse", err)
	}

	scores := map[string]*float64{
		"tone_score":     parsed.ToneScore,
		"clarity_score":  parsed.ClarityScore,
		"accuracy_score": parsed.AccuracyScore,
	}
	for name, score := range scores {
		if score == nil {
			return nil, NewAdapterError(ErrMalformedResponse, "training.parse", fmt.Errorf("missing %s", name))
		}
		if *score < 0 || *score > 10 {
			return nil, NewAdapterError(ErrMalformedResponse, "training.parse", fmt.Errorf("%s %v out of range", name, *score))
		}
	}
	if parsed.Feedback == nil {
		return nil, NewAdapterError(ErrMalformedResponse, "training.parse", fmt.Errorf("missing feedback"))
	}

	return &Evaluation{
		ToneScore:     *parsed.ToneScore,
		ClarityScore:  *parsed.ClarityScore,
		AccuracyScore: *parsed.AccuracyScore,
		Feedback:      *parsed.Feedback,
	}, nil
}
