package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// InterimConfidence is reported on every analysis until the model exposes a
// real confidence signal. A known approximation; nothing in the pipeline
// depends on it for correctness.
const InterimConfidence = 0.85

// ToneSignals describes one party's tone over the call.
type ToneSignals struct {
	Escalation      string `json:"escalation"`
	Stress          string `json:"stress"`
	Politeness      string `json:"politeness"`
	Professionalism string `json:"professionalism"`
}

// ToneAnalysis holds per-party tone signals.
type ToneAnalysis struct {
	Agent    ToneSignals `json:"agent"`
	Customer ToneSignals `json:"customer"`
}

// ConversationAnalysis is the structured quality assessment of one call.
type ConversationAnalysis struct {
	Sentiment              string          `json:"sentiment"`
	ToneAnalysis           ToneAnalysis    `json:"tone_analysis"`
	KeyIssues              []string        `json:"key_issues"`
	CoverageScore          float64         `json:"coverage_score"`
	ScoreExplanation       string          `json:"score_explanation"`
	ComplianceCheck        map[string]bool `json:"compliance_check"`
	ImprovementSuggestions string          `json:"improvement_suggestions"`
	ConfidenceScore        float64         `json:"confidence_score"`
}

// complianceKeys are the required entries of every compliance checklist.
var complianceKeys = []string{
	"identity_verification",
	"disclosure_statements",
	"solution_provided",
	"follow_up_scheduled",
}

// AnalysisService wraps the Gemini model that scores call transcripts.
type AnalysisService struct {
	genaiClient *genai.Client
	model       string
}

func NewAnalysisService(apiKey, model string) *AnalysisService {
	genaiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		slog.Error("Failed to create genai client", "error", err)
		return nil
	}
	return &AnalysisService{genaiClient: genaiClient, model: model}
}

// AnalyzeConversation sends the transcript to the model and parses the
// response into the fixed analysis schema. Failures are tagged adapter
// errors; a response that does not match the schema is ErrMalformedResponse,
// never silently replaced with defaults.
func (a *AnalysisService) AnalyzeConversation(ctx context.Context, transcript *Transcript) (*ConversationAnalysis, error) {
	if a == nil || a.genaiClient == nil {
		return nil, NewAdapterError(ErrAuth, "analysis.generate", fmt.Errorf("genai client not initialized"))
	}

	slog.Info("Starting conversation analysis", "transcript_length", len(transcript.FullText))

	prompt := buildAnalysisPrompt(transcript)
	result, err := a.genaiClient.Models.GenerateContent(
		ctx,
		a.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		return nil, NewAdapterError(ErrTransport, "analysis.generate", err)
	}

	analysis, err := parseAnalysisResponse(result.Text())
	if err != nil {
		return nil, err
	}

	slog.Info("Conversation analysis completed",
		"sentiment", analysis.Sentiment,
		"coverage_score", analysis.CoverageScore,
		"key_issues", len(analysis.KeyIssues))
	return analysis, nil
}

func buildAnalysisPrompt(transcript *Transcript) string {
	return fmt.Sprintf(`You are an expert insurance call quality analyst.

I will provide you with a transcription of a call between an insurance agent and a customer calling with a complaint.

Analyze this conversation and provide the following:

1. Overall sentiment (positive, neutral, or negative)
2. Tone analysis for both the agent and customer (escalation, stress, politeness, professionalism - each low, medium or high)
3. Key issues identified in the call
4. Coverage score (0-10) - how well the agent handled the complaint
5. Coverage score explanation
6. Compliance check: identity_verification, disclosure_statements, solution_provided, follow_up_scheduled - each true or false
7. Improvement suggestions for the agent

Full conversation:
%s

Agent's dialogue:
%s

Customer's dialogue:
%s

Respond with ONLY a JSON object with these keys:
sentiment, tone_analysis (object with agent and customer, each with escalation, stress, politeness, professionalism), key_issues (array of strings), coverage_score (number), score_explanation, compliance_check (object with the four boolean keys above), improvement_suggestions`,
		transcript.FullText, transcript.AgentText, transcript.CustomerText)
}

// parseAnalysisResponse validates the model's reply against the analysis
// schema. Any missing field, unknown enum value or out-of-range score fails
// the whole call as ErrMalformedResponse.
func parseAnalysisResponse(raw string) (*ConversationAnalysis, error) {
	payload := extractJSON(raw)

	var parsed struct {
		Sentiment              *string         `json:"sentiment"`
		ToneAnalysis           ToneAnalysis    `json:"tone_analysis"`
		KeyIssues              []string        `json:"key_issues"`
		CoverageScore          *float64        `json:"coverage_score"`
		ScoreExplanation       *string         `json:"score_explanation"`
		ComplianceCheck        map[string]bool `json:"compliance_check"`
		ImprovementSuggestions string          `json:"improvement_suggestions"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, NewAdapterError(ErrMalformedResponse, "analysis.parse", err)
	}

	if parsed.Sentiment == nil {
		return nil, NewAdapterError(ErrMalformedResponse, "analysis.parse", fmt.Errorf("missing sentiment"))
	}
	sentiment := strings.ToLower(strings.TrimSpace(*parsed.Sentiment))
	switch sentiment {
	case "positive", "neutral", "negative":
	default:
		return nil, NewAdapterError(ErrMalformedResponse, "analysis.parse", fmt.Errorf("invalid sentiment %q", *parsed.Sentiment))
	}

	if parsed.CoverageScore == nil {
		return nil, NewAdapterError(ErrMalformedResponse, "analysis.parse", fmt.Errorf("missing coverage_score"))
	}
	if *parsed.CoverageScore < 0 || *parsed.CoverageScore > 10 {
		return nil, NewAdapterError(ErrMalformedResponse, "analysis.parse", fmt.Errorf("coverage_score %v out of range", *parsed.CoverageScore))
	}

	if parsed.ScoreExplanation == nil {
		return nil, NewAdapterError(ErrMalformedResponse, "analysis.parse", fmt.Errorf("missing score_explanation"))
	}

	if parsed.ComplianceCheck == nil {
		return nil, NewAdapterError(ErrMalformedResponse, "analysis.parse", fmt.Errorf("missing compliance_check"))
	}
	for _, key := range complianceKeys {
		if _, ok := parsed.ComplianceCheck[key]; !ok {
			return nil, NewAdapterError(ErrMalformedResponse, "analysis.parse", fmt.Errorf("compliance_check missing %q", key))
		}
	}

	if parsed.KeyIssues == nil {
		return nil, NewAdapterError(ErrMalformedResponse, "analysis.parse", fmt.Errorf("missing key_issues"))
	}

	return &ConversationAnalysis{
		Sentiment:              sentiment,
		ToneAnalysis:           parsed.ToneAnalysis,
		KeyIssues:              parsed.KeyIssues,
		CoverageScore:          *parsed.CoverageScore,
		ScoreExplanation:       *parsed.ScoreExplanation,
		ComplianceCheck:        parsed.ComplianceCheck,
		ImprovementSuggestions: parsed.ImprovementSuggestions,
		ConfidenceScore:        InterimConfidence,
	}, nil
}

// extractJSON strips markdown code fences and surrounding prose, returning
// the outermost JSON object in the reply.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
