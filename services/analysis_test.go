package services

import (
	"strings"
	"testing"
)

const validAnalysisJSON = `{
	"sentiment": "negative",
	"tone_analysis": {
		"agent": {"escalation": "low", "stress": "medium", "politeness": "high", "professionalism": "high"},
		"customer": {"escalation": "high", "stress": "high", "politeness": "low", "professionalism": "medium"}
	},
	"key_issues": ["billing dispute", "delayed claim"],
	"coverage_score": 6.5,
	"score_explanation": "Agent resolved the billing issue but did not address the claim delay.",
	"compliance_check": {
		"identity_verification": true,
		"disclosure_statements": false,
		"solution_provided": true,
		"follow_up_scheduled": false
	},
	"improvement_suggestions": "Schedule a follow-up before closing the call."
}`

func TestParseAnalysisResponseValid(t *testing.T) {
	analysis, err := parseAnalysisResponse(validAnalysisJSON)
	if err != nil {
		t.Fatalf("parseAnalysisResponse() error = %v", err)
	}

	if analysis.Sentiment != "negative" {
		t.Errorf("sentiment = %q, want negative", analysis.Sentiment)
	}
	if analysis.CoverageScore != 6.5 {
		t.Errorf("coverage score = %v, want 6.5", analysis.CoverageScore)
	}
	if len(analysis.KeyIssues) != 2 {
		t.Errorf("key issues = %v, want 2 entries", analysis.KeyIssues)
	}
	if analysis.ConfidenceScore != InterimConfidence {
		t.Errorf("confidence = %v, want %v", analysis.ConfidenceScore, InterimConfidence)
	}
	if !analysis.ComplianceCheck["identity_verification"] {
		t.Error("identity_verification should be true")
	}
	if analysis.ToneAnalysis.Customer.Escalation != "high" {
		t.Errorf("customer escalation = %q, want high", analysis.ToneAnalysis.Customer.Escalation)
	}
}

func TestParseAnalysisResponseFenced(t *testing.T) {
	fenced := "Here is the analysis:\n```json\n" + validAnalysisJSON + "\n```"
	analysis, err := parseAnalysisResponse(fenced)
	if err != nil {
		t.Fatalf("parseAnalysisResponse() error = %v", err)
	}
	if analysis.Sentiment != "negative" {
		t.Errorf("sentiment = %q, want negative", analysis.Sentiment)
	}
}

func TestParseAnalysisResponseUppercaseSentiment(t *testing.T) {
	raw := strings.Replace(validAnalysisJSON, `"negative"`, `"Negative"`, 1)
	analysis, err := parseAnalysisResponse(raw)
	if err != nil {
		t.Fatalf("parseAnalysisResponse() error = %v", err)
	}
	if analysis.Sentiment != "negative" {
		t.Errorf("sentiment = %q, want normalized negative", analysis.Sentiment)
	}
}

func TestParseAnalysisResponseMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "not json",
			raw:  "the call went poorly",
		},
		{
			name: "missing sentiment",
			raw:  strings.Replace(validAnalysisJSON, `"sentiment": "negative",`, "", 1),
		},
		{
			name: "invalid sentiment",
			raw:  strings.Replace(validAnalysisJSON, `"negative"`, `"angry"`, 1),
		},
		{
			name: "missing coverage score",
			raw:  strings.Replace(validAnalysisJSON, `"coverage_score": 6.5,`, "", 1),
		},
		{
			name: "score above range",
			raw:  strings.Replace(validAnalysisJSON, "6.5", "11", 1),
		},
		{
			name: "score below range",
			raw:  strings.Replace(validAnalysisJSON, "6.5", "-1", 1),
		},
		{
			name: "missing score explanation",
			raw:  strings.Replace(validAnalysisJSON, `"score_explanation": "Agent resolved the billing issue but did not address the claim delay.",`, "", 1),
		},
		{
			name: "missing compliance check",
			raw: strings.Replace(validAnalysisJSON, `"compliance_check": {
		"identity_verification": true,
		"disclosure_statements": false,
		"solution_provided": true,
		"follow_up_scheduled": false
	},`, "", 1),
		},
		{
			name: "missing compliance key",
			raw:  strings.Replace(validAnalysisJSON, `"follow_up_scheduled": false`, `"something_else": false`, 1),
		},
		{
			name: "missing key issues",
			raw:  strings.Replace(validAnalysisJSON, `"key_issues": ["billing dispute", "delayed claim"],`, "", 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseAnalysisResponse(tt.raw)
			if err == nil {
				t.Fatal("expected parse error")
			}
			if !IsKind(err, ErrMalformedResponse) {
				t.Errorf("error kind = %v, want %v", KindOf(err), ErrMalformedResponse)
			}
		})
	}
}

func TestParseAnalysisResponseEmptyIssuesAllowed(t *testing.T) {
	raw := strings.Replace(validAnalysisJSON, `["billing dispute", "delayed claim"]`, `[]`, 1)
	analysis, err := parseAnalysisResponse(raw)
	if err != nil {
		t.Fatalf("parseAnalysisResponse() error = %v", err)
	}
	if len(analysis.KeyIssues) != 0 {
		t.Errorf("key issues = %v, want empty", analysis.KeyIssues)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced no language", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding prose", `Sure! {"a":1} Hope that helps.`, `{"a":1}`},
		{"no object", "nothing here", "nothing here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.raw); got != tt.want {
				t.Errorf("extractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildAnalysisPrompt(t *testing.T) {
	transcript := &Transcript{
		FullText:     "full conversation text",
		AgentText:    "agent side only",
		CustomerText: "customer side only",
	}

	prompt := buildAnalysisPrompt(transcript)

	for _, want := range []string{
		"full conversation text",
		"agent side only",
		"customer side only",
		"identity_verification",
		"coverage_score",
		"Coverage score (0-10)",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
