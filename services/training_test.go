package services

import (
	"strings"
	"testing"
)

const validEvaluationJSON = `{
	"tone_score": 8,
	"clarity_score": 7.5,
	"accuracy_score": 9,
	"feedback": "Empathetic opening; confirm the refund timeline explicitly."
}`

func TestParseEvaluationResponseValid(t *testing.T) {
	evaluation, err := parseEvaluationResponse(validEvaluationJSON)
	if err != nil {
		t.Fatalf("parseEvaluationResponse() error = %v", err)
	}

	if evaluation.ToneScore != 8 {
		t.Errorf("tone score = %v, want 8", evaluation.ToneScore)
	}
	if evaluation.ClarityScore != 7.5 {
		t.Errorf("clarity score = %v, want 7.5", evaluation.ClarityScore)
	}
	if evaluation.AccuracyScore != 9 {
		t.Errorf("accuracy score = %v, want 9", evaluation.AccuracyScore)
	}
	if evaluation.Feedback == "" {
		t.Error("feedback should not be empty")
	}
}

func TestParseEvaluationResponseFenced(t *testing.T) {
	fenced := "```json\n" + validEvaluationJSON + "\n```"
	if _, err := parseEvaluationResponse(fenced); err != nil {
		t.Fatalf("parseEvaluationResponse() error = %v", err)
	}
}

func TestParseEvaluationResponseMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "great answer, 10/10"},
		{"missing tone", strings.Replace(validEvaluationJSON, `"tone_score": 8,`, "", 1)},
		{"missing clarity", strings.Replace(validEvaluationJSON, `"clarity_score": 7.5,`, "", 1)},
		{"missing accuracy", strings.Replace(validEvaluationJSON, `"accuracy_score": 9,`, "", 1)},
		{"missing feedback", strings.Replace(validEvaluationJSON, `,
	"feedback": "Empathetic opening; confirm the refund timeline explicitly."`, "", 1)},
		{"score above range", strings.Replace(validEvaluationJSON, `"tone_score": 8`, `"tone_score": 12`, 1)},
		{"score below range", strings.Replace(validEvaluationJSON, `"accuracy_score": 9`, `"accuracy_score": -2`, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseEvaluationResponse(tt.raw)
			if err == nil {
				t.Fatal("expected parse error")
			}
			if !IsKind(err, ErrMalformedResponse) {
				t.Errorf("error kind = %v, want %v", KindOf(err), ErrMalformedResponse)
			}
		})
	}
}

func TestBuildEvaluationPrompt(t *testing.T) {
	prompt := buildEvaluationPrompt("customer query text", "agent answer text")

	for _, want := range []string{"customer query text", "agent answer text", "tone_score", "clarity_score", "accuracy_score", "feedback"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
