package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/athar-taj/Live-Cogbee/internal/config"
)

var ErrNoEvaluation = errors.New("services: model returned no evaluation")

const evaluationPrompt = `You are an intelligent interview evaluator.

Your task:
Evaluate the candidate's spoken answer (converted to text) for conceptual
correctness, clarity of thought, and coverage of the topic, while ignoring
grammar mistakes, filler words, pronunciation issues, or informal phrasing.

Guidelines:
- Focus on whether the candidate understood and explained the correct concept.
- Minor language or structure issues should not reduce correctness.
- Accept partially correct or simplified answers if they convey the main idea.
- Be objective and concise in your judgment.

Response format (JSON only, no markdown or code fences):
{
  "correctness": <number between 0 and 100>,
  "feedback": "<short feedback on clarity or correctness>",
  "improvementTopic": "<specific topic or concept to improve, or empty if not needed>"
}

Scoring rules:
- correctness >= 70 means the answer is conceptually correct; give brief positive feedback.
- correctness < 70 means the answer is incomplete or incorrect; suggest one key improvement.`

// EvaluationResult is the model's judgment of one answer.
type EvaluationResult struct {
	Correctness      float64 `json:"correctness"`
	Feedback         string  `json:"feedback"`
	ImprovementTopic string  `json:"improvementTopic"`
}

// AnswerEvaluation scores a transcribed answer against its question using a
// generative model.
type AnswerEvaluation struct {
	cfg    config.Gemini
	client *http.Client
}

func NewAnswerEvaluation(cfg config.Gemini, client *http.Client) *AnswerEvaluation {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &AnswerEvaluation{cfg: cfg, client: client}
}

func (a *AnswerEvaluation) Evaluate(ctx context.Context, question, answer string) (EvaluationResult, error) {
	input := fmt.Sprintf("Question: %s\nAnswer: %s", question, answer)
	reqBody := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]any{{"text": evaluationPrompt + "\n\n" + input}}},
		},
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return EvaluationResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.URL, bytes.NewReader(data))
	if err != nil {
		return EvaluationResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", a.cfg.Key)

	resp, err := a.client.Do(req)
	if err != nil {
		return EvaluationResult{}, fmt.Errorf("services: evaluate: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return EvaluationResult{}, fmt.Errorf("services: evaluate decode: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return EvaluationResult{}, ErrNoEvaluation
	}

	var result EvaluationResult
	raw := extractJSON(out.Candidates[0].Content.Parts[0].Text)
	if raw == "" {
		return EvaluationResult{}, ErrNoEvaluation
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return EvaluationResult{}, fmt.Errorf("services: evaluate parse: %w", err)
	}
	return result, nil
}

// extractJSON pulls the first JSON object out of the model reply, tolerating
// markdown code fences around it.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			return text[start : end+1]
		}
	}
	return ""
}
