package services

import (
	"context"

	"github.com/rs/zerolog/log"
)

// InterviewFeedback is the combined analysis of one recorded answer.
type InterviewFeedback struct {
	FaceVerified bool    `json:"faceVerified"`
	Correctness  float64 `json:"correctness"`
	Feedback     string  `json:"feedback"`
	Improvement  string  `json:"improvementTopic"`
	Transcript   string  `json:"transcript"`
}

// Interview composes the collaborator calls: transcribe the recorded answer,
// then score the transcript against the question.
type Interview struct {
	STT      *SpeechToText
	Evaluate *AnswerEvaluation
}

func NewInterview(stt *SpeechToText, eval *AnswerEvaluation) *Interview {
	return &Interview{STT: stt, Evaluate: eval}
}

func (i *Interview) AnalyzeAnswer(ctx context.Context, question string, recording []byte) (InterviewFeedback, error) {
	transcript, err := i.STT.Transcribe(ctx, recording)
	if err != nil {
		return InterviewFeedback{}, err
	}
	log.Info().Str("module", "services.interview").Int("transcript_len", len(transcript)).Msg("answer transcribed")

	eval, err := i.Evaluate.Evaluate(ctx, question, transcript)
	if err != nil {
		return InterviewFeedback{}, err
	}
	return InterviewFeedback{
		FaceVerified: true,
		Correctness:  eval.Correctness,
		Feedback:     eval.Feedback,
		Improvement:  eval.ImprovementTopic,
		Transcript:   transcript,
	}, nil
}
