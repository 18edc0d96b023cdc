// Package services wraps the external collaborators of the interview flow:
// speech-to-text, face verification, and answer evaluation. Plain
// request/response calls, no state machines.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/athar-taj/Live-Cogbee/internal/config"
)

const (
	sttTaskCreated  = 10000
	sttTaskDone     = 11000
	sttTaskRunning  = 11001
	sttPollInterval = 3 * time.Second
)

var ErrTranscriptionFailed = errors.New("services: transcription failed")

// SpeechToText transcribes audio/video chunks through the SpeechFlow API:
// create a task with the file, then poll until the transcript is ready.
type SpeechToText struct {
	cfg    config.SpeechFlow
	client *http.Client
	poll   time.Duration
}

func NewSpeechToText(cfg config.SpeechFlow, client *http.Client) *SpeechToText {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &SpeechToText{cfg: cfg, client: client, poll: sttPollInterval}
}

// Transcribe converts one recorded chunk into text.
func (s *SpeechToText) Transcribe(ctx context.Context, chunk []byte) (string, error) {
	taskID, err := s.createTask(ctx, chunk)
	if err != nil {
		return "", err
	}
	return s.pollResult(ctx, taskID)
}

func (s *SpeechToText) createTask(ctx context.Context, chunk []byte) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("lang", s.cfg.Lang); err != nil {
		return "", err
	}
	part, err := w.CreateFormFile("file", "chunk.webm")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(chunk); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/asr/file/v1/create", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("keyId", s.cfg.KeyID)
	req.Header.Set("keySecret", s.cfg.KeySecret)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("services: speechflow create: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Code   int    `json:"code"`
		TaskID string `json:"taskId"`
		Msg    string `json:"msg"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("services: speechflow create decode: %w", err)
	}
	if out.Code != sttTaskCreated || out.TaskID == "" {
		return "", fmt.Errorf("%w: create task code %d: %s", ErrTranscriptionFailed, out.Code, out.Msg)
	}
	return out.TaskID, nil
}

func (s *SpeechToText) pollResult(ctx context.Context, taskID string) (string, error) {
	url := fmt.Sprintf("%s/asr/file/v1/query?taskId=%s&resultType=4", s.cfg.BaseURL, taskID)
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("keyId", s.cfg.KeyID)
		req.Header.Set("keySecret", s.cfg.KeySecret)

		resp, err := s.client.Do(req)
		if err != nil {
			return "", fmt.Errorf("services: speechflow query: %w", err)
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return "", err
		}

		var out struct {
			Code   int    `json:"code"`
			Result string `json:"result"`
			Msg    string `json:"msg"`
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return "", fmt.Errorf("services: speechflow query decode: %w", err)
		}
		switch out.Code {
		case sttTaskDone:
			return out.Result, nil
		case sttTaskRunning:
			log.Debug().Str("module", "services.stt").Str("task", taskID).Msg("transcription still running")
		default:
			return "", fmt.Errorf("%w: query code %d: %s", ErrTranscriptionFailed, out.Code, out.Msg)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.poll):
		}
	}
}
