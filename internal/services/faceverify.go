package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/athar-taj/Live-Cogbee/internal/config"
)

// FaceVerification compares two face images through the Face++ compare API
// and reports whether they match the configured confidence threshold.
type FaceVerification struct {
	cfg    config.FacePlusPlus
	client *http.Client
}

func NewFaceVerification(cfg config.FacePlusPlus, client *http.Client) *FaceVerification {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &FaceVerification{cfg: cfg, client: client}
}

// Verify returns the confidence score and whether it clears the threshold.
// A response without a confidence field (no face found) is a non-match, not
// an error.
func (f *FaceVerification) Verify(ctx context.Context, imageA, imageB []byte) (float64, bool, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	_ = w.WriteField("api_key", f.cfg.Key)
	_ = w.WriteField("api_secret", f.cfg.Secret)
	for name, img := range map[string][]byte{"image_file1": imageA, "image_file2": imageB} {
		part, err := w.CreateFormFile(name, name+".jpg")
		if err != nil {
			return 0, false, err
		}
		if _, err := part.Write(img); err != nil {
			return 0, false, err
		}
	}
	if err := w.Close(); err != nil {
		return 0, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.URL, &body)
	if err != nil {
		return 0, false, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, false, fmt.Errorf("services: facepp compare: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Confidence   *float64 `json:"confidence"`
		ErrorMessage string   `json:"error_message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, false, fmt.Errorf("services: facepp decode: %w", err)
	}
	if out.ErrorMessage != "" {
		return 0, false, fmt.Errorf("services: facepp: %s", out.ErrorMessage)
	}
	if out.Confidence == nil {
		return 0, false, nil
	}
	log.Info().Str("module", "services.face").Float64("confidence", *out.Confidence).Msg("face compare done")
	return *out.Confidence, *out.Confidence > f.cfg.Threshold, nil
}
