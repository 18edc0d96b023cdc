package http

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/athar-taj/Live-Cogbee/internal/services"
)

// InterviewAPI exposes the interview analysis collaborators over REST.
type InterviewAPI struct {
	Interview *services.Interview
	Faces     *services.FaceVerification
}

// Analyze transcribes the uploaded answer video and scores it against the
// question.
func (a *InterviewAPI) Analyze(c *gin.Context) {
	question := c.PostForm("question")
	if question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}
	video, err := formFileBytes(c, "video")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "video upload missing"})
		return
	}

	feedback, err := a.Interview.AnalyzeAnswer(c.Request.Context(), question, video)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("analyze answer")
		c.JSON(http.StatusBadGateway, gin.H{"error": "analysis failed"})
		return
	}
	c.JSON(http.StatusOK, feedback)
}

// VerifyFace compares the reference photo with a live capture.
func (a *InterviewAPI) VerifyFace(c *gin.Context) {
	photo, err := formFileBytes(c, "photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo upload missing"})
		return
	}
	capture, err := formFileBytes(c, "capture")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "capture upload missing"})
		return
	}

	confidence, match, err := a.Faces.Verify(c.Request.Context(), photo, capture)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("face verification")
		c.JSON(http.StatusBadGateway, gin.H{"error": "verification failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"match": match, "confidence": confidence})
}

// CreateRoom mints a room name for a one-to-one call.
func (a *InterviewAPI) CreateRoom(c *gin.Context) {
	caller := c.Query("caller")
	receiver := c.Query("receiver")
	if caller == "" || receiver == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "caller and receiver are required"})
		return
	}
	name := fmt.Sprintf("room_%d_%s_%s", time.Now().UnixMilli(), caller, receiver)
	c.JSON(http.StatusOK, gin.H{"roomName": name})
}

func formFileBytes(c *gin.Context, field string) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
