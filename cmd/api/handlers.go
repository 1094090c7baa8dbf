package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/therealutkarshpriyadarshi/ytclipper/internal/config"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/middleware"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/timecode"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/youtube"
	"github.com/therealutkarshpriyadarshi/ytclipper/pkg/models"
)

// ClipService is the part of the pipeline the HTTP layer drives
type ClipService interface {
	CreateClip(ctx context.Context, url, start, end string) (*models.ClipResult, error)
	LookupClip(ctx context.Context, clipID string) (*models.ClipArtifact, error)
	Health(ctx context.Context) error
}

// API holds the HTTP handlers
type API struct {
	svc            ClipService
	publicURL      string
	requestTimeout time.Duration
	logger         *logging.Logger
}

// NewAPI creates the handler set
func NewAPI(svc ClipService, cfg *config.Config, logger *logging.Logger) *API {
	if logger == nil {
		logger = logging.Nop()
	}
	return &API{
		svc:            svc,
		publicURL:      strings.TrimRight(cfg.Server.PublicURL, "/"),
		requestTimeout: cfg.Clipper.RequestTimeout,
		logger:         logger,
	}
}

// Health check endpoint
func (api *API) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "ytclipper",
	})
}

// Database health check endpoint
func (api *API) databaseHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := api.svc.Health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

// Create clip endpoint
func (api *API) createClip(c *gin.Context) {
	var req models.ClipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url, start_time and end_time are required"})
		return
	}

	if err := youtube.ValidateURL(req.URL); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid YouTube URL"})
		return
	}
	if !timecode.ValidRequestFormat(req.StartTime) || !timecode.ValidRequestFormat(req.EndTime) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid time format. Use HH:MM:SS or MM:SS"})
		return
	}

	ctx := c.Request.Context()
	if api.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, api.requestTimeout)
		defer cancel()
	}

	result, err := api.svc.CreateClip(ctx, req.URL, req.StartTime, req.EndTime)
	if err != nil {
		api.logger.WithRequestID(middleware.GetRequestID(c)).WarnWithErr("Clip request failed", err)
		api.respondError(c, err)
		return
	}

	downloadURL := result.URL
	if downloadURL == "" {
		downloadURL = api.publicURL + "/api/v1/clip/download/" + result.Clip.ID
	}

	c.JSON(http.StatusOK, models.ClipResponse{
		Message:     "Clip created successfully",
		VideoID:     result.VideoID,
		ClipID:      result.Clip.ID,
		Duration:    result.Clip.Duration,
		FileSize:    result.Clip.Size,
		DownloadURL: downloadURL,
		CacheHit:    result.CacheHit,
	})
}

// Download clip endpoint
func (api *API) downloadClip(c *gin.Context) {
	clipID := c.Param("clip_id")

	clip, err := api.svc.LookupClip(c.Request.Context(), clipID)
	if err != nil {
		api.respondError(c, err)
		return
	}
	if clip == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Clip not found"})
		return
	}

	c.FileAttachment(clip.Path, "clip_"+clip.ID+".mp4")
}

func (api *API) respondError(c *gin.Context, err error) {
	body := gin.H{"error": errorMessage(err)}
	if detail := models.DetailOf(err); detail != "" {
		body["detail"] = detail
	}

	status := http.StatusInternalServerError
	switch {
	case models.IsClientError(err):
		status = http.StatusBadRequest
		body["error"] = err.Error()
	case errors.Is(err, models.ErrStorage):
		status = http.StatusServiceUnavailable
		body["retryable"] = true
	case models.IsRetryable(err):
		body["retryable"] = true
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		body["retryable"] = true
	}

	c.JSON(status, body)
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrAcquisitionFailed):
		return "Failed to download video"
	case errors.Is(err, models.ErrExtractionFailed):
		return "Failed to create clip"
	case errors.Is(err, models.ErrStorage):
		return "Download cache unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"
	default:
		return "Internal server error"
	}
}
