package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/funcoding7/clipgen-ai/internal/jobs"
	"github.com/funcoding7/clipgen-ai/internal/models"
	"github.com/funcoding7/clipgen-ai/internal/pipeline"
	"github.com/funcoding7/clipgen-ai/internal/utils"
)

// ClipDownload returns a presigned URL for the horizontal clip.
func (h *ApplicationHandler) ClipDownload(c *fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return utils.RespondWithError(c, fiber.StatusUnauthorized, "X-User-ID header is required")
	}

	clipID, err := uuid.Parse(c.Params("clipId"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid clip id")
	}

	clip, err := h.Store.GetClip(clipID, uid)
	if err != nil {
		return h.notFoundOrError(c, err, "Clip not found")
	}

	url := h.Objects.Presign(clip.StorageKey, h.PresignTTL)
	if url == "" {
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not sign download URL")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"download_url": url,
		"filename":     clip.Filename,
	})
}

// convertShortsRequest is the body of POST /clips/:clipId/convert-shorts.
type convertShortsRequest struct {
	LayoutType     string `json:"layout_type" validate:"required"`
	EnableCaptions bool   `json:"enable_captions"`
	CaptionStyle   string `json:"caption_style"`
}

// ConvertShorts queues a vertical rendition of the clip, or answers
// immediately when the same layout already exists.
func (h *ApplicationHandler) ConvertShorts(c *fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return utils.RespondWithError(c, fiber.StatusUnauthorized, "X-User-ID header is required")
	}

	clipID, err := uuid.Parse(c.Params("clipId"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid clip id")
	}

	var req convertShortsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.Validate.Struct(req); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest,
			strings.Join(utils.FormatValidationErrors(err), "; "))
	}
	if !models.ValidLayout(req.LayoutType) {
		return utils.RespondWithError(c, fiber.StatusBadRequest,
			"layout_type must be one of center_crop, blurred, smart")
	}

	clip, err := h.Store.GetClip(clipID, uid)
	if err != nil {
		return h.notFoundOrError(c, err, "Clip not found")
	}

	if clip.ShortsStorageKey != nil && clip.Layout != nil && *clip.Layout == req.LayoutType {
		url := h.Objects.Presign(*clip.ShortsStorageKey, h.PresignTTL)
		return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
			"status":              "already_converted",
			"shorts_download_url": url,
			"layout_type":         req.LayoutType,
		})
	}

	jobID := uuid.NewString()
	job := &jobs.ReformatClipJob{
		JobID: jobID,
		Request: pipeline.ReformatRequest{
			ClipID:       clipID,
			UserID:       uid,
			Layout:       models.Layout(req.LayoutType),
			Captions:     req.EnableCaptions,
			CaptionStyle: req.CaptionStyle,
		},
		Orchestrator: h.Orchestrator,
		Log:          h.Logger,
	}
	if err := h.Dispatcher.Submit(job); err != nil {
		return utils.RespondWithError(c, fiber.StatusServiceUnavailable, "Processing queue is full, try again later")
	}

	return utils.RespondWithJSON(c, fiber.StatusAccepted, fiber.Map{
		"status":      "processing",
		"task_id":     jobID,
		"layout_type": req.LayoutType,
	})
}

// ShortsStatus reports whether the vertical rendition exists and, if
// so, where to download it.
func (h *ApplicationHandler) ShortsStatus(c *fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return utils.RespondWithError(c, fiber.StatusUnauthorized, "X-User-ID header is required")
	}

	clipID, err := uuid.Parse(c.Params("clipId"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid clip id")
	}

	clip, err := h.Store.GetClip(clipID, uid)
	if err != nil {
		return h.notFoundOrError(c, err, "Clip not found")
	}

	if clip.ShortsStorageKey == nil {
		return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
			"status": "not_converted",
		})
	}

	url := h.Objects.Presign(*clip.ShortsStorageKey, h.PresignTTL)
	if url == "" {
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not sign download URL")
	}
	resp := fiber.Map{
		"status":              "ready",
		"shorts_download_url": url,
	}
	if clip.Layout != nil {
		resp["layout_type"] = *clip.Layout
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, resp)
}
