package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/funcoding7/clipgen-ai/internal/jobs"
	"github.com/funcoding7/clipgen-ai/internal/models"
	"github.com/funcoding7/clipgen-ai/internal/utils"
	"github.com/funcoding7/clipgen-ai/internal/worker"
)

// UploadVideo accepts a multipart video file, stores it, and queues
// the processing pipeline.
func (h *ApplicationHandler) UploadVideo(c *fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return utils.RespondWithError(c, fiber.StatusUnauthorized, "X-User-ID header is required")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "A 'file' form field is required")
	}
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".mp4") {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Only .mp4 uploads are supported")
	}

	videoID := uuid.New()
	tempPath := filepath.Join(h.TempRoot, fmt.Sprintf("upload-%s.mp4", videoID))
	if err := c.SaveFile(file, tempPath); err != nil {
		h.Logger.WithError(err).Error("Could not persist uploaded file")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not store upload")
	}
	defer os.Remove(tempPath)

	storageKey := fmt.Sprintf("%s/%s/source.mp4", uid, videoID)
	if !h.Objects.Put(tempPath, storageKey) {
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not store upload")
	}

	jobID := uuid.NewString()
	video := models.Video{
		ID:         videoID,
		UserID:     uid,
		Filename:   file.Filename,
		StorageKey: &storageKey,
		JobID:      &jobID,
		Status:     models.StatusPending,
	}
	created, err := h.Store.CreateVideo(video)
	if err != nil {
		h.Logger.WithError(err).Error("Could not create video record")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not create video record")
	}

	job := &jobs.ProcessVideoJob{JobID: jobID, Video: created, Orchestrator: h.Orchestrator, Log: h.Logger}
	if err := h.Dispatcher.Submit(job); err != nil {
		return utils.RespondWithError(c, fiber.StatusServiceUnavailable, "Processing queue is full, try again later")
	}

	return utils.RespondWithJSON(c, fiber.StatusAccepted, fiber.Map{
		"video_id": created.ID,
		"task_id":  jobID,
		"status":   created.Status,
	})
}

// processURLRequest is the body of POST /process-url.
type processURLRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// ProcessURL queues the pipeline for a remote video.
func (h *ApplicationHandler) ProcessURL(c *fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return utils.RespondWithError(c, fiber.StatusUnauthorized, "X-User-ID header is required")
	}

	var req processURLRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.Validate.Struct(req); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest,
			strings.Join(utils.FormatValidationErrors(err), "; "))
	}

	jobID := uuid.NewString()
	video := models.Video{
		ID:        uuid.New(),
		UserID:    uid,
		Filename:  "remote.mp4",
		SourceURL: &req.URL,
		JobID:     &jobID,
		Status:    models.StatusPending,
	}
	created, err := h.Store.CreateVideo(video)
	if err != nil {
		h.Logger.WithError(err).Error("Could not create video record")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not create video record")
	}

	job := &jobs.ProcessRemoteJob{JobID: jobID, Video: created, Orchestrator: h.Orchestrator, Log: h.Logger}
	if err := h.Dispatcher.Submit(job); err != nil {
		return utils.RespondWithError(c, fiber.StatusServiceUnavailable, "Processing queue is full, try again later")
	}

	return utils.RespondWithJSON(c, fiber.StatusAccepted, fiber.Map{
		"video_id": created.ID,
		"task_id":  jobID,
		"status":   created.Status,
	})
}

// ListVideos returns the caller's videos.
func (h *ApplicationHandler) ListVideos(c *fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return utils.RespondWithError(c, fiber.StatusUnauthorized, "X-User-ID header is required")
	}

	videos, err := h.Store.ListVideos(uid)
	if err != nil {
		h.Logger.WithError(err).Error("Could not list videos")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not list videos")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, videos)
}

// GetVideo returns one video together with its clips.
func (h *ApplicationHandler) GetVideo(c *fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return utils.RespondWithError(c, fiber.StatusUnauthorized, "X-User-ID header is required")
	}

	videoID, err := uuid.Parse(c.Params("videoId"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid video id")
	}

	video, err := h.Store.GetVideo(videoID, uid)
	if err != nil {
		return h.notFoundOrError(c, err, "Video not found")
	}

	clips, err := h.Store.ListClips(videoID)
	if err != nil {
		h.Logger.WithError(err).Error("Could not list clips")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not list clips")
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"video": video,
		"clips": clips,
	})
}

// RetryVideo re-enters a FAILED video into the pipeline. Any other
// status is rejected: retry is an explicit operator action on
// terminal failures only.
func (h *ApplicationHandler) RetryVideo(c *fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return utils.RespondWithError(c, fiber.StatusUnauthorized, "X-User-ID header is required")
	}

	videoID, err := uuid.Parse(c.Params("videoId"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid video id")
	}

	video, err := h.Store.GetVideo(videoID, uid)
	if err != nil {
		return h.notFoundOrError(c, err, "Video not found")
	}
	if video.Status != models.StatusFailed {
		return utils.RespondWithError(c, fiber.StatusConflict,
			fmt.Sprintf("Video is %s, only FAILED videos can be retried", video.Status))
	}

	if err := h.Store.UpdateVideoStatus(videoID, models.StatusPending, ""); err != nil {
		h.Logger.WithError(err).Error("Could not reset video status")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not reset video status")
	}
	video.Status = models.StatusPending

	jobID := uuid.NewString()
	if err := h.Store.SetVideoJobID(videoID, jobID); err != nil {
		h.Logger.WithError(err).Error("Could not record retry job id")
	}
	video.JobID = &jobID

	var job worker.Job
	if video.SourceURL != nil && video.StorageKey == nil {
		job = &jobs.ProcessRemoteJob{JobID: jobID, Video: video, Orchestrator: h.Orchestrator, Log: h.Logger}
	} else {
		job = &jobs.ProcessVideoJob{JobID: jobID, Video: video, Orchestrator: h.Orchestrator, Log: h.Logger}
	}
	if err := h.Dispatcher.Submit(job); err != nil {
		return utils.RespondWithError(c, fiber.StatusServiceUnavailable, "Processing queue is full, try again later")
	}

	return utils.RespondWithJSON(c, fiber.StatusAccepted, fiber.Map{
		"video_id": videoID,
		"task_id":  jobID,
		"status":   models.StatusPending,
	})
}

// TaskStatus reports the worker-side state of a submitted job.
func (h *ApplicationHandler) TaskStatus(c *fiber.Ctx) error {
	status, ok := h.Dispatcher.Status(c.Params("taskId"))
	if !ok {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Unknown task id")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, status)
}
