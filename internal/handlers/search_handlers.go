package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/funcoding7/clipgen-ai/internal/utils"
)

// SearchVideo finds transcript moments matching the q parameter.
func (h *ApplicationHandler) SearchVideo(c *fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return utils.RespondWithError(c, fiber.StatusUnauthorized, "X-User-ID header is required")
	}

	videoID, err := uuid.Parse(c.Params("videoId"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid video id")
	}
	query := c.Query("q")
	if query == "" {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "A 'q' query parameter is required")
	}

	// Ownership check before touching the index.
	if _, err := h.Store.GetVideo(videoID, uid); err != nil {
		return h.notFoundOrError(c, err, "Video not found")
	}

	moments, err := h.Index.Query(query, videoID)
	if err != nil {
		h.Logger.WithError(err).Error("Search query failed")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Search failed")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"video_id": videoID,
		"query":    query,
		"moments":  moments,
	})
}
