// Package handlers exposes the HTTP surface of the clip pipeline.
package handlers

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/funcoding7/clipgen-ai/internal/pipeline"
	"github.com/funcoding7/clipgen-ai/internal/storage"
	"github.com/funcoding7/clipgen-ai/internal/store"
	"github.com/funcoding7/clipgen-ai/internal/utils"
	"github.com/funcoding7/clipgen-ai/internal/worker"
)

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Store        *store.Store
	Objects      storage.ObjectStore
	Orchestrator *pipeline.Orchestrator
	Dispatcher   *worker.Dispatcher
	Index        pipeline.Indexer
	Validate     *validator.Validate
	Logger       *logrus.Logger
	PresignTTL   time.Duration
	TempRoot     string
}

// NewApplicationHandler wires the handler dependencies.
func NewApplicationHandler(
	st *store.Store,
	objects storage.ObjectStore,
	orch *pipeline.Orchestrator,
	dispatcher *worker.Dispatcher,
	index pipeline.Indexer,
	logger *logrus.Logger,
	presignTTL time.Duration,
	tempRoot string,
) *ApplicationHandler {
	return &ApplicationHandler{
		Store:        st,
		Objects:      objects,
		Orchestrator: orch,
		Dispatcher:   dispatcher,
		Index:        index,
		Validate:     validator.New(),
		Logger:       logger,
		PresignTTL:   presignTTL,
		TempRoot:     tempRoot,
	}
}

// userID extracts the caller identity from the X-User-ID header. An
// empty result means the handler must reject the request.
func userID(c *fiber.Ctx) string {
	return c.Get("X-User-ID")
}

// notFoundOrError maps a missing record to 404 and anything else to a
// logged 500.
func (h *ApplicationHandler) notFoundOrError(c *fiber.Ctx, err error, notFoundMsg string) error {
	if errors.Is(err, store.ErrRecordNotFound) {
		return utils.RespondWithError(c, fiber.StatusNotFound, notFoundMsg)
	}
	h.Logger.WithError(err).Error("Store query failed")
	return utils.RespondWithError(c, fiber.StatusInternalServerError, "Internal server error")
}
