// Package jobs adapts pipeline operations to the worker pool.
package jobs

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/funcoding7/clipgen-ai/internal/models"
	"github.com/funcoding7/clipgen-ai/internal/pipeline"
)

// ProcessVideoJob runs the full pipeline for an uploaded video.
type ProcessVideoJob struct {
	JobID        string
	Video        models.Video
	Orchestrator *pipeline.Orchestrator
	Log          *logrus.Logger
}

func (j *ProcessVideoJob) ID() string { return j.JobID }

func (j *ProcessVideoJob) Execute(ctx context.Context) error {
	j.Log.WithFields(logrus.Fields{"job": j.JobID, "video_id": j.Video.ID}).Info("Processing uploaded video")
	return j.Orchestrator.Process(ctx, j.Video)
}

// ProcessRemoteJob fetches a remote video and runs the same pipeline.
type ProcessRemoteJob struct {
	JobID        string
	Video        models.Video
	Orchestrator *pipeline.Orchestrator
	Log          *logrus.Logger
}

func (j *ProcessRemoteJob) ID() string { return j.JobID }

func (j *ProcessRemoteJob) Execute(ctx context.Context) error {
	j.Log.WithFields(logrus.Fields{"job": j.JobID, "video_id": j.Video.ID}).Info("Processing remote video")
	return j.Orchestrator.ProcessRemote(ctx, j.Video)
}

// ReformatClipJob renders one vertical rendition in the background.
type ReformatClipJob struct {
	JobID        string
	Request      pipeline.ReformatRequest
	Orchestrator *pipeline.Orchestrator
	Log          *logrus.Logger
}

func (j *ReformatClipJob) ID() string { return j.JobID }

func (j *ReformatClipJob) Execute(ctx context.Context) error {
	j.Log.WithFields(logrus.Fields{
		"job":     j.JobID,
		"clip_id": j.Request.ClipID,
		"layout":  j.Request.Layout,
	}).Info("Reformatting clip")
	_, err := j.Orchestrator.Reformat(ctx, j.Request)
	return err
}
