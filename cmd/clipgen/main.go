package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/spf13/cobra"

	"github.com/funcoding7/clipgen-ai/internal/aiclient"
	"github.com/funcoding7/clipgen-ai/internal/asr"
	"github.com/funcoding7/clipgen-ai/internal/config"
	"github.com/funcoding7/clipgen-ai/internal/detector"
	"github.com/funcoding7/clipgen-ai/internal/ffmpeg"
	"github.com/funcoding7/clipgen-ai/internal/handlers"
	"github.com/funcoding7/clipgen-ai/internal/middleware"
	"github.com/funcoding7/clipgen-ai/internal/pipeline"
	"github.com/funcoding7/clipgen-ai/internal/ranking"
	"github.com/funcoding7/clipgen-ai/internal/search"
	"github.com/funcoding7/clipgen-ai/internal/storage"
	"github.com/funcoding7/clipgen-ai/internal/store"
	"github.com/funcoding7/clipgen-ai/internal/worker"
	"github.com/funcoding7/clipgen-ai/internal/ytdlp"
)

func main() {
	root := &cobra.Command{
		Use:          "clipgen",
		Short:        "Viral clip pipeline service",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := config.InitLogger()

	supaClient, err := cfg.NewSupabaseClient()
	if err != nil {
		return err
	}

	st := store.New(supaClient, log)
	objects := storage.NewSupabaseStore(supaClient, cfg.StorageBucket, cfg.SupabaseURL, log)
	index := search.NewPostgrestIndex(supaClient, log)

	oracle := aiclient.New(aiclient.Config{
		APIKey:  cfg.OpenAIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	}, log)
	ranker := ranking.New(oracle, ranking.Config{
		MaxClips:    cfg.MaxClips,
		MinDuration: cfg.ClipMinSecs,
		MaxDuration: cfg.ClipMaxSecs,
	}, log)

	toolchain := ffmpeg.Toolchain{FFmpegPath: cfg.FFmpegBin, FFprobePath: cfg.FFprobeBin}
	transcriber := asr.NewWhisperCpp(cfg.WhisperBin, cfg.WhisperModel)
	fetcher := ytdlp.NewExecFetcher(cfg.YtdlpBin)

	var det pipeline.Detector = detector.NopDetector{}
	if cfg.DetectorBin != "" {
		det = detector.NewExecDetector(cfg.DetectorBin)
	} else {
		log.Warn("DETECTOR_BIN not set, smart layout degrades to center crop")
	}

	orch := pipeline.New(st, objects, transcriber, ranker, toolchain, det, fetcher, index,
		pipeline.Config{
			TempRoot: cfg.TempRoot,
			FrameFPS: cfg.FrameFPS,
		}, log)

	dispatcher := worker.NewDispatcher(cfg.Workers, cfg.QueueSize, log)
	dispatcher.Run()
	defer dispatcher.Stop()

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	sweeper := worker.NewSweeper(st, cfg.JobTimeout, cfg.SweepEvery, log)
	go sweeper.Run(sweepCtx)

	h := handlers.NewApplicationHandler(st, objects, orch, dispatcher, index, log, cfg.PresignTTL, cfg.TempRoot)

	app := fiber.New(fiber.Config{
		BodyLimit: 1 << 30,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-User-ID",
	}))
	app.Use(middleware.RequestLogger(log))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")
	api.Post("/upload", h.UploadVideo)
	api.Post("/process-url", h.ProcessURL)
	api.Get("/task/:taskId", h.TaskStatus)
	api.Get("/videos", h.ListVideos)
	api.Get("/videos/:videoId", h.GetVideo)
	api.Post("/videos/:videoId/retry", h.RetryVideo)
	api.Get("/clips/:clipId/download", h.ClipDownload)
	api.Post("/clips/:clipId/convert-shorts", h.ConvertShorts)
	api.Get("/clips/:clipId/shorts", h.ShortsStatus)
	api.Get("/search/:videoId", h.SearchVideo)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":" + cfg.Port)
	}()
	log.Infof("clipgen listening on port %s", cfg.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Infof("Received %s, shutting down", sig)
		return app.Shutdown()
	}
}
