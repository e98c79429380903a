package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MediaScribe/internal/backend"
	handlers "MediaScribe/internal/handler"
	"MediaScribe/internal/ingest"
	"MediaScribe/internal/listeners"
	"MediaScribe/internal/models"
	"MediaScribe/internal/orchestrator"
	"MediaScribe/internal/playback"
	"MediaScribe/internal/project"
	"MediaScribe/internal/timeline"
	"MediaScribe/pkg/cache"
	"MediaScribe/pkg/config"
	"MediaScribe/pkg/i18n"
	"MediaScribe/pkg/llm"
	"MediaScribe/pkg/logger"
	"MediaScribe/pkg/metrics"
	"MediaScribe/pkg/middleware"
	"MediaScribe/pkg/scheduler"
	"MediaScribe/pkg/search"
	"MediaScribe/pkg/sse"
	"MediaScribe/pkg/storage"
	"MediaScribe/pkg/util"
	"MediaScribe/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const skillCacheTTL = 24 * time.Hour

func main() {
	if err := run(); err != nil {
		logger.Error("mediascribe exited", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run() error {
	// 1) 配置与日志
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Log, cfg.Mode); err != nil {
		return err
	}
	defer logger.Sync()
	lg := logger.Lg()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2) 存储
	db, err := util.CreateDatabaseInstance(&gorm.Config{}, cfg.DBDriver, cfg.DSN)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(&models.TranscriptionJob{}); err != nil {
		return err
	}
	c, err := cache.NewCacheWithOptions(cfg.Cache, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	previewStore, err := storage.NewLocalStore(cfg.UploadDir, handlers.APIPrefix+"/preview/")
	if err != nil {
		return err
	}
	previews := orchestrator.StorePreviewer{Store: previewStore}

	client := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Token:   cfg.Backend.Token,
		Timeout: cfg.Backend.Timeout,
		Retries: 2,
	}, logger.Named("backend"))
	var uploader backend.Uploader = client
	if cfg.UploadStore == "minio" {
		objects, err := storage.NewMinioStore(cfg.Minio)
		if err != nil {
			return err
		}
		uploader = &backend.ObjectUploader{Store: objects, Prefix: "media/"}
	}

	// 3) 项目模型
	idx, err := search.New(search.Config{IndexPath: cfg.SearchPath}, nil)
	if err != nil {
		return err
	}
	defer idx.Close()

	tl := timeline.New(cfg.PixelsPerSecond)
	store := project.New(tl, idx, logger.Named("project"))
	playSync := playback.New(tl, nil)
	store.OnTranscript(func(string) { playSync.Refresh() })

	recorder := listeners.NewJobRecorder(db)
	pipeline := orchestrator.New(orchestrator.Deps{
		Uploader: uploader,
		Jobs:     client,
		Project:  store,
		Previews: previews,
		Store:    recorder,
		Observer: m,
	}, orchestrator.Options{
		PollInterval: cfg.PollInterval,
		Timeout:      cfg.JobTimeout,
		RampInterval: cfg.UploadRampInterval,
		Language:     cfg.Language,
	}, logger.Named("orchestrator"))
	defer pipeline.Close()

	events := sse.NewHub(15 * time.Second)
	unsubscribe := listeners.InitPipelineListeners(pipeline, store, events, logger.Named("events"))
	defer unsubscribe()

	players := handlers.NewPlayerBridge(playSync, websocket.DefaultConfig(), logger.Named("player"))
	defer players.Close()

	var skills llm.SkillRunner = client
	if cfg.LLMApiKey != "" {
		skills = llm.NewOpenAIRunner(cfg.LLMApiKey, cfg.LLMBaseURL, cfg.LLMModel, logger.Named("llm"))
	}
	skills = llm.NewCachedRunner(skills, c, skillCacheTTL, m, logger.Named("llm"))

	// 4) HTTP
	i18nSupport, err := i18n.NewI18nSupport(cfg.DefaultLang, lg)
	if err != nil {
		return err
	}
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:       cfg.UploadRate,
		Identifier: "ip",
		AddHeaders: true,
	}, nil).WithObserver(middleware.NewPrometheusObserver(reg))

	if cfg.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.AccessLog(logger.Named("http")), metrics.GinMiddleware(m), middleware.LanguageMiddleware(i18nSupport))

	handlers.NewHandlers(handlers.Deps{
		DB:       db,
		Pipeline: pipeline,
		Previews: previews,
		Project:  store,
		Playback: playSync,
		Players:  players,
		Jobs:     recorder,
		Skills:   skills,
		Events:   events,
		Gatherer: reg,
		UploadGuards: []gin.HandlerFunc{
			limiter.Middleware(),
			middleware.IdempotencyMiddleware(middleware.IdempotencyConfig{
				Store: middleware.CacheIdemStore{Cache: c, Prefix: "idem:"},
			}),
		},
		Logger: logger.Named("handler"),
	}).Register(engine)

	// 5) 定时清理已结束的任务
	cr := scheduler.NewCron(time.Local, lg)
	if _, err := cr.Add(cfg.PruneSchedule, scheduler.FuncJob(func(ctx context.Context) {
		n, err := models.PruneTerminalJobs(db.WithContext(ctx), time.Now().Add(-cfg.JobRetention))
		if err != nil {
			lg.Warn("prune jobs failed", zap.Error(err))
			return
		}
		if n > 0 {
			lg.Info("pruned finished jobs", zap.Int64("count", n))
		}
	})); err != nil {
		return err
	}
	cr.Start()
	defer cr.Stop()

	// 6) 启动与优雅退出
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("server listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		lg.Info("shutting down ...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.WatchDir != "" {
		w := ingest.NewWatcher(cfg.WatchDir, pipeline, logger.Named("ingest"))
		g.Go(func() error { return w.Run(gctx) })
	}
	return g.Wait()
}
