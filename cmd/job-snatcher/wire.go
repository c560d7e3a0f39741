// cmd/job-snatcher/wire.go
package main

import (
	"context"
	"fmt"
	"time"

	awsclients "job-snatcher/internal/common/aws"
	"job-snatcher/internal/common/config"
	"job-snatcher/internal/common/database"
	"job-snatcher/internal/common/logger"
	"job-snatcher/internal/common/observability"
	"job-snatcher/internal/ingest"
	"job-snatcher/internal/jobs"
	"job-snatcher/internal/lease"
	"job-snatcher/internal/llm"
	"job-snatcher/internal/notify"
	"job-snatcher/internal/pipeline"
	"job-snatcher/internal/scheduler"
	"job-snatcher/internal/scoring"
	"job-snatcher/internal/stages"
	"job-snatcher/internal/wol"

	"go.uber.org/zap"
)

// app owns every client built at startup. Nothing below is process-global.
type app struct {
	cfg   *config.Config
	zap   *zap.Logger
	log   logger.Logger
	obs   *observability.Observability
	pg    *database.PostgresClient
	redis *database.RedisClient
	repo  *jobs.Repository
	queue *scheduler.Queue
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// newApp loads config and connects to Postgres and Redis.
func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log := logger.NewZapAdapter(zapLog)

	a := &app{cfg: cfg, zap: zapLog, log: log}

	err = retryWithBackoff(func() error {
		var err error
		a.pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return a.pg.Ping(ctx)
	}, 5, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		return nil, err
	}
	zapLog.Info("PostgreSQL connected")

	err = retryWithBackoff(func() error {
		var err error
		a.redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return a.redis.Ping(ctx)
	}, 5, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		a.pg.Close()
		return nil, err
	}
	zapLog.Info("Redis connected")

	a.repo = jobs.NewRepository(a.pg.DB, config.GetDuration(cfg.Database.Postgres.QueryTimeout))
	a.queue = scheduler.NewQueue(a.redis.Client, cfg.Scheduler.QueueKey)
	return a, nil
}

func (a *app) close() {
	if a.obs != nil {
		a.obs.Shutdown()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pg != nil {
		_ = a.pg.Close()
	}
	_ = a.zap.Sync()
}

// buildOrchestrator wires every stage from config.
func (a *app) buildOrchestrator(ctx context.Context) (*pipeline.Orchestrator, error) {
	cfg := a.cfg
	concurrency := cfg.Pipeline.Concurrency
	locker := lease.NewLocker(a.redis.Client, config.GetDuration(cfg.Pipeline.LeaseTTL))
	gates := scoring.Gates{
		ReasoningGate:     cfg.Pipeline.CosineGate,
		GenerateThreshold: cfg.Pipeline.GenerateThreshold,
	}

	var fetcher ingest.PostingFetcher
	if cfg.Stages.IngesterURL != "" {
		fetcher = ingest.NewHTTPFetcher(cfg.Stages.IngesterURL,
			config.GetDuration(cfg.Stages.IngestTimeout), cfg.Stages.IngestRatePerSecond)
	}
	guard := ingest.NewGuard(a.repo, fetcher, a.log)

	cosine := stages.NewClient(pipeline.StageCosine, cfg.Stages.CosineURL, config.GetDuration(cfg.Stages.CosineTimeout))
	reasoning := stages.NewClient(pipeline.StageReasoning, cfg.Stages.ReasoningURL, config.GetDuration(cfg.Stages.ReasoningTimeout))

	rc := cfg.RemoteCompute
	remote := wol.NewManager(
		wol.NewUDPSender(rc.BroadcastAddress, 0),
		wol.NewTCPProber(config.GetDuration(rc.ProbeTimeout)),
		a.log,
	)
	target := wol.Target{
		MAC:      rc.MACAddress,
		Host:     rc.Host,
		Port:     rc.Port,
		Retries:  rc.Retries,
		BootWait: config.GetDuration(rc.BootWait),
	}

	generate, err := a.buildGenerateStage(gates, locker)
	if err != nil {
		return nil, err
	}

	sinks, err := a.buildSinks(ctx)
	if err != nil {
		return nil, err
	}

	a.obs = observability.New(cfg.App.Name)
	a.log.Info("pipeline assembled", map[string]interface{}{
		"generationMode": generate.Mode(),
		"sinks":          len(sinks),
		"concurrency":    concurrency,
	})

	return pipeline.NewOrchestrator(pipeline.Stages{
		Ingest:    pipeline.NewIngestStage(guard, concurrency, a.log),
		Cosine:    pipeline.NewCosineStage(cosine, locker, a.log),
		Reasoning: pipeline.NewReasoningStage(reasoning, a.repo, remote, target, gates, locker, a.log),
		Combine:   pipeline.NewCombineStage(a.repo, concurrency, locker, a.log),
		Generate:  generate,
		Notify:    pipeline.NewNotifyStage(a.repo, sinks, a.log),
	}, a.log, a.obs), nil
}

func (a *app) buildGenerateStage(gates scoring.Gates, locker *lease.Locker) (*pipeline.GenerateStage, error) {
	cfg := a.cfg
	if cfg.Pipeline.GenerationMode == pipeline.ModeRemote {
		client := stages.NewClient(pipeline.StageGenerate, cfg.Stages.GeneratorURL, config.GetDuration(cfg.Stages.GenerateTimeout))
		return pipeline.NewRemoteGenerateStage(a.repo, gates, client, locker, a.log), nil
	}

	gen, err := llm.Select(cfg.LLM, a.log)
	if err != nil {
		return nil, fmt.Errorf("select text generator: %w", err)
	}
	drafter := pipeline.NewDrafter(a.repo, gen, llm.Options{
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	}, a.log)
	return pipeline.NewLocalGenerateStage(a.repo, gates, drafter, cfg.Pipeline.Concurrency, locker, a.log), nil
}

// buildSinks returns the enabled notification sinks in a fixed order.
func (a *app) buildSinks(ctx context.Context) ([]notify.Sink, error) {
	n := a.cfg.Notifications
	var sinks []notify.Sink

	if n.Curator.Enabled && a.cfg.Stages.CuratorURL != "" {
		sinks = append(sinks, notify.NewCuratorSink(a.cfg.Stages.CuratorURL, config.GetDuration(a.cfg.Stages.NotifyTimeout)))
	}

	if n.Email.Enabled || n.SNS.Enabled {
		awsCfg, err := awsclients.LoadConfig(ctx, n.AWS.Region)
		if err != nil {
			return nil, err
		}
		if n.Email.Enabled {
			sinks = append(sinks, notify.NewEmailSink(awsclients.NewSESClient(awsCfg), n.Email.FromEmail, n.Email.To))
		}
		if n.SNS.Enabled {
			sinks = append(sinks, notify.NewSNSSink(awsclients.NewSNSClient(awsCfg), n.SNS.TopicARN))
		}
	}

	if n.Search.Enabled {
		es, err := database.NewElasticsearch(n.Search.Addresses, n.Search.Username, n.Search.Password)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, notify.NewSearchSink(es, n.Search.Index))
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	a.log.Info("notification sinks configured", map[string]interface{}{"sinks": names})
	return sinks, nil
}

// retryWithBackoff runs operation until it succeeds, doubling the delay between attempts.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}
