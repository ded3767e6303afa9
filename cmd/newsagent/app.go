package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"newsagent/internal/config"
	"newsagent/internal/dedup"
	"newsagent/internal/lock"
	"newsagent/internal/notify"
	"newsagent/internal/publisher"
	"newsagent/internal/redisclient"
	"newsagent/internal/service"
	"newsagent/internal/source/googlenews"
	"newsagent/internal/storage/postgres"
	"newsagent/internal/summary"
)

// app holds every wired component for one process.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	db     *sqlx.DB
	rdb    *redis.Client
	rabbit *publisher.RabbitMQ

	tasks      *service.Tasks
	status     *service.StatusService
	summary    *service.SummaryService
	reputation *service.ReputationService
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := setupLogger(cfg.LogLevel)

	a := &app{cfg: cfg, logger: logger}

	a.db, err = sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := a.db.PingContext(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Debug("connected to database")

	var sharedTier dedup.Tier
	if cfg.Redis.Enabled {
		a.rdb = redisclient.New(cfg.Redis)
		if err := a.rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, shared dedup disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			sharedTier = dedup.NewRedisTier(a.rdb, cfg.Redis.KeyPrefix, cfg.Ingest.DedupTTL)
		}
	}

	var events service.Publisher
	var alertSenders []notify.AlertSender
	if cfg.RabbitMQ.Enabled {
		a.rabbit, err = publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Warn("rabbitmq unavailable, events disabled", "error", err)
		} else {
			events = a.rabbit
			alertSenders = append(alertSenders, a.rabbit)
		}
	}
	if cfg.Slack.WebhookURL != "" {
		alertSenders = append(alertSenders, notify.NewSlackSender(cfg.Slack.WebhookURL))
	}

	campaigns, err := cfg.CampaignSet()
	if err != nil {
		a.Close()
		return nil, err
	}
	loc := cfg.Location()

	articles := postgres.NewArticleStore(a.db)
	runState := postgres.NewRunStateStore(a.db)
	txManager := postgres.NewTransactionManager(a.db)

	fetcher := googlenews.New(googlenews.Config{
		BaseURL:         cfg.Feed.BaseURL,
		Language:        cfg.Feed.Language,
		Timeout:         cfg.Feed.Timeout,
		MaxAttempts:     cfg.Feed.Retry.MaxAttempts,
		BaseDelay:       cfg.Feed.Retry.BaseDelay,
		FreshnessWindow: cfg.Feed.FreshnessWindow,
	}, logger)

	ingest := service.NewIngestService(fetcher, articles, txManager, events, sharedTier, logger, service.IngestConfig{
		Keywords:           cfg.Ingest.Keywords,
		Regions:            cfg.Ingest.Regions,
		Language:           cfg.Feed.Language,
		Campaigns:          campaigns,
		Location:           loc,
		DedupLookback:      cfg.Ingest.DedupLookback,
		ReputationLookback: cfg.Reputation.Lookback,
		MinRatings:         cfg.Reputation.MinRatings,
		MinMean:            cfg.Reputation.MinMean,
		PacingDelay:        cfg.Feed.PacingDelay,
	})

	mailer := notify.NewMailer(notify.MailerConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	}, logger)
	delivery := service.NewDeliveryService(articles, mailer, logger, service.DeliveryConfig{
		ItemsPerGroup: cfg.Digest.ItemsPerGroup,
		Recipient:     cfg.Digest.Recipient,
		MaxUnsent:     cfg.Digest.MaxUnsent,
		Campaigns:     campaigns,
		Location:      loc,
	})

	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.Lock.Backend == "redis" {
		if a.rdb == nil {
			a.Close()
			return nil, fmt.Errorf("lock backend redis requires redis.enabled")
		}
		locker = lock.NewRedisLocker(a.rdb, cfg.Redis.KeyPrefix+"lock:tasks", cfg.Lock.TTL)
	}
	guard := lock.NewGuard(locker, cfg.Lock.Wait, logger)

	a.tasks = service.NewTasks(guard, ingest, delivery, runState, cfg.Digest.DeliveryHours, loc, logger)

	router := notify.NewRouter(cfg.Slack.MinRating, logger, alertSenders...)
	a.status = service.NewStatusService(articles, router, cfg.Digest.StatusLookback, logger)

	var summarizer service.Summarizer
	if cfg.OpenAI.APIKey != "" {
		summarizer = summary.NewOpenAI(summary.Config{
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
			BaseURL: cfg.OpenAI.BaseURL,
		})
	}
	a.summary = service.NewSummaryService(articles, summarizer, cfg.OpenAI.Language, cfg.Digest.StatusLookback, logger)

	a.reputation = service.NewReputationService(articles, cfg.Reputation.Lookback, cfg.Reputation.MinRatings, cfg.Reputation.MinMean)

	return a, nil
}

func (a *app) Close() {
	if a.rabbit != nil {
		if err := a.rabbit.Close(); err != nil {
			a.logger.Warn("close rabbitmq", "error", err)
		}
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
