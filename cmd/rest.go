package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	coreconfig "github.com/AzielCF/az-funnel/core/config"
	domainMedia "github.com/AzielCF/az-funnel/domains/media"
	"github.com/AzielCF/az-funnel/infrastructure/valkey"
	"github.com/AzielCF/az-funnel/infrastructure/whatsapp/cloudapi"
	"github.com/AzielCF/az-funnel/pkg/msgworker"
	"github.com/AzielCF/az-funnel/repository"
	"github.com/AzielCF/az-funnel/ui/rest"
	"github.com/AzielCF/az-funnel/ui/rest/middleware"
	"github.com/AzielCF/az-funnel/usecase"
	"github.com/AzielCF/az-funnel/validations"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var restCmd = &cobra.Command{
	Use:   "rest",
	Short: "Serve the WhatsApp Cloud API webhook",
	RunE:  restServer,
}

func init() {
	rootCmd.AddCommand(restCmd)
}

func restServer(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := validations.ValidateServeConfig(ctx, cfg); err != nil {
		return err
	}
	script, err := loadScript(ctx)
	if err != nil {
		return err
	}

	graph := cloudapi.NewClient(cloudapi.Config{
		BaseURL:       cfg.Whatsapp.GraphBaseURL,
		Version:       cfg.Whatsapp.GraphVersion,
		PhoneNumberID: cfg.Whatsapp.PhoneNumberID,
		AccessToken:   cfg.Whatsapp.AccessToken,
		Timeout:       cfg.Whatsapp.HTTPTimeout,
	})

	store, closeStore, err := newMediaStore(cfg.Database)
	if err != nil {
		return err
	}
	defer closeStore()

	mediaUsecase := usecase.NewMediaService(store, graph, graph, usecase.MediaOptions{
		TTL:          cfg.Media.CacheTTL,
		MaxVideoSize: cfg.Whatsapp.MaxVideoSize,
	})
	conversationUsecase := usecase.NewConversationService(script, graph, mediaUsecase, usecase.ConversationOptions{
		PacingDelay: cfg.Conversation.PacingDelay,
		ImageURL:    cfg.Media.ImageURL,
		VideoURL:    cfg.Media.VideoURL,
	})
	webhookUsecase := usecase.NewWebhookService(cfg.Whatsapp.VerifyToken, conversationUsecase)

	var pool *msgworker.Pool
	if cfg.Conversation.Async {
		pool = msgworker.NewPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, 0)
		pool.Start(ctx)
	}

	app := fiber.New(fiber.Config{
		AppName:               "az-funnel",
		DisableStartupMessage: !cfg.App.Debug,
		ServerHeader:          "Hidden",
	})
	app.Use(requestid.New())
	app.Use(middleware.Recovery())
	if cfg.App.Debug {
		app.Use(logger.New())
	}

	rest.InitRestHealth(app, rest.Health{
		Version:      cfg.App.Version,
		Conversation: conversationUsecase,
		Media:        mediaUsecase,
		MediaTTL:     cfg.Media.CacheTTL,
		Settings:     coreconfig.GetAllSettings(cfg),
	})
	rest.InitRestWebhook(app, webhookUsecase, cfg.Whatsapp.AppSecret, pool)
	rest.InitRestWorkerPool(app, pool)

	// Graceful shutdown handler
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[REST] Reception of termination signal, shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			logrus.Errorf("[REST] Error during Fiber shutdown: %v", err)
		}
	}()

	logrus.Infof("[REST] script %q, dispatch async=%t, listening on :%s", script.Name, cfg.Conversation.Async, cfg.App.Port)
	err = app.Listen(":" + cfg.App.Port)

	if pool != nil {
		pool.Stop()
	}
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	return nil
}

func newMediaStore(db coreconfig.DatabaseConfig) (domainMedia.IMediaStore, func(), error) {
	if !db.ValkeyEnabled {
		logrus.Info("[REST] media cache: memory")
		return repository.NewMemoryMediaStore(), func() {}, nil
	}

	client, err := valkey.NewClient(valkey.ConfigFromDatabase(db))
	if err != nil {
		return nil, nil, err
	}
	logrus.Infof("[REST] media cache: valkey at %s", db.ValkeyAddress)
	return repository.NewValkeyMediaStore(client), client.Close, nil
}
