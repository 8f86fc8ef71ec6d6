package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/artmirror-io/artmirror/internal/config"
	"github.com/artmirror-io/artmirror/internal/infra/cache"
	"github.com/artmirror-io/artmirror/internal/infra/db"
	"github.com/artmirror-io/artmirror/internal/infra/httpclient"
	"github.com/artmirror-io/artmirror/internal/infra/logger"
	"github.com/artmirror-io/artmirror/internal/infra/observability"
	"github.com/artmirror-io/artmirror/internal/infra/queue"
	"github.com/artmirror-io/artmirror/internal/modules/handler"
	"github.com/artmirror-io/artmirror/internal/modules/repo"
	"github.com/artmirror-io/artmirror/internal/modules/service"
	"github.com/artmirror-io/artmirror/internal/server"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/samber/do"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//	@title			artmirror API
//	@version		1.0
//	@description	Artwork search ingestion and IPFS mirroring service.
//	@BasePath		/api/v1

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.Setup(ctx, cfg)
	if err != nil {
		log.Fatal("tracing setup failed", zap.Error(err))
	}

	injector := do.New()
	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, log)

	do.Provide(injector, func(i *do.Injector) (*gorm.DB, error) {
		return db.New(do.MustInvoke[*config.Config](i), do.MustInvoke[*zap.Logger](i))
	})
	do.Provide(injector, func(i *do.Injector) (*cache.ProjectionCache, error) {
		return cache.New(do.MustInvoke[*config.Config](i), do.MustInvoke[*zap.Logger](i))
	})
	do.Provide(injector, func(i *do.Injector) (*httpclient.SearchClient, error) {
		return httpclient.NewSearchClient(do.MustInvoke[*config.Config](i)), nil
	})
	do.Provide(injector, func(i *do.Injector) (*httpclient.PinClient, error) {
		return httpclient.NewPinClient(do.MustInvoke[*config.Config](i)), nil
	})
	do.Provide(injector, func(i *do.Injector) (repo.RecordRepo, error) {
		return repo.NewRecordRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(injector, func(i *do.Injector) (repo.IngestRunRepo, error) {
		return repo.NewIngestRunRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(injector, func(i *do.Injector) (service.OperationService, error) {
		return service.NewOperationService(
			do.MustInvoke[repo.RecordRepo](i),
			do.MustInvoke[*cache.ProjectionCache](i),
		), nil
	})

	// The queue is optional; without it mirroring only happens through the
	// synchronous endpoint.
	var (
		pub      *queue.Publisher
		consumer *queue.Consumer
	)
	if cfg.RabbitMQ.URL != "" {
		conn, err := amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			log.Fatal("rabbitmq dial failed", zap.Error(err))
		}
		defer conn.Close()

		pub, err = queue.NewPublisher(conn, log, cfg)
		if err != nil {
			log.Fatal("rabbitmq publisher failed", zap.Error(err))
		}
		consumer, err = queue.NewConsumer(conn, cfg.RabbitMQ.MirrorQueue, cfg.RabbitMQ.Prefetch, log, cfg)
		if err != nil {
			log.Fatal("rabbitmq consumer failed", zap.Error(err))
		}
	}

	do.Provide(injector, func(i *do.Injector) (service.IngestService, error) {
		var mirrorPub service.MirrorPublisher
		if pub != nil {
			mirrorPub = pub
		}
		return service.NewIngestService(
			do.MustInvoke[*httpclient.SearchClient](i),
			do.MustInvoke[service.OperationService](i),
			do.MustInvoke[repo.IngestRunRepo](i),
			mirrorPub,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(injector, func(i *do.Injector) (service.MirrorService, error) {
		return service.NewMirrorService(
			do.MustInvoke[repo.RecordRepo](i),
			do.MustInvoke[service.OperationService](i),
			do.MustInvoke[*httpclient.PinClient](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(injector, func(i *do.Injector) (*handler.RecordHandler, error) {
		return handler.NewRecordHandler(do.MustInvoke[service.OperationService](i)), nil
	})
	do.Provide(injector, func(i *do.Injector) (*handler.IngestHandler, error) {
		return handler.NewIngestHandler(
			do.MustInvoke[service.IngestService](i),
			do.MustInvoke[service.MirrorService](i),
			do.MustInvoke[repo.IngestRunRepo](i),
		), nil
	})
	do.Provide(injector, func(i *do.Injector) (*gin.Engine, error) {
		return server.NewRouter(
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*zap.Logger](i),
			do.MustInvoke[*handler.RecordHandler](i),
			do.MustInvoke[*handler.IngestHandler](i),
		), nil
	})

	if consumer != nil {
		mirrorSvc := do.MustInvoke[service.MirrorService](injector)
		go func() {
			if err := consumer.Handle(ctx, mirrorSvc.HandleJob); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("mirror consumer stopped", zap.Error(err))
			}
		}()
	}

	engine := do.MustInvoke[*gin.Engine](injector)
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: engine,
	}

	go func() {
		log.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown", zap.Error(err))
	}
	if consumer != nil {
		_ = consumer.Close()
	}
	if pub != nil {
		_ = pub.Close()
	}
	_ = do.MustInvoke[*cache.ProjectionCache](injector).Close()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracing shutdown", zap.Error(err))
	}
}
