package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/fundfox/fundfox/app/controllers"
	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/app/repository"
	"github.com/fundfox/fundfox/internal/pkg/apperror"
	"github.com/fundfox/fundfox/internal/pkg/assistant"
	"github.com/fundfox/fundfox/internal/pkg/cache"
	"github.com/fundfox/fundfox/internal/pkg/database"
	"github.com/fundfox/fundfox/internal/pkg/env"
	"github.com/fundfox/fundfox/internal/pkg/gateway"
	"github.com/fundfox/fundfox/internal/pkg/hcaptcha"
	"github.com/fundfox/fundfox/internal/pkg/jobqueue"
	"github.com/fundfox/fundfox/internal/pkg/ledger"
	"github.com/fundfox/fundfox/internal/pkg/lifecycle"
	"github.com/fundfox/fundfox/internal/pkg/mail"
	"github.com/fundfox/fundfox/internal/pkg/media"
	"github.com/fundfox/fundfox/internal/pkg/moderation"
	"github.com/fundfox/fundfox/internal/pkg/notify"
	"github.com/fundfox/fundfox/internal/pkg/router"
	"github.com/fundfox/fundfox/internal/pkg/trending"
)

func main() {
	app, manager := NewApplication()
	manager.Start()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("[App] shutting down")
		manager.Stop()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Errorf("[App] shutdown: %v", err)
		}
	}()

	addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))
	if err := app.Listen(addr); err != nil {
		log.Fatal(err)
	}
}

// NewApplication connects the backing stores, builds the services and
// mounts every route. The returned manager is not started yet.
func NewApplication() (*fiber.App, *jobqueue.Manager) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	db := database.GetDB()
	repository.InitializeFactory(db)
	if err := models.LoadSettings(db); err != nil {
		log.Warnf("[App] using default settings: %v", err)
	}

	basePath := findBasePath()

	app := fiber.New(fiber.Config{
		ErrorHandler: apperror.ErrorHandler(env.IsDev()),
		BodyLimit:    env.GetEnvInt("BODY_LIMIT_BYTES", 1<<20),
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "change-me"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	app.Use(swagger.New(swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}))

	manager := jobqueue.GetManager()
	services := buildServices(context.Background(), manager.GetQueue())

	router.InstallRouter(app, services)

	return app, manager
}

func buildServices(ctx context.Context, queue *jobqueue.Queue) *controllers.Services {
	repos := repository.GetGlobalFactory().GetRepositories()

	generator, err := assistant.NewGeneratorFromEnv(ctx)
	if err != nil {
		log.Warnf("[Assistant] AI provider unavailable, using built-in fallbacks: %v", err)
		generator = nil
	}
	assist := assistant.NewService(generator)
	notifier := notify.NewService(repos, assist, queue)

	var classifier moderation.Classifier = moderation.NewHeuristicClassifier()
	if generator != nil {
		classifier = moderation.NewAIClassifier(generator, classifier)
	}

	ledgerSvc := ledger.NewServiceFromDB(database.GetDB(), gateway.NewClientFromEnv(), notifier)

	services := &controllers.Services{
		Repos:      repos,
		Ledger:     ledgerSvc,
		Lifecycle:  lifecycle.NewService(repos.Campaign, repos.User),
		Sweeper:    lifecycle.NewSweeper(repos.Campaign),
		Trending:   trending.NewService(repos.Campaign),
		Moderation: moderation.NewService(repos.Campaign, classifier, notifier),
		Assistant:  assist,
		Notify:     notifier,
		Captcha:    hcaptcha.NewVerifierFromEnv(),
		Jobs:       queue,
	}

	cfg, err := media.LoadConfig()
	if err != nil {
		log.Warnf("[Media] invalid configuration, cover uploads disabled: %v", err)
	} else if client, err := media.NewClient(ctx, cfg); err == nil {
		services.Media = client
	} else if !errors.Is(err, media.ErrDisabled) {
		log.Warnf("[Media] cover uploads disabled: %v", err)
	}

	queue.SetProcessors(jobqueue.Processors{
		Mailer:     mail.NewSMTPMailerFromEnv(),
		Reconciler: ledgerSvc,
		Summaries:  notifier,
	})

	return services
}

// findBasePath locates the project root from the binary's working directory.
func findBasePath() string {
	for _, path := range []string{"./", "../../", "../../../"} {
		if _, err := os.Stat(path + "public/docs/v1/openapi.yml"); err == nil {
			return path
		}
	}
	log.Warn("[App] public/docs not found, API docs will be unavailable")
	return "./"
}
