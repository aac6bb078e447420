package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "Backend-QA-Portal/docs"
	"Backend-QA-Portal/src/catalogue"
	"Backend-QA-Portal/src/config"
	"Backend-QA-Portal/src/controllers"
	"Backend-QA-Portal/src/database"
	"Backend-QA-Portal/src/jobs"
	"Backend-QA-Portal/src/logger"
	"Backend-QA-Portal/src/routes"
	"Backend-QA-Portal/src/services/archives"
	"Backend-QA-Portal/src/services/reports"
	"Backend-QA-Portal/src/services/storage"
	"Backend-QA-Portal/src/services/submission"
	"Backend-QA-Portal/src/services/windows"
	"Backend-QA-Portal/src/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
)

// @title           QA Portal API
// @version         1.0
// @description     Quality-assurance self-assessment portal
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Component("main")

	utils.SetJWTSecret(cfg.JWTSecret)

	// เชื่อมต่อกับ MongoDB
	if err := database.ConnectMongoDB(cfg.MongoURI, cfg.MongoDB); err != nil {
		log.Fatal().Err(err).Msg("❌ Error connecting to the database")
	}
	idxCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureIndexes(idxCtx); err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to create indexes")
	}
	cancel()

	// Redis เป็น optional (ไม่มีก็ใช้ lock ในโปรเซสและไม่ cache)
	if err := database.InitRedis(cfg.RedisURI); err != nil {
		log.Warn().Err(err).Msg("⚠️ Redis unavailable, continuing without cache")
	}
	database.InitAsynq()

	objects, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to init object storage")
	}

	cat, err := loadCatalogue(cfg.CataloguePath)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Invalid indicator catalogue")
	}

	submissionRepo := submission.NewMongoRepository(database.SubmissionCollection)
	windowSvc := windows.NewService(windows.NewMongoRepository(database.AcademicWindowCollection))
	submissionSvc := submission.NewService(submissionRepo, objects, windowSvc, cat)
	archiveSvc := archives.NewService(submissionRepo, objects)
	reportSvc := reports.NewService(
		submissionRepo,
		reports.NewMongoSnapshotRepository(database.ReportSnapshotCollection),
		reports.NewMongoPublicationRepository(database.ResultPublicationCollection),
		cat.ScoringConfig(),
		utils.NewLocker(database.RedisClient),
		database.RedisClient,
	)

	if cfg.ArchiveAsync && database.AsynqClient != nil {
		archiveSvc.WithDispatcher(jobs.NewAsynqDispatcher(database.AsynqClient))
		srv, mux := jobs.NewWorker(database.RedisURI, archiveSvc, 2)
		go func() {
			if err := srv.Run(mux); err != nil {
				log.Error().Err(err).Msg("❌ archive worker stopped")
			}
		}()
		defer srv.Shutdown()
		log.Info().Msg("🚀 archive worker started")
	}

	// สร้าง app instance
	app := fiber.New(fiber.Config{BodyLimit: 4 * 1024 * 1024})
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	// ✅ เปิดใช้งาน CORS Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false, // ❌ ต้องเป็น false ถ้าใช้ "*"
	}))

	// เปิดใช้งาน Swagger ที่ URL /swagger
	app.Get("/swagger/*", swagger.HandlerDefault)

	routes.InitRoutes(app, routes.Controllers{
		Submissions: controllers.NewSubmissionController(submissionSvc),
		Archives:    controllers.NewArchiveController(archiveSvc),
		Reports:     controllers.NewReportController(reportSvc),
		Windows:     controllers.NewWindowController(windowSvc),
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info().Msg("🛑 Shutting down...")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	// เริ่มเซิร์ฟเวอร์
	log.Info().Str("port", cfg.AppPort).Msg("Server is running")
	if err := app.Listen(fmt.Sprintf(":%s", url.PathEscape(cfg.AppPort))); err != nil {
		log.Error().Err(err).Msg("❌ server error")
	}

	ctx, cancelDisconnect := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelDisconnect()
	if database.AsynqClient != nil {
		_ = database.AsynqClient.Close()
	}
	if database.RedisClient != nil {
		_ = database.RedisClient.Close()
	}
	_ = database.Disconnect(ctx)
}

func loadCatalogue(path string) (*catalogue.Catalogue, error) {
	if path == "" {
		return catalogue.Default()
	}
	return catalogue.Load(path)
}
