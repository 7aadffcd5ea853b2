package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/codicoteam/school-management-backend/internal/config"
	"github.com/codicoteam/school-management-backend/internal/database"
	"github.com/codicoteam/school-management-backend/internal/handler"
	"github.com/codicoteam/school-management-backend/internal/middleware"
	"github.com/codicoteam/school-management-backend/internal/models"
	"github.com/codicoteam/school-management-backend/internal/repository"
	"github.com/codicoteam/school-management-backend/internal/router"
	"github.com/codicoteam/school-management-backend/internal/service"
	"github.com/codicoteam/school-management-backend/pkg/paynow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Student{},
		&models.Teacher{},
		&models.Parent{},
		&models.StaffProfile{},
		&models.FeeStructure{},
		&models.Fee{},
		&models.Payment{},
		&models.PaymentTransaction{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NatsURL != "" {
		natsConn, err = nats.Connect(cfg.NatsURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	gateway, err := paynow.New(paynow.Config{
		IntegrationID:  cfg.PaynowID,
		IntegrationKey: cfg.PaynowKey,
		InitiateURL:    cfg.PaynowInitiateURL,
		ReturnURL:      cfg.PaynowReturnURL,
		ResultURL:      cfg.PaynowResultURL,
		Timeout:        cfg.PaynowTimeout,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create payment gateway client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	structureRepo := repository.NewFeeStructureRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)

	events := service.NewNATSPaymentPublisher(natsConn, cfg.PaymentSubject, logger)

	authService := service.NewAuthService(userRepo, studentRepo, teacherRepo, profileRepo, validate, cfg.JWTSecret, cfg.TokenTTL, logger)
	studentService := service.NewStudentService(studentRepo, teacherRepo, feeRepo, transactionRepo, userRepo, validate, logger)
	teacherService := service.NewTeacherService(teacherRepo, studentRepo, feeRepo, validate, logger)
	feeService := service.NewFeeService(feeRepo, structureRepo, studentRepo, events, validate, logger)
	paymentService := service.NewPaymentService(transactionRepo, feeRepo, studentRepo, gateway, events, validate, logger)
	reportService := service.NewReportService(feeRepo, studentRepo, teacherRepo, structureRepo, redisClient, cfg.StatsCacheTTL, logger)

	authHandler := handler.NewAuthHandler(authService, logger)
	studentHandler := handler.NewStudentHandler(studentService, logger)
	teacherHandler := handler.NewTeacherHandler(teacherService, logger)
	feeHandler := handler.NewFeeHandler(feeService, paymentService, logger)
	paymentHandler := handler.NewPaymentHandler(paymentService, logger)
	reportHandler := handler.NewReportHandler(reportService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:    authHandler,
		StudentHandler: studentHandler,
		TeacherHandler: teacherHandler,
		FeeHandler:     feeHandler,
		PaymentHandler: paymentHandler,
		ReportHandler:  reportHandler,
		JWTMiddleware:  middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
