package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/parishpost/parishpost/configs"
	"github.com/parishpost/parishpost/internal/api/handlers"
	"github.com/parishpost/parishpost/internal/api/middleware"
	job "github.com/parishpost/parishpost/internal/jobs"
	"github.com/parishpost/parishpost/internal/models"
	"github.com/parishpost/parishpost/internal/repository"
	"github.com/parishpost/parishpost/internal/service"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return origin == cfg.FrontendURL
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, x-user-id",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	oauthStateRepo := repository.NewOAuthStateRepository(db)
	contentRepo := repository.NewContentRepository(db)

	facebookService := service.NewFacebookService(*cfg)
	instagramService := service.NewInstagramService(*cfg, socialAccountRepo)
	youtubeService := service.NewYoutubeService(*cfg, socialAccountRepo)
	tiktokService := service.NewTiktokService(*cfg, socialAccountRepo)

	connectors := map[models.Platform]service.Connector{
		models.PlatformFacebook:  facebookService,
		models.PlatformInstagram: instagramService,
		models.PlatformYoutube:   youtubeService,
		models.PlatformTiktok:    tiktokService,
	}
	publishers := map[models.Platform]service.Publisher{
		models.PlatformFacebook: facebookService,
		models.PlatformYoutube:  youtubeService,
	}
	refreshers := map[models.Platform]service.TokenRefresher{
		models.PlatformInstagram: instagramService,
		models.PlatformYoutube:   youtubeService,
		models.PlatformTiktok:    tiktokService,
	}

	authService := service.NewAuthService(*cfg, userRepo)
	userService := service.NewUserService(userRepo)
	connectService := service.NewConnectService(*cfg, connectors, oauthStateRepo, socialAccountRepo)
	publishService := service.NewPublishService(*cfg, publishers, socialAccountRepo)
	contentService := service.NewContentService(contentRepo, userRepo)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Get("/login", auth.Login)
	app.Get("/login/callback", auth.LoginCallbackHandler)

	connect := handlers.NewConnectHandler(connectService)
	app.Get("/auth/:platform", authMiddleware.AuthMiddleware(), connect.AddSocialAccount)
	app.Post("/social-auth/:platform", authMiddleware.AuthMiddleware(), connect.OAuthCallback)

	publish := handlers.NewPublishHandler(publishService)
	app.Post("/social-post", authMiddleware.AuthMiddleware(), publish.Publish)
	app.Post("/social-post/:platform", authMiddleware.AuthMiddleware(), publish.PublishToAccount)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	user := handlers.NewUserHandler(*cfg, userService)
	api.Get("/user/info", user.GetUserInfo)
	api.Post("/user/church", user.SetChurch)
	api.Post("/user/remove", user.RemoveUser)

	api.Get("/accounts", connect.ListSocialAccounts)
	api.Post("/accounts/remove", connect.DeleteSocialAccount)

	content := handlers.NewContentHandler(contentService)
	api.Post("/contents/create", content.CreateContent)
	api.Get("/contents", content.ListContents)
	api.Get("/contents/info", content.GetContent)
	api.Post("/contents/update", content.UpdateContent)
	api.Post("/contents/schedule", content.ScheduleContent)
	api.Post("/contents/remove", content.RemoveContent)

	refreshTokenJob := job.NewTokenRefreshJob(socialAccountRepo, refreshers)

	c := cron.New()
	c.AddFunc("@every 00h10m00s", refreshTokenJob.RefreshTokens)
	c.Start()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	log.Println("Server shutdown complete.")
}
