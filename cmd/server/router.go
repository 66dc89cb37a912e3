package main

import (
	"context"
	"strings"
	"time"

	"quicknotes/cmd/server/handlers"
	"quicknotes/cmd/server/handlers/auth"
	notesHandlers "quicknotes/cmd/server/handlers/notes"
	sharesHandlers "quicknotes/cmd/server/handlers/shares"
	"quicknotes/cmd/server/middlewares"
	"quicknotes/internal/clients/mongo"
	"quicknotes/internal/config"
	"quicknotes/internal/handlers/httperr"
	"quicknotes/internal/logger"
	authServices "quicknotes/internal/services/auth"
	"quicknotes/internal/services/files"
	notesServices "quicknotes/internal/services/notes"
	"quicknotes/internal/utils/crypto"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const (
	RateLimitExpiration = 1 * time.Minute
)

// setupRouter configures and returns a Fiber app with all routes
func setupRouter(ctx context.Context, cfg config.Config) *fiber.App {

	// Initialize validator and register password validation
	v := validator.New()
	if err := crypto.RegisterPasswordValidator(v); err != nil {
		logger.L().Error("failed to register password validator", "err", err)
		panic(err)
	}

	// Validate JWT algorithm at boot
	alg := strings.ToUpper(cfg.JWTAlgorithm)
	switch alg {
	case "HS256":
		// Valid algorithm
	default:
		logger.L().Error(authServices.ErrUnsupportedJWTAlg.Error(), "algorithm", cfg.JWTAlgorithm)
		panic(authServices.ErrUnsupportedJWTAlg.Error() + ": " + cfg.JWTAlgorithm)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: httperr.Handler,
		Immutable:    true, // make Fiber copy all request-derived strings
	})

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Content-Type, Authorization",
	}))

	if cfg.RouteMetricsEnabled {
		middlewares.AttachMetrics(app)
	}

	// Health check endpoint, outside versioned API to appease scanners and to avoid logging
	app.Get("/healthz", handlers.Healthz)

	var v1 fiber.Router
	if cfg.RequestLoggingEnabled {
		v1 = app.Group("/api/v1", fiberlogger.New())
		logger.L().Info("request logging enabled")
	} else {
		v1 = app.Group("/api/v1")
		logger.L().Info("request logging disabled")
	}

	jwtMiddleware := middlewares.JWT(cfg)

	limiterMW := middlewares.BuildRateLimiter(cfg.SignInRatePerMin, RateLimitExpiration)

	authGrp := v1.Group("/auth", limiterMW)

	usersRepo, err := mongo.NewUsersRepo(ctx, mongo.DB())
	if err != nil {
		logger.L().Error("failed to create users repository", "error", err)
		panic(err)
	}
	authSvc := authServices.NewService(usersRepo, cfg, logger.L())
	authHandlers := auth.NewHandlers(authSvc, v)

	authGrp.Post("/sign-up", authHandlers.SignUp)
	authGrp.Post("/sign-in", authHandlers.SignIn)

	// Notes routes
	repos, directory := buildNotesRepos(ctx)

	hub := notesServices.NewHub(cfg.WSOutboxBuffer)
	filesSvc := files.NewService(cfg.FilesBaseURL, cfg.AttachmentPreviewSize)
	txn := mongo.NewTxn(mongo.Client())
	notesSvc := notesServices.NewService(repos, directory, filesSvc, txn, hub, cfg.DefaultNoteColor, logger.L())
	notesH := notesHandlers.NewHandlers(notesSvc, v)
	sharesH := sharesHandlers.NewHandlers(notesSvc, v)

	notesGrp := v1.Group("/notes", jwtMiddleware)
	notesGrp.Post("/", notesH.Create)
	notesGrp.Get("/", notesH.List)
	notesGrp.Get("/:id", notesH.Get)
	notesGrp.Put("/:id", notesH.Update)
	notesGrp.Delete("/:id", notesH.Delete)

	// Share routes
	notesGrp.Get("/:id/shares/candidates", sharesH.Candidates)
	notesGrp.Post("/:id/shares/users", sharesH.AddUserShare)
	notesGrp.Delete("/:id/shares/users/:userId", sharesH.RemoveUserShare)
	notesGrp.Post("/:id/shares/groups", sharesH.AddGroupShare)
	notesGrp.Delete("/:id/shares/groups/:groupId", sharesH.RemoveGroupShare)

	// WebSocket routes
	wsHandlers := notesHandlers.NewWebSocketHandlers(hub, cfg.JWTSecret, cfg.WSMaxSessionSec)
	app.Use("/ws", notesHandlers.LogWSConnections(cfg.JWTSecret))
	app.Get("/ws/notes/stream", wsHandlers.WSUpgrade, websocket.New(wsHandlers.WSNotesStream))

	// User profile endpoint (for testing JWT middleware and for future use)
	v1.Get("/me", jwtMiddleware, handlers.Me)

	return app
}

// buildNotesRepos constructs every notes repository plus the directory,
// panicking on index creation failure. There is no running without storage.
func buildNotesRepos(ctx context.Context) (notesServices.Repos, notesServices.Directory) {
	db := mongo.DB()

	notesRepo, err := mongo.NewNotesRepo(ctx, db)
	if err != nil {
		logger.L().Error(notesServices.ErrCreateNotesRepo.Error(), "error", err)
		panic(err)
	}
	colorsRepo, err := mongo.NewColorsRepo(ctx, db)
	if err != nil {
		logger.L().Error("failed to create colors repository", "error", err)
		panic(err)
	}
	tagsRepo, err := mongo.NewTagsRepo(ctx, db)
	if err != nil {
		logger.L().Error("failed to create tags repository", "error", err)
		panic(err)
	}
	noteTagsRepo, err := mongo.NewNoteTagsRepo(ctx, db)
	if err != nil {
		logger.L().Error("failed to create note tags repository", "error", err)
		panic(err)
	}
	attachmentsRepo, err := mongo.NewAttachmentsRepo(ctx, db)
	if err != nil {
		logger.L().Error("failed to create attachments repository", "error", err)
		panic(err)
	}
	sharesRepo, err := mongo.NewSharesRepo(ctx, db)
	if err != nil {
		logger.L().Error("failed to create shares repository", "error", err)
		panic(err)
	}
	directoryRepo, err := mongo.NewDirectoryRepo(ctx, db)
	if err != nil {
		logger.L().Error("failed to create directory repository", "error", err)
		panic(err)
	}

	return notesServices.Repos{
		Notes:       notesRepo,
		Colors:      colorsRepo,
		Tags:        tagsRepo,
		NoteTags:    noteTagsRepo,
		Attachments: attachmentsRepo,
		Shares:      sharesRepo,
	}, directoryRepo
}
