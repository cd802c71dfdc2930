package routes

import (
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nicolasdagostino/a615-sub000/internal/config"
	"github.com/nicolasdagostino/a615-sub000/internal/events"
	"github.com/nicolasdagostino/a615-sub000/internal/handlers"
	"github.com/nicolasdagostino/a615-sub000/internal/logger"
	"github.com/nicolasdagostino/a615-sub000/internal/middleware"
	"github.com/nicolasdagostino/a615-sub000/internal/models"
	"github.com/nicolasdagostino/a615-sub000/internal/repository"
	"github.com/nicolasdagostino/a615-sub000/internal/services"
	realtime "github.com/nicolasdagostino/a615-sub000/internal/websocket"
	"github.com/nicolasdagostino/a615-sub000/internal/wodstore"
	"github.com/redis/go-redis/v9"
)

// Dependencies are the long-lived resources built in main.
type Dependencies struct {
	DB        *pgxpool.Pool
	Redis     *redis.Client
	WODStore  wodstore.Store
	Publisher events.Publisher
	Hub       *realtime.Hub
	Logger    logger.Logger
}

func RegisterRoutes(app *fiber.App, cfg *config.Config, deps Dependencies) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}

	var notifier services.Notifier = services.NopNotifier{}
	if deps.Hub != nil {
		notifier = deps.Hub
	}

	userRepo := repository.NewUserRepository(deps.DB)
	classRepo := repository.NewClassRepository(deps.DB)
	sessionRepo := repository.NewSessionRepository(deps.DB)
	reservationRepo := repository.NewReservationRepository(deps.DB)
	attendanceRepo := repository.NewAttendanceRepository(deps.DB)
	memberRepo := repository.NewMemberRepository(deps.DB)
	paymentRepo := repository.NewPaymentRepository(deps.DB)

	authService := services.NewAuthService(deps.DB, userRepo, cfg.JWTSecret)
	classService := services.NewClassService(classRepo, sessionRepo, cfg.Location)
	sessionService := services.NewSessionService(deps.DB, sessionRepo, reservationRepo, attendanceRepo, classRepo, services.SessionServiceDeps{
		Publisher: deps.Publisher,
		Notifier:  notifier,
		Logger:    log,
		Location:  cfg.Location,
	})
	memberService := services.NewMemberService(memberRepo)
	paymentService := services.NewPaymentService(paymentRepo, memberRepo, deps.Publisher, log, cfg.Location)
	wodService := services.NewWODService(deps.WODStore, notifier, cfg.Location)

	authHandler := handlers.NewAuthHandler(authService)
	classHandler := handlers.NewClassHandler(classService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	memberHandler := handlers.NewMemberHandler(memberService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	wodHandler := handlers.NewWODHandler(wodService)
	realtimeHandler := handlers.NewRealtimeHandler(deps.Hub)

	requireAuth := middleware.AuthRequired(cfg.JWTSecret)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	staffOnly := middleware.RequireRoles(models.RoleAdmin, models.RoleCoach)
	athleteOnly := middleware.RequireRoles(models.RoleAthlete)

	limiter := middleware.RateLimitConfig{
		Limit:  cfg.RateLimitPerMinute,
		Window: time.Minute,
		Prefix: "rl:auth",
		Logger: log,
	}
	if deps.Redis != nil {
		limiter.Counter = middleware.NewRedisCounter(deps.Redis)
	}

	api := app.Group("/api")

	auth := api.Group("/auth", middleware.RateLimit(limiter))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", requireAuth, authHandler.Me)

	api.Use("/v1/ws", requireAuth, realtimeHandler.Upgrade)
	api.Get("/v1/ws", websocket.New(realtimeHandler.Serve))

	v1 := api.Group("/v1", requireAuth)

	v1.Post("/admin/users", adminOnly, authHandler.CreateUser)

	classes := v1.Group("/classes")
	classes.Get("", staffOnly, classHandler.ListClasses)
	classes.Post("", adminOnly, classHandler.CreateClass)
	classes.Post("/generate-week", adminOnly, classHandler.GenerateWeek)
	classes.Get("/:id", staffOnly, classHandler.GetClass)
	classes.Put("/:id", adminOnly, classHandler.UpdateClass)
	classes.Delete("/:id", adminOnly, classHandler.DeleteClass)

	sessions := v1.Group("/sessions")
	sessions.Get("", sessionHandler.ListSessions)
	sessions.Post("", staffOnly, sessionHandler.CreateSession)
	sessions.Get("/:id", sessionHandler.GetSession)
	sessions.Put("/:id/status", staffOnly, sessionHandler.UpdateStatus)
	sessions.Post("/:id/reservation", athleteOnly, sessionHandler.Reserve)
	sessions.Delete("/:id/reservation", athleteOnly, sessionHandler.CancelReservation)
	sessions.Get("/:id/roster", staffOnly, sessionHandler.Roster)
	sessions.Put("/:id/attendance", staffOnly, sessionHandler.MarkAttendance)

	v1.Get("/athlete/classes", athleteOnly, sessionHandler.AthleteClasses)
	v1.Get("/me/payments", athleteOnly, paymentHandler.ListMyPayments)

	members := v1.Group("/members", adminOnly)
	members.Get("", memberHandler.ListMembers)
	members.Post("", memberHandler.CreateMember)
	members.Get("/:id", memberHandler.GetMember)
	members.Put("/:id", memberHandler.UpdateMember)

	payments := v1.Group("/payments", adminOnly)
	payments.Get("", paymentHandler.ListPayments)
	payments.Post("", paymentHandler.RecordPayment)
	payments.Get("/summary", paymentHandler.Summary)
	payments.Get("/:id", paymentHandler.GetPayment)
	payments.Put("/:id", paymentHandler.UpdatePayment)
	payments.Delete("/:id", paymentHandler.DeletePayment)

	wods := v1.Group("/wods")
	wods.Get("", wodHandler.ListWODs)
	wods.Get("/today", wodHandler.TodayWOD)
	wods.Get("/:date", wodHandler.GetWOD)
	wods.Put("/:date", staffOnly, wodHandler.SaveWOD)
	wods.Delete("/:date", staffOnly, wodHandler.DeleteWOD)
	wods.Get("/:date/comments", wodHandler.Comments)
	wods.Post("/:date/comments", wodHandler.AddComment)
	wods.Delete("/:date/comments/:commentId", staffOnly, wodHandler.DeleteComment)
}
