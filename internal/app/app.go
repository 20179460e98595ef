// Package app wires stores, services and HTTP routes into one gin engine.
package app

import (
	"fmt"

	"smarttrack/internal/config"
	"smarttrack/internal/domain/auth"
	"smarttrack/internal/domain/chat"
	"smarttrack/internal/domain/company"
	"smarttrack/internal/domain/customer"
	"smarttrack/internal/domain/notification"
	"smarttrack/internal/domain/support"
	"smarttrack/internal/domain/trip"
	"smarttrack/internal/domain/upload"
	"smarttrack/internal/domain/user"
	"smarttrack/internal/health"
	"smarttrack/internal/middleware"
	"smarttrack/internal/outbox"
	"smarttrack/internal/pkg/jwt"
	"smarttrack/internal/realtime"
	"smarttrack/internal/tenant"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Models lists every table the API owns, in migration order.
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&user.CustomerCompany{},
		&company.Company{},
		&company.Application{},
		&trip.Trip{},
		&notification.Notification{},
		&support.Message{},
		&chat.Message{},
		&upload.Upload{},
		&outbox.Event{},
	}
}

type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	// Redis is optional; without it the rate limiter is off and readiness
	// skips the redis check.
	Redis *redis.Client
	Hub   *realtime.Hub
	// Broker defaults to a LocalBroker on Hub.
	Broker realtime.Broker
}

type App struct {
	Router        *gin.Engine
	Hub           *realtime.Hub
	Tokens        *jwt.Service
	Users         *user.Repository
	Companies     *company.Service
	Notifications *notification.Service
	Trips         *trip.Service
}

func New(d Deps) (*App, error) {
	cfg := d.Config
	hub := d.Hub
	if hub == nil {
		hub = realtime.NewHub()
	}
	broker := d.Broker
	if broker == nil {
		broker = realtime.NewLocalBroker(hub)
	}
	ids, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", cfg.SnowflakeNode, err)
	}

	gateway := realtime.NewGateway(broker)
	tokens := jwt.New(cfg.JWTSecret, cfg.JWTTTL)

	// ---- stores ----
	userRepo := user.NewRepository(d.DB)
	companyRepo := company.NewRepository(d.DB)
	tripRepo := trip.NewRepository(d.DB)
	notifRepo := notification.NewRepository(d.DB)
	supportRepo := support.NewRepository(d.DB)
	chatRepo := chat.NewRepository(d.DB)
	uploadRepo := upload.NewRepository(d.DB)

	resolver := tenant.NewResolver(companyRepo, userRepo)

	// ---- services ----
	notifService := notification.NewService(notifRepo, gateway)
	companyService := company.NewService(d.DB, companyRepo, userRepo, notifService)
	authService := auth.NewService(userRepo, companyRepo, notifService, tokens)
	customerService := customer.NewService(userRepo, companyRepo)
	tripService := trip.NewService(trip.Deps{
		DB:        d.DB,
		Repo:      tripRepo,
		Users:     userRepo,
		Companies: companyRepo,
		Resolver:  resolver,
		Notifier:  notifService,
		Emitter:   gateway,
		Pricing:   trip.Pricing{BaseFee: cfg.Pricing.BaseFee, PerKm: cfg.Pricing.PerKm, TaxRate: cfg.Pricing.TaxRate},
		IDs:       ids,
	})
	supportService := support.NewService(d.DB, supportRepo, companyRepo, resolver, notifService, gateway)
	chatService := chat.NewService(chatRepo, userRepo, companyRepo, resolver, notifService, gateway)
	uploadService := upload.NewService(uploadRepo, cfg.UploadDir, cfg.PublicBaseURL, authService, companyService)

	// ---- handlers ----
	authH := auth.NewHandler(authService)
	companyH := company.NewHandler(companyService, resolver)
	customerH := customer.NewHandler(customerService)
	tripH := trip.NewHandler(tripService)
	notifH := notification.NewHandler(notifService)
	supportH := support.NewHandler(supportService)
	chatH := chat.NewHandler(chatService)
	uploadH := upload.NewHandler(uploadService)
	wsH := realtime.NewHandler(hub, tokens, userRepo, tripService, cfg.AllowedOrigins)
	healthH := health.NewHandler(d.DB, d.Redis)

	// ---- router ----
	r := gin.New()
	r.Use(
		middleware.ErrorLogger(),
		middleware.RequestLogger(),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.Metrics(),
	)

	healthH.RegisterRoutes(r)
	r.GET("/metrics", middleware.InternalTokenAuth(cfg.MetricsToken), gin.WrapH(promhttp.Handler()))
	upload.RegisterPublicRoutes(r, uploadH)
	wsH.RegisterRoutes(r)

	limiter := middleware.RateLimit(cfg.RateLimit, d.Redis)

	api := r.Group("/api")
	authH.RegisterPublicRoutes(api, limiter)
	company.RegisterPublicRoutes(api.Group("", limiter), companyH)

	protected := api.Group("", middleware.JWTAuth(tokens, userRepo))
	authH.RegisterProtectedRoutes(protected)
	notification.RegisterRoutes(protected, notifH)
	upload.RegisterRoutes(protected, uploadH)

	admin := protected.Group("/admin", middleware.PlatformOnly())
	company.RegisterAdminRoutes(admin, companyH)
	admin.POST("/notifications/broadcast", notifH.Broadcast)
	notification.RegisterRoutes(admin, notifH)

	companyGroup := protected.Group("/company", middleware.RequireRoles(user.RoleCompany, user.RoleManager))
	company.RegisterCompanyRoutes(companyGroup, companyH)
	support.RegisterCompanyRoutes(companyGroup.Group("/support"), supportH)
	companyOnly := companyGroup.Group("", middleware.RequireRoles(user.RoleCompany))
	trip.RegisterStaffRoutes(companyOnly, tripH)
	chat.RegisterCompanyRoutes(companyOnly, chatH)
	notification.RegisterRoutes(companyOnly, notifH)

	manager := protected.Group("/manager", middleware.RequireRoles(user.RoleManager))
	trip.RegisterStaffRoutes(manager, tripH)
	chat.RegisterManagerRoutes(manager, chatH)
	notification.RegisterRoutes(manager, notifH)

	customerGroup := protected.Group("/customer", middleware.RequireRoles(user.RoleCustomer))
	customer.RegisterRoutes(customerGroup, customerH)
	trip.RegisterCustomerRoutes(customerGroup, tripH)
	notification.RegisterRoutes(customerGroup, notifH)

	driver := protected.Group("/driver", middleware.RequireRoles(user.RoleDriver))
	trip.RegisterDriverRoutes(driver, tripH)
	notification.RegisterRoutes(driver, notifH)

	supportGroup := protected.Group("/support", middleware.RequireRoles(user.RoleCustomer, user.RoleDriver, user.RoleManager))
	support.RegisterSenderRoutes(supportGroup, supportH)

	return &App{
		Router:        r,
		Hub:           hub,
		Tokens:        tokens,
		Users:         userRepo,
		Companies:     companyService,
		Notifications: notifService,
		Trips:         tripService,
	}, nil
}
