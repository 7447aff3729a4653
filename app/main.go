package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"facility-crm/internal/listeners"
	"facility-crm/internal/repositories"
	"facility-crm/internal/routes"
	"facility-crm/internal/services"
	"facility-crm/pkg/config"
	"facility-crm/pkg/database/postgresql"
	apperrors "facility-crm/pkg/errors"
	"facility-crm/pkg/eventbus"
	applogger "facility-crm/pkg/logger"
	appmiddleware "facility-crm/pkg/middleware"
	"facility-crm/pkg/service"
	"facility-crm/pkg/utils"
	"facility-crm/pkg/validation"
	"facility-crm/pkg/websocket"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// 1. Конфиг и логгер
	cfg := config.New()
	logger := applogger.NewLogger(cfg.Log)
	defer logger.Sync()

	appLoggers := &routes.Loggers{
		Main:      logger,
		Auth:      logger.Named("auth"),
		WorkOrder: logger.Named("work_order"),
		Activity:  logger.Named("activity"),
	}

	// 2. Echo и middleware
	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("!!! ОБНАРУЖЕНА ПАНИКА (PANIC) !!!",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			if !c.Response().Committed {
				httpErr := apperrors.NewHttpError(http.StatusInternalServerError, "Внутренняя ошибка сервера", err, nil)
				_ = utils.ErrorResponse(c, httpErr, logger)
			}
			return err
		},
	}))
	e.Use(appmiddleware.RequestID())
	e.Use(appmiddleware.RequestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderXRequestID},
		AllowCredentials: true,
		ExposeHeaders:    []string{"Content-Disposition", echo.HeaderXRequestID},
	}))

	rateLimiter, err := appmiddleware.NewRateLimiter(cfg.Server.RateLimit)
	if err != nil {
		logger.Fatal("Неверный формат RATE_LIMIT", zap.String("rate", cfg.Server.RateLimit), zap.Error(err))
	}
	e.Use(appmiddleware.RateLimit(rateLimiter, logger))

	// 3. Базы данных
	dbConn, err := postgresql.ConnectDB(cfg.Postgres.DSN, logger)
	if err != nil {
		logger.Fatal("не удалось подключиться к PostgreSQL", zap.Error(err))
	}
	defer dbConn.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		// без Redis права вычисляются из БД на каждый запрос
		logger.Warn("Redis недоступен, кеш прав отключён", zap.Error(err), zap.String("address", cfg.Redis.Address))
	}

	// 4. Фоновые компоненты: хаб websocket, шина событий, слушатель ленты
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewHub(logger.Named("ws"))
	go hub.Run(ctx)

	bus := eventbus.New(logger.Named("bus"))
	wsNotificationService := services.NewWebSocketNotificationService(hub, logger.Named("ws"))
	activityListener := listeners.NewActivityListener(wsNotificationService, listeners.DefaultGroupDelay, appLoggers.Activity)
	activityListener.Register(bus)

	// 5. Сервисы авторизации и маршруты
	jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, logger)
	permissionRepo := repositories.NewPermissionRepository(dbConn, logger)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)
	authPermissionService := services.NewAuthPermissionService(
		permissionRepo, cacheRepo, appLoggers.Auth,
		cfg.Permissions.CacheTTL, cfg.Permissions.DepartmentMaxDepth,
	)

	e.GET("/health", func(c echo.Context) error {
		if err := dbConn.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{"status": false, "message": "database unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"status": true, "message": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	routes.InitRouter(e, dbConn, jwtSvc, appLoggers, authPermissionService, bus, hub, cfg)

	// 6. Запуск и корректная остановка
	go func() {
		logger.Info("🚀 Сервер запущен", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Ошибка запуска сервера", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Получен сигнал остановки, завершаем работу")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка остановки сервера", zap.Error(err))
	}

	// дожидаемся обработчиков событий и отправляем накопленные группы ленты
	bus.Wait()
	activityListener.Flush()
	logger.Info("Сервер остановлен")
}
