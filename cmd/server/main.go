package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CamelliaIM/internal/auth"
	"CamelliaIM/internal/gateway"
	"CamelliaIM/internal/handler"
	"CamelliaIM/internal/models"
	"CamelliaIM/internal/service"
	"CamelliaIM/pkg/cache"
	"CamelliaIM/pkg/config"
	"CamelliaIM/pkg/logger"
	"CamelliaIM/pkg/metrics"
	"CamelliaIM/pkg/middleware"
	"CamelliaIM/pkg/mq"
	"CamelliaIM/pkg/scheduler"
	"CamelliaIM/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	if err := config.Load(); err != nil {
		logrus.Fatalf("配置加载失败: %v", err)
	}
	cfg := config.GlobalConfig

	if err := logger.Init(cfg.Log); err != nil {
		logrus.Fatalf("日志初始化失败: %v", err)
	}
	defer logger.Sync()

	gin.SetMode(cfg.Mode)

	// 数据库
	db, err := util.OpenDatabase(&gorm.Config{}, cfg.DBDriver, cfg.DSN)
	if err != nil {
		logger.Error("数据库连接失败", zap.Error(err))
		os.Exit(1)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Group{}, &models.GroupMember{}); err != nil {
		logger.Error("数据库迁移失败", zap.Error(err))
		os.Exit(1)
	}

	// 共享缓存
	sharedCache, err := cache.NewCache(cfg.Cache)
	if err != nil {
		logger.Error("缓存初始化失败", zap.Error(err))
		os.Exit(1)
	}
	defer sharedCache.Close()

	// 消息总线
	producer, err := mq.NewProducer(cfg.MQ)
	if err != nil {
		logger.Error("消息总线初始化失败", zap.Error(err))
		os.Exit(1)
	}
	defer producer.Close()

	// 网关核心
	gwCfg := gateway.LoadConfigFromEnv()
	if err := gateway.ValidateConfig(gwCfg); err != nil {
		logger.Error("网关配置非法", zap.Error(err))
		os.Exit(1)
	}

	m := metrics.NewMetrics()
	registry := gateway.NewConnectionRegistry()
	rooms := gateway.NewRoomRegistry()
	tracker := gateway.NewPresenceTracker(registry, gwCfg.PresenceStripes)
	dispatcher := gateway.NewEventDispatcher(m)
	publisher := gateway.NewPresencePublisher(producer, cfg.PresenceTopic, m)

	memberService, err := service.NewGroupMemberService(db, sharedCache)
	if err != nil {
		logger.Error("群成员服务初始化失败", zap.Error(err))
		os.Exit(1)
	}

	authenticator := auth.NewJWTAuthenticator(cfg.JWTSecret, 0)

	controller := gateway.NewGatewayController(
		tracker, registry, rooms, dispatcher, publisher,
		authenticator, memberService, m,
	)
	server := gateway.NewServer(gwCfg, controller, registry, rooms)

	handler.NewReceiveHandler(server, rooms, producer, memberService, cfg.TalkTopic).Register(dispatcher)

	// HTTP路由
	engine := gin.New()
	engine.Use(gin.Recovery())

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:       cfg.HandshakeRate,
		Identifier: "ip",
		SkipPaths:  []string{gateway.RouteWebSocketHealth, "/metrics"},
		AddHeaders: true,
	}, nil).WithObserver(middleware.NewPrometheusObserver())
	engine.Use(limiter.Middleware())

	gateway.RegisterRoutes(engine, server)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 定时任务：空房间清理
	cr := scheduler.NewCron(nil)
	if _, err := cr.AddWithCtx(cfg.RoomSweepSchedule, func(ctx context.Context) {
		if removed := rooms.Sweep(); removed > 0 {
			logger.Info("空房间清理完成", zap.Int("removed", removed))
		}
	}); err != nil {
		logger.Error("定时任务注册失败", zap.Error(err))
		os.Exit(1)
	}
	cr.Start()
	defer cr.Stop()

	// 系统指标采集
	monitorCtx, monitorCancel := context.WithCancel(context.Background())
	defer monitorCancel()
	go metrics.NewSystemMonitor(15 * time.Second).Run(monitorCtx)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: engine,
	}

	go func() {
		logger.Info("网关启动", zap.String("addr", cfg.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP服务异常退出", zap.Error(err))
			os.Exit(1)
		}
	}()

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("收到退出信号，开始优雅关闭")

	server.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP服务关闭失败", zap.Error(err))
	}
	logger.Info("网关已退出")
}
