package config

import (
	"log"
	"os"
	"strings"
	"time"

	"CamelliaIM/pkg/cache"
	"CamelliaIM/pkg/logger"
	"CamelliaIM/pkg/mq"
	"CamelliaIM/pkg/util"
)

// Config 进程级配置
type Config struct {
	Addr     string `env:"ADDR"`
	Mode     string `env:"MODE"`
	DBDriver string `env:"DB_DRIVER"`
	DSN      string `env:"DSN"`

	Log   logger.LogConfig
	Cache cache.Config
	MQ    mq.Config

	JWTSecret string `env:"JWT_SECRET"`

	// 在线状态事件发布的主题
	PresenceTopic string `env:"PRESENCE_TOPIC"`
	// 聊天消息转投的主题
	TalkTopic string `env:"TALK_TOPIC"`

	// 空房间清理的cron表达式
	RoomSweepSchedule string `env:"ROOM_SWEEP_SCHEDULE"`

	// 握手限流速率，如 "30-M"
	HandshakeRate string `env:"HANDSHAKE_RATE"`
}

var GlobalConfig *Config

func Load() error {
	// 1. 根据环境加载 .env 文件
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development" // 默认使用开发环境
	}
	err := util.LoadEnv(env)
	if err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	// 2. 加载全局配置
	GlobalConfig = &Config{
		Addr:     util.GetEnvDefault("ADDR", ":9504"),
		Mode:     util.GetEnvDefault("MODE", "debug"),
		DBDriver: util.GetEnv("DB_DRIVER"),
		DSN:      util.GetEnv("DSN"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		Cache: cache.Config{
			Type: util.GetEnvDefault("CACHE_TYPE", "local"),
			Redis: cache.RedisConfig{
				Addr:         util.GetEnv("REDIS_ADDR"),
				Password:     util.GetEnv("REDIS_PASSWORD"),
				DB:           int(util.GetIntEnv("REDIS_DB")),
				PoolSize:     int(util.GetIntEnv("REDIS_POOL_SIZE")),
				MinIdleConns: int(util.GetIntEnv("REDIS_MIN_IDLE_CONNS")),
				DialTimeout:  time.Duration(util.GetIntEnv("REDIS_DIAL_TIMEOUT")) * time.Second,
				ReadTimeout:  time.Duration(util.GetIntEnv("REDIS_READ_TIMEOUT")) * time.Second,
				WriteTimeout: time.Duration(util.GetIntEnv("REDIS_WRITE_TIMEOUT")) * time.Second,
			},
			Local: cache.LocalConfig{
				DefaultExpiration: time.Duration(util.GetIntEnv("LOCAL_CACHE_DEFAULT_EXPIRATION")) * time.Second,
				CleanupInterval:   time.Duration(util.GetIntEnv("LOCAL_CACHE_CLEANUP_INTERVAL")) * time.Second,
			},
		},
		MQ: mq.Config{
			Driver:        util.GetEnvDefault("MQ_DRIVER", "redis"),
			RedisAddr:     util.GetEnvDefault("MQ_REDIS_ADDR", util.GetEnv("REDIS_ADDR")),
			RedisPassword: util.GetEnvDefault("MQ_REDIS_PASSWORD", util.GetEnv("REDIS_PASSWORD")),
			RedisDB:       int(util.GetIntEnv("MQ_REDIS_DB")),
			KafkaBrokers:  splitList(util.GetEnv("MQ_KAFKA_BROKERS")),
		},
		JWTSecret:         util.GetEnv("JWT_SECRET"),
		PresenceTopic:     util.GetEnvDefault("PRESENCE_TOPIC", "im.online.status"),
		TalkTopic:         util.GetEnvDefault("TALK_TOPIC", "im.message"),
		RoomSweepSchedule: util.GetEnvDefault("ROOM_SWEEP_SCHEDULE", "@every 5m"),
		HandshakeRate:     util.GetEnvDefault("HANDSHAKE_RATE", "30-M"),
	}
	return nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
