package database

import (
	"context"
	"encoding/json"
	"os"
	"strconv"

	"pairserver/models"

	"github.com/go-redis/redis/v8"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// LoadConfig はconfig.jsonから設定を読み込みます。ファイルが無い場合や
// 値が欠けている場合はデフォルトで埋めます。
func LoadConfig(filename string) (models.Config, error) {
	config := models.Config{
		ListenAddr:       ":8080",
		RevealDelayMs:    800,
		SessionMaxAgeMin: 30,
		SweepSpec:        "@every 1m",
	}

	configFile, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, err
	}
	defer configFile.Close()

	jsonParser := json.NewDecoder(configFile)
	if err := jsonParser.Decode(&config); err != nil {
		return config, err
	}

	if config.ListenAddr == "" {
		config.ListenAddr = ":8080"
	}
	if config.RevealDelayMs <= 0 {
		config.RevealDelayMs = 800
	}
	if config.SessionMaxAgeMin <= 0 {
		config.SessionMaxAgeMin = 30
	}
	if config.SweepSpec == "" {
		config.SweepSpec = "@every 1m"
	}
	return config, nil
}

func InitRedis(logger *zap.Logger) (*redis.Client, error) {
	// 環境変数からRedis接続情報を取得
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379" // デフォルト値
	}

	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := os.Getenv("REDIS_DB")
	db, err := strconv.Atoi(redisDB)
	if err != nil {
		logger.Info("Invalid REDIS_DB value, using default DB 0")
		db = 0 // デフォルトDB
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	if _, err = rdb.Ping(context.Background()).Result(); err != nil {
		logger.Error("Failed to connect to Redis", zap.Error(err))
		return nil, err
	}

	logger.Info("Connected to Redis")
	return rdb, nil
}

// InitNATS は戦績コレクター向けのNATS接続を初期化します。URLが空の
// 構成では通知を無効にしてnilを返します。
func InitNATS(url string, logger *zap.Logger) (*nats.Conn, error) {
	if url == "" {
		logger.Info("NATS URL not configured - match result events disabled")
		return nil, nil
	}

	nc, err := nats.Connect(url, nats.Name("pairserver"))
	if err != nil {
		logger.Error("Failed to connect to NATS", zap.Error(err))
		return nil, err
	}

	logger.Info("Connected to NATS", zap.String("url", url))
	return nc, nil
}
