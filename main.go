package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"pairserver/auth"              // JWTの検証（外部IDプロバイダ発行のトークン）
	"pairserver/database"          // 設定読み込みとRedis/NATSの初期化
	"pairserver/game"              // セッションレジストリとゲームロジック
	"pairserver/gateway"           // WebSocket接続の処理
	"pairserver/gateway/broadcast" // セッション単位の配信
	"pairserver/handlers"          // HTTPハンドラ
	"pairserver/stats"             // 戦績コレクターへの通知
	"pairserver/utils"             // ロガーの初期化とCronジョブ(非アクティブセッションの回収)

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func main() {
	logger, err := utils.InitLogger() // ロガーの初期化
	if err != nil {
		panic(err) // 失敗した場合はプログラム停止
	}
	defer logger.Sync() // ロガーのクリーンアップ

	// 署名鍵が無いとトークン検証が一切できないため起動時点で止める
	if err := auth.InitJwtKey(); err != nil {
		logger.Fatal("JWT署名鍵が設定されていません", zap.Error(err))
	}

	config, err := database.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("設定ファイルの読み込みに失敗しました", zap.Error(err))
	}

	// Redisは再接続トークンの保存にのみ使用。接続できなくても再接続
	// 機能が無効になるだけで、対戦自体は動かせる
	rdb, err := database.InitRedis(logger)
	if err != nil {
		logger.Warn("Redisなしで起動します - 再接続トークンは無効", zap.Error(err))
		rdb = nil
	}

	nc, err := database.InitNATS(config.NatsURL, logger)
	if err != nil {
		logger.Warn("NATSなしで起動します - 戦績通知は無効", zap.Error(err))
		nc = nil
	}
	var notifier game.StatsNotifier
	if nc != nil {
		notifier = stats.NewNotifier(nc, logger)
	}

	registry := game.NewRegistry(
		time.Duration(config.RevealDelayMs)*time.Millisecond, notifier, logger)
	conns := broadcast.NewConns()

	// スイーパーのセットアップと起動
	sweeper, err := utils.CronCleaner(
		registry, config.SweepSpec,
		time.Duration(config.SessionMaxAgeMin)*time.Minute, logger)
	if err != nil {
		logger.Fatal("スイーパーの起動に失敗しました", zap.Error(err))
	}
	defer sweeper.Stop()

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	router := gin.New()
	router.Use(gin.Recovery(), utils.RequestLogger(logger))

	//CORS（Cross-Origin Resource Sharing）ポリシーを設定
	allowedOrigins := config.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", handlers.HealthHandler)
	router.GET("/ws", func(c *gin.Context) {
		// ハンドラ終了後もWebSocketのゴルーチンが生き続けるため、
		// リクエストのコンテキストではなくBackgroundを渡す
		gateway.HandleConnections(context.Background(), c.Writer, c.Request, rdb, logger, registry, conns, upgrader)
	})

	if err := router.Run(config.ListenAddr); err != nil {
		logger.Fatal("サーバーの起動に失敗しました", zap.Error(err))
	}
}
