package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Lee_QnA/internal/config"
	"Lee_QnA/internal/logger"
	"Lee_QnA/internal/metrics"
	"Lee_QnA/internal/pkg"
	"Lee_QnA/internal/repository/database"
	"Lee_QnA/internal/repository/redis"
	"Lee_QnA/internal/router"
	"Lee_QnA/internal/scheduler"
	"Lee_QnA/internal/search"
	"Lee_QnA/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env 不存在时忽略
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		panic(err)
	}

	log := logger.New("qna", cfg.Log.Level, cfg.Log.Format)
	gin.SetMode(cfg.Server.Mode)

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("connect database")
	}
	defer database.Close(db)

	// 连接redis
	rdb, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.WithError(err).Fatal("connect redis")
	}
	defer rdb.Close()

	m := metrics.New()
	tokens := redis.NewTokenRepository(rdb)
	tokens.TTL = cfg.JWT.AccessTTL()
	issuer := pkg.NewTokenIssuer(cfg.JWT)
	history := service.NewDeleteHistoryService(db)

	opts := []service.Option{service.WithMetrics(m)}
	if cfg.Search.Enabled {
		index := search.NewQuestionIndex(cfg.Search)
		if err := index.InitIndex(); err != nil {
			log.WithError(err).Warn("init search index")
		}
		opts = append(opts, service.WithIndexer(index))
	}
	if cfg.SMTP.Enabled {
		opts = append(opts, service.WithNotifier(service.NewAnswerNotifier(cfg.SMTP, cfg.Server.PublicURL)))
	}
	qna := service.NewQnaService(db, history, log, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// outbox 投递：启用 kafka 时发到 broker，否则只打日志
	sender := service.LogSender(log.WithField("component", "outbox"))
	if cfg.Kafka.Enabled {
		producer := pkg.NewKafkaProducer(cfg.Kafka)
		defer producer.Close()
		sender = service.KafkaSender(producer)
	}
	relayer := service.NewOutboxRelayer(db, cfg.Kafka, sender, m, log)
	go relayer.Run(ctx)

	sched := scheduler.New(cfg.Scheduler, qna.Reindex, log)
	if err := sched.Start(); err != nil {
		log.WithError(err).Fatal("start scheduler")
	}
	defer sched.Stop()

	r := router.InitRouter(router.Deps{
		Config:  cfg.Server,
		Log:     log,
		Metrics: m,
		Users:   service.NewUserService(db, tokens, issuer),
		Qna:     qna,
		History: history,
		Parser:  issuer,
		Tokens:  tokens,
		Health: func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			pingCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := sqlDB.PingContext(pingCtx); err != nil {
				return err
			}
			return rdb.Ping(pingCtx).Err()
		},
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("http server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http server shutdown")
	}
	log.Info("bye")
}
