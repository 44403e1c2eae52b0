package router

import (
	"net/http"
	"time"

	"Lee_QnA/internal/config"
	"Lee_QnA/internal/handler"
	"Lee_QnA/internal/metrics"
	"Lee_QnA/internal/middleware"
	"Lee_QnA/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Deps struct {
	Config  config.ServerConfig
	Log     *logrus.Entry
	Metrics *metrics.Metrics
	Users   *service.UserService
	Qna     *service.QnaService
	History *service.DeleteHistoryService
	Parser  middleware.AccessParser
	Tokens  middleware.TokenVerifier
	Health  func() error
}

func InitRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(d.Log))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
	}
	r.Use(cors.New(corsConfig(d.Config.AllowOrigins)))

	r.GET("/healthz", func(c *gin.Context) {
		if d.Health != nil {
			if err := d.Health(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"msg": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"msg": "ok"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	user := handler.NewUserHandler(d.Users)
	question := handler.NewQuestionHandler(d.Qna)
	answer := handler.NewAnswerHandler(d.Qna)
	history := handler.NewHistoryHandler(d.History)
	auth := middleware.AuthMiddleware(d.Parser, d.Tokens)

	// 用户相关接口
	userGroup := r.Group("/api/users")
	{
		userGroup.POST("", user.Register)
		userGroup.POST("/login", user.Login)
		userGroup.POST("/logout", auth, user.Logout)
		userGroup.GET("/:id", auth, user.Show)
		userGroup.PUT("/:id", auth, user.Update)
	}

	// token相关接口
	tokenGroup := r.Group("/api/token")
	{
		tokenGroup.POST("/refresh", user.TokenRefresh)
	}

	// 问题与回答，读接口不需要登录
	questionGroup := r.Group("/api/questions")
	{
		questionGroup.GET("", question.List)
		questionGroup.GET("/search", question.Search)
		questionGroup.GET("/:id", question.Show)
		questionGroup.GET("/:id/answers", answer.List)

		questionGroup.POST("", auth, question.Create)
		questionGroup.PUT("/:id", auth, question.Update)
		questionGroup.DELETE("/:id", auth, question.Delete)
		questionGroup.POST("/:id/answers", auth, answer.Create)
		questionGroup.DELETE("/:id/answers/:answerId", auth, answer.Delete)
	}

	historyGroup := r.Group("/api/histories")
	historyGroup.Use(auth)
	{
		historyGroup.GET("", history.List)
	}

	return r
}

// corsConfig 未配置来源时放开所有来源，但不允许携带凭证
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Location", middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowOrigins = nil
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}
	return cfg
}
