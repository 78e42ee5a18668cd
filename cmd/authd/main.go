// Command authd runs a small HTTP front around the authkit engine: OTP-gated
// registration and password reset, login, logout. Everything else the
// surrounding application does (posts, media, admin) lives elsewhere; this
// process owns only the identity lifecycle.
package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/yogiverse/authkit"
	"github.com/yogiverse/authkit/mailer"
	"github.com/yogiverse/authkit/mongostore"
)

type config struct {
	Port         string
	RedisAddr    string
	MongoURI     string
	MongoDB      string
	JWTSecret    string
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPass     string
	MailFrom     string
	CookieSecure bool
}

func loadConfig() config {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DB", "yogiverse")
	viper.SetDefault("SMTP_PORT", "587")
	viper.SetDefault("COOKIE_SECURE", false)

	// Missing .env is fine; the environment still applies.
	_ = viper.ReadInConfig()
	viper.AutomaticEnv()

	return config{
		Port:         viper.GetString("PORT"),
		RedisAddr:    viper.GetString("REDIS_ADDR"),
		MongoURI:     viper.GetString("MONGO_URI"),
		MongoDB:      viper.GetString("MONGO_DB"),
		JWTSecret:    viper.GetString("JWT_SECRET"),
		SMTPHost:     viper.GetString("SMTP_HOST"),
		SMTPPort:     viper.GetString("SMTP_PORT"),
		SMTPUser:     viper.GetString("SMTP_USER"),
		SMTPPass:     viper.GetString("SMTP_PASS"),
		MailFrom:     viper.GetString("MAIL_FROM"),
		CookieSecure: viper.GetBool("COOKIE_SECURE"),
	}
}

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg := loadConfig()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("mongo connect failed", zap.Error(err))
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	store := mongostore.New(mongoClient.Database(cfg.MongoDB), log)
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatal("mongo index creation failed", zap.Error(err))
	}

	smtpMailer, err := mailer.NewSMTP(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.MailFrom,
	}, log)
	if err != nil {
		log.Fatal("mailer init failed", zap.Error(err))
	}

	engineCfg := authkit.DefaultConfig()
	engineCfg.Session.Secret = []byte(cfg.JWTSecret)
	engineCfg.Session.Issuer = "yogiverse"

	engine, err := authkit.New().
		WithConfig(engineCfg).
		WithRedis(rdb).
		WithIdentityStore(store).
		WithMailer(smtpMailer).
		WithLogger(log).
		Build()
	if err != nil {
		log.Fatal("engine build failed", zap.Error(err))
	}

	h := newHandler(engine, log, cfg.CookieSecure)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/request-otp", h.requestRegistrationOTP)
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Post("/logout", h.logout)
		r.Post("/request-reset-otp", h.requestResetOTP)
		r.Post("/reset-password", h.resetPassword)
	})

	log.Info("authd listening", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
