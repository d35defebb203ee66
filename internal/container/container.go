package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"

	database "github.com/FACorreiaa/cv-builder-api/app/db"
	"github.com/FACorreiaa/cv-builder-api/app/observability/metrics"
	"github.com/FACorreiaa/cv-builder-api/config"
	"github.com/FACorreiaa/cv-builder-api/internal/api/auth"
	"github.com/FACorreiaa/cv-builder-api/internal/api/payment"
	"github.com/FACorreiaa/cv-builder-api/internal/api/resume"
)

// Container holds all application dependencies. Every collaborator is built
// once here and passed explicitly to the services that need it.
type Container struct {
	Config         *config.Config
	Logger         *slog.Logger
	Mongo          *mongo.Client
	Pool           *pgxpool.Pool
	Tokens         *auth.TokenManager
	AuthHandler    *auth.HandlerImpl
	ResumeHandler  *resume.HandlerImpl
	PaymentHandler *payment.HandlerImpl
}

// NewContainer connects the configured store and wires repositories, services
// and handlers.
func NewContainer(ctx context.Context, cfg *config.Config, appMetrics *metrics.AppMetrics, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	var (
		authRepo   auth.AuthRepo
		resumeRepo resume.ResumeRepo
	)
	switch cfg.Storage.Driver {
	case config.StorageMongo:
		db, err := c.initMongo(ctx)
		if err != nil {
			c.Close(context.Background())
			return nil, err
		}
		authRepo = auth.NewMongoAuthRepo(db, logger)
		resumeRepo = resume.NewMongoResumeRepo(db, logger)
	case config.StoragePostgres:
		pool, err := c.initPostgres(ctx)
		if err != nil {
			c.Close(context.Background())
			return nil, err
		}
		authRepo = auth.NewPostgresAuthRepo(pool, logger)
		resumeRepo = resume.NewPostgresResumeRepo(pool, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	// Outbound calls to Google and Stripe share one client so none can hang a request.
	httpClient := &http.Client{Timeout: cfg.Server.OutboundTimeout}

	verifier, err := auth.NewGoogleVerifier(ctx, cfg.Google.ClientID, httpClient, logger)
	if err != nil {
		c.Close(context.Background())
		return nil, err
	}
	if cfg.Google.ClientID == "" {
		logger.Warn("GOOGLE_CLIENT_ID is empty, Google login will reject every token")
	}

	c.Tokens = auth.NewTokenManager(cfg.JWT)
	authService := auth.NewAuthService(authRepo, c.Tokens, verifier, appMetrics, logger)
	c.AuthHandler = auth.NewAuthHandlerImpl(authService, logger)

	resumeService := resume.NewResumeService(resumeRepo, appMetrics, logger)
	c.ResumeHandler = resume.NewHandlerImpl(resumeService, logger)

	paymentService := payment.NewPaymentService(
		payment.NewStripeCheckout(cfg.Payments.Stripe, httpClient),
		payment.NewRazorpayOrders(cfg.Payments.Razorpay),
		*cfg,
		appMetrics,
		logger,
	)
	c.PaymentHandler = payment.NewHandlerImpl(paymentService, logger)

	return c, nil
}

func (c *Container) initMongo(ctx context.Context) (*mongo.Database, error) {
	mcfg := c.Config.Repositories.Mongo
	client, err := database.ConnectMongo(ctx, mcfg.URI, mcfg.ConnectTimeout, c.Logger)
	if err != nil {
		return nil, err
	}
	c.Mongo = client

	if !database.WaitForDB(ctx, database.MongoPinger{Client: client}, c.Logger) {
		return nil, errors.New("mongodb not ready")
	}

	db := client.Database(mcfg.Database)
	if err = database.EnsureMongoIndexes(ctx, db, c.Logger); err != nil {
		return nil, err
	}
	c.Logger.Info("MongoDB connected", slog.String("database", mcfg.Database))
	return db, nil
}

func (c *Container) initPostgres(ctx context.Context) (*pgxpool.Pool, error) {
	url := c.Config.PostgresURL()
	if err := database.RunMigrations(url, c.Logger); err != nil {
		return nil, err
	}

	pool, err := database.Init(ctx, url, c.Logger)
	if err != nil {
		return nil, err
	}
	c.Pool = pool

	if !database.WaitForDB(ctx, pool, c.Logger) {
		return nil, errors.New("postgres not ready")
	}
	return pool, nil
}

// Close releases all resources held by the container
func (c *Container) Close(ctx context.Context) {
	if c.Pool != nil {
		c.Pool.Close()
	}
	if c.Mongo != nil {
		if err := c.Mongo.Disconnect(ctx); err != nil {
			c.Logger.Error("Failed to disconnect MongoDB", slog.Any("error", err))
		}
	}
}
