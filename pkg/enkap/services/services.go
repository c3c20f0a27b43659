package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/camoo/enkap-go/pkg/enkap"
	"github.com/camoo/enkap-go/pkg/enkap/cache"
	"github.com/camoo/enkap-go/pkg/enkap/cache/postgres"
	"github.com/camoo/enkap-go/pkg/enkap/cache/redis"
	"github.com/camoo/enkap-go/pkg/enkap/client"
	"github.com/camoo/enkap-go/pkg/enkap/config"
	"github.com/camoo/enkap-go/pkg/enkap/oauth"
	"github.com/camoo/enkap-go/pkg/enkap/types/models"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
)

// API bundles the services that share one authenticated client
type API struct {
	Orders       *OrderService
	Statuses     *StatusService
	Payments     *PaymentService
	CallbackURLs *CallbackURLService
	Setup        *SetupService

	Auth   *oauth.Service
	Client client.EnkapClient

	closers []func()
}

// NewAPI connects the configured token cache backend and builds the services
func NewAPI(ctx context.Context, cfg *config.Config, clientOptions ...client.Option) (*API, error) {
	backend, closer, err := NewCacheBackend(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}

	api := New(cfg, backend, clientOptions...)
	api.closers = append(api.closers, closer)

	return api, nil
}

// New builds the services on top of an already connected cache backend
func New(cfg *config.Config, backend cache.Backend, clientOptions ...client.Option) *API {
	options := []client.Option{
		client.Sandbox(cfg.Sandbox),
		client.Debug(cfg.Debug),
		client.Timeout(cfg.Timeout()),
	}

	if cfg.BaseURL != "" {
		options = append(options, client.BaseURL(cfg.BaseURL))
	}

	options = append(options, clientOptions...)

	tokens := cache.NewTokenCache(backend, cfg.Cache.Namespace, cfg.Sandbox)
	auth := oauth.New(cfg.ConsumerKey, cfg.ConsumerSecret, client.New(options...), tokens, oauth.DefaultGrant(cfg.GrantType))

	c := client.New(append(options, client.Tokens(auth))...)

	return &API{
		Orders:       &OrderService{client: c},
		Statuses:     &StatusService{client: c},
		Payments:     &PaymentService{client: c},
		CallbackURLs: &CallbackURLService{client: c, auth: auth},
		Setup:        &SetupService{client: c},
		Auth:         auth,
		Client:       c,
	}
}

func (api *API) Close() {
	for _, closer := range api.closers {
		closer()
	}
}

// NewCacheBackend creates the token cache backend selected by cfg
func NewCacheBackend(ctx context.Context, cfg config.CacheConfig) (cache.Backend, func(), error) {
	switch cfg.Backend {
	case "", config.CacheMemory:
		return cache.NewMemory(), func() {}, nil
	case config.CacheRedis:
		b := redis.New(redis.Options{
			Addrs:    cfg.Redis.Addrs,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})

		if err := b.HealthCheck(ctx); err != nil {
			b.Close()
			return nil, nil, fmt.Errorf("failed to connect to token cache redis: %w", err)
		}

		return b, func() { b.Close() }, nil
	case config.CachePostgres:
		pg := cfg.Postgres
		pool, err := postgres.Connect(ctx, postgres.NewConfig(pg.Host, pg.User, pg.Password, pg.Port, pg.DBName, pg.SSLMode))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to token cache database: %w", err)
		}

		b, err := postgres.New(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}

		return b, pool.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown token cache backend %q", cfg.Backend)
}

type OrderService struct {
	client client.EnkapClient
}

// Place submits a new order and returns the order as accepted by the api,
// carrying the transaction id and redirect url.
func (s *OrderService) Place(ctx context.Context, order *models.Order) (*models.Order, error) {
	order.AttachClient(s.client)

	resp, err := order.Save(ctx)
	if err != nil {
		return nil, err
	}

	return enkap.FirstOf[*models.Order](resp.Result())
}

func (s *OrderService) Delete(ctx context.Context, order *models.Order) (bool, error) {
	order.AttachClient(s.client)

	resp, err := order.Delete(ctx)
	if err != nil {
		return false, err
	}

	return resp.StatusCode() == http.StatusOK, nil
}

type StatusService struct {
	client client.EnkapClient
}

func (s *StatusService) GetByTransactionID(ctx context.Context, transactionID string) (*models.Status, error) {
	return s.get(ctx, models.TransactionID(transactionID))
}

func (s *StatusService) GetByOrderMerchantID(ctx context.Context, merchantReferenceID string) (*models.Status, error) {
	return s.get(ctx, models.OrderMerchantID(merchantReferenceID))
}

func (s *StatusService) get(ctx context.Context, where models.WhereFunc) (*models.Status, error) {
	status := models.NewStatus()
	status.AttachClient(s.client)

	resp, err := status.Find(where).Execute(ctx)
	if err != nil {
		return nil, err
	}

	return enkap.FirstOf[*models.Status](resp.Result())
}

type PaymentService struct {
	client client.EnkapClient
}

func (s *PaymentService) GetByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	return s.get(ctx, models.TransactionID(transactionID))
}

func (s *PaymentService) GetByOrderMerchantID(ctx context.Context, merchantReferenceID string) (*models.Payment, error) {
	return s.get(ctx, models.OrderMerchantID(merchantReferenceID))
}

func (s *PaymentService) get(ctx context.Context, where models.WhereFunc) (*models.Payment, error) {
	payment := models.NewPayment()
	payment.AttachClient(s.client)

	resp, err := payment.Find(where).Execute(ctx)
	if err != nil {
		return nil, err
	}

	return enkap.FirstOf[*models.Payment](resp.Result())
}

type CallbackURLService struct {
	client client.EnkapClient
	auth   *oauth.Service
}

// Set registers the callback urls. The cached token of the default grant is
// dropped first so the registration is made with a fresh token.
func (s *CallbackURLService) Set(ctx context.Context, cb *models.CallbackURL) bool {
	log := logging.GetFromContext(ctx)

	if err := s.auth.InvalidateToken(ctx, nil, nil); err != nil {
		log.Warn("failed to invalidate cached access token", "err", err.Error())
	}

	cb.AttachClient(s.client)

	if _, err := cb.Save(ctx); err != nil {
		log.Error("failed to set callback urls", "err", err.Error())
		return false
	}

	return true
}

type SetupService struct {
	client client.EnkapClient
}

func (s *SetupService) SetCallbackURLs(ctx context.Context, cb *models.CallbackURL) bool {
	cb.AttachClient(s.client)

	if _, err := cb.Save(ctx); err != nil {
		logging.GetFromContext(ctx).Error("failed to set callback urls", "err", err.Error())
		return false
	}

	return true
}
