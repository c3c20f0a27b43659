package oauth

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/camoo/enkap-go/pkg/enkap"
	"github.com/camoo/enkap-go/pkg/enkap/cache"
	"github.com/camoo/enkap-go/pkg/enkap/errors"
	"github.com/camoo/enkap-go/pkg/enkap/types/models"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// Dispatcher is the part of the http client used to call the token endpoint
type Dispatcher interface {
	PerformRequest(ctx context.Context, method, path string, data map[string]any, headers map[string][]string, resultType string) (*enkap.ModelResponse, error)
}

const DefaultGrantName string = "client_credentials"

// TokenMargin is subtracted from the advertised token lifetime before caching
const TokenMargin time.Duration = 60 * time.Second

var tracer = otel.Tracer("enkap-oauth")

type Service struct {
	consumerKey    string
	consumerSecret string
	defaultGrant   string

	client Dispatcher
	tokens *cache.TokenCache
	group  singleflight.Group
}

// DefaultGrant sets the enum name of the grant used when none is given
func DefaultGrant(name string) func(*Service) {
	return func(s *Service) {
		if name != "" {
			s.defaultGrant = name
		}
	}
}

func New(consumerKey, consumerSecret string, client Dispatcher, tokens *cache.TokenCache, options ...func(*Service)) *Service {
	s := &Service{
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		defaultGrant:   DefaultGrantName,
		client:         client,
		tokens:         tokens,
	}

	for _, option := range options {
		option(s)
	}

	return s
}

// AccessToken returns a bearer token for the default grant
func (s *Service) AccessToken(ctx context.Context) (string, error) {
	return s.GetAccessToken(ctx, nil, nil)
}

// GetAccessToken returns a cached bearer token for grant and params, or
// fetches and caches a new one. A nil grant selects the default grant.
func (s *Service) GetAccessToken(ctx context.Context, grant *GrantType, params Params) (string, error) {
	g, err := s.resolve(grant)
	if err != nil {
		return "", err
	}

	ctx, span := tracer.Start(ctx, "get-access-token",
		trace.WithAttributes(attribute.String("grant-type", string(g))),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	key := s.tokens.Key(string(g), discriminator(g, params))

	if token, ok := s.cached(ctx, key); ok {
		return token, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		if token, ok := s.cached(ctx, key); ok {
			return token, nil
		}
		return s.fetch(ctx, g, params, key)
	})
	if err != nil {
		return "", err
	}

	return v.(string), nil
}

// InvalidateToken drops the cached token of grant and params, if any
func (s *Service) InvalidateToken(ctx context.Context, grant *GrantType, params Params) error {
	g, err := s.resolve(grant)
	if err != nil {
		return err
	}

	return s.tokens.Invalidate(ctx, s.tokens.Key(string(g), discriminator(g, params)))
}

// Source binds a grant and its params into a token provider
func (s *Service) Source(grant GrantType, params Params) *TokenSource {
	return &TokenSource{service: s, grant: grant, params: params}
}

type TokenSource struct {
	service *Service
	grant   GrantType
	params  Params
}

func (ts *TokenSource) AccessToken(ctx context.Context) (string, error) {
	return ts.service.GetAccessToken(ctx, &ts.grant, ts.params)
}

func (s *Service) resolve(grant *GrantType) (GrantType, error) {
	if grant != nil {
		return *grant, nil
	}

	g, err := GrantTypeFromName(s.defaultGrant)
	if err != nil {
		return "", errors.NewAccessTokenError(fmt.Sprintf("invalid grant type: %s", s.defaultGrant), err)
	}

	return g, nil
}

func (s *Service) cached(ctx context.Context, key string) (string, bool) {
	token, ok, err := s.tokens.Get(ctx, key)
	if err != nil {
		logging.GetFromContext(ctx).Warn("failed to read cached access token", "err", err.Error())
		return "", false
	}
	return token, ok
}

func (s *Service) fetch(ctx context.Context, grant GrantType, params Params, key string) (string, error) {
	body, err := buildBody(grant, params)
	if err != nil {
		return "", errors.NewAccessTokenError(err.Error(), err)
	}

	query := url.Values{}
	for k, v := range body {
		query.Set(k, v)
	}

	credentials := base64.StdEncoding.EncodeToString([]byte(s.consumerKey + ":" + s.consumerSecret))
	headers := map[string][]string{
		"Authorization": {"Basic " + credentials},
		"Content-Type":  {"application/x-www-form-urlencoded"},
	}

	resp, err := s.client.PerformRequest(ctx, http.MethodPost, "/token?"+query.Encode(), nil, headers, models.TokenTypeName)
	if err != nil {
		return "", errors.NewAccessTokenError(err.Error(), err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", errors.NewAccessTokenError("access token cannot be retrieved, please check your credentials", nil)
	}

	token, err := enkap.FirstOf[*models.Token](resp.Result())
	if err != nil {
		return "", errors.NewAccessTokenError("access token cannot be retrieved, please check your credentials", err)
	}

	if token.AccessToken() == "" {
		return "", errors.NewAccessTokenError("token response did not contain an access_token", nil)
	}

	if err := s.tokens.Put(ctx, key, token.AccessToken(), TokenTTL(token.ExpiresIn())); err != nil {
		logging.GetFromContext(ctx).Warn("failed to cache access token", "err", err.Error())
	}

	return token.AccessToken(), nil
}

// TokenTTL is the cache lifetime of a token that expires in expiresIn
// seconds. It is never shorter than one second.
func TokenTTL(expiresIn int) time.Duration {
	ttl := time.Duration(expiresIn)*time.Second - TokenMargin
	return max(time.Second, ttl)
}
