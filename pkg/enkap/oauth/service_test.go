package oauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/camoo/enkap-go/pkg/enkap/cache"
	"github.com/camoo/enkap-go/pkg/enkap/client"
	enkaperrors "github.com/camoo/enkap-go/pkg/enkap/errors"
	testutils "github.com/diwise/service-chassis/pkg/test/http"
	"github.com/diwise/service-chassis/pkg/test/http/expects"
	"github.com/diwise/service-chassis/pkg/test/http/response"
	"github.com/matryer/is"
)

var Expects = testutils.Expects
var Returns = testutils.Returns
var anyInput = expects.AnyInput
var method = expects.RequestMethod
var path = expects.RequestPath
var queryParam = expects.QueryParamEquals

const tokenResponse string = `{"access_token":"abc123","expires_in":3600,"token_type":"Bearer","scope":"default"}`

func TestClientCredentialsTokenIsFetchedOnce(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodPost),
			path("/token"),
			queryParam("grant_type", "client_credentials"),
		),
		Returns(
			response.ContentType("application/json"),
			response.Code(http.StatusOK),
			response.Body([]byte(tokenResponse)),
		),
	)
	defer s.Close()

	svc := newTestService(s.URL(), cache.NewMemory())

	token, err := svc.AccessToken(context.Background())
	is.NoErr(err)
	is.Equal(token, "abc123")

	token, err = svc.AccessToken(context.Background())
	is.NoErr(err)
	is.Equal(token, "abc123")

	is.Equal(s.RequestCount(), 1) // second call must be served from the cache
}

func TestCachedTokenIsReturnedWithoutARequest(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	s := testutils.NewMockServiceThat(Expects(is, anyInput()), Returns(response.Code(http.StatusOK)))
	defer s.Close()

	backend := cache.NewMemory()
	tokens := cache.NewTokenCache(backend, "", true)
	is.NoErr(tokens.Put(ctx, tokens.Key(string(Password), "alice"), "cached-token", time.Hour))

	svc := New("key", "secret", client.New(client.BaseURL(s.URL())), tokens)

	grant := Password
	token, err := svc.GetAccessToken(ctx, &grant, Params{"username": "alice", "password": "pw"})
	is.NoErr(err)
	is.Equal(token, "cached-token")
	is.Equal(s.RequestCount(), 0)
}

func TestMissingParameterFailsBeforeAnyRequest(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(Expects(is, anyInput()), Returns(response.Code(http.StatusOK)))
	defer s.Close()

	svc := newTestService(s.URL(), cache.NewMemory())

	grant := Password
	_, err := svc.GetAccessToken(context.Background(), &grant, Params{"username": "alice"})

	is.True(errors.Is(err, enkaperrors.ErrAccessToken))
	is.True(errors.Is(err, enkaperrors.ErrParameter))
	is.Equal(s.RequestCount(), 0)
}

func TestRejectedCredentialsAreAnAccessTokenError(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(is, anyInput()),
		Returns(
			response.Code(http.StatusUnauthorized),
			response.Body([]byte(`{"error":"invalid_client"}`)),
		),
	)
	defer s.Close()

	svc := newTestService(s.URL(), cache.NewMemory())

	_, err := svc.AccessToken(context.Background())
	is.True(errors.Is(err, enkaperrors.ErrAccessToken))
	is.True(errors.Is(err, enkaperrors.ErrBadResponse))
	is.Equal(enkaperrors.StatusCode(err), http.StatusUnauthorized)
}

func TestResponseWithoutAccessTokenIsAnError(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(is, anyInput()),
		Returns(
			response.Code(http.StatusOK),
			response.Body([]byte(`{"expires_in":3600}`)),
		),
	)
	defer s.Close()

	_, err := newTestService(s.URL(), cache.NewMemory()).AccessToken(context.Background())
	is.True(errors.Is(err, enkaperrors.ErrAccessToken))
}

func TestTokenRequestUsesBasicAuthAndFormEncoding(t *testing.T) {
	is := is.New(t)

	var received *http.Request

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(tokenResponse))
	}))
	defer s.Close()

	svc := newTestService(s.URL, cache.NewMemory())

	grant := AuthCode
	_, err := svc.GetAccessToken(context.Background(), &grant, Params{
		"code":         "c0de",
		"redirect_uri": "https://m/cb",
		"scope":        "pay",
	})
	is.NoErr(err)

	user, pass, ok := received.BasicAuth()
	is.True(ok)
	is.Equal(user, "key")
	is.Equal(pass, "secret")
	is.Equal(received.Header.Get("Content-Type"), "application/x-www-form-urlencoded")

	q := received.URL.Query()
	is.Equal(q.Get("grant_type"), "authorization_code")
	is.Equal(q.Get("code"), "c0de")
	is.Equal(q.Get("redirect_uri"), "https://m/cb")
	is.Equal(q.Get("scope"), "pay")
	is.True(!q.Has("code_verifier"))
}

func TestConcurrentCallersShareOneFetch(t *testing.T) {
	is := is.New(t)

	var requests atomic.Int32
	release := make(chan struct{})

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		<-release
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(tokenResponse))
	}))
	defer s.Close()

	svc := newTestService(s.URL, cache.NewMemory())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := svc.AccessToken(context.Background())
			is.NoErr(err)
			is.Equal(token, "abc123")
		}()
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	is.Equal(requests.Load(), int32(1))
}

func TestInvalidateTokenForcesANewFetch(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	s := testutils.NewMockServiceThat(
		Expects(is, anyInput()),
		Returns(response.Code(http.StatusOK), response.Body([]byte(tokenResponse))),
	)
	defer s.Close()

	svc := newTestService(s.URL(), cache.NewMemory())

	_, err := svc.AccessToken(ctx)
	is.NoErr(err)
	is.NoErr(svc.InvalidateToken(ctx, nil, nil))
	_, err = svc.AccessToken(ctx)
	is.NoErr(err)

	is.Equal(s.RequestCount(), 2)
}

func TestUnknownDefaultGrantIsAnAccessTokenError(t *testing.T) {
	is := is.New(t)

	svc := New("key", "secret", client.New(), cache.NewTokenCache(cache.NewMemory(), "", false), DefaultGrant("magic"))

	_, err := svc.AccessToken(context.Background())
	is.True(errors.Is(err, enkaperrors.ErrAccessToken))
}

func TestTokenTTLKeepsASafetyMargin(t *testing.T) {
	is := is.New(t)

	is.Equal(TokenTTL(1), time.Second)
	is.Equal(TokenTTL(60), time.Second)
	is.Equal(TokenTTL(3600), 3540*time.Second)
}

func newTestService(baseURL string, backend cache.Backend) *Service {
	return New("key", "secret",
		client.New(client.BaseURL(baseURL)),
		cache.NewTokenCache(backend, "", true),
	)
}
