package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	enkaperrors "github.com/camoo/enkap-go/pkg/enkap/errors"
	"github.com/camoo/enkap-go/pkg/enkap/types/models"
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
var bodyContaining = expects.RequestBodyContaining

func TestGetStatusByTransactionID(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodGet),
			path("/purchase/v1.2/api/order/status"),
			queryParam("txid", "tx-1"),
		),
		Returns(
			response.ContentType("application/json"),
			response.Code(http.StatusOK),
			response.Body([]byte(`{"status":"CONFIRMED"}`)),
		),
	)
	defer s.Close()

	c := New(BaseURL(s.URL()), Tokens(staticToken("tok")))

	resp, err := c.Get(context.Background(), models.NewStatus(), map[string]any{"txid": "tx-1"}, "")
	is.NoErr(err)
	is.Equal(resp.StatusCode(), http.StatusOK)

	status := resp.Result().First().(*models.Status)
	is.Equal(status.Current(context.Background()), models.StatusConfirmed)
	is.True(status.Client() != nil) // decoded models get the client attached
}

func TestNotFoundIsReportedAsBadResponse(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(is, anyInput()),
		Returns(
			response.ContentType("application/json"),
			response.Code(http.StatusNotFound),
			response.Body([]byte(`{"error":"not found"}`)),
		),
	)
	defer s.Close()

	c := New(BaseURL(s.URL()), Tokens(staticToken("tok")))

	_, err := c.Get(context.Background(), models.NewStatus(), map[string]any{"txid": "nope"}, "")
	is.True(errors.Is(err, enkaperrors.ErrBadResponse))
	is.Equal(enkaperrors.StatusCode(err), http.StatusNotFound)

	var bre *enkaperrors.BadResponseError
	is.True(errors.As(err, &bre))
	is.Equal(bre.Body, `{"error":"not found"}`)

	var ce *enkaperrors.ClientError
	is.True(errors.As(err, &ce))
}

func TestDeleteReturnsAnEmptyResultSet(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodDelete),
			path("/purchase/v1.2/api/order/tx-1"),
		),
		Returns(
			response.ContentType("application/json"),
			response.Code(http.StatusOK),
			response.Body([]byte(`{"deleted":true}`)),
		),
	)
	defer s.Close()

	c := New(BaseURL(s.URL()), Tokens(staticToken("tok")))

	resp, err := c.Save(context.Background(), validOrder("tx-1"), true)
	is.NoErr(err)
	is.True(resp.Result().IsEmpty())
}

func TestArrayResponseYieldsOneModelPerElement(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(is, anyInput()),
		Returns(
			response.ContentType("application/json"),
			response.Code(http.StatusOK),
			response.Body([]byte(`[{"paymentStatus":"CONFIRMED"},{"paymentStatus":"FAILED"}]`)),
		),
	)
	defer s.Close()

	c := New(BaseURL(s.URL()), Tokens(staticToken("tok")))

	resp, err := c.Get(context.Background(), models.NewPayment(), nil, "")
	is.NoErr(err)
	is.Equal(resp.Result().Count(), 2)
	is.Equal(resp.Result().Get(1).(*models.Payment).PaymentStatus(), models.StatusFailed)
}

func TestEmptyBodyYieldsEmptyResultSet(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(is, anyInput()),
		Returns(response.Code(http.StatusCreated)),
	)
	defer s.Close()

	c := New(BaseURL(s.URL()), Tokens(staticToken("tok")))

	resp, err := c.Save(context.Background(), models.NewCallbackURL("https://m/notify", "https://m/return"), false)
	is.NoErr(err)
	is.Equal(resp.StatusCode(), http.StatusCreated)
	is.True(resp.Result().IsEmpty())
}

func TestMalformedBodyIsADecodeError(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(is, anyInput()),
		Returns(
			response.Code(http.StatusOK),
			response.Body([]byte(`{"status":`)),
		),
	)
	defer s.Close()

	c := New(BaseURL(s.URL()), Tokens(staticToken("tok")))

	_, err := c.Get(context.Background(), models.NewStatus(), nil, "")
	is.True(errors.Is(err, enkaperrors.ErrDecode))
}

func TestAuthorizationHeaderIsRequired(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(is, anyInput()),
		Returns(response.Code(http.StatusOK)),
	)
	defer s.Close()

	c := New(BaseURL(s.URL()))

	_, err := c.PerformRequest(context.Background(), http.MethodGet, "/purchase/v1.2/api/order/status", nil, nil, models.StatusTypeName)
	is.True(errors.Is(err, enkaperrors.ErrValidation))
	is.Equal(s.RequestCount(), 0)
}

func TestPostBodyIsSentForEveryResultType(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodPost),
			path("/token"),
			bodyContaining(`"scope":"payments"`),
		),
		Returns(
			response.ContentType("application/json"),
			response.Code(http.StatusOK),
			response.Body([]byte(`{"access_token":"tok","expires_in":60}`)),
		),
	)
	defer s.Close()

	c := New(BaseURL(s.URL()))

	headers := map[string][]string{"Authorization": {"Basic a2V5OnNlY3JldA=="}}
	_, err := c.PerformRequest(context.Background(), http.MethodPost, "/token", map[string]any{"scope": "payments"}, headers, models.TokenTypeName)
	is.NoErr(err)
	is.Equal(s.RequestCount(), 1)
}

func TestOnlyTheFourVerbsAreAllowed(t *testing.T) {
	is := is.New(t)

	c := New(BaseURL("http://localhost"))
	headers := map[string][]string{"Authorization": {"Bearer tok"}}

	_, err := c.PerformRequest(context.Background(), http.MethodPatch, "/x", nil, headers, "")
	is.True(errors.Is(err, enkaperrors.ErrValidation))
}

func TestUnsupportedMethodFailsBeforeFetchingAToken(t *testing.T) {
	is := is.New(t)

	tokens := &countingTokens{}
	c := New(BaseURL("http://localhost"), Tokens(tokens))

	status := models.NewStatus()
	status.Set("status", "CREATED")

	_, err := c.Save(context.Background(), status, false)
	is.True(errors.Is(err, enkaperrors.ErrCapability))
	is.Equal(tokens.calls, 0)
}

func TestInvalidModelIsNotSent(t *testing.T) {
	is := is.New(t)

	tokens := &countingTokens{}
	c := New(BaseURL("http://localhost"), Tokens(tokens))

	_, err := c.Save(context.Background(), models.NewOrder(models.Currency("XAF")), false)
	is.True(errors.Is(err, enkaperrors.ErrValidation))
	is.Equal(tokens.calls, 0)
}

func TestPlaceOrderSendsJSONWithBearerToken(t *testing.T) {
	is := is.New(t)

	var received *http.Request
	var receivedBody map[string]any

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r
		b, _ := io.ReadAll(r.Body)
		json.Unmarshal(b, &receivedBody)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"merchantReferenceId":"m-1","orderTransactionId":"tx-9","redirectUrl":"https://pay/tx-9"}`))
	}))
	defer s.Close()

	c := New(BaseURL(s.URL), Tokens(staticToken("tok")))

	resp, err := c.Save(context.Background(), validOrder(""), false)
	is.NoErr(err)

	is.Equal(received.Method, http.MethodPost)
	is.Equal(received.URL.Path, "/purchase/v1.2/api/order")
	is.Equal(received.Header.Get("Authorization"), "Bearer tok")
	is.Equal(received.Header.Get("Content-Type"), "application/json")
	is.Equal(received.Header.Get("User-Agent"), DefaultUserAgent)
	is.Equal(receivedBody["currency"], "XAF")
	is.Equal(receivedBody["totalAmount"], "1500")

	placed := resp.Result().First().(*models.Order)
	is.Equal(placed.OrderTransactionID(), "tx-9")
	is.Equal(placed.RedirectURL(), "https://pay/tx-9")
}

func TestCallbackURLIsSentWithPut(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodPut),
			path("/purchase/v1.2/api/order/setup"),
			bodyContaining(`"notificationUrl":"https://m/notify"`),
		),
		Returns(response.Code(http.StatusOK)),
	)
	defer s.Close()

	c := New(BaseURL(s.URL()), Tokens(staticToken("tok")))

	_, err := c.Save(context.Background(), models.NewCallbackURL("https://m/notify", "https://m/return"), false)
	is.NoErr(err)
	is.Equal(s.RequestCount(), 1)
}

func TestTransportErrorsHaveNoStatusCode(t *testing.T) {
	is := is.New(t)

	c := New(WithHTTPClient(failingDoer{}), Tokens(staticToken("tok")))

	_, err := c.Get(context.Background(), models.NewStatus(), nil, "")
	is.True(errors.Is(err, enkaperrors.ErrRequest))
	is.Equal(enkaperrors.StatusCode(err), 0)
}

func TestSandboxSelectsTheStagingHost(t *testing.T) {
	is := is.New(t)

	is.Equal(New(Sandbox(true)).BaseURL(), "https://api.enkap-staging.maviance.info")
	is.Equal(New().BaseURL(), "https://api-v2.enkap.cm")
	is.Equal(New(Sandbox(true), BaseURL("http://local/")).BaseURL(), "http://local")
}

func validOrder(txid string) *models.Order {
	o := models.NewOrder(
		models.Currency("xaf"),
		models.Description("Two books"),
		models.MerchantReference(models.NewMerchantReference()),
		models.TotalAmount(1500),
	)

	if txid != "" {
		o.SetOrderTransactionID(txid)
	}

	return o
}

type staticToken string

func (t staticToken) AccessToken(context.Context) (string, error) {
	return string(t), nil
}

type countingTokens struct {
	calls int
}

func (t *countingTokens) AccessToken(context.Context) (string, error) {
	t.calls++
	return "tok", nil
}

type failingDoer struct{}

func (failingDoer) Do(*http.Request) (*http.Response, error) {
	return nil, fmt.Errorf("connection refused")
}
