package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/camoo/enkap-go/pkg/enkap"
	"github.com/camoo/enkap-go/pkg/enkap/errors"
	"github.com/camoo/enkap-go/pkg/enkap/types"
	"github.com/camoo/enkap-go/pkg/enkap/types/models"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type EnkapClient interface {
	PerformRequest(ctx context.Context, method, path string, data map[string]any, headers map[string][]string, resultType string) (*enkap.ModelResponse, error)
	Get(ctx context.Context, m types.Model, where map[string]any, uri string) (*enkap.ModelResponse, error)
	Post(ctx context.Context, path string, data map[string]any, headers map[string][]string, resultType string) (*enkap.ModelResponse, error)
	Save(ctx context.Context, m types.Model, delete bool) (*enkap.ModelResponse, error)

	BaseURL() string
	Sandbox() bool
}

// Doer sends a single http request
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenProvider supplies the bearer token used for resource requests
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// Option configures the client returned by New
type Option func(*enkapClient)

const DefaultTimeout time.Duration = 30 * time.Second

var DefaultUserAgent string = fmt.Sprintf("Enkap/GoClient/%s (+https://github.com/camoo/enkap-go)", enkap.Version)

func Debug(enabled bool) Option {
	return func(c *enkapClient) {
		c.debug = enabled
	}
}

func Sandbox(enabled bool) Option {
	return func(c *enkapClient) {
		c.sandbox = enabled
	}
}

// BaseURL overrides the environment specific api root
func BaseURL(baseURL string) Option {
	return func(c *enkapClient) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

func Timeout(timeout time.Duration) Option {
	return func(c *enkapClient) {
		c.timeout = timeout
	}
}

func WithHTTPClient(doer Doer) Option {
	return func(c *enkapClient) {
		c.httpClient = doer
	}
}

func UserAgent(userAgent string) Option {
	return func(c *enkapClient) {
		c.userAgent = userAgent
	}
}

func Tokens(tokens TokenProvider) Option {
	return func(c *enkapClient) {
		c.tokens = tokens
	}
}

func New(options ...Option) EnkapClient {
	c := &enkapClient{
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
	}

	for _, option := range options {
		option(c)
	}

	if c.baseURL == "" {
		c.baseURL = enkap.BaseURL(c.sandbox)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   c.timeout,
		}
	}

	return c
}

const (
	TraceAttributeMethod     string = "enkap-method"
	TraceAttributePath       string = "enkap-path"
	TraceAttributeResultType string = "enkap-result-type"
)

var tracer = otel.Tracer("enkap-client")

var requestVerbs = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}

type enkapClient struct {
	baseURL    string
	sandbox    bool
	debug      bool
	timeout    time.Duration
	userAgent  string
	httpClient Doer
	tokens     TokenProvider
}

func (c *enkapClient) BaseURL() string {
	return c.baseURL
}

func (c *enkapClient) Sandbox() bool {
	return c.sandbox
}

func (c *enkapClient) Get(ctx context.Context, m types.Model, where map[string]any, uri string) (*enkap.ModelResponse, error) {
	if uri == "" {
		uri = m.ResourceURI()
	}

	headers, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}

	return c.PerformRequest(ctx, http.MethodGet, enkap.ResourcePrefix+uri, where, headers, m.ModelName())
}

func (c *enkapClient) Post(ctx context.Context, path string, data map[string]any, headers map[string][]string, resultType string) (*enkap.ModelResponse, error) {
	return c.PerformRequest(ctx, http.MethodPost, path, data, headers, resultType)
}

// Save validates m and submits it with the verb its type supports. Deletes
// are sent to the DeleteURI of the model when it has one.
func (c *enkapClient) Save(ctx context.Context, m types.Model, delete bool) (*enkap.ModelResponse, error) {
	if err := m.Validate(true); err != nil {
		return nil, err
	}

	supported := m.SupportedMethods()

	method := http.MethodPost
	if delete {
		method = http.MethodDelete
	} else if slices.Contains(supported, http.MethodPut) {
		method = http.MethodPut
	}

	if !slices.Contains(supported, method) {
		return nil, errors.NewCapabilityError(fmt.Sprintf("%s does not support [%s] via the API", m.ModelName(), method))
	}

	uri := m.ResourceURI()
	var data map[string]any

	if delete {
		if d, ok := m.(interface{ DeleteURI() string }); ok {
			uri = d.DeleteURI()
		}
	} else {
		data = m.Serialize(false)
	}

	headers, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}

	return c.PerformRequest(ctx, method, enkap.ResourcePrefix+uri, data, headers, m.ModelName())
}

func (c *enkapClient) bearer(ctx context.Context) (map[string][]string, error) {
	if c.tokens == nil {
		return nil, errors.NewAccessTokenError("no token provider configured", nil)
	}

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	return map[string][]string{
		"Authorization": {"Bearer " + token},
	}, nil
}

// PerformRequest sends a request to path, relative to the api root, and
// decodes the response into a result set of resultType. An empty
// resultType yields untyped payloads.
func (c *enkapClient) PerformRequest(ctx context.Context, method, path string, data map[string]any, headers map[string][]string, resultType string) (*enkap.ModelResponse, error) {
	var err error

	ctx, span := tracer.Start(ctx, "perform-request",
		trace.WithAttributes(attribute.String(TraceAttributeMethod, method)),
		trace.WithAttributes(attribute.String(TraceAttributePath, path)),
		trace.WithAttributes(attribute.String(TraceAttributeResultType, resultType)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	if !hasHeader(headers, "Authorization") {
		err = errors.NewValidationError("an Authorization header is required")
		return nil, err
	}

	if !slices.Contains(requestVerbs, method) {
		err = errors.NewValidationError(fmt.Sprintf("request method %q is not supported", method))
		return nil, err
	}

	endpoint := c.baseURL + path
	var body io.Reader

	if method == http.MethodGet || method == http.MethodDelete {
		endpoint = withQuery(endpoint, data)
	} else if data != nil {
		b, jsonErr := json.Marshal(data)
		if jsonErr != nil {
			err = errors.NewClientError(0, fmt.Errorf("failed to encode request body: %s (%w)", jsonErr.Error(), errors.ErrInternal))
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	resp, respBody, err := c.callEnkap(ctx, method, endpoint, body, headers)
	if err != nil {
		err = errors.NewClientError(0, err)
		return nil, err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		err = errors.NewClientError(resp.StatusCode, errors.NewBadResponseError(resp.StatusCode, respBody))
		return nil, err
	}

	if method == http.MethodDelete || len(bytes.TrimSpace(respBody)) == 0 {
		return enkap.NewModelResponse(enkap.NewResultSet(), resp.StatusCode, resp.Header), nil
	}

	result, err := c.decode(respBody, resultType)
	if err != nil {
		err = errors.NewClientError(resp.StatusCode, err)
		return nil, err
	}

	return enkap.NewModelResponse(result, resp.StatusCode, resp.Header), nil
}

func (c *enkapClient) decode(body []byte, resultType string) (*enkap.ResultSet, error) {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %s (%w)", err.Error(), errors.ErrDecode)
	}

	var records []map[string]any

	switch v := decoded.(type) {
	case map[string]any:
		records = append(records, v)
	case []any:
		for _, element := range v {
			record, ok := element.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("expected a list of objects but found %T (%w)", element, errors.ErrDecode)
			}
			records = append(records, record)
		}
	default:
		return nil, fmt.Errorf("unexpected response body of type %T (%w)", decoded, errors.ErrDecode)
	}

	results := make([]types.Model, 0, len(records))

	for _, record := range records {
		m, err := c.newResult(resultType)
		if err != nil {
			return nil, err
		}

		if err := m.Load(record, true); err != nil {
			return nil, fmt.Errorf("failed to load %s: %s (%w)", resultType, err.Error(), errors.ErrDecode)
		}

		results = append(results, m)
	}

	return enkap.NewResultSet(results...), nil
}

func (c *enkapClient) newResult(resultType string) (types.Model, error) {
	if resultType == "" {
		return enkap.Payload{}, nil
	}

	m, ok := models.New(resultType)
	if !ok {
		return nil, fmt.Errorf("unknown result type %q (%w)", resultType, errors.ErrInternal)
	}

	if a, ok := m.(interface{ AttachClient(models.Dispatcher) }); ok {
		a.AttachClient(c)
	}

	return m, nil
}

func (c *enkapClient) callEnkap(ctx context.Context, method, endpoint string, body io.Reader, headers map[string][]string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %s (%w)", err.Error(), errors.ErrInternal)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for header, headerValue := range headers {
		req.Header.Del(header)
		for _, val := range headerValue {
			req.Header.Add(header, val)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to send request: %s (%w)", err.Error(), errors.ErrRequest)
	}

	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %s (%w)", err.Error(), errors.ErrRequest)
	}

	if c.debug {
		reqbytes, _ := httputil.DumpRequest(req, false)
		respbytes, _ := httputil.DumpResponse(resp, false)

		log := logging.GetFromContext(ctx)
		if resp.StatusCode >= http.StatusBadRequest {
			log.Error("request failed", "request", string(reqbytes), "response", string(respbytes), "body", string(respBody))
		} else {
			log.Debug("request completed", "request", string(reqbytes), "response", string(respbytes))
		}
	}

	return resp, respBody, nil
}

func hasHeader(headers map[string][]string, name string) bool {
	for k, v := range headers {
		if strings.EqualFold(k, name) && len(v) > 0 && v[0] != "" {
			return true
		}
	}
	return false
}

func withQuery(endpoint string, data map[string]any) string {
	if len(data) == 0 {
		return endpoint
	}

	params := url.Values{}
	for k, v := range data {
		params.Set(k, fmt.Sprint(v))
	}

	separator := "?"
	if strings.Contains(endpoint, "?") {
		separator = "&"
	}

	return endpoint + separator + params.Encode()
}
