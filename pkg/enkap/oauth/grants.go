package oauth

import (
	"fmt"
	"strings"

	"github.com/camoo/enkap-go/pkg/enkap/errors"
	"github.com/cespare/xxhash/v2"
)

// GrantType is the wire value of an oauth grant_type
type GrantType string

const (
	ClientCredentials GrantType = "client_credentials"
	Password          GrantType = "password"
	RefreshToken      GrantType = "refresh_token"
	AuthCode          GrantType = "authorization_code"
	JWTBearer         GrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	SAML2Bearer       GrantType = "urn:ietf:params:oauth:grant-type:saml2-bearer"
	TokenExchange     GrantType = "urn:ietf:params:oauth:grant-type:token-exchange"
	IWANTLM           GrantType = "iwa-ntlm"
)

var grantNames = map[string]GrantType{
	"CLIENT_CREDENTIALS": ClientCredentials,
	"PASSWORD":           Password,
	"REFRESH_TOKEN":      RefreshToken,
	"AUTH_CODE":          AuthCode,
	"JWT_BEARER":         JWTBearer,
	"SAML2_BEARER":       SAML2Bearer,
	"TOKEN_EXCHANGE":     TokenExchange,
	"IWA_NTLM":           IWANTLM,
}

// GrantTypeFromName resolves a grant by its enum name, ignoring case
func GrantTypeFromName(name string) (GrantType, error) {
	g, ok := grantNames[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return "", errors.NewParameterError(fmt.Sprintf("invalid grant type name: %s", name))
	}
	return g, nil
}

// Name returns the enum name of the grant
func (g GrantType) Name() string {
	for name, grant := range grantNames {
		if grant == g {
			return name
		}
	}
	return ""
}

// Params are the grant specific inputs of a token request
type Params map[string]string

type grantRules struct {
	required []string
	optional []string
}

var rules = map[GrantType]grantRules{
	ClientCredentials: {},
	IWANTLM:           {},
	Password:          {required: []string{"username", "password"}},
	RefreshToken:      {required: []string{"refresh_token"}},
	AuthCode:          {required: []string{"code", "redirect_uri"}, optional: []string{"code_verifier"}},
	JWTBearer:         {required: []string{"assertion"}},
	SAML2Bearer:       {required: []string{"saml_assertion"}},
	TokenExchange: {
		required: []string{"subject_token", "subject_token_type"},
		optional: []string{"actor_token", "actor_token_type", "audience", "requested_token_type"},
	},
}

// buildBody returns the token request parameters for grant, failing with a
// parameter error when a required value is missing or empty.
func buildBody(grant GrantType, params Params) (map[string]string, error) {
	r, ok := rules[grant]
	if !ok {
		return nil, errors.NewParameterError(fmt.Sprintf("unsupported grant type: %s", grant))
	}

	body := map[string]string{"grant_type": string(grant)}

	if scope := params["scope"]; scope != "" {
		body["scope"] = scope
	}

	for _, key := range r.required {
		v := params[key]
		if v == "" {
			return nil, errors.NewParameterError(fmt.Sprintf("missing required parameter: %s", key))
		}
		body[key] = v
	}

	for _, key := range r.optional {
		if v := params[key]; v != "" {
			body[key] = v
		}
	}

	return body, nil
}

// discriminator partitions the token cache between principals of a grant
func discriminator(grant GrantType, params Params) string {
	switch grant {
	case Password:
		return params["username"]
	case RefreshToken:
		return shortHash(params["refresh_token"])
	case AuthCode:
		return shortHash(params["code"])
	case TokenExchange:
		return shortHash(params["subject_token"] + "|" + params["audience"])
	}
	return ""
}

func shortHash(value string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(value))[:16]
}
