package models

import (
	"github.com/camoo/enkap-go/pkg/enkap/types/fields"
)

const TokenTypeName string = "Token"

var tokenSchema = &Schema{
	Name: TokenTypeName,
	URI:  "/token",
	Fields: []fields.Descriptor{
		fields.Field("access_token", fields.String),
		fields.Field("expires_in", fields.Int),
		fields.Field("token_type", fields.String),
		fields.Field("scope", fields.String),
	},
}

// Token is the response of the oauth token endpoint
type Token struct {
	*Base
}

func NewToken() *Token {
	t := &Token{}
	t.Base = newBase(tokenSchema, t)
	return t
}

func (t *Token) AccessToken() string {
	return t.getString("access_token")
}

// ExpiresIn is the lifetime of the token in seconds
func (t *Token) ExpiresIn() int {
	return t.getInt("expires_in")
}

func (t *Token) TokenType() string {
	return t.getString("token_type")
}

func (t *Token) Scope() string {
	return t.getString("scope")
}
