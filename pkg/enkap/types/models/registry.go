package models

import (
	"github.com/camoo/enkap-go/pkg/enkap/types"
	"github.com/camoo/enkap-go/pkg/enkap/types/fields"
)

// Registry maps the type tag of every model to a factory for it
var Registry = map[string]fields.Factory{
	CallbackURLTypeName: func() types.Model { return NewCallbackURL("", "") },
	LineItemTypeName:    func() types.Model { return NewLineItem() },
	OIDTypeName:         func() types.Model { return NewOID() },
	OrderTypeName:       func() types.Model { return NewOrder() },
	PaymentTypeName:     func() types.Model { return NewPayment() },
	StatusTypeName:      func() types.Model { return NewStatus() },
	TokenTypeName:       func() types.Model { return NewToken() },
}

// New creates an empty model for the given type tag
func New(typeName string) (types.Model, bool) {
	factory, ok := Registry[typeName]
	if !ok {
		return nil, false
	}
	return factory(), true
}
