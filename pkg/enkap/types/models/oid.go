package models

import (
	"github.com/camoo/enkap-go/pkg/enkap/types/fields"
)

const OIDTypeName string = "OID"

var oidSchema = &Schema{
	Name: OIDTypeName,
	Fields: []fields.Descriptor{
		fields.Field("uuid", fields.String),
		fields.Field("version", fields.Int),
	},
}

// OID is the server side identity of an order or payment
type OID struct {
	*Base
}

func NewOID() *OID {
	id := &OID{}
	id.Base = newBase(oidSchema, id)
	return id
}

func (id *OID) UUID() string {
	return id.getString("uuid")
}

func (id *OID) Version() int {
	return id.getInt("version")
}
