package models

import (
	"net/http"
	"time"

	"github.com/camoo/enkap-go/pkg/enkap/types"
	"github.com/camoo/enkap-go/pkg/enkap/types/fields"
)

const PaymentTypeName string = "Payment"

var paymentSchema = &Schema{
	Name:    PaymentTypeName,
	URI:     "/api/order",
	Methods: []string{http.MethodGet},
	Fields: []fields.Descriptor{
		fields.Field("paymentStatus", fields.String),
		fields.Field("payerAccountName", fields.String),
		fields.Field("payerAccountNumber", fields.String),
		fields.Field("paymentProviderId", fields.String),
		fields.Field("paymentProviderName", fields.String),
		fields.Field("orderDate", fields.Date),
		fields.Field("paymentDate", fields.Date),
		fields.Nested("id", func() types.Model { return NewOID() }),
		fields.Nested("order", func() types.Model { return NewOrder() }),
	},
}

type Payment struct {
	*Base
}

func NewPayment() *Payment {
	p := &Payment{}
	p.Base = newBase(paymentSchema, p)
	return p
}

func (p *Payment) PaymentStatus() PaymentStatus {
	return parsePaymentStatus(p.getString("paymentStatus"))
}

func (p *Payment) PayerAccountName() string {
	return p.getString("payerAccountName")
}

func (p *Payment) PayerAccountNumber() string {
	return p.getString("payerAccountNumber")
}

func (p *Payment) PaymentProviderID() string {
	return p.getString("paymentProviderId")
}

func (p *Payment) PaymentProviderName() string {
	return p.getString("paymentProviderName")
}

func (p *Payment) OrderDate() time.Time {
	return p.getTime("orderDate")
}

func (p *Payment) PaymentDate() time.Time {
	return p.getTime("paymentDate")
}

func (p *Payment) ID() *OID {
	id, _ := p.Get("id").(*OID)
	return id
}

// Order returns the order the payment was made for, or nil
func (p *Payment) Order() *Order {
	o, _ := p.Get("order").(*Order)
	return o
}
