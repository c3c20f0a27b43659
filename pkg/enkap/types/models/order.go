package models

import (
	"net/http"
	"strings"
	"time"

	"github.com/camoo/enkap-go/pkg/enkap/types"
	"github.com/camoo/enkap-go/pkg/enkap/types/fields"
	"github.com/google/uuid"
)

const OrderTypeName string = "Order"

var orderSchema = &Schema{
	Name:    OrderTypeName,
	URI:     "/api/order",
	Methods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
	Fields: []fields.Descriptor{
		fields.Mandatory("currency", fields.String),
		fields.Field("customerName", fields.String),
		fields.Mandatory("description", fields.String),
		fields.Field("email", fields.String),
		fields.Field("expiryDate", fields.Date),
		fields.Nested("id", func() types.Model { return NewOID() }),
		fields.NestedArray("items", func() types.Model { return NewLineItem() }),
		fields.Field("langKey", fields.String),
		fields.Mandatory("merchantReference", fields.String),
		fields.Field("optRefOne", fields.String),
		fields.Field("optRefTwo", fields.String),
		fields.Field("orderDate", fields.Date),
		fields.Field("phoneNumber", fields.String),
		fields.Field("receiptUrl", fields.String),
		fields.Mandatory("totalAmount", fields.Float),
		fields.Field("merchantReferenceId", fields.String),
		fields.Field("orderTransactionId", fields.String),
		fields.Field("redirectUrl", fields.String),
	},
}

type Order struct {
	*Base
}

type OrderDecoratorFunc func(o *Order)

func NewOrder(decorators ...OrderDecoratorFunc) *Order {
	o := &Order{}
	o.Base = newBase(orderSchema, o)

	for _, decorator := range decorators {
		decorator(o)
	}

	return o
}

// NewMerchantReference returns a fresh random merchant reference
func NewMerchantReference() string {
	return uuid.NewString()
}

func (o *Order) Currency() string { return o.getString("currency") }

// SetCurrency stores the currency code in upper case
func (o *Order) SetCurrency(currency string) {
	o.Set("currency", strings.ToUpper(currency))
}

func (o *Order) CustomerName() string        { return o.getString("customerName") }
func (o *Order) SetCustomerName(name string) { o.Set("customerName", name) }

func (o *Order) Description() string               { return o.getString("description") }
func (o *Order) SetDescription(description string) { o.Set("description", description) }

func (o *Order) Email() string         { return o.getString("email") }
func (o *Order) SetEmail(email string) { o.Set("email", email) }

func (o *Order) ExpiryDate() time.Time       { return o.getTime("expiryDate") }
func (o *Order) SetExpiryDate(d time.Time)   { o.Set("expiryDate", d) }
func (o *Order) OrderDate() time.Time        { return o.getTime("orderDate") }
func (o *Order) SetOrderDate(d time.Time)    { o.Set("orderDate", d) }
func (o *Order) LangKey() string             { return o.getString("langKey") }
func (o *Order) SetLangKey(lang string)      { o.Set("langKey", lang) }
func (o *Order) OptRefOne() string           { return o.getString("optRefOne") }
func (o *Order) SetOptRefOne(ref string)     { o.Set("optRefOne", ref) }
func (o *Order) OptRefTwo() string           { return o.getString("optRefTwo") }
func (o *Order) SetOptRefTwo(ref string)     { o.Set("optRefTwo", ref) }
func (o *Order) PhoneNumber() string         { return o.getString("phoneNumber") }
func (o *Order) SetPhoneNumber(phone string) { o.Set("phoneNumber", phone) }
func (o *Order) ReceiptURL() string          { return o.getString("receiptUrl") }
func (o *Order) SetReceiptURL(url string)    { o.Set("receiptUrl", url) }

func (o *Order) MerchantReference() string          { return o.getString("merchantReference") }
func (o *Order) SetMerchantReference(ref string)    { o.Set("merchantReference", ref) }
func (o *Order) TotalAmount() float64               { return o.getFloat("totalAmount") }
func (o *Order) SetTotalAmount(amount float64)      { o.Set("totalAmount", amount) }
func (o *Order) MerchantReferenceID() string        { return o.getString("merchantReferenceId") }
func (o *Order) OrderTransactionID() string         { return o.getString("orderTransactionId") }
func (o *Order) SetOrderTransactionID(txid string)  { o.Set("orderTransactionId", txid) }
func (o *Order) RedirectURL() string                { return o.getString("redirectUrl") }

func (o *Order) ID() *OID {
	id, _ := o.Get("id").(*OID)
	return id
}

// SetID replaces the order id. A nil id unsets it.
func (o *Order) SetID(id *OID) {
	if id == nil {
		o.Set("id", nil)
		return
	}

	id.associate("id", o.Base)
	o.Set("id", id)
}

// Items returns the line items of the order, creating an empty collection
// on first use.
func (o *Order) Items() *Collection {
	if items, ok := o.Get("items").(*Collection); ok {
		return items
	}

	items := NewCollection()
	items.associate("items", o.Base)
	o.data["items"] = items

	return items
}

func (o *Order) AddItem(item *LineItem) {
	o.Items().Append(item)
}

// DeleteURI is the resource uri used when the order is deleted
func (o *Order) DeleteURI() string {
	return o.ResourceURI() + "/" + o.OrderTransactionID()
}

func Currency(currency string) OrderDecoratorFunc {
	return func(o *Order) { o.SetCurrency(currency) }
}

func CustomerName(name string) OrderDecoratorFunc {
	return func(o *Order) { o.SetCustomerName(name) }
}

func Description(description string) OrderDecoratorFunc {
	return func(o *Order) { o.SetDescription(description) }
}

func Email(email string) OrderDecoratorFunc {
	return func(o *Order) { o.SetEmail(email) }
}

func ExpiryDate(d time.Time) OrderDecoratorFunc {
	return func(o *Order) { o.SetExpiryDate(d) }
}

func LangKey(lang string) OrderDecoratorFunc {
	return func(o *Order) { o.SetLangKey(lang) }
}

func MerchantReference(ref string) OrderDecoratorFunc {
	return func(o *Order) { o.SetMerchantReference(ref) }
}

func OrderDate(d time.Time) OrderDecoratorFunc {
	return func(o *Order) { o.SetOrderDate(d) }
}

func PhoneNumber(phone string) OrderDecoratorFunc {
	return func(o *Order) { o.SetPhoneNumber(phone) }
}

func TotalAmount(amount float64) OrderDecoratorFunc {
	return func(o *Order) { o.SetTotalAmount(amount) }
}

func Item(item *LineItem) OrderDecoratorFunc {
	return func(o *Order) { o.AddItem(item) }
}
