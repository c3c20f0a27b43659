package models

import (
	"github.com/camoo/enkap-go/pkg/enkap/types/fields"
)

const LineItemTypeName string = "LineItem"

var lineItemSchema = &Schema{
	Name: LineItemTypeName,
	Fields: []fields.Descriptor{
		fields.Field("itemId", fields.String),
		fields.Field("particulars", fields.String),
		fields.Field("quantity", fields.Int),
		fields.Field("unitCost", fields.Float),
		fields.Field("subTotal", fields.Float),
	},
}

// LineItem is a single row of an order. It cannot be submitted on its own,
// so changes to it mark the owning order dirty instead.
type LineItem struct {
	*Base
}

type LineItemDecoratorFunc func(li *LineItem)

func NewLineItem(decorators ...LineItemDecoratorFunc) *LineItem {
	li := &LineItem{}
	li.Base = newBase(lineItemSchema, li)

	for _, decorator := range decorators {
		decorator(li)
	}

	return li
}

func (li *LineItem) ItemID() string {
	return li.getString("itemId")
}

func (li *LineItem) SetItemID(id string) {
	li.Set("itemId", id)
}

func (li *LineItem) Particulars() string {
	return li.getString("particulars")
}

func (li *LineItem) SetParticulars(particulars string) {
	li.Set("particulars", particulars)
}

func (li *LineItem) Quantity() int {
	return li.getInt("quantity")
}

func (li *LineItem) SetQuantity(quantity int) {
	li.Set("quantity", quantity)
}

func (li *LineItem) UnitCost() float64 {
	return li.getFloat("unitCost")
}

func (li *LineItem) SetUnitCost(cost float64) {
	li.Set("unitCost", cost)
}

func (li *LineItem) SubTotal() float64 {
	return li.getFloat("subTotal")
}

func (li *LineItem) SetSubTotal(total float64) {
	li.Set("subTotal", total)
}

func ItemID(id string) LineItemDecoratorFunc {
	return func(li *LineItem) { li.SetItemID(id) }
}

func Particulars(particulars string) LineItemDecoratorFunc {
	return func(li *LineItem) { li.SetParticulars(particulars) }
}

func Quantity(quantity int) LineItemDecoratorFunc {
	return func(li *LineItem) { li.SetQuantity(quantity) }
}

func UnitCost(cost float64) LineItemDecoratorFunc {
	return func(li *LineItem) { li.SetUnitCost(cost) }
}

func SubTotal(total float64) LineItemDecoratorFunc {
	return func(li *LineItem) { li.SetSubTotal(total) }
}
