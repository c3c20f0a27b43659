package models

import (
	"net/http"

	"github.com/camoo/enkap-go/pkg/enkap/types/fields"
)

const CallbackURLTypeName string = "CallbackUrl"

var callbackURLSchema = &Schema{
	Name:    CallbackURLTypeName,
	URI:     "/api/order/setup",
	Methods: []string{http.MethodPut},
	Fields: []fields.Descriptor{
		fields.Mandatory("notificationUrl", fields.String),
		fields.Mandatory("returnUrl", fields.String),
	},
}

// CallbackURL holds the merchant endpoints the payment api notifies and
// redirects to.
type CallbackURL struct {
	*Base
}

func NewCallbackURL(notificationURL, returnURL string) *CallbackURL {
	cb := &CallbackURL{}
	cb.Base = newBase(callbackURLSchema, cb)

	if notificationURL != "" {
		cb.SetNotificationURL(notificationURL)
	}

	if returnURL != "" {
		cb.SetReturnURL(returnURL)
	}

	return cb
}

func (cb *CallbackURL) NotificationURL() string {
	return cb.getString("notificationUrl")
}

func (cb *CallbackURL) SetNotificationURL(url string) {
	cb.Set("notificationUrl", url)
}

func (cb *CallbackURL) ReturnURL() string {
	return cb.getString("returnUrl")
}

func (cb *CallbackURL) SetReturnURL(url string) {
	cb.Set("returnUrl", url)
}
