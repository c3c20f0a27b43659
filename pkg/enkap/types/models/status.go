package models

import (
	"context"
	"net/http"
	"slices"

	"github.com/camoo/enkap-go/pkg/enkap/types/fields"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
)

type PaymentStatus string

const (
	StatusCreated     PaymentStatus = "CREATED"
	StatusInitialised PaymentStatus = "INITIALISED"
	StatusInProgress  PaymentStatus = "IN_PROGRESS"
	StatusConfirmed   PaymentStatus = "CONFIRMED"
	StatusFailed      PaymentStatus = "FAILED"
	StatusCanceled    PaymentStatus = "CANCELED"
	StatusRefunded    PaymentStatus = "REFUNDED"
	StatusExpired     PaymentStatus = "EXPIRED"
	StatusUnknown     PaymentStatus = "UNKNOWN"
)

var paymentStatuses = []PaymentStatus{
	StatusCreated, StatusInitialised, StatusInProgress, StatusConfirmed,
	StatusFailed, StatusCanceled, StatusRefunded, StatusExpired, StatusUnknown,
}

func IsValidPaymentStatus(status string) bool {
	return slices.Contains(paymentStatuses, PaymentStatus(status))
}

func parsePaymentStatus(status string) PaymentStatus {
	if !IsValidPaymentStatus(status) {
		return StatusUnknown
	}
	return PaymentStatus(status)
}

const StatusTypeName string = "Status"

var statusSchema = &Schema{
	Name:    StatusTypeName,
	URI:     "/api/order/status",
	Methods: []string{http.MethodGet},
	Fields: []fields.Descriptor{
		fields.Field("status", fields.String),
	},
}

type Status struct {
	*Base
}

func NewStatus() *Status {
	s := &Status{}
	s.Base = newBase(statusSchema, s)
	return s
}

// Raw returns the status exactly as it was received
func (s *Status) Raw() string {
	return s.getString("status")
}

// Current returns the payment status, or StatusUnknown if the received
// value is missing or not recognised.
func (s *Status) Current(ctx context.Context) PaymentStatus {
	raw := s.Raw()

	if !IsValidPaymentStatus(raw) {
		logging.GetFromContext(ctx).Warn("invalid payment status value encountered", "status", raw)
		return StatusUnknown
	}

	return PaymentStatus(raw)
}

func (s *Status) is(status PaymentStatus) bool {
	return parsePaymentStatus(s.Raw()) == status
}

func (s *Status) Initialized() bool { return s.is(StatusInitialised) }
func (s *Status) Confirmed() bool   { return s.is(StatusConfirmed) }
func (s *Status) Canceled() bool    { return s.is(StatusCanceled) }
func (s *Status) Failed() bool      { return s.is(StatusFailed) }
func (s *Status) Created() bool     { return s.is(StatusCreated) }
func (s *Status) InProgress() bool  { return s.is(StatusInProgress) }
