package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/camoo/enkap-go/internal/pkg/notifications"
	"github.com/camoo/enkap-go/internal/pkg/presentation/api/auth"
	enkaperrors "github.com/camoo/enkap-go/pkg/enkap/errors"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("enkap-notifier/api")

// RegisterHandlers mounts the notification and return endpoints that are
// registered as callback urls with the payment api
func RegisterHandlers(ctx context.Context, r chi.Router, policies io.Reader, notifier notifications.Notifier, statuses notifications.StatusLookup) error {
	authenticator, err := auth.NewAuthenticator(ctx, policies)
	if err != nil {
		return fmt.Errorf("failed to create api authenticator: %w", err)
	}

	notificationHandler := NewNotificationHandler(notifier, authenticator)

	r.Put("/notify/{merchantReferenceId}", notificationHandler)
	r.Post("/notify/{merchantReferenceId}", notificationHandler)
	r.Get("/return/{merchantReferenceId}", NewReturnHandler(statuses))

	return nil
}

type notification struct {
	Status string `json:"status"`
}

func NewNotificationHandler(notifier notifications.Notifier, authenticator auth.Enticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "payment-notification")
		defer span.End()

		log := logging.GetFromContext(ctx)

		err = authenticator.CheckAccess(ctx, r)
		if err != nil {
			log.Warn("access not granted", "err", err.Error())
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		merchantReferenceID := strings.TrimSpace(chi.URLParam(r, "merchantReferenceId"))
		if merchantReferenceID == "" {
			http.Error(w, "a merchant reference id is required", http.StatusBadRequest)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "unable to read request body", http.StatusBadRequest)
			return
		}

		n := notification{}
		if len(body) > 0 {
			if err = json.Unmarshal(body, &n); err != nil {
				http.Error(w, "malformed notification body", http.StatusBadRequest)
				return
			}
		}

		log.Info("payment notification received", "merchantReferenceId", merchantReferenceID, "status", n.Status)

		notifier.PaymentNotified(ctx, merchantReferenceID, n.Status)

		w.WriteHeader(http.StatusOK)
	}
}

type returnResponse struct {
	MerchantReferenceID string `json:"merchantReferenceId"`
	Status              string `json:"status"`
}

func NewReturnHandler(statuses notifications.StatusLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "payment-return")
		defer span.End()

		merchantReferenceID := strings.TrimSpace(chi.URLParam(r, "merchantReferenceId"))
		if merchantReferenceID == "" {
			http.Error(w, "a merchant reference id is required", http.StatusBadRequest)
			return
		}

		status, err := statuses.GetByOrderMerchantID(ctx, merchantReferenceID)
		if err != nil {
			logging.GetFromContext(ctx).Error("failed to fetch order status", "err", err.Error())

			if enkaperrors.StatusCode(err) == http.StatusNotFound || errors.Is(err, enkaperrors.ErrNotFound) {
				http.Error(w, "order not found", http.StatusNotFound)
				return
			}

			http.Error(w, "unable to fetch order status", http.StatusBadGateway)
			return
		}

		body, _ := json.Marshal(returnResponse{
			MerchantReferenceID: merchantReferenceID,
			Status:              string(status.Current(ctx)),
		})

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}
}
