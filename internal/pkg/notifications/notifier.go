package notifications

import (
	"context"
	"fmt"
	"sync"

	"github.com/camoo/enkap-go/pkg/enkap/types/models"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Notifier processes payment notifications one at a time, in the order
// they were received.
type Notifier interface {
	Start() error
	Stop() error

	PaymentNotified(ctx context.Context, merchantReferenceID, reportedStatus string)
}

// StatusLookup fetches the authoritative status of an order
type StatusLookup interface {
	GetByOrderMerchantID(ctx context.Context, merchantReferenceID string) (*models.Status, error)
}

// Handler receives the status of an order after a notification has been
// confirmed against the payment api.
type Handler func(ctx context.Context, merchantReferenceID string, status models.PaymentStatus) error

var tracer = otel.Tracer("enkap-notifier/notifications")

type action func()

type notifier struct {
	mu      sync.Mutex
	started bool

	statuses StatusLookup
	handler  Handler

	queue chan action
}

func NewNotifier(ctx context.Context, statuses StatusLookup, handler Handler) (Notifier, error) {
	if statuses == nil {
		return nil, fmt.Errorf("a status lookup is required")
	}

	if handler == nil {
		handler = LogStatus
	}

	return &notifier{
		statuses: statuses,
		handler:  handler,
	}, nil
}

func (n *notifier) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.started {
		return fmt.Errorf("already started")
	}

	n.started = true
	n.queue = make(chan action, 32)

	go n.run(n.queue)

	return nil
}

func (n *notifier) Stop() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.started {
		n.started = false

		resultChan := make(chan bool)
		queue := n.queue

		queue <- func() {
			close(queue)
			resultChan <- true
		}

		<-resultChan
	}
	return nil
}

func (n *notifier) PaymentNotified(ctx context.Context, merchantReferenceID, reportedStatus string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.started {
		return
	}

	var err error

	logger := logging.GetFromContext(ctx).With("merchantReferenceId", merchantReferenceID)

	ctx, span := tracer.Start(
		tracing.ExtractHeaders(context.Background(), tracing.InjectHeaders(ctx)),
		"payment-notified",
		trace.WithAttributes(attribute.String("merchant-reference-id", merchantReferenceID)),
	)
	ctx = logging.NewContextWithLogger(ctx, logger)

	n.queue <- func() {
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		err = n.confirm(ctx, merchantReferenceID, reportedStatus)
		if err != nil {
			logger.Error("failed to process payment notification", "err", err.Error())
		}
	}
}

func (n *notifier) confirm(ctx context.Context, merchantReferenceID, reportedStatus string) error {
	status, err := n.statuses.GetByOrderMerchantID(ctx, merchantReferenceID)
	if err != nil {
		return fmt.Errorf("unable to fetch order status: %w", err)
	}

	current := status.Current(ctx)

	if reportedStatus != "" && reportedStatus != string(current) {
		logging.GetFromContext(ctx).Warn("notified status differs from the status reported by the api",
			"notified", reportedStatus, "current", string(current))
	}

	return n.handler(ctx, merchantReferenceID, current)
}

func (n *notifier) run(queue chan action) {
	for action := range queue {
		if action == nil {
			return
		}

		action()
	}
}

// LogStatus is the default handler
func LogStatus(ctx context.Context, merchantReferenceID string, status models.PaymentStatus) error {
	logging.GetFromContext(ctx).Info("payment status changed", "status", string(status))
	return nil
}
