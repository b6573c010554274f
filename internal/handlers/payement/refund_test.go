package payement

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"lumea_back_end/internal/models"
	"lumea_back_end/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83"
)

func newRefundRouter(t *testing.T) (*gin.Engine, *repository.MemoryOrderRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := repository.NewMemoryOrderRepository()
	oldOrders := Orders
	Orders = mem
	t.Cleanup(func() { Orders = oldOrders })

	r := gin.New()
	r.POST("/api/payments/refund", RefundPayment)
	return r, mem
}

func stubRefund(t *testing.T, fn func(params *stripe.RefundParams) (*stripe.Refund, error)) {
	t.Helper()
	old := createRefund
	createRefund = fn
	t.Cleanup(func() { createRefund = old })
}

func paidOrder(t *testing.T, mem *repository.MemoryOrderRepository, paymentIntentID string) models.Order {
	t.Helper()
	order := models.Order{Type: models.OrderTypeOneTime, Status: models.OrderStatusCreated, Currency: "eur", ActualAmount: 1998}
	require.NoError(t, mem.CreateOrder(context.Background(), &order))
	require.NoError(t, mem.MarkPaid(context.Background(), order.ID, paymentIntentID, ""))
	return order
}

func TestRefundPaidOrder(t *testing.T) {
	r, mem := newRefundRouter(t)
	order := paidOrder(t, mem, "pi_123")

	var captured *stripe.RefundParams
	stubRefund(t, func(params *stripe.RefundParams) (*stripe.Refund, error) {
		captured = params
		return &stripe.Refund{ID: "re_1"}, nil
	})

	w := postJSON(r, "/api/payments/refund", fmt.Sprintf(`{"order_id": %q}`, order.ID.String()))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "re_1")

	require.NotNil(t, captured)
	assert.Equal(t, "pi_123", *captured.PaymentIntent)

	got, _ := mem.GetOrder(context.Background(), order.ID)
	assert.Equal(t, models.OrderStatusRefunded, got.Status)
}

func TestRefundPartialAmount(t *testing.T) {
	r, mem := newRefundRouter(t)
	order := paidOrder(t, mem, "pi_123")
	require.NoError(t, mem.AttachCheckoutSession(context.Background(), order.ID, "cs_1", 1998, 1998))

	var captured *stripe.RefundParams
	stubRefund(t, func(params *stripe.RefundParams) (*stripe.Refund, error) {
		captured = params
		return &stripe.Refund{ID: "re_partial"}, nil
	})

	w := postJSON(r, "/api/payments/refund",
		fmt.Sprintf(`{"order_id": %q, "amount": 500}`, order.ID.String()))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, captured)
	assert.Equal(t, int64(500), *captured.Amount)

	// Montant supérieur à la commande refusé avant tout appel Stripe.
	other := paidOrder(t, mem, "pi_456")
	require.NoError(t, mem.AttachCheckoutSession(context.Background(), other.ID, "cs_2", 1000, 1000))
	w = postJSON(r, "/api/payments/refund",
		fmt.Sprintf(`{"order_id": %q, "amount": 5000}`, other.ID.String()))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "AMOUNT_TOO_LARGE")
}

func TestRefundUnknownOrder(t *testing.T) {
	r, _ := newRefundRouter(t)

	w := postJSON(r, "/api/payments/refund", fmt.Sprintf(`{"order_id": %q}`, gocql.TimeUUID().String()))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRefundWithoutPaymentIntent(t *testing.T) {
	r, mem := newRefundRouter(t)
	order := paidOrder(t, mem, "")

	called := false
	stubRefund(t, func(params *stripe.RefundParams) (*stripe.Refund, error) {
		called = true
		return nil, nil
	})

	w := postJSON(r, "/api/payments/refund", fmt.Sprintf(`{"order_id": %q}`, order.ID.String()))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "NO_PAYMENT_INTENT")
	assert.False(t, called)

	got, _ := mem.GetOrder(context.Background(), order.ID)
	assert.Equal(t, models.OrderStatusPaid, got.Status, "aucune mutation sans remboursement")
}

func TestRefundIllegalState(t *testing.T) {
	r, mem := newRefundRouter(t)

	// Commande encore en created : pas de transition created -> refunded.
	order := models.Order{Type: models.OrderTypeOneTime, Status: models.OrderStatusCreated, Currency: "eur", StripePaymentIntentID: "pi_x"}
	require.NoError(t, mem.CreateOrder(context.Background(), &order))

	called := false
	stubRefund(t, func(params *stripe.RefundParams) (*stripe.Refund, error) {
		called = true
		return nil, nil
	})

	w := postJSON(r, "/api/payments/refund", fmt.Sprintf(`{"order_id": %q}`, order.ID.String()))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "ILLEGAL_STATE")
	assert.False(t, called, "le statut est vérifié avant tout appel Stripe")
}

func TestRefundAlreadyRefunded(t *testing.T) {
	r, mem := newRefundRouter(t)
	order := paidOrder(t, mem, "pi_123")
	require.NoError(t, mem.MarkRefunded(context.Background(), order.ID))

	stubRefund(t, func(params *stripe.RefundParams) (*stripe.Refund, error) {
		t.Fatal("Stripe ne doit pas être rappelé pour un double remboursement")
		return nil, nil
	})

	w := postJSON(r, "/api/payments/refund", fmt.Sprintf(`{"order_id": %q}`, order.ID.String()))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRefundStripeFailureKeepsOrderPaid(t *testing.T) {
	r, mem := newRefundRouter(t)
	order := paidOrder(t, mem, "pi_123")

	stubRefund(t, func(params *stripe.RefundParams) (*stripe.Refund, error) {
		return nil, errors.New("stripe indisponible")
	})

	w := postJSON(r, "/api/payments/refund", fmt.Sprintf(`{"order_id": %q}`, order.ID.String()))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	got, _ := mem.GetOrder(context.Background(), order.ID)
	assert.Equal(t, models.OrderStatusPaid, got.Status)
}
