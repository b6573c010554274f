package payement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"lumea_back_end/internal/models"
	"lumea_back_end/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWebhookRouter(t *testing.T) (*gin.Engine, *repository.MemoryOrderRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")

	mem := repository.NewMemoryOrderRepository()
	oldOrders := Orders
	Orders = mem
	t.Cleanup(func() { Orders = oldOrders })

	r := gin.New()
	r.POST("/api/payments/webhook", StripeWebhook)
	r.GET("/api/payments/orders/:id", GetOrder)
	return r, mem
}

func postWebhook(r *gin.Engine, payload string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func checkoutCompletedPayload(eventID string, orderID gocql.UUID, amount int64, paymentIntentID, subscriptionID string) string {
	object := map[string]interface{}{
		"id":           "cs_" + eventID,
		"amount_total": amount,
		"currency":     "eur",
		"metadata":     map[string]string{"orderId": orderID.String()},
	}
	if paymentIntentID != "" {
		object["payment_intent"] = paymentIntentID
	}
	if subscriptionID != "" {
		object["subscription"] = subscriptionID
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"id":   eventID,
		"type": "checkout.session.completed",
		"data": map[string]interface{}{"object": object},
	})
	return string(payload)
}

func TestWebhookCheckoutCompletedMarksOrderPaid(t *testing.T) {
	r, mem := newWebhookRouter(t)

	order := models.Order{Type: models.OrderTypeOneTime, Status: models.OrderStatusCreated, Currency: "eur", ActualAmount: 1998}
	require.NoError(t, mem.CreateOrder(context.Background(), &order))

	w := postWebhook(r, checkoutCompletedPayload("evt_1", order.ID, 1998, "pi_123", ""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"received":true`)

	got, err := mem.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, got.Status)
	assert.Equal(t, "pi_123", got.StripePaymentIntentID)

	payments, err := mem.ListPayments(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, models.PaymentStatusSucceeded, payments[0].Status)
	assert.Equal(t, int64(1998), payments[0].Amount)
	assert.Equal(t, "evt_1", payments[0].RawEventID)
}

func TestWebhookDuplicateDeliveryIsIdempotent(t *testing.T) {
	r, mem := newWebhookRouter(t)

	order := models.Order{Type: models.OrderTypeOneTime, Status: models.OrderStatusCreated, Currency: "eur", ActualAmount: 1998}
	require.NoError(t, mem.CreateOrder(context.Background(), &order))

	payload := checkoutCompletedPayload("evt_dup", order.ID, 1998, "pi_123", "")

	first := postWebhook(r, payload)
	require.Equal(t, http.StatusOK, first.Code)
	assert.NotContains(t, first.Body.String(), "duplicate")

	second := postWebhook(r, payload)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Contains(t, second.Body.String(), `"duplicate":true`)

	payments, err := mem.ListPayments(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1, "une seule ligne de paiement malgré la double livraison")

	got, _ := mem.GetOrder(context.Background(), order.ID)
	assert.Equal(t, models.OrderStatusPaid, got.Status)
}

func TestWebhookInvoicePaidRecordsRenewal(t *testing.T) {
	r, mem := newWebhookRouter(t)

	order := models.Order{Type: models.OrderTypeSubscription, Status: models.OrderStatusCreated, Currency: "eur"}
	require.NoError(t, mem.CreateOrder(context.Background(), &order))
	require.NoError(t, mem.MarkPaid(context.Background(), order.ID, "pi_initial", "sub_123"))

	payload := `{
		"id": "evt_renewal",
		"type": "invoice.paid",
		"data": {"object": {
			"id": "in_1",
			"amount_paid": 1499,
			"currency": "eur",
			"parent": {"subscription_details": {"subscription": "sub_123"}},
			"payments": {"data": [{"payment": {"payment_intent": "pi_renewal"}}]}
		}}
	}`

	w := postWebhook(r, payload)
	require.Equal(t, http.StatusOK, w.Code)

	payments, err := mem.ListPayments(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, int64(1499), payments[0].Amount)
	assert.Equal(t, "pi_renewal", payments[0].StripePaymentIntentID)

	got, _ := mem.GetOrder(context.Background(), order.ID)
	assert.Equal(t, models.OrderStatusPaid, got.Status, "un renouvellement ne change pas le statut")
}

func TestWebhookOrphanRenewalIsAcknowledged(t *testing.T) {
	r, _ := newWebhookRouter(t)

	payload := `{
		"id": "evt_orphan",
		"type": "invoice.paid",
		"data": {"object": {
			"id": "in_2",
			"amount_paid": 1499,
			"currency": "eur",
			"parent": {"subscription_details": {"subscription": "sub_inconnu"}}
		}}
	}`

	w := postWebhook(r, payload)
	require.Equal(t, http.StatusOK, w.Code, "un renouvellement orphelin est acquitté, pas relivré")
	assert.Contains(t, w.Body.String(), `"received":true`)
}

func TestWebhookPaymentFailedMovesCreatedOrderToFailed(t *testing.T) {
	r, mem := newWebhookRouter(t)

	order := models.Order{Type: models.OrderTypeOneTime, Status: models.OrderStatusCreated, Currency: "eur", ActualAmount: 1998}
	require.NoError(t, mem.CreateOrder(context.Background(), &order))

	payload := fmt.Sprintf(`{
		"id": "evt_fail",
		"type": "payment_intent.payment_failed",
		"data": {"object": {"id": "pi_fail", "metadata": {"orderId": %q}}}
	}`, order.ID.String())

	w := postWebhook(r, payload)
	require.Equal(t, http.StatusOK, w.Code)

	got, _ := mem.GetOrder(context.Background(), order.ID)
	assert.Equal(t, models.OrderStatusFailed, got.Status)

	payments, _ := mem.ListPayments(context.Background(), order.ID)
	require.Len(t, payments, 1)
	assert.Equal(t, models.PaymentStatusFailed, payments[0].Status)
}

func TestWebhookPaymentFailedOnPaidOrderIsLogOnly(t *testing.T) {
	r, mem := newWebhookRouter(t)

	order := models.Order{Type: models.OrderTypeOneTime, Status: models.OrderStatusCreated, Currency: "eur"}
	require.NoError(t, mem.CreateOrder(context.Background(), &order))
	require.NoError(t, mem.MarkPaid(context.Background(), order.ID, "pi_paid", ""))

	payload := fmt.Sprintf(`{
		"id": "evt_late_fail",
		"type": "payment_intent.payment_failed",
		"data": {"object": {"id": "pi_paid", "metadata": {"orderId": %q}}}
	}`, order.ID.String())

	w := postWebhook(r, payload)
	require.Equal(t, http.StatusOK, w.Code)

	got, _ := mem.GetOrder(context.Background(), order.ID)
	assert.Equal(t, models.OrderStatusPaid, got.Status, "une commande déjà payée ne repasse pas en échec")
}

func TestWebhookUnknownEventIsIgnored(t *testing.T) {
	r, _ := newWebhookRouter(t)

	w := postWebhook(r, `{"id": "evt_x", "type": "customer.created", "data": {"object": {}}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"received":true`)
}

func TestWebhookMalformedPayloadRejected(t *testing.T) {
	r, _ := newWebhookRouter(t)

	w := postWebhook(r, `{pas du json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookEventWithoutDataRejected(t *testing.T) {
	r, mem := newWebhookRouter(t)

	order := models.Order{Type: models.OrderTypeOneTime, Status: models.OrderStatusCreated, Currency: "eur", ActualAmount: 1998}
	require.NoError(t, mem.CreateOrder(context.Background(), &order))

	// JSON valide mais sans bloc data : malformé, refusé sans traitement.
	w := postWebhook(r, `{"id": "evt_nodata", "type": "checkout.session.completed"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	got, _ := mem.GetOrder(context.Background(), order.ID)
	assert.Equal(t, models.OrderStatusCreated, got.Status)

	seen, err := mem.PaymentExistsForEvent(context.Background(), "evt_nodata")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestOrderLookupAfterPaymentRoundTrip(t *testing.T) {
	r, mem := newWebhookRouter(t)

	order := models.Order{Type: models.OrderTypeOneTime, Status: models.OrderStatusCreated, Currency: "eur", ActualAmount: 1998}
	require.NoError(t, mem.CreateOrder(context.Background(), &order))

	postWebhook(r, checkoutCompletedPayload("evt_rt", order.ID, 1998, "pi_rt", ""))

	req := httptest.NewRequest(http.MethodGet, "/api/payments/orders/"+order.ID.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Order    models.Order     `json:"order"`
			Payments []models.Payment `json:"payments"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, models.OrderStatusPaid, resp.Data.Order.Status)
	require.Len(t, resp.Data.Payments, 1)
	assert.Equal(t, "evt_rt", resp.Data.Payments[0].RawEventID)
}

func TestOrderLookupUnknownOrder(t *testing.T) {
	r, _ := newWebhookRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/payments/orders/"+gocql.TimeUUID().String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
