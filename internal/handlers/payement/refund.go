package payement

import (
	"errors"
	"log"
	"net/http"

	"lumea_back_end/internal/models"
	"lumea_back_end/internal/repository"
	"lumea_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/refund"
)

// createRefund est un point d'injection pour les tests.
var createRefund = func(params *stripe.RefundParams) (*stripe.Refund, error) {
	return refund.New(params)
}

// RefundPayment rembourse intégralement une commande payée (admin).
// Le statut est vérifié AVANT l'appel Stripe : une commande non remboursable
// ne déclenche jamais de mouvement d'argent.
func RefundPayment(c *gin.Context) {
	var req struct {
		OrderID string `json:"order_id" binding:"required,uuid"`
		// Montant partiel en centimes ; absent = remboursement intégral.
		Amount *int64 `json:"amount" binding:"omitempty,min=1"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(c, err)
		return
	}

	orderUUID, err := uuid.Parse(req.OrderID)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_ID", "order_id invalide")
		return
	}
	orderID := gocql.UUID(orderUUID)

	ctx := c.Request.Context()

	order, err := Orders.GetOrder(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		utils.Error(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Commande introuvable")
		return
	}
	if err != nil {
		log.Println("❌ Erreur lecture commande:", err)
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur serveur")
		return
	}

	if order.StripePaymentIntentID == "" {
		utils.Error(c, http.StatusBadRequest, "NO_PAYMENT_INTENT", "Aucun paiement à rembourser sur cette commande")
		return
	}

	if !models.CanTransition(order.Status, models.OrderStatusRefunded) {
		utils.Error(c, http.StatusConflict, "ILLEGAL_STATE",
			"Commande en statut "+string(order.Status)+", remboursement impossible")
		return
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(order.StripePaymentIntentID),
		Reason:        stripe.String("requested_by_customer"),
	}
	if req.Amount != nil {
		if *req.Amount > order.AmountInCents {
			utils.Error(c, http.StatusBadRequest, "AMOUNT_TOO_LARGE", "Le montant dépasse celui de la commande")
			return
		}
		params.Amount = req.Amount
	}

	stripeRefund, err := createRefund(params)
	if err != nil {
		log.Printf("❌ Erreur Stripe refund: %v", err)
		utils.Error(c, http.StatusInternalServerError, "STRIPE_ERROR", "Erreur traitement du remboursement")
		return
	}

	if err := Orders.MarkRefunded(ctx, orderID); err != nil {
		log.Println("❌ Erreur passage à refunded:", err)
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur serveur")
		return
	}

	log.Printf("✅ Remboursement traité pour la commande %s (Stripe: %s)", orderID.String(), stripeRefund.ID)
	utils.Success(c, http.StatusOK, "Remboursement effectué", gin.H{
		"order_id":         orderID.String(),
		"stripe_refund_id": stripeRefund.ID,
		"status":           string(models.OrderStatusRefunded),
	})
}
