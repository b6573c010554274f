package payement

import (
	"errors"
	"log"
	"net/http"

	"lumea_back_end/internal/config"
	"lumea_back_end/internal/models"
	"lumea_back_end/internal/repository"
	"lumea_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/stripe/stripe-go/v83"
	checkoutsession "github.com/stripe/stripe-go/v83/checkout/session"
)

// Montant minimum accepté par Stripe : 0,50 € en centimes.
const MinChargeAmount = 50

// Repos remplacés par des implémentations mémoire dans les tests.
var (
	Orders   repository.OrderRepository   = repository.NewScyllaOrderRepository()
	Products repository.ProductRepository = repository.NewScyllaProductRepository()
)

// createCheckoutSession est un point d'injection pour les tests.
var createCheckoutSession = func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return checkoutsession.New(params)
}

// CheckoutOneTime crée une commande puis une session Stripe de paiement unique.
// La commande est insérée AVANT l'appel Stripe : si la session échoue, la
// commande passe à canceled au lieu de rester orpheline.
func CheckoutOneTime(c *gin.Context) {
	var req struct {
		ProductID string `json:"product_id" binding:"required,uuid"`
		Quantity  int64  `json:"quantity" binding:"required,min=1,max=20"`
		Email     string `json:"email" binding:"omitempty,email"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(c, err)
		return
	}

	productID, err := gocql.ParseUUID(req.ProductID)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_ID", "product_id invalide")
		return
	}

	ctx := c.Request.Context()

	p, err := Products.Get(ctx, productID)
	if errors.Is(err, repository.ErrProductNotFound) {
		utils.Error(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Produit introuvable")
		return
	}
	if err != nil {
		log.Println("❌ Erreur lecture produit:", err)
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur serveur")
		return
	}

	amount := p.Price * req.Quantity
	if amount < MinChargeAmount {
		utils.Error(c, http.StatusBadRequest, "AMOUNT_TOO_SMALL", "Le montant minimum est de 0,50 €")
		return
	}

	order := models.Order{
		Type:         models.OrderTypeOneTime,
		Status:       models.OrderStatusCreated,
		Currency:     "eur",
		ActualAmount: amount,
	}
	if userID := currentUserID(c); userID != nil {
		order.UserID = userID
	}

	if err := Orders.CreateOrder(ctx, &order); err != nil {
		log.Println("❌ Erreur création commande:", err)
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur serveur")
		return
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String("eur"),
					UnitAmount: stripe.Int64(p.Price),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.Name),
					},
				},
				Quantity: stripe.Int64(req.Quantity),
			},
		},
		SuccessURL:    stripe.String(config.CheckoutSuccessURL()),
		CancelURL:     stripe.String(config.CheckoutCancelURL()),
		CustomerEmail: stripe.String(customerEmail(c, req.Email)),
		Metadata:      map[string]string{"orderId": order.ID.String()},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{"orderId": order.ID.String()},
		},
	}

	sess, err := createCheckoutSession(params)
	if err != nil {
		log.Println("❌ Erreur création session Stripe:", err)
		// Compensation : la commande ne doit pas rester en created sans session.
		if cerr := Orders.MarkCanceled(ctx, order.ID); cerr != nil {
			log.Println("⚠️ Échec annulation commande", order.ID.String(), ":", cerr)
		}
		utils.Error(c, http.StatusInternalServerError, "STRIPE_ERROR", "Erreur création du paiement")
		return
	}

	if err := Orders.AttachCheckoutSession(ctx, order.ID, sess.ID, sess.AmountTotal, amount); err != nil {
		log.Println("❌ Erreur rattachement session:", err)
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur serveur")
		return
	}

	log.Printf("💳 Session checkout créée: %s (%d centimes) pour commande %s", sess.ID, amount, order.ID.String())
	utils.Success(c, http.StatusOK, "Session de paiement créée", gin.H{
		"url":        sess.URL,
		"session_id": sess.ID,
		"order_id":   order.ID.String(),
		"amount":     amount,
	})
}

// CheckoutSubscription crée une commande d'abonnement. Le montant réel n'est
// connu qu'une fois la session Stripe résolue (prix porté par le price id).
func CheckoutSubscription(c *gin.Context) {
	var req struct {
		PriceID string `json:"price_id" binding:"required"`
		Email   string `json:"email" binding:"omitempty,email"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(c, err)
		return
	}

	ctx := c.Request.Context()

	order := models.Order{
		Type:     models.OrderTypeSubscription,
		Status:   models.OrderStatusCreated,
		Currency: "eur",
	}
	if userID := currentUserID(c); userID != nil {
		order.UserID = userID
	}

	if err := Orders.CreateOrder(ctx, &order); err != nil {
		log.Println("❌ Erreur création commande:", err)
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur serveur")
		return
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:    stripe.String(config.CheckoutSuccessURL()),
		CancelURL:     stripe.String(config.CheckoutCancelURL()),
		CustomerEmail: stripe.String(customerEmail(c, req.Email)),
		Metadata:      map[string]string{"orderId": order.ID.String()},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"orderId": order.ID.String()},
		},
	}

	sess, err := createCheckoutSession(params)
	if err != nil {
		log.Println("❌ Erreur création session Stripe:", err)
		if cerr := Orders.MarkCanceled(ctx, order.ID); cerr != nil {
			log.Println("⚠️ Échec annulation commande", order.ID.String(), ":", cerr)
		}
		utils.Error(c, http.StatusInternalServerError, "STRIPE_ERROR", "Erreur création du paiement")
		return
	}

	if err := Orders.AttachCheckoutSession(ctx, order.ID, sess.ID, sess.AmountTotal, sess.AmountTotal); err != nil {
		log.Println("❌ Erreur rattachement session:", err)
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur serveur")
		return
	}

	log.Printf("💳 Session abonnement créée: %s pour commande %s", sess.ID, order.ID.String())
	utils.Success(c, http.StatusOK, "Session d'abonnement créée", gin.H{
		"url":        sess.URL,
		"session_id": sess.ID,
		"order_id":   order.ID.String(),
	})
}

func currentUserID(c *gin.Context) *gocql.UUID {
	raw := c.GetString("user_id")
	if raw == "" {
		return nil
	}
	id, err := gocql.ParseUUID(raw)
	if err != nil {
		return nil
	}
	return &id
}

// Le checkout accepte les invités : e-mail du body, sinon celui du JWT,
// sinon un e-mail générique.
func customerEmail(c *gin.Context, bodyEmail string) string {
	if bodyEmail != "" {
		return bodyEmail
	}
	if email := c.GetString("email"); email != "" {
		return email
	}
	return "guest@gmail.com"
}
