package payement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"lumea_back_end/internal/config"
	"lumea_back_end/internal/models"
	"lumea_back_end/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"
)

// StripeWebhook reçoit les événements Stripe. Corps brut obligatoire : la
// signature est calculée sur les octets exacts du payload.
func StripeWebhook(c *gin.Context) {
	const MaxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	payload, err := c.GetRawData()
	if err != nil {
		log.Println("❌ Lecture payload échouée:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Échec lecture body"})
		return
	}

	secret := config.StripeWebhookSecret()
	var event stripe.Event

	if secret == "" {
		log.Println("⚠️ Pas de STRIPE_WEBHOOK_SECRET — mode test")
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Println("❌ JSON invalide:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "JSON invalide"})
			return
		}
	} else {
		event, err = webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), secret)
		if err != nil {
			log.Println("❌ Signature Stripe invalide:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
			return
		}
	}

	// Un événement sans bloc data est malformé au même titre qu'un JSON
	// invalide : 400, Stripe ne relivrera pas.
	if event.Data == nil || len(event.Data.Raw) == 0 {
		log.Printf("❌ Événement %s sans données", event.ID)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Événement sans données"})
		return
	}

	log.Printf("📥 Événement Stripe reçu : %s (%s)", event.Type, event.ID)

	ctx := c.Request.Context()

	// Fast path : événement déjà traité, on acquitte sans retraiter.
	if seen, err := Orders.PaymentExistsForEvent(ctx, event.ID); err == nil && seen {
		log.Printf("🔁 Événement %s déjà traité, on ignore.", event.ID)
		c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": true})
		return
	}

	err = processStripeEvent(ctx, event)
	if errors.Is(err, repository.ErrEventAlreadyProcessed) {
		log.Printf("🔁 Événement %s déjà traité (course), on ignore.", event.ID)
		c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": true})
		return
	}
	if err != nil {
		log.Printf("❌ Erreur traitement événement %s: %v", event.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur traitement événement"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// processStripeEvent aiguille l'événement. Une erreur fait répondre 500 et
// Stripe relivrera ; l'idempotence par event id rend la relivraison sûre.
func processStripeEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		return handleCheckoutCompleted(ctx, event)
	case "invoice.paid":
		return handleInvoicePaid(ctx, event)
	case "payment_intent.payment_failed":
		return handlePaymentIntentFailed(ctx, event)
	case "invoice.payment_failed":
		return handleInvoicePaymentFailed(ctx, event)
	case "payment_intent.succeeded", "payment_intent.created":
		// Couverts par checkout.session.completed, trace seulement.
		log.Printf("ℹ️ Événement %s tracé sans action", event.Type)
		return nil
	default:
		log.Printf("ℹ️ Événement ignoré : %s", event.Type)
		return nil
	}
}

// handleCheckoutCompleted : la session est payée, la commande passe à paid et
// une ligne de paiement est enregistrée sous l'event id.
func handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("décodage checkout session: %w", err)
	}

	orderID, err := orderIDFromMetadata(sess.Metadata)
	if err != nil {
		log.Printf("⚠️ Session %s sans orderId exploitable, on ignore.", sess.ID)
		return nil
	}

	var paymentIntentID string
	if sess.PaymentIntent != nil {
		paymentIntentID = sess.PaymentIntent.ID
	}
	var subscriptionID string
	if sess.Subscription != nil {
		subscriptionID = sess.Subscription.ID
	}

	err = Orders.MarkPaid(ctx, orderID, paymentIntentID, subscriptionID)
	if errors.Is(err, models.ErrIllegalTransition) {
		// Commande déjà soldée par une autre livraison : on acquitte.
		log.Printf("⚠️ Commande %s déjà soldée, transition ignorée.", orderID.String())
		return nil
	}
	if errors.Is(err, repository.ErrOrderNotFound) {
		log.Printf("⚠️ Commande %s introuvable pour la session %s, on ignore.", orderID.String(), sess.ID)
		return nil
	}
	if err != nil {
		return err
	}

	payment := models.Payment{
		OrderID:               orderID,
		StripePaymentIntentID: paymentIntentID,
		Status:                models.PaymentStatusSucceeded,
		Amount:                sess.AmountTotal,
		Currency:              string(sess.Currency),
		RawEventID:            event.ID,
	}
	if err := Orders.InsertPayment(ctx, &payment); err != nil {
		return err
	}

	log.Printf("✅ Commande %s payée (%d centimes)", orderID.String(), sess.AmountTotal)
	go sendOrderConfirmation(orderID, sess.CustomerEmail)
	return nil
}

// handleInvoicePaid : renouvellement d'abonnement. La commande d'origine est
// retrouvée par subscription id ; un renouvellement orphelin est tracé et
// ignoré sans faire échouer la livraison.
func handleInvoicePaid(ctx context.Context, event stripe.Event) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return fmt.Errorf("décodage invoice: %w", err)
	}

	subscriptionID := invoiceSubscriptionID(inv)
	if subscriptionID == "" {
		log.Printf("ℹ️ Facture %s hors abonnement, on ignore.", inv.ID)
		return nil
	}

	order, err := Orders.GetOrderBySubscription(ctx, subscriptionID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		log.Printf("⚠️ Renouvellement orphelin: aucune commande pour l'abonnement %s", subscriptionID)
		return nil
	}
	if err != nil {
		return err
	}

	payment := models.Payment{
		OrderID:               order.ID,
		StripePaymentIntentID: invoicePaymentIntentID(inv),
		Status:                models.PaymentStatusSucceeded,
		Amount:                inv.AmountPaid,
		Currency:              string(inv.Currency),
		RawEventID:            event.ID,
	}
	if err := Orders.InsertPayment(ctx, &payment); err != nil {
		return err
	}

	log.Printf("✅ Renouvellement encaissé pour la commande %s (%d centimes)", order.ID.String(), inv.AmountPaid)
	return nil
}

// handlePaymentIntentFailed : politique explicite — une commande encore en
// created dont le paiement échoue passe à failed ; sinon trace seulement.
func handlePaymentIntentFailed(ctx context.Context, event stripe.Event) error {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return fmt.Errorf("décodage payment intent: %w", err)
	}

	orderID, err := orderIDFromMetadata(pi.Metadata)
	if err != nil {
		log.Printf("⚠️ Échec de paiement %s sans orderId, trace seulement.", pi.ID)
		return nil
	}

	return failOrderIfCreated(ctx, orderID, event.ID, pi.ID)
}

func handleInvoicePaymentFailed(ctx context.Context, event stripe.Event) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return fmt.Errorf("décodage invoice: %w", err)
	}

	subscriptionID := invoiceSubscriptionID(inv)
	if subscriptionID == "" {
		log.Printf("ℹ️ Échec de facture %s hors abonnement, on ignore.", inv.ID)
		return nil
	}

	order, err := Orders.GetOrderBySubscription(ctx, subscriptionID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		log.Printf("⚠️ Échec de facture pour abonnement inconnu %s, on ignore.", subscriptionID)
		return nil
	}
	if err != nil {
		return err
	}

	return failOrderIfCreated(ctx, order.ID, event.ID, invoicePaymentIntentID(inv))
}

func failOrderIfCreated(ctx context.Context, orderID gocql.UUID, eventID, paymentIntentID string) error {
	order, err := Orders.GetOrder(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		log.Printf("⚠️ Échec de paiement pour commande inconnue %s, on ignore.", orderID.String())
		return nil
	}
	if err != nil {
		return err
	}

	if order.Status != models.OrderStatusCreated {
		log.Printf("ℹ️ Échec de paiement sur commande %s en statut %s, trace seulement.", orderID.String(), order.Status)
		return nil
	}

	if err := Orders.MarkFailed(ctx, orderID); err != nil {
		return err
	}

	payment := models.Payment{
		OrderID:               orderID,
		StripePaymentIntentID: paymentIntentID,
		Status:                models.PaymentStatusFailed,
		Amount:                order.ActualAmount,
		Currency:              order.Currency,
		RawEventID:            eventID,
	}
	if err := Orders.InsertPayment(ctx, &payment); err != nil {
		return err
	}

	log.Printf("❌ Paiement échoué, commande %s passée à failed", orderID.String())
	return nil
}

func orderIDFromMetadata(metadata map[string]string) (gocql.UUID, error) {
	raw, ok := metadata["orderId"]
	if !ok || raw == "" {
		return gocql.UUID{}, errors.New("orderId absent des métadonnées")
	}
	return gocql.ParseUUID(raw)
}

func invoiceSubscriptionID(inv stripe.Invoice) string {
	if inv.Parent != nil && inv.Parent.SubscriptionDetails != nil && inv.Parent.SubscriptionDetails.Subscription != nil {
		return inv.Parent.SubscriptionDetails.Subscription.ID
	}
	return ""
}

func invoicePaymentIntentID(inv stripe.Invoice) string {
	if inv.Payments == nil || len(inv.Payments.Data) == 0 {
		return ""
	}
	first := inv.Payments.Data[0]
	if first.Payment != nil && first.Payment.PaymentIntent != nil {
		return first.Payment.PaymentIntent.ID
	}
	return ""
}
