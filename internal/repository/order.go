package repository

import (
	"context"
	"fmt"
	"time"

	"lumea_back_end/internal/database"
	"lumea_back_end/internal/models"

	"github.com/gocql/gocql"
)

// OrderRepository porte tout l'état commandes/paiements. Les mutations de
// statut passent par la machine à états de models : une transition interdite
// est refusée ici, au point de mutation, pas reconstruite après coup.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id gocql.UUID) (models.Order, error)
	GetOrderBySubscription(ctx context.Context, subscriptionID string) (models.Order, error)
	// AttachCheckoutSession enregistre la session Stripe obtenue après
	// l'insertion de la commande, avec les montants résolus.
	AttachCheckoutSession(ctx context.Context, orderID gocql.UUID, sessionID string, amountInCents, actualAmount int64) error

	MarkPaid(ctx context.Context, orderID gocql.UUID, paymentIntentID, subscriptionID string) error
	MarkRefunded(ctx context.Context, orderID gocql.UUID) error
	MarkFailed(ctx context.Context, orderID gocql.UUID) error
	MarkCanceled(ctx context.Context, orderID gocql.UUID) error

	// InsertPayment est idempotent par event id : retourne
	// ErrEventAlreadyProcessed si RawEventID a déjà produit une ligne.
	InsertPayment(ctx context.Context, payment *models.Payment) error
	PaymentExistsForEvent(ctx context.Context, eventID string) (bool, error)
	ListPayments(ctx context.Context, orderID gocql.UUID) ([]models.Payment, error)
}

type scyllaOrderRepository struct{}

func NewScyllaOrderRepository() OrderRepository {
	return scyllaOrderRepository{}
}

const orderColumns = `order_id, user_id, type, status, currency, actual_amount, amount_in_cents,
		stripe_checkout_session_id, stripe_payment_intent_id, stripe_subscription_id, created_at, updated_at`

func (scyllaOrderRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return fmt.Errorf("commandes: création: %w", err)
	}

	if order.ID == (gocql.UUID{}) {
		order.ID = gocql.TimeUUID()
	}
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now

	err = session.Query(`INSERT INTO orders (`+orderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.UserID, order.Type, string(order.Status), order.Currency,
		order.ActualAmount, order.AmountInCents, order.StripeCheckoutSessionID,
		order.StripePaymentIntentID, order.StripeSubscriptionID, order.CreatedAt, order.UpdatedAt).
		WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("commandes: création: %w", err)
	}
	return nil
}

func (scyllaOrderRepository) GetOrder(ctx context.Context, id gocql.UUID) (models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return models.Order{}, fmt.Errorf("commandes: lecture: %w", err)
	}
	return scanOrder(ctx, session, id)
}

func (scyllaOrderRepository) GetOrderBySubscription(ctx context.Context, subscriptionID string) (models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return models.Order{}, fmt.Errorf("commandes: lecture par abonnement: %w", err)
	}

	var orderID gocql.UUID
	err = session.Query(`SELECT order_id FROM orders_by_subscription WHERE stripe_subscription_id = ?`, subscriptionID).
		WithContext(ctx).Scan(&orderID)
	if err == gocql.ErrNotFound {
		return models.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("commandes: lecture par abonnement: %w", err)
	}
	return scanOrder(ctx, session, orderID)
}

func (scyllaOrderRepository) AttachCheckoutSession(ctx context.Context, orderID gocql.UUID, sessionID string, amountInCents, actualAmount int64) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return fmt.Errorf("commandes: session checkout: %w", err)
	}

	err = session.Query(`UPDATE orders SET stripe_checkout_session_id = ?, amount_in_cents = ?, actual_amount = ?, updated_at = ? WHERE order_id = ?`,
		sessionID, amountInCents, actualAmount, time.Now().UTC(), orderID).
		WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("commandes: session checkout: %w", err)
	}
	return nil
}

func (r scyllaOrderRepository) MarkPaid(ctx context.Context, orderID gocql.UUID, paymentIntentID, subscriptionID string) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return fmt.Errorf("commandes: passage à paid: %w", err)
	}

	order, err := scanOrder(ctx, session, orderID)
	if err != nil {
		return err
	}
	if _, err := models.Transition(order.Status, models.OrderStatusPaid); err != nil {
		return err
	}

	err = session.Query(`UPDATE orders SET status = ?, stripe_payment_intent_id = ?, stripe_subscription_id = ?, updated_at = ? WHERE order_id = ?`,
		string(models.OrderStatusPaid), paymentIntentID, subscriptionID, time.Now().UTC(), orderID).
		WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("commandes: passage à paid: %w", err)
	}

	// Index de recherche pour les renouvellements d'abonnement.
	if subscriptionID != "" {
		err = session.Query(`INSERT INTO orders_by_subscription (stripe_subscription_id, order_id) VALUES (?, ?)`,
			subscriptionID, orderID).WithContext(ctx).Exec()
		if err != nil {
			return fmt.Errorf("commandes: index abonnement: %w", err)
		}
	}
	return nil
}

func (r scyllaOrderRepository) MarkRefunded(ctx context.Context, orderID gocql.UUID) error {
	return r.transition(ctx, orderID, models.OrderStatusRefunded)
}

func (r scyllaOrderRepository) MarkFailed(ctx context.Context, orderID gocql.UUID) error {
	return r.transition(ctx, orderID, models.OrderStatusFailed)
}

func (r scyllaOrderRepository) MarkCanceled(ctx context.Context, orderID gocql.UUID) error {
	return r.transition(ctx, orderID, models.OrderStatusCanceled)
}

func (scyllaOrderRepository) transition(ctx context.Context, orderID gocql.UUID, to models.OrderStatus) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return fmt.Errorf("commandes: transition: %w", err)
	}

	order, err := scanOrder(ctx, session, orderID)
	if err != nil {
		return err
	}
	next, err := models.Transition(order.Status, to)
	if err != nil {
		return err
	}

	err = session.Query(`UPDATE orders SET status = ?, updated_at = ? WHERE order_id = ?`,
		string(next), time.Now().UTC(), orderID).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("commandes: transition: %w", err)
	}
	return nil
}

func (scyllaOrderRepository) InsertPayment(ctx context.Context, payment *models.Payment) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return fmt.Errorf("paiements: insertion: %w", err)
	}

	if payment.ID == (gocql.UUID{}) {
		payment.ID = gocql.TimeUUID()
	}
	payment.CreatedAt = time.Now().UTC()

	// LWT : l'unicité de l'event id est garantie par la base, pas par une
	// lecture préalable. Deux livraisons concurrentes du même événement ne
	// peuvent pas produire deux lignes.
	applied, err := session.Query(`INSERT INTO payments_by_event (raw_event_id, payment_id, order_id) VALUES (?, ?, ?) IF NOT EXISTS`,
		payment.RawEventID, payment.ID, payment.OrderID).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return fmt.Errorf("paiements: réservation event id: %w", err)
	}
	if !applied {
		return ErrEventAlreadyProcessed
	}

	err = session.Query(`INSERT INTO payments (order_id, payment_id, stripe_payment_intent_id, status, amount, currency, raw_event_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.OrderID, payment.ID, payment.StripePaymentIntentID, payment.Status,
		payment.Amount, payment.Currency, payment.RawEventID, payment.CreatedAt).
		WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("paiements: insertion: %w", err)
	}
	return nil
}

func (scyllaOrderRepository) PaymentExistsForEvent(ctx context.Context, eventID string) (bool, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return false, fmt.Errorf("paiements: lecture event id: %w", err)
	}

	var paymentID gocql.UUID
	err = session.Query(`SELECT payment_id FROM payments_by_event WHERE raw_event_id = ?`, eventID).
		WithContext(ctx).Scan(&paymentID)
	if err == gocql.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("paiements: lecture event id: %w", err)
	}
	return true, nil
}

func (scyllaOrderRepository) ListPayments(ctx context.Context, orderID gocql.UUID) ([]models.Payment, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, fmt.Errorf("paiements: liste: %w", err)
	}

	iter := session.Query(`SELECT payment_id, order_id, stripe_payment_intent_id, status, amount, currency, raw_event_id, created_at
		FROM payments WHERE order_id = ?`, orderID).WithContext(ctx).Iter()

	var payments []models.Payment
	var p models.Payment
	for iter.Scan(&p.ID, &p.OrderID, &p.StripePaymentIntentID, &p.Status, &p.Amount, &p.Currency, &p.RawEventID, &p.CreatedAt) {
		payments = append(payments, p)
		p = models.Payment{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("paiements: liste: %w", err)
	}
	return payments, nil
}

func scanOrder(ctx context.Context, session *gocql.Session, id gocql.UUID) (models.Order, error) {
	order := models.Order{ID: id}
	var status string
	err := session.Query(`SELECT user_id, type, status, currency, actual_amount, amount_in_cents,
		stripe_checkout_session_id, stripe_payment_intent_id, stripe_subscription_id, created_at, updated_at
		FROM orders WHERE order_id = ?`, id).WithContext(ctx).
		Scan(&order.UserID, &order.Type, &status, &order.Currency, &order.ActualAmount, &order.AmountInCents,
			&order.StripeCheckoutSessionID, &order.StripePaymentIntentID, &order.StripeSubscriptionID,
			&order.CreatedAt, &order.UpdatedAt)
	if err == gocql.ErrNotFound {
		return models.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("commandes: lecture: %w", err)
	}
	order.Status = models.OrderStatus(status)
	return order, nil
}
