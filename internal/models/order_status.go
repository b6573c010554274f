package models

import (
	"errors"
	"fmt"
)

// OrderStatus décrit le cycle de vie d'une commande.
type OrderStatus string

const (
	// OrderStatusCreated : commande insérée au moment de la création de la session de checkout.
	OrderStatusCreated OrderStatus = "created"
	// OrderStatusPaid : paiement confirmé par un webhook Stripe vérifié.
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusRefunded : remboursement effectué via l'API de refund.
	OrderStatusRefunded OrderStatus = "refunded"
	// OrderStatusFailed : échec de paiement signalé par Stripe.
	OrderStatusFailed OrderStatus = "failed"
	// OrderStatusCanceled : session Stripe jamais créée, commande annulée en compensation.
	OrderStatusCanceled OrderStatus = "canceled"
)

var ErrIllegalTransition = errors.New("transition de statut non autorisée")

// Le cycle de vie avance toujours vers l'avant : aucun retour en arrière.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusCreated: {OrderStatusPaid, OrderStatusFailed, OrderStatusCanceled},
	OrderStatusPaid:    {OrderStatusRefunded},
}

// CanTransition indique si le passage from -> to est autorisé.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition valide le passage de statut et retourne le nouveau statut,
// ou ErrIllegalTransition si le cycle de vie ne le permet pas.
func Transition(from, to OrderStatus) (OrderStatus, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s vers %s", ErrIllegalTransition, from, to)
	}
	return to, nil
}
