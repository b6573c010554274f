package config

import "os"

// Configuration Stripe consommée par le sous-système de paiement.

// StripeWebhookSecret retourne le secret partagé de vérification des webhooks.
// Vide = mode test : les payloads non signés sont acceptés.
func StripeWebhookSecret() string {
	return os.Getenv("STRIPE_WEBHOOK_SECRET")
}

// CheckoutSuccessURL : URL de redirection après paiement réussi.
func CheckoutSuccessURL() string {
	if url := os.Getenv("CHECKOUT_SUCCESS_URL"); url != "" {
		return url
	}
	return "http://localhost:3000/checkout/success"
}

// CheckoutCancelURL : URL de redirection après abandon du checkout.
func CheckoutCancelURL() string {
	if url := os.Getenv("CHECKOUT_CANCEL_URL"); url != "" {
		return url
	}
	return "http://localhost:3000/checkout/cancel"
}
