package payement

import (
	"context"
	"log"

	"lumea_back_end/internal/utils"

	"github.com/gocql/gocql"
)

// sendOrderConfirmation envoie l'e-mail de confirmation en arrière-plan.
// Best-effort : un échec d'envoi n'affecte jamais l'acquittement du webhook.
func sendOrderConfirmation(orderID gocql.UUID, email string) {
	if email == "" {
		return
	}

	order, err := Orders.GetOrder(context.Background(), orderID)
	if err != nil {
		log.Println("⚠️ E-mail de confirmation: lecture commande impossible:", err)
		return
	}

	html := utils.GenerateOrderConfirmationHTML(order)
	if err := utils.SendConfirmationEmail(email, "Confirmation de votre commande Lumea", html); err != nil {
		log.Println("❌ Erreur envoi e-mail confirmation:", err)
		return
	}
	log.Println("📧 E-mail de confirmation envoyé à", email)
}
