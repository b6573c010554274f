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
)

// GetOrder retourne une commande et l'historique de ses paiements.
func GetOrder(c *gin.Context) {
	orderUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_ID", "Identifiant invalide")
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

	payments, err := Orders.ListPayments(ctx, orderID)
	if err != nil {
		log.Println("❌ Erreur lecture paiements:", err)
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur serveur")
		return
	}
	if payments == nil {
		payments = []models.Payment{}
	}

	utils.Success(c, http.StatusOK, "Commande", gin.H{
		"order":    order,
		"payments": payments,
	})
}
