package handlers

import (
	"context"
	"log"
	"net/http"

	"lumea_back_end/internal/models"
	"lumea_back_end/internal/repository"
	"lumea_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/markbates/goth/gothic"
)

type ctxKey string

const ProviderKey ctxKey = "provider"

// Users est remplacé par une implémentation mémoire dans les tests.
var Users repository.UserRepository = repository.NewScyllaUserRepository()

func BeginAuth(c *gin.Context) {
	provider := c.Param("provider")
	if provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "aucun provider spécifié"})
		return
	}

	c.Request = c.Request.WithContext(
		context.WithValue(c.Request.Context(), ProviderKey, provider),
	)

	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// CallbackAuth termine le flux OAuth : l'utilisateur est créé au premier
// passage, retrouvé ensuite, et reçoit un JWT applicatif.
func CallbackAuth(c *gin.Context) {
	provider := c.Param("provider")
	if provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "aucun provider spécifié"})
		return
	}

	c.Request = c.Request.WithContext(
		context.WithValue(c.Request.Context(), ProviderKey, provider),
	)

	gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := Users.FindOrCreate(c.Request.Context(), models.User{
		Email:      gothUser.Email,
		Name:       gothUser.Name,
		Picture:    gothUser.AvatarURL,
		Provider:   gothUser.Provider,
		ProviderID: gothUser.UserID,
	})
	if err != nil {
		log.Println("❌ Erreur find-or-create utilisateur:", err)
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur serveur")
		return
	}

	token, err := utils.GenerateJWT(user)
	if err != nil {
		log.Println("❌ Erreur génération JWT:", err)
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur serveur")
		return
	}

	log.Printf("✅ Connexion %s via %s", user.Email, user.Provider)
	utils.Success(c, http.StatusOK, "Connexion réussie", gin.H{
		"token": token,
		"user":  user,
	})
}

// Profile retourne l'utilisateur courant à partir du JWT.
func Profile(c *gin.Context) {
	userID, err := gocql.ParseUUID(c.GetString("user_id"))
	if err != nil {
		utils.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Token invalide")
		return
	}

	user, err := Users.Get(c.Request.Context(), userID)
	if err == repository.ErrUserNotFound {
		utils.Error(c, http.StatusNotFound, "USER_NOT_FOUND", "Utilisateur introuvable")
		return
	}
	if err != nil {
		log.Println("❌ Erreur lecture utilisateur:", err)
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur serveur")
		return
	}

	utils.Success(c, http.StatusOK, "Profil", user)
}

// Logout est sans état côté serveur : le client jette son token.
func Logout(c *gin.Context) {
	utils.Success(c, http.StatusOK, "Déconnexion réussie", nil)
}

func AuthFailed(c *gin.Context) {
	utils.Error(c, http.StatusUnauthorized, "AUTH_FAILED", "Échec de l'authentification")
}
