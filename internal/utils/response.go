package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Enveloppe JSON uniforme : {success, message, code?, data?, errors?}.
// Le détail interne des erreurs serveur ne sort jamais vers le client.

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Success envoie une réponse de succès avec données.
func Success(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// Error envoie une réponse d'échec avec un code machine stable.
func Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
		"code":    code,
	})
}

// ValidationError traduit une erreur de binding Gin en liste d'erreurs par champ.
func ValidationError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{
				Field:   fe.Field(),
				Message: validationMessage(fe),
			})
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Données invalides",
			"code":    "VALIDATION_ERROR",
			"errors":  fields,
		})
		return
	}
	Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Données invalides")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "champ obligatoire"
	case "uuid":
		return "doit être un UUID valide"
	case "email":
		return "doit être un e-mail valide"
	case "min":
		return "valeur trop petite (min " + fe.Param() + ")"
	case "max":
		return "valeur trop grande (max " + fe.Param() + ")"
	default:
		return "valeur invalide"
	}
}
