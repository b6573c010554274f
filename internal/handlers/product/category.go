package product

import (
	"errors"
	"log"
	"net/http"

	"lumea_back_end/internal/cache"
	"lumea_back_end/internal/models"
	"lumea_back_end/internal/repository"
	"lumea_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
)

// Categories est remplacé par une implémentation mémoire dans les tests.
var Categories repository.CategoryRepository = repository.NewScyllaCategoryRepository()

// GetCategories liste toutes les catégories (avec cache Redis)
func GetCategories(c *gin.Context) {
	ctx := c.Request.Context()

	var cats []models.Category
	if cache.GetJSON(ctx, cache.CategoriesKey, &cats) {
		utils.Success(c, http.StatusOK, "Catégories (cache)", cats)
		return
	}

	cats, err := Categories.List(ctx)
	if err != nil {
		log.Println("❌ Erreur liste catégories:", err)
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur serveur")
		return
	}
	if cats == nil {
		cats = []models.Category{}
	}

	cache.SetJSON(ctx, cache.CategoriesKey, cats, cache.CatalogTTL)
	utils.Success(c, http.StatusOK, "Catégories", cats)
}

// GetCategory retourne une catégorie par id
func GetCategory(c *gin.Context) {
	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_ID", "Identifiant invalide")
		return
	}

	cat, err := Categories.Get(c.Request.Context(), id)
	if errors.Is(err, repository.ErrCategoryNotFound) {
		utils.Error(c, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Catégorie introuvable")
		return
	}
	if err != nil {
		log.Println("❌ Erreur lecture catégorie:", err)
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur serveur")
		return
	}

	utils.Success(c, http.StatusOK, "Catégorie", cat)
}

// CreateCategory crée une nouvelle catégorie (admin)
func CreateCategory(c *gin.Context) {
	var input struct {
		Name        string `json:"name" binding:"required,min=1,max=120"`
		Description string `json:"description" binding:"max=2000"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		utils.ValidationError(c, err)
		return
	}

	cat := models.Category{Name: input.Name, Description: input.Description}
	err := Categories.Create(c.Request.Context(), &cat)
	if errors.Is(err, repository.ErrDuplicateCategory) {
		utils.Error(c, http.StatusConflict, "DUPLICATE_CATEGORY", "Une catégorie porte déjà ce nom")
		return
	}
	if err != nil {
		log.Println("❌ Erreur création catégorie:", err)
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur serveur")
		return
	}

	cache.InvalidateCatalog(c.Request.Context())
	log.Println("✅ Catégorie créée:", cat.Name)
	utils.Success(c, http.StatusCreated, "Catégorie créée", cat)
}

// UpdateCategory modifie nom et/ou description (admin)
func UpdateCategory(c *gin.Context) {
	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_ID", "Identifiant invalide")
		return
	}

	var input struct {
		Name        *string `json:"name" binding:"omitempty,min=1,max=120"`
		Description *string `json:"description" binding:"omitempty,max=2000"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.ValidationError(c, err)
		return
	}

	cat, err := Categories.Update(c.Request.Context(), id, input.Name, input.Description)
	switch {
	case errors.Is(err, repository.ErrCategoryNotFound):
		utils.Error(c, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Catégorie introuvable")
		return
	case errors.Is(err, repository.ErrDuplicateCategory):
		utils.Error(c, http.StatusConflict, "DUPLICATE_CATEGORY", "Une catégorie porte déjà ce nom")
		return
	case err != nil:
		log.Println("❌ Erreur mise à jour catégorie:", err)
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur serveur")
		return
	}

	cache.InvalidateCatalog(c.Request.Context())
	utils.Success(c, http.StatusOK, "Catégorie mise à jour", cat)
}

// DeleteCategory supprime une catégorie vide (admin)
func DeleteCategory(c *gin.Context) {
	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_ID", "Identifiant invalide")
		return
	}

	err = Categories.Delete(c.Request.Context(), id)
	switch {
	case errors.Is(err, repository.ErrCategoryNotFound):
		utils.Error(c, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Catégorie introuvable")
		return
	case errors.Is(err, repository.ErrCategoryHasProducts):
		utils.Error(c, http.StatusConflict, "CATEGORY_NOT_EMPTY", "Des produits référencent encore cette catégorie")
		return
	case err != nil:
		log.Println("❌ Erreur suppression catégorie:", err)
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur serveur")
		return
	}

	cache.InvalidateCatalog(c.Request.Context())
	log.Println("✅ Catégorie supprimée:", id.String())
	utils.Success(c, http.StatusOK, "Catégorie supprimée", nil)
}
