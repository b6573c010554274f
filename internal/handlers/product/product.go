package product

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"lumea_back_end/internal/cache"
	"lumea_back_end/internal/models"
	"lumea_back_end/internal/repository"
	"lumea_back_end/internal/services"
	"lumea_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
)

// Products est remplacé par une implémentation mémoire dans les tests.
var Products repository.ProductRepository = repository.NewScyllaProductRepository()

const defaultProductLimit = 100

// GetProducts liste les produits (avec cache Redis)
func GetProducts(c *gin.Context) {
	ctx := c.Request.Context()

	limit := defaultProductLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	// Le cache ne sert que la page par défaut.
	if limit == defaultProductLimit {
		var cached []models.Product
		if cache.GetJSON(ctx, cache.ProductsKey, &cached) {
			utils.Success(c, http.StatusOK, "Produits (cache)", cached)
			return
		}
	}

	products, err := Products.List(ctx, limit)
	if err != nil {
		log.Println("❌ Erreur liste produits:", err)
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur serveur")
		return
	}
	if products == nil {
		products = []models.Product{}
	}

	if limit == defaultProductLimit {
		cache.SetJSON(ctx, cache.ProductsKey, products, cache.CatalogTTL)
	}
	utils.Success(c, http.StatusOK, "Produits", products)
}

// GetProduct retourne un produit par id
func GetProduct(c *gin.Context) {
	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_ID", "Identifiant invalide")
		return
	}

	p, err := Products.Get(c.Request.Context(), id)
	if errors.Is(err, repository.ErrProductNotFound) {
		utils.Error(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Produit introuvable")
		return
	}
	if err != nil {
		log.Println("❌ Erreur lecture produit:", err)
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur serveur")
		return
	}

	utils.Success(c, http.StatusOK, "Produit", p)
}

// GetProductsByCategory liste les produits d'une catégorie
func GetProductsByCategory(c *gin.Context) {
	categoryID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_ID", "Identifiant invalide")
		return
	}

	products, err := Products.ByCategory(c.Request.Context(), categoryID)
	if errors.Is(err, repository.ErrCategoryNotFound) {
		utils.Error(c, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Catégorie introuvable")
		return
	}
	if err != nil {
		log.Println("❌ Erreur produits par catégorie:", err)
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur serveur")
		return
	}
	if products == nil {
		products = []models.Product{}
	}

	utils.Success(c, http.StatusOK, "Produits de la catégorie", products)
}

// CreateProduct crée un produit (admin). Le prix est en centimes.
func CreateProduct(c *gin.Context) {
	var input struct {
		Name        string `json:"name" binding:"required,min=1,max=200"`
		Description string `json:"description" binding:"max=5000"`
		Price       int64  `json:"price" binding:"required,min=1"`
		Stock       int    `json:"stock" binding:"min=0"`
		CategoryID  string `json:"category_id" binding:"required,uuid"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		utils.ValidationError(c, err)
		return
	}

	categoryID, err := gocql.ParseUUID(input.CategoryID)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_ID", "category_id invalide")
		return
	}

	p := models.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		CategoryID:  categoryID,
	}

	err = Products.Create(c.Request.Context(), &p)
	switch {
	case errors.Is(err, repository.ErrCategoryNotFound):
		utils.Error(c, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Catégorie introuvable")
		return
	case errors.Is(err, repository.ErrDuplicateProduct):
		utils.Error(c, http.StatusConflict, "DUPLICATE_PRODUCT", "Un produit porte déjà ce nom dans cette catégorie")
		return
	case errors.Is(err, repository.ErrInvalidProduct):
		utils.Error(c, http.StatusBadRequest, "INVALID_PRODUCT", err.Error())
		return
	case err != nil:
		log.Println("❌ Erreur création produit:", err)
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur serveur")
		return
	}

	cache.InvalidateCatalog(c.Request.Context())
	go services.IndexProduct(p)

	log.Println("✅ Produit créé:", p.Name)
	utils.Success(c, http.StatusCreated, "Produit créé", p)
}

// UpdateProduct modifie un produit (admin)
func UpdateProduct(c *gin.Context) {
	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_ID", "Identifiant invalide")
		return
	}

	var input struct {
		Name        *string `json:"name" binding:"omitempty,min=1,max=200"`
		Description *string `json:"description" binding:"omitempty,max=5000"`
		Price       *int64  `json:"price" binding:"omitempty,min=1"`
		Stock       *int    `json:"stock" binding:"omitempty,min=0"`
		CategoryID  *string `json:"category_id" binding:"omitempty,uuid"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.ValidationError(c, err)
		return
	}

	patch := repository.ProductPatch{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
	}
	if input.CategoryID != nil {
		categoryID, err := gocql.ParseUUID(*input.CategoryID)
		if err != nil {
			utils.Error(c, http.StatusBadRequest, "INVALID_ID", "category_id invalide")
			return
		}
		patch.CategoryID = &categoryID
	}

	p, err := Products.Update(c.Request.Context(), id, patch)
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		utils.Error(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Produit introuvable")
		return
	case errors.Is(err, repository.ErrCategoryNotFound):
		utils.Error(c, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Catégorie introuvable")
		return
	case errors.Is(err, repository.ErrDuplicateProduct):
		utils.Error(c, http.StatusConflict, "DUPLICATE_PRODUCT", "Un produit porte déjà ce nom dans cette catégorie")
		return
	case errors.Is(err, repository.ErrInvalidProduct):
		utils.Error(c, http.StatusBadRequest, "INVALID_PRODUCT", err.Error())
		return
	case err != nil:
		log.Println("❌ Erreur mise à jour produit:", err)
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur serveur")
		return
	}

	cache.InvalidateCatalog(c.Request.Context())
	go services.IndexProduct(p)

	utils.Success(c, http.StatusOK, "Produit mis à jour", p)
}

// DeleteProduct supprime un produit (admin)
func DeleteProduct(c *gin.Context) {
	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_ID", "Identifiant invalide")
		return
	}

	err = Products.Delete(c.Request.Context(), id)
	if errors.Is(err, repository.ErrProductNotFound) {
		utils.Error(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Produit introuvable")
		return
	}
	if err != nil {
		log.Println("❌ Erreur suppression produit:", err)
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur serveur")
		return
	}

	cache.InvalidateCatalog(c.Request.Context())
	go services.RemoveProduct(id.String())

	log.Println("✅ Produit supprimé:", id.String())
	utils.Success(c, http.StatusOK, "Produit supprimé", nil)
}

// SearchProducts recherche plein-texte via Elasticsearch
func SearchProducts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		utils.Error(c, http.StatusBadRequest, "MISSING_QUERY", "Paramètre q requis")
		return
	}

	results, err := services.SearchProducts(query)
	if err != nil {
		log.Println("⚠️ Recherche Elastic indisponible:", err)
		utils.Error(c, http.StatusServiceUnavailable, "SEARCH_UNAVAILABLE", "Recherche indisponible")
		return
	}

	utils.Success(c, http.StatusOK, "Résultats", results)
}
