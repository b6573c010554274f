package product

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"lumea_back_end/internal/models"
	"lumea_back_end/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogRouter(t *testing.T) (*gin.Engine, *repository.MemoryCategoryRepository, *repository.MemoryProductRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	memProducts := repository.NewMemoryProductRepository()
	memCategories := repository.NewMemoryCategoryRepository(memProducts)
	memProducts.BindCategories(memCategories)

	oldCategories, oldProducts := Categories, Products
	Categories = memCategories
	Products = memProducts
	t.Cleanup(func() { Categories, Products = oldCategories, oldProducts })

	r := gin.New()
	r.GET("/api/categories", GetCategories)
	r.GET("/api/categories/:id", GetCategory)
	r.GET("/api/categories/:id/products", GetProductsByCategory)
	r.POST("/api/categories", CreateCategory)
	r.PUT("/api/categories/:id", UpdateCategory)
	r.DELETE("/api/categories/:id", DeleteCategory)
	r.GET("/api/products", GetProducts)
	r.GET("/api/products/search", SearchProducts)
	r.GET("/api/products/:id", GetProduct)
	r.POST("/api/products", CreateProduct)
	r.PUT("/api/products/:id", UpdateProduct)
	r.DELETE("/api/products/:id", DeleteProduct)
	return r, memCategories, memProducts
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateCategoryAndDuplicate(t *testing.T) {
	r, _, _ := newCatalogRouter(t)

	w := do(r, http.MethodPost, "/api/categories", `{"name": "Soins", "description": "Soins du visage"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/api/categories", `{"name": "Soins"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "DUPLICATE_CATEGORY")
}

func TestCreateCategoryValidation(t *testing.T) {
	r, _, _ := newCatalogRouter(t)

	w := do(r, http.MethodPost, "/api/categories", `{"description": "sans nom"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestDeleteCategoryGuardedByProducts(t *testing.T) {
	r, memCategories, memProducts := newCatalogRouter(t)

	cat := models.Category{Name: "Soins"}
	require.NoError(t, memCategories.Create(context.Background(), &cat))
	p := models.Product{Name: "Crème", Price: 1200, Stock: 5, CategoryID: cat.ID}
	require.NoError(t, memProducts.Create(context.Background(), &p))

	w := do(r, http.MethodDelete, "/api/categories/"+cat.ID.String(), "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "CATEGORY_NOT_EMPTY")

	// Une fois le produit supprimé, la suppression passe.
	w = do(r, http.MethodDelete, "/api/products/"+p.ID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodDelete, "/api/categories/"+cat.ID.String(), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateProductUnknownCategory(t *testing.T) {
	r, _, memProducts := newCatalogRouter(t)

	body := fmt.Sprintf(`{"name": "Crème", "price": 1200, "stock": 5, "category_id": %q}`, gocql.TimeUUID().String())
	w := do(r, http.MethodPost, "/api/products", body)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "CATEGORY_NOT_FOUND")

	products, err := memProducts.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, products, "rien n'est écrit quand la catégorie n'existe pas")
}

func TestCreateProductPriceBounds(t *testing.T) {
	r, memCategories, _ := newCatalogRouter(t)

	cat := models.Category{Name: "Soins"}
	require.NoError(t, memCategories.Create(context.Background(), &cat))

	cases := []struct {
		name string
		body string
		want int
	}{
		{"prix nul", `{"name": "A", "price": 0, "stock": 1, "category_id": %q}`, http.StatusBadRequest},
		{"prix trop haut", `{"name": "B", "price": 1000000, "stock": 1, "category_id": %q}`, http.StatusBadRequest},
		{"stock négatif", `{"name": "C", "price": 100, "stock": -1, "category_id": %q}`, http.StatusBadRequest},
		{"valide", `{"name": "D", "price": 100, "stock": 0, "category_id": %q}`, http.StatusCreated},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/products", fmt.Sprintf(tc.body, cat.ID.String()))
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}

func TestDuplicateProductNameWithinCategory(t *testing.T) {
	r, memCategories, _ := newCatalogRouter(t)

	cat := models.Category{Name: "Soins"}
	require.NoError(t, memCategories.Create(context.Background(), &cat))
	other := models.Category{Name: "Parfums"}
	require.NoError(t, memCategories.Create(context.Background(), &other))

	body := fmt.Sprintf(`{"name": "Crème", "price": 1200, "stock": 5, "category_id": %q}`, cat.ID.String())
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/products", body).Code)

	w := do(r, http.MethodPost, "/api/products", body)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Même nom autorisé dans une autre catégorie.
	bodyOther := fmt.Sprintf(`{"name": "Crème", "price": 1200, "stock": 5, "category_id": %q}`, other.ID.String())
	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/products", bodyOther).Code)
}

func TestGetProductsByCategoryRequiresCategory(t *testing.T) {
	r, _, _ := newCatalogRouter(t)

	w := do(r, http.MethodGet, "/api/categories/"+gocql.TimeUUID().String()+"/products", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchProductsRequiresQuery(t *testing.T) {
	r, _, _ := newCatalogRouter(t)

	w := do(r, http.MethodGet, "/api/products/search", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "MISSING_QUERY")
}

func TestSearchProductsUnavailableWithoutElastic(t *testing.T) {
	r, _, _ := newCatalogRouter(t)

	// Pas de client Elasticsearch : la recherche répond indisponible.
	w := do(r, http.MethodGet, "/api/products/search?q=savon", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "SEARCH_UNAVAILABLE")
}

func TestListCategoriesEnvelope(t *testing.T) {
	r, memCategories, _ := newCatalogRouter(t)

	cat := models.Category{Name: "Soins"}
	require.NoError(t, memCategories.Create(context.Background(), &cat))

	w := do(r, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool              `json:"success"`
		Data    []models.Category `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Soins", resp.Data[0].Name)
}
