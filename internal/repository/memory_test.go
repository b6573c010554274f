package repository

import (
	"context"
	"errors"
	"testing"

	"lumea_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalog(t *testing.T) (*MemoryCategoryRepository, *MemoryProductRepository) {
	t.Helper()
	products := NewMemoryProductRepository()
	categories := NewMemoryCategoryRepository(products)
	products.BindCategories(categories)
	return categories, products
}

func TestCategoryCreate_DuplicateName(t *testing.T) {
	categories, _ := newCatalog(t)
	ctx := context.Background()

	require.NoError(t, categories.Create(ctx, &models.Category{Name: "Livres", Description: "papier"}))

	err := categories.Create(ctx, &models.Category{Name: "Livres", Description: "autre"})
	assert.ErrorIs(t, err, ErrDuplicateCategory)
}

func TestCategoryDelete_RefusedWhileProductsRemain(t *testing.T) {
	categories, products := newCatalog(t)
	ctx := context.Background()

	cat := models.Category{Name: "Audio", Description: "casques et enceintes"}
	require.NoError(t, categories.Create(ctx, &cat))
	require.NoError(t, products.Create(ctx, &models.Product{
		Name: "Casque", Description: "supra-aural", Price: 4999, Stock: 3, CategoryID: cat.ID,
	}))

	err := categories.Delete(ctx, cat.ID)
	assert.ErrorIs(t, err, ErrCategoryHasProducts)

	// La catégorie est toujours là.
	_, err = categories.Get(ctx, cat.ID)
	require.NoError(t, err)

	// Une fois le produit supprimé, la suppression passe.
	prods, err := products.ByCategory(ctx, cat.ID)
	require.NoError(t, err)
	require.Len(t, prods, 1)
	require.NoError(t, products.Delete(ctx, prods[0].ID))
	assert.NoError(t, categories.Delete(ctx, cat.ID))
}

func TestProductCreate_CategoryMustExist(t *testing.T) {
	_, products := newCatalog(t)
	ctx := context.Background()

	err := products.Create(ctx, &models.Product{
		Name: "Fantôme", Description: "aucune catégorie", Price: 999, Stock: 1,
		CategoryID: gocql.TimeUUID(),
	})
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	// Rien n'a été écrit.
	all, err := products.List(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestProductCreate_Validation(t *testing.T) {
	categories, products := newCatalog(t)
	ctx := context.Background()

	cat := models.Category{Name: "Jeux", Description: "vidéo"}
	require.NoError(t, categories.Create(ctx, &cat))

	cases := []struct {
		name  string
		price int64
		stock int
	}{
		{"prix nul", 0, 1},
		{"prix négatif", -5, 1},
		{"prix trop élevé", ProductPriceMax + 1, 1},
		{"stock négatif", 999, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := products.Create(ctx, &models.Product{
				Name: tc.name, Description: "x", Price: tc.price, Stock: tc.stock, CategoryID: cat.ID,
			})
			assert.ErrorIs(t, err, ErrInvalidProduct)
		})
	}
}

func TestOrderTransitions_GuardedAtMutation(t *testing.T) {
	orders := NewMemoryOrderRepository()
	ctx := context.Background()

	order := models.Order{Type: models.OrderTypeOneTime, Status: models.OrderStatusCreated, Currency: "usd", ActualAmount: 1998}
	require.NoError(t, orders.CreateOrder(ctx, &order))

	require.NoError(t, orders.MarkPaid(ctx, order.ID, "pi_123", ""))

	// paid -> paid est interdit : le cycle de vie n'avance que vers l'avant.
	err := orders.MarkPaid(ctx, order.ID, "pi_456", "")
	assert.ErrorIs(t, err, models.ErrIllegalTransition)

	require.NoError(t, orders.MarkRefunded(ctx, order.ID))

	err = orders.MarkRefunded(ctx, order.ID)
	assert.ErrorIs(t, err, models.ErrIllegalTransition)

	got, err := orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusRefunded, got.Status)
	assert.Equal(t, "pi_123", got.StripePaymentIntentID)
}

func TestInsertPayment_IdempotentParEventID(t *testing.T) {
	orders := NewMemoryOrderRepository()
	ctx := context.Background()

	order := models.Order{Type: models.OrderTypeOneTime, Status: models.OrderStatusCreated, Currency: "usd"}
	require.NoError(t, orders.CreateOrder(ctx, &order))

	first := models.Payment{OrderID: order.ID, StripePaymentIntentID: "pi_1", Status: models.PaymentStatusSucceeded, Amount: 1998, Currency: "usd", RawEventID: "evt_1"}
	require.NoError(t, orders.InsertPayment(ctx, &first))

	// Même event id, payload différent : refusé.
	second := models.Payment{OrderID: order.ID, StripePaymentIntentID: "pi_autre", Status: models.PaymentStatusSucceeded, Amount: 42, Currency: "usd", RawEventID: "evt_1"}
	err := orders.InsertPayment(ctx, &second)
	assert.True(t, errors.Is(err, ErrEventAlreadyProcessed))

	payments, err := orders.ListPayments(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
	assert.Equal(t, "pi_1", payments[0].StripePaymentIntentID)

	exists, err := orders.PaymentExistsForEvent(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, exists)
}
