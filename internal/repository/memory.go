package repository

import (
	"context"
	"sync"
	"time"

	"lumea_back_end/internal/models"

	"github.com/gocql/gocql"
)

// Implémentations en mémoire des repositories, avec les mêmes règles métier
// que les implémentations ScyllaDB. Utilisées par les tests des handlers et
// utilisables en développement sans cluster.

type MemoryCategoryRepository struct {
	mu         sync.Mutex
	categories map[gocql.UUID]models.Category
	products   *MemoryProductRepository
}

func NewMemoryCategoryRepository(products *MemoryProductRepository) *MemoryCategoryRepository {
	return &MemoryCategoryRepository{
		categories: make(map[gocql.UUID]models.Category),
		products:   products,
	}
}

func (r *MemoryCategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cats := make([]models.Category, 0, len(r.categories))
	for _, cat := range r.categories {
		cats = append(cats, cat)
	}
	return cats, nil
}

func (r *MemoryCategoryRepository) Get(ctx context.Context, id gocql.UUID) (models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cat, ok := r.categories[id]
	if !ok {
		return models.Category{}, ErrCategoryNotFound
	}
	return cat, nil
}

func (r *MemoryCategoryRepository) Create(ctx context.Context, cat *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.categories {
		if existing.Name == cat.Name {
			return ErrDuplicateCategory
		}
	}
	cat.ID = gocql.TimeUUID()
	now := time.Now().UTC()
	cat.CreatedAt = now
	cat.UpdatedAt = now
	r.categories[cat.ID] = *cat
	return nil
}

func (r *MemoryCategoryRepository) Update(ctx context.Context, id gocql.UUID, name, description *string) (models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cat, ok := r.categories[id]
	if !ok {
		return models.Category{}, ErrCategoryNotFound
	}
	if name != nil && *name != cat.Name {
		for otherID, existing := range r.categories {
			if otherID != id && existing.Name == *name {
				return models.Category{}, ErrDuplicateCategory
			}
		}
		cat.Name = *name
	}
	if description != nil {
		cat.Description = *description
	}
	cat.UpdatedAt = time.Now().UTC()
	r.categories[id] = cat
	return cat, nil
}

func (r *MemoryCategoryRepository) Delete(ctx context.Context, id gocql.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[id]; !ok {
		return ErrCategoryNotFound
	}
	if r.products != nil && r.products.countByCategory(id) > 0 {
		return ErrCategoryHasProducts
	}
	delete(r.categories, id)
	return nil
}

func (r *MemoryCategoryRepository) exists(id gocql.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.categories[id]
	return ok
}

type MemoryProductRepository struct {
	mu         sync.Mutex
	products   map[gocql.UUID]models.Product
	categories *MemoryCategoryRepository
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{products: make(map[gocql.UUID]models.Product)}
}

// BindCategories relie le repository produits à celui des catégories pour la
// vérification d'existence, comme la clé étrangère du modèle de données.
func (r *MemoryProductRepository) BindCategories(categories *MemoryCategoryRepository) {
	r.categories = categories
}

func (r *MemoryProductRepository) List(ctx context.Context, limit int) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	products := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if len(products) >= limit {
			break
		}
		products = append(products, p)
	}
	return products, nil
}

func (r *MemoryProductRepository) Get(ctx context.Context, id gocql.UUID) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return models.Product{}, ErrProductNotFound
	}
	return p, nil
}

func (r *MemoryProductRepository) ByCategory(ctx context.Context, categoryID gocql.UUID) ([]models.Product, error) {
	if r.categories != nil && !r.categories.exists(categoryID) {
		return nil, ErrCategoryNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var products []models.Product
	for _, p := range r.products {
		if p.CategoryID == categoryID {
			products = append(products, p)
		}
	}
	return products, nil
}

func (r *MemoryProductRepository) Create(ctx context.Context, p *models.Product) error {
	if err := validateProduct(p.Price, p.Stock); err != nil {
		return err
	}
	if r.categories != nil && !r.categories.exists(p.CategoryID) {
		return ErrCategoryNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.products {
		if existing.Name == p.Name && existing.CategoryID == p.CategoryID {
			return ErrDuplicateProduct
		}
	}
	p.ID = gocql.TimeUUID()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.products[p.ID] = *p
	return nil
}

func (r *MemoryProductRepository) Update(ctx context.Context, id gocql.UUID, patch ProductPatch) (models.Product, error) {
	r.mu.Lock()
	p, ok := r.products[id]
	r.mu.Unlock()
	if !ok {
		return models.Product{}, ErrProductNotFound
	}
	if patch.CategoryID != nil {
		if r.categories != nil && !r.categories.exists(*patch.CategoryID) {
			return models.Product{}, ErrCategoryNotFound
		}
		p.CategoryID = *patch.CategoryID
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if err := validateProduct(p.Price, p.Stock); err != nil {
		return models.Product{}, err
	}
	p.UpdatedAt = time.Now().UTC()
	r.mu.Lock()
	r.products[id] = p
	r.mu.Unlock()
	return p, nil
}

func (r *MemoryProductRepository) Delete(ctx context.Context, id gocql.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *MemoryProductRepository) countByCategory(categoryID gocql.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, p := range r.products {
		if p.CategoryID == categoryID {
			count++
		}
	}
	return count
}

type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[gocql.UUID]models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[gocql.UUID]models.User)}
}

func (r *MemoryUserRepository) Get(ctx context.Context, id gocql.UUID) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return u, nil
}

func (r *MemoryUserRepository) FindOrCreate(ctx context.Context, profile models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Provider == profile.Provider && u.ProviderID == profile.ProviderID {
			return u, nil
		}
	}
	profile.ID = gocql.TimeUUID()
	if profile.Role == "" {
		profile.Role = models.RoleUser
	}
	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	r.users[profile.ID] = profile
	return profile, nil
}

type MemoryOrderRepository struct {
	mu              sync.Mutex
	orders          map[gocql.UUID]models.Order
	payments        map[gocql.UUID][]models.Payment
	processedEvents map[string]gocql.UUID
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders:          make(map[gocql.UUID]models.Order),
		payments:        make(map[gocql.UUID][]models.Payment),
		processedEvents: make(map[string]gocql.UUID),
	}
}

func (r *MemoryOrderRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order.ID == (gocql.UUID{}) {
		order.ID = gocql.TimeUUID()
	}
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now
	r.orders[order.ID] = *order
	return nil
}

func (r *MemoryOrderRepository) GetOrder(ctx context.Context, id gocql.UUID) (models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return models.Order{}, ErrOrderNotFound
	}
	return order, nil
}

func (r *MemoryOrderRepository) GetOrderBySubscription(ctx context.Context, subscriptionID string) (models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		if order.StripeSubscriptionID == subscriptionID && subscriptionID != "" {
			return order, nil
		}
	}
	return models.Order{}, ErrOrderNotFound
}

func (r *MemoryOrderRepository) AttachCheckoutSession(ctx context.Context, orderID gocql.UUID, sessionID string, amountInCents, actualAmount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	order.StripeCheckoutSessionID = sessionID
	order.AmountInCents = amountInCents
	order.ActualAmount = actualAmount
	order.UpdatedAt = time.Now().UTC()
	r.orders[orderID] = order
	return nil
}

func (r *MemoryOrderRepository) MarkPaid(ctx context.Context, orderID gocql.UUID, paymentIntentID, subscriptionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	next, err := models.Transition(order.Status, models.OrderStatusPaid)
	if err != nil {
		return err
	}
	order.Status = next
	order.StripePaymentIntentID = paymentIntentID
	order.StripeSubscriptionID = subscriptionID
	order.UpdatedAt = time.Now().UTC()
	r.orders[orderID] = order
	return nil
}

func (r *MemoryOrderRepository) MarkRefunded(ctx context.Context, orderID gocql.UUID) error {
	return r.transition(orderID, models.OrderStatusRefunded)
}

func (r *MemoryOrderRepository) MarkFailed(ctx context.Context, orderID gocql.UUID) error {
	return r.transition(orderID, models.OrderStatusFailed)
}

func (r *MemoryOrderRepository) MarkCanceled(ctx context.Context, orderID gocql.UUID) error {
	return r.transition(orderID, models.OrderStatusCanceled)
}

func (r *MemoryOrderRepository) transition(orderID gocql.UUID, to models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	next, err := models.Transition(order.Status, to)
	if err != nil {
		return err
	}
	order.Status = next
	order.UpdatedAt = time.Now().UTC()
	r.orders[orderID] = order
	return nil
}

func (r *MemoryOrderRepository) InsertPayment(ctx context.Context, payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Même sémantique que le IF NOT EXISTS de l'implémentation Scylla.
	if _, done := r.processedEvents[payment.RawEventID]; done {
		return ErrEventAlreadyProcessed
	}
	if payment.ID == (gocql.UUID{}) {
		payment.ID = gocql.TimeUUID()
	}
	payment.CreatedAt = time.Now().UTC()
	r.processedEvents[payment.RawEventID] = payment.ID
	r.payments[payment.OrderID] = append(r.payments[payment.OrderID], *payment)
	return nil
}

func (r *MemoryOrderRepository) PaymentExistsForEvent(ctx context.Context, eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, done := r.processedEvents[eventID]
	return done, nil
}

func (r *MemoryOrderRepository) ListPayments(ctx context.Context, orderID gocql.UUID) ([]models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Payment(nil), r.payments[orderID]...), nil
}
