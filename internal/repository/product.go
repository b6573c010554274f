package repository

import (
	"context"
	"fmt"
	"time"

	"lumea_back_end/internal/database"
	"lumea_back_end/internal/models"

	"github.com/gocql/gocql"
)

// Bornes de validation produit (règles métier, pas du schéma HTTP).
const (
	ProductPriceMax = 999999
)

// ProductPatch : champs modifiables d'un produit ; nil = inchangé.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *int64
	Stock       *int
	CategoryID  *gocql.UUID
}

type ProductRepository interface {
	List(ctx context.Context, limit int) ([]models.Product, error)
	Get(ctx context.Context, id gocql.UUID) (models.Product, error)
	ByCategory(ctx context.Context, categoryID gocql.UUID) ([]models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, id gocql.UUID, patch ProductPatch) (models.Product, error)
	Delete(ctx context.Context, id gocql.UUID) error
}

type scyllaProductRepository struct{}

func NewScyllaProductRepository() ProductRepository {
	return scyllaProductRepository{}
}

const productColumns = `product_id, name, description, price, stock, category_id, created_at, updated_at`

func (scyllaProductRepository) List(ctx context.Context, limit int) ([]models.Product, error) {
	session, err := database.GetCatalogSession()
	if err != nil {
		return nil, fmt.Errorf("produits: liste: %w", err)
	}

	iter := session.Query(`SELECT `+productColumns+` FROM products LIMIT ?`, limit).
		WithContext(ctx).Iter()

	var products []models.Product
	var p models.Product
	for iter.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt) {
		products = append(products, p)
		p = models.Product{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("produits: liste: %w", err)
	}
	return products, nil
}

func (scyllaProductRepository) Get(ctx context.Context, id gocql.UUID) (models.Product, error) {
	session, err := database.GetCatalogSession()
	if err != nil {
		return models.Product{}, fmt.Errorf("produits: lecture: %w", err)
	}

	p := models.Product{ID: id}
	err = session.Query(`SELECT name, description, price, stock, category_id, created_at, updated_at FROM products WHERE product_id = ?`, id).
		WithContext(ctx).Scan(&p.Name, &p.Description, &p.Price, &p.Stock, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt)
	if err == gocql.ErrNotFound {
		return models.Product{}, ErrProductNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("produits: lecture: %w", err)
	}
	return p, nil
}

func (r scyllaProductRepository) ByCategory(ctx context.Context, categoryID gocql.UUID) ([]models.Product, error) {
	session, err := database.GetCatalogSession()
	if err != nil {
		return nil, fmt.Errorf("produits: par catégorie: %w", err)
	}

	if err := r.categoryExists(ctx, session, categoryID); err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT `+productColumns+` FROM products WHERE category_id = ? ALLOW FILTERING`, categoryID).
		WithContext(ctx).Iter()

	var products []models.Product
	var p models.Product
	for iter.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt) {
		products = append(products, p)
		p = models.Product{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("produits: par catégorie: %w", err)
	}
	return products, nil
}

func (r scyllaProductRepository) Create(ctx context.Context, p *models.Product) error {
	if err := validateProduct(p.Price, p.Stock); err != nil {
		return err
	}

	session, err := database.GetCatalogSession()
	if err != nil {
		return fmt.Errorf("produits: création: %w", err)
	}

	if err := r.categoryExists(ctx, session, p.CategoryID); err != nil {
		return err
	}
	if taken, err := r.nameTaken(ctx, session, p.Name, p.CategoryID, nil); err != nil {
		return fmt.Errorf("produits: création: %w", err)
	} else if taken {
		return ErrDuplicateProduct
	}

	p.ID = gocql.TimeUUID()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	err = session.Query(`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.CategoryID, p.CreatedAt, p.UpdatedAt).
		WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("produits: création: %w", err)
	}
	return nil
}

func (r scyllaProductRepository) Update(ctx context.Context, id gocql.UUID, patch ProductPatch) (models.Product, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return models.Product{}, err
	}

	session, err := database.GetCatalogSession()
	if err != nil {
		return models.Product{}, fmt.Errorf("produits: mise à jour: %w", err)
	}

	if patch.CategoryID != nil {
		if err := r.categoryExists(ctx, session, *patch.CategoryID); err != nil {
			return models.Product{}, err
		}
		p.CategoryID = *patch.CategoryID
	}
	if patch.Name != nil && *patch.Name != p.Name {
		if taken, err := r.nameTaken(ctx, session, *patch.Name, p.CategoryID, &id); err != nil {
			return models.Product{}, fmt.Errorf("produits: mise à jour: %w", err)
		} else if taken {
			return models.Product{}, ErrDuplicateProduct
		}
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

	err = session.Query(`UPDATE products SET name = ?, description = ?, price = ?, stock = ?, category_id = ?, updated_at = ? WHERE product_id = ?`,
		p.Name, p.Description, p.Price, p.Stock, p.CategoryID, p.UpdatedAt, id).
		WithContext(ctx).Exec()
	if err != nil {
		return models.Product{}, fmt.Errorf("produits: mise à jour: %w", err)
	}
	return p, nil
}

func (r scyllaProductRepository) Delete(ctx context.Context, id gocql.UUID) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}

	session, err := database.GetCatalogSession()
	if err != nil {
		return fmt.Errorf("produits: suppression: %w", err)
	}

	err = session.Query(`DELETE FROM products WHERE product_id = ?`, id).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("produits: suppression: %w", err)
	}
	return nil
}

func validateProduct(price int64, stock int) error {
	if price <= 0 {
		return fmt.Errorf("%w: le prix doit être strictement positif", ErrInvalidProduct)
	}
	if price > ProductPriceMax {
		return fmt.Errorf("%w: le prix ne peut pas dépasser %d", ErrInvalidProduct, ProductPriceMax)
	}
	if stock < 0 {
		return fmt.Errorf("%w: le stock ne peut pas être négatif", ErrInvalidProduct)
	}
	return nil
}

func (scyllaProductRepository) categoryExists(ctx context.Context, session *gocql.Session, categoryID gocql.UUID) error {
	var name string
	err := session.Query(`SELECT name FROM categories WHERE category_id = ?`, categoryID).
		WithContext(ctx).Scan(&name)
	if err == gocql.ErrNotFound {
		return ErrCategoryNotFound
	}
	if err != nil {
		return fmt.Errorf("produits: vérification catégorie: %w", err)
	}
	return nil
}

func (scyllaProductRepository) nameTaken(ctx context.Context, session *gocql.Session, name string, categoryID gocql.UUID, exclude *gocql.UUID) (bool, error) {
	var existing gocql.UUID
	err := session.Query(`SELECT product_id FROM products WHERE name = ? AND category_id = ? ALLOW FILTERING`, name, categoryID).
		WithContext(ctx).Scan(&existing)
	if err == gocql.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if exclude != nil && existing == *exclude {
		return false, nil
	}
	return true, nil
}
