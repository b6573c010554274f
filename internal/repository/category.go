package repository

import (
	"context"
	"fmt"
	"time"

	"lumea_back_end/internal/database"
	"lumea_back_end/internal/models"

	"github.com/gocql/gocql"
)

type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	Get(ctx context.Context, id gocql.UUID) (models.Category, error)
	Create(ctx context.Context, cat *models.Category) error
	Update(ctx context.Context, id gocql.UUID, name, description *string) (models.Category, error)
	Delete(ctx context.Context, id gocql.UUID) error
}

type scyllaCategoryRepository struct{}

func NewScyllaCategoryRepository() CategoryRepository {
	return scyllaCategoryRepository{}
}

func (scyllaCategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	session, err := database.GetCatalogSession()
	if err != nil {
		return nil, fmt.Errorf("catégories: liste: %w", err)
	}

	iter := session.Query(`SELECT category_id, name, description, created_at, updated_at FROM categories`).
		WithContext(ctx).Iter()

	var cats []models.Category
	var cat models.Category
	for iter.Scan(&cat.ID, &cat.Name, &cat.Description, &cat.CreatedAt, &cat.UpdatedAt) {
		cats = append(cats, cat)
		cat = models.Category{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("catégories: liste: %w", err)
	}
	return cats, nil
}

func (scyllaCategoryRepository) Get(ctx context.Context, id gocql.UUID) (models.Category, error) {
	session, err := database.GetCatalogSession()
	if err != nil {
		return models.Category{}, fmt.Errorf("catégories: lecture: %w", err)
	}

	cat := models.Category{ID: id}
	err = session.Query(`SELECT name, description, created_at, updated_at FROM categories WHERE category_id = ?`, id).
		WithContext(ctx).Scan(&cat.Name, &cat.Description, &cat.CreatedAt, &cat.UpdatedAt)
	if err == gocql.ErrNotFound {
		return models.Category{}, ErrCategoryNotFound
	}
	if err != nil {
		return models.Category{}, fmt.Errorf("catégories: lecture: %w", err)
	}
	return cat, nil
}

func (r scyllaCategoryRepository) Create(ctx context.Context, cat *models.Category) error {
	session, err := database.GetCatalogSession()
	if err != nil {
		return fmt.Errorf("catégories: création: %w", err)
	}

	if taken, err := r.nameTaken(ctx, session, cat.Name, nil); err != nil {
		return fmt.Errorf("catégories: création: %w", err)
	} else if taken {
		return ErrDuplicateCategory
	}

	cat.ID = gocql.TimeUUID()
	now := time.Now().UTC()
	cat.CreatedAt = now
	cat.UpdatedAt = now

	err = session.Query(`INSERT INTO categories (category_id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		cat.ID, cat.Name, cat.Description, cat.CreatedAt, cat.UpdatedAt).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("catégories: création: %w", err)
	}
	return nil
}

func (r scyllaCategoryRepository) Update(ctx context.Context, id gocql.UUID, name, description *string) (models.Category, error) {
	cat, err := r.Get(ctx, id)
	if err != nil {
		return models.Category{}, err
	}

	session, err := database.GetCatalogSession()
	if err != nil {
		return models.Category{}, fmt.Errorf("catégories: mise à jour: %w", err)
	}

	if name != nil && *name != cat.Name {
		if taken, err := r.nameTaken(ctx, session, *name, &id); err != nil {
			return models.Category{}, fmt.Errorf("catégories: mise à jour: %w", err)
		} else if taken {
			return models.Category{}, ErrDuplicateCategory
		}
		cat.Name = *name
	}
	if description != nil {
		cat.Description = *description
	}
	cat.UpdatedAt = time.Now().UTC()

	err = session.Query(`UPDATE categories SET name = ?, description = ?, updated_at = ? WHERE category_id = ?`,
		cat.Name, cat.Description, cat.UpdatedAt, id).WithContext(ctx).Exec()
	if err != nil {
		return models.Category{}, fmt.Errorf("catégories: mise à jour: %w", err)
	}
	return cat, nil
}

func (r scyllaCategoryRepository) Delete(ctx context.Context, id gocql.UUID) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}

	session, err := database.GetCatalogSession()
	if err != nil {
		return fmt.Errorf("catégories: suppression: %w", err)
	}

	// Contrainte applicative : pas de suppression tant que des produits
	// référencent la catégorie.
	var count int
	err = session.Query(`SELECT COUNT(*) FROM products WHERE category_id = ? ALLOW FILTERING`, id).
		WithContext(ctx).Scan(&count)
	if err != nil {
		return fmt.Errorf("catégories: suppression: %w", err)
	}
	if count > 0 {
		return ErrCategoryHasProducts
	}

	err = session.Query(`DELETE FROM categories WHERE category_id = ?`, id).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("catégories: suppression: %w", err)
	}
	return nil
}

func (scyllaCategoryRepository) nameTaken(ctx context.Context, session *gocql.Session, name string, exclude *gocql.UUID) (bool, error) {
	var existing gocql.UUID
	err := session.Query(`SELECT category_id FROM categories WHERE name = ? ALLOW FILTERING`, name).
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
