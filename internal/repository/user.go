package repository

import (
	"context"
	"fmt"
	"time"

	"lumea_back_end/internal/database"
	"lumea_back_end/internal/models"

	"github.com/gocql/gocql"
)

type UserRepository interface {
	Get(ctx context.Context, id gocql.UUID) (models.User, error)
	// FindOrCreate retrouve l'utilisateur par (provider, provider_id) et le
	// crée s'il n'existe pas. Le profil OAuth fait foi pour nom et avatar.
	FindOrCreate(ctx context.Context, profile models.User) (models.User, error)
}

type scyllaUserRepository struct{}

func NewScyllaUserRepository() UserRepository {
	return scyllaUserRepository{}
}

const userColumns = `user_id, email, name, picture, provider, provider_id, role, created_at, updated_at`

func (scyllaUserRepository) Get(ctx context.Context, id gocql.UUID) (models.User, error) {
	session, err := database.GetUsersSession()
	if err != nil {
		return models.User{}, fmt.Errorf("utilisateurs: lecture: %w", err)
	}

	u := models.User{ID: id}
	err = session.Query(`SELECT email, name, picture, provider, provider_id, role, created_at, updated_at FROM users WHERE user_id = ?`, id).
		WithContext(ctx).Scan(&u.Email, &u.Name, &u.Picture, &u.Provider, &u.ProviderID, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err == gocql.ErrNotFound {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("utilisateurs: lecture: %w", err)
	}
	return u, nil
}

func (scyllaUserRepository) FindOrCreate(ctx context.Context, profile models.User) (models.User, error) {
	session, err := database.GetUsersSession()
	if err != nil {
		return models.User{}, fmt.Errorf("utilisateurs: find-or-create: %w", err)
	}

	var userID gocql.UUID
	err = session.Query(`SELECT user_id FROM users_by_provider WHERE provider = ? AND provider_id = ?`,
		profile.Provider, profile.ProviderID).WithContext(ctx).Scan(&userID)
	if err == nil {
		u := models.User{ID: userID}
		err = session.Query(`SELECT email, name, picture, provider, provider_id, role, created_at, updated_at FROM users WHERE user_id = ?`, userID).
			WithContext(ctx).Scan(&u.Email, &u.Name, &u.Picture, &u.Provider, &u.ProviderID, &u.Role, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return models.User{}, fmt.Errorf("utilisateurs: find-or-create: %w", err)
		}
		return u, nil
	}
	if err != gocql.ErrNotFound {
		return models.User{}, fmt.Errorf("utilisateurs: find-or-create: %w", err)
	}

	profile.ID = gocql.TimeUUID()
	if profile.Role == "" {
		profile.Role = models.RoleUser
	}
	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	err = session.Query(`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		profile.ID, profile.Email, profile.Name, profile.Picture, profile.Provider,
		profile.ProviderID, profile.Role, profile.CreatedAt, profile.UpdatedAt).
		WithContext(ctx).Exec()
	if err != nil {
		return models.User{}, fmt.Errorf("utilisateurs: création: %w", err)
	}

	err = session.Query(`INSERT INTO users_by_provider (provider, provider_id, user_id) VALUES (?, ?, ?)`,
		profile.Provider, profile.ProviderID, profile.ID).WithContext(ctx).Exec()
	if err != nil {
		return models.User{}, fmt.Errorf("utilisateurs: index provider: %w", err)
	}

	return profile, nil
}
