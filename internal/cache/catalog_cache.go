package cache

import (
	"context"
	"encoding/json"
	"time"

	"lumea_back_end/internal/database"
)

const (
	CategoriesKey = "categories:all"
	ProductsKey   = "products:all"

	CatalogTTL = time.Hour
)

// GetJSON lit une entrée du cache et la désérialise dans dest.
// Retourne false si Redis est absent ou si la clé n'existe pas.
func GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if database.Redis == nil {
		return false
	}
	val, err := database.Redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), dest) == nil
}

// SetJSON écrit une entrée sérialisée en JSON avec TTL. Best-effort.
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if database.Redis == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	database.Redis.Set(ctx, key, data, ttl)
}

// InvalidateCatalog purge les listes mises en cache après une écriture.
func InvalidateCatalog(ctx context.Context) {
	if database.Redis == nil {
		return
	}
	database.Redis.Del(ctx, CategoriesKey, ProductsKey)
}
