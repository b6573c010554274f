package repository

import "errors"

// Erreurs métier : elles remontent telles quelles jusqu'aux handlers qui les
// traduisent en statut HTTP. Les erreurs bas niveau (gocql, réseau) sont
// enveloppées avec le contexte de l'opération avant d'être propagées.
var (
	ErrCategoryNotFound    = errors.New("catégorie introuvable")
	ErrDuplicateCategory   = errors.New("une catégorie porte déjà ce nom")
	ErrCategoryHasProducts = errors.New("des produits référencent encore cette catégorie")

	ErrProductNotFound  = errors.New("produit introuvable")
	ErrDuplicateProduct = errors.New("un produit porte déjà ce nom dans cette catégorie")
	ErrInvalidProduct   = errors.New("données produit invalides")

	ErrUserNotFound = errors.New("utilisateur introuvable")

	ErrOrderNotFound = errors.New("commande introuvable")
	// ErrEventAlreadyProcessed : l'event id Stripe a déjà produit un paiement.
	// C'est le signal d'idempotence, pas une erreur fatale.
	ErrEventAlreadyProcessed = errors.New("événement déjà traité")
)
