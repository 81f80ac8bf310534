package repository

import "krushi/entities"

type CatalogRepository interface {
	Districts() ([]entities.District, error)
	FindDistrict(name string) (*entities.District, error)
	BlocksOf(district string) ([]entities.Block, error)
	Items(kind string) ([]entities.CatalogItem, error)
	CountDistricts() (int64, error)
	// ReplaceAll swaps the whole catalog in one transaction.
	ReplaceAll(ds []entities.District, bs []entities.Block, items []entities.CatalogItem) error
	// MergeBlocks upserts ds and replaces the blocks of exactly those districts.
	MergeBlocks(ds []entities.District, bs []entities.Block) error
	// ReplaceItems replaces the lists of the kinds present in items.
	ReplaceItems(items []entities.CatalogItem) error
}
