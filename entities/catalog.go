package entities

import "time"

// Catalog item kinds. Districts and blocks have their own tables.
const (
	KindCrop        = "crop"
	KindSeason      = "season"
	KindIrrigation  = "irrigation"
	KindSoil        = "soil"
	KindSeedVariety = "seed_variety"
	KindFertilizer  = "fertilizer"
	KindPest        = "pest"
)

var CatalogKinds = []string{KindCrop, KindSeason, KindIrrigation, KindSoil, KindSeedVariety, KindFertilizer, KindPest}

type District struct {
	DistrictID uint   `gorm:"primaryKey" json:"district_id"`
	Name       string `gorm:"uniqueIndex" json:"name"`
	State      string `json:"state"`
	CreatedAt  time.Time
}

type Block struct {
	BlockID   uint   `gorm:"primaryKey" json:"block_id"`
	District  string `gorm:"index;uniqueIndex:idx_district_block" json:"district"`
	Name      string `gorm:"uniqueIndex:idx_district_block" json:"name"`
	Ord       int    `json:"ord"`
	CreatedAt time.Time
}

type CatalogItem struct {
	ItemID    uint   `gorm:"primaryKey" json:"item_id"`
	Kind      string `gorm:"index" json:"kind"`
	Name      string `json:"name"`
	Label     string `json:"label"`
	Ord       int    `json:"ord"`
	CreatedAt time.Time
}
