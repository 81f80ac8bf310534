package repositoryImp

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"krushi/entities"
	"krushi/pkg/catalog/repository"
)

type catalogRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.CatalogRepository { return &catalogRepo{db} }

func (r *catalogRepo) Districts() ([]entities.District, error) {
	var out []entities.District
	return out, r.db.Order("name asc").Find(&out).Error
}

func (r *catalogRepo) FindDistrict(name string) (*entities.District, error) {
	var d entities.District
	if err := r.db.Where("name = ?", name).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *catalogRepo) BlocksOf(district string) ([]entities.Block, error) {
	var out []entities.Block
	return out, r.db.Where("district = ?", district).Order("ord asc, block_id asc").Find(&out).Error
}

func (r *catalogRepo) Items(kind string) ([]entities.CatalogItem, error) {
	var out []entities.CatalogItem
	return out, r.db.Where("kind = ?", kind).Order("ord asc, item_id asc").Find(&out).Error
}

func (r *catalogRepo) CountDistricts() (int64, error) {
	var n int64
	return n, r.db.Model(&entities.District{}).Count(&n).Error
}

func (r *catalogRepo) ReplaceAll(ds []entities.District, bs []entities.Block, items []entities.CatalogItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{&entities.Block{}, &entities.District{}, &entities.CatalogItem{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return err
			}
		}
		return createAll(tx, ds, bs, items)
	})
}

func (r *catalogRepo) MergeBlocks(ds []entities.District, bs []entities.Block) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		names := make([]string, 0, len(ds))
		for _, d := range ds {
			names = append(names, d.Name)
		}
		if len(ds) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ds).Error; err != nil {
				return err
			}
			if err := tx.Where("district IN ?", names).Delete(&entities.Block{}).Error; err != nil {
				return err
			}
		}
		return createAll(tx, nil, bs, nil)
	})
}

func (r *catalogRepo) ReplaceItems(items []entities.CatalogItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		kinds := map[string]bool{}
		for _, it := range items {
			if !kinds[it.Kind] {
				kinds[it.Kind] = true
				if err := tx.Where("kind = ?", it.Kind).Delete(&entities.CatalogItem{}).Error; err != nil {
					return err
				}
			}
		}
		return createAll(tx, nil, nil, items)
	})
}

func createAll(tx *gorm.DB, ds []entities.District, bs []entities.Block, items []entities.CatalogItem) error {
	if len(ds) > 0 {
		if err := tx.CreateInBatches(&ds, 100).Error; err != nil {
			return err
		}
	}
	if len(bs) > 0 {
		if err := tx.CreateInBatches(&bs, 200).Error; err != nil {
			return err
		}
	}
	if len(items) > 0 {
		if err := tx.CreateInBatches(&items, 100).Error; err != nil {
			return err
		}
	}
	return nil
}
