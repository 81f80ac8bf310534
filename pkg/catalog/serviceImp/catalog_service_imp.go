package serviceImp

import (
	"errors"
	"fmt"
	"io"

	"gorm.io/gorm"

	"krushi/pkg/catalog"
	repo "krushi/pkg/catalog/repository"
	"krushi/pkg/catalog/service"
	"krushi/pkg/logger"
)

type catalogSvc struct {
	r   repo.CatalogRepository
	log *logger.Logger
}

func NewCatalogService(r repo.CatalogRepository, l *logger.Logger) service.CatalogService {
	if l == nil {
		l = logger.Nop()
	}
	return &catalogSvc{r: r, log: l}
}

func (s *catalogSvc) Districts() ([]string, error) {
	ds, err := s.r.Districts()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Name)
	}
	return out, nil
}

func (s *catalogSvc) BlocksOf(district string) ([]string, error) {
	if _, err := s.r.FindDistrict(district); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownDistrict, district)
		}
		return nil, err
	}
	bs, err := s.r.BlocksOf(district)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.Name)
	}
	return out, nil
}

func (s *catalogSvc) Items(kind string) ([]catalog.Item, error) {
	k, err := catalog.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	rows, err := s.r.Items(k)
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Item, 0, len(rows))
	for _, it := range rows {
		out = append(out, catalog.Item{Name: it.Name, Label: it.Label})
	}
	return out, nil
}

func (s *catalogSvc) SeedDefaults(force bool) (service.Summary, error) {
	if !force {
		n, err := s.r.CountDistricts()
		if err != nil {
			return service.Summary{}, err
		}
		if n > 0 {
			return service.Summary{Skipped: true}, nil
		}
	}
	ds, bs, items := catalog.Defaults().Rows()
	if err := s.r.ReplaceAll(ds, bs, items); err != nil {
		return service.Summary{}, fmt.Errorf("seed catalog: %w", err)
	}
	sum := service.Summary{Districts: len(ds), Blocks: len(bs), Items: len(items)}
	s.log.Info("catalog seeded", "districts", sum.Districts, "blocks", sum.Blocks, "items", sum.Items)
	return sum, nil
}

// Import merges ds: districts in ds get their block lists replaced, kinds in
// ds get their item lists replaced, everything else is left alone.
func (s *catalogSvc) Import(ds catalog.Dataset) (service.Summary, error) {
	if err := ds.Normalize(); err != nil {
		return service.Summary{}, err
	}
	if ds.Empty() {
		return service.Summary{}, catalog.ErrEmptyImport
	}
	districts, blocks, items := ds.Rows()
	if len(districts) > 0 {
		if err := s.r.MergeBlocks(districts, blocks); err != nil {
			return service.Summary{}, fmt.Errorf("import blocks: %w", err)
		}
	}
	if len(items) > 0 {
		if err := s.r.ReplaceItems(items); err != nil {
			return service.Summary{}, fmt.Errorf("import items: %w", err)
		}
	}
	sum := service.Summary{Districts: len(districts), Blocks: len(blocks), Items: len(items)}
	s.log.Info("catalog imported", "districts", sum.Districts, "blocks", sum.Blocks, "items", sum.Items)
	return sum, nil
}

func (s *catalogSvc) ImportWorkbook(r io.Reader) (service.Summary, error) {
	ds, err := catalog.ParseWorkbook(r)
	if err != nil {
		return service.Summary{}, err
	}
	return s.Import(ds)
}

func (s *catalogSvc) ImportBlocksCSV(r io.Reader) (service.Summary, error) {
	ds, err := catalog.ParseBlocksCSV(r)
	if err != nil {
		return service.Summary{}, err
	}
	return s.Import(ds)
}

func (s *catalogSvc) ImportBlocksHTML(r io.Reader) (service.Summary, error) {
	ds, err := catalog.ParseBlocksHTML(r)
	if err != nil {
		return service.Summary{}, err
	}
	return s.Import(ds)
}
