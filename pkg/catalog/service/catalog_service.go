package service

import (
	"io"

	"krushi/pkg/catalog"
)

type CatalogService interface {
	Districts() ([]string, error)
	BlocksOf(district string) ([]string, error)
	Items(kind string) ([]catalog.Item, error)
	// SeedDefaults loads the built-in lists. Unless force is set it does
	// nothing when districts already exist.
	SeedDefaults(force bool) (Summary, error)
	Import(ds catalog.Dataset) (Summary, error)
	ImportWorkbook(r io.Reader) (Summary, error)
	ImportBlocksCSV(r io.Reader) (Summary, error)
	ImportBlocksHTML(r io.Reader) (Summary, error)
}

type Summary struct {
	Districts int  `json:"districts"`
	Blocks    int  `json:"blocks"`
	Items     int  `json:"items"`
	Skipped   bool `json:"skipped,omitempty"`
}
