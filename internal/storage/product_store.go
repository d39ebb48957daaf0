package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"katalog/internal/models"
	"katalog/pkg/errs"
)

// ProductStore is the single owner of the product collection. It keeps the
// collection in memory and mirrors every mutation to a JSON document on
// disk, so a mutation is only reported as successful once it has been
// persisted. List order is insertion order.
type ProductStore struct {
	path     string
	products []models.Product
	mu       sync.RWMutex
}

// document is the on-disk shape of the store.
type document struct {
	Products []models.Product `json:"products"`
}

// NewProductStore creates a store backed by the JSON document at path.
// Call Load before using it.
func NewProductStore(path string) *ProductStore {
	return &ProductStore{
		path:     path,
		products: []models.Product{},
	}
}

// Load reads the persisted document into memory. A missing or unparseable
// document resets the store to an empty collection and persists it
// immediately, so the process always starts from a readable document.
func (s *ProductStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read product document %s: %w", s.path, err)
		}
		s.products = []models.Product{}
		return s.save()
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("Product document is unparseable, resetting to an empty collection")
		s.products = []models.Product{}
		return s.save()
	}

	if doc.Products == nil {
		doc.Products = []models.Product{}
	}
	s.products = doc.Products
	return nil
}

// save persists the whole collection. Callers must hold the write lock.
// The document is written to a temp file and renamed into place so a crash
// mid-write cannot truncate it.
func (s *ProductStore) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(document{Products: s.products}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal product document: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write product document: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace product document: %w", err)
	}
	return nil
}

// GetAll returns all products in insertion order.
func (s *ProductStore) GetAll() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	productList := make([]models.Product, len(s.products))
	copy(productList, s.products)
	return productList
}

// GetByID returns a product by its ID.
func (s *ProductStore) GetByID(id string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.ID == id {
			product := p
			return &product, nil
		}
	}
	return nil, errs.ErrProductNotFound
}

// Insert appends a new product and persists the collection. If persisting
// fails the in-memory collection is rolled back so memory and disk agree.
func (s *ProductStore) Insert(product models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = append(s.products, product)
	if err := s.save(); err != nil {
		s.products = s.products[:len(s.products)-1]
		return err
	}
	return nil
}

// Replace swaps the product with the given ID for the supplied record and
// persists the collection.
func (s *ProductStore) Replace(id string, product models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.products {
		if s.products[i].ID == id {
			previous := s.products[i]
			s.products[i] = product
			if err := s.save(); err != nil {
				s.products[i] = previous
				return err
			}
			return nil
		}
	}
	return errs.ErrProductNotFound
}

// Remove deletes the product with the given ID and persists the collection.
func (s *ProductStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.products {
		if s.products[i].ID == id {
			previous := s.products[i]
			s.products = append(s.products[:i], s.products[i+1:]...)
			if err := s.save(); err != nil {
				s.products = append(s.products[:i], append([]models.Product{previous}, s.products[i:]...)...)
				return err
			}
			return nil
		}
	}
	return errs.ErrProductNotFound
}
