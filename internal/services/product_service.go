package services

import (
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"katalog/internal/models"
	"katalog/pkg/errs"
	"katalog/pkg/rabbitmq"
)

// ProductStore is the metadata side of the catalog: the owner of the
// product collection and its persisted JSON document.
type ProductStore interface {
	GetAll() []models.Product
	GetByID(id string) (*models.Product, error)
	Insert(product models.Product) error
	Replace(id string, product models.Product) error
	Remove(id string) error
}

// MediaIngestor is the file side of the catalog: it stores upload batches
// and reclaims files on rollback and cascade delete.
type MediaIngestor interface {
	Ingest(files []*multipart.FileHeader) ([]string, error)
	Remove(names []string)
}

// ProductInput carries the mutable product fields from a multipart form.
// Price is a pointer so a missing price field can be told apart from zero.
type ProductInput struct {
	Name        string
	Description string
	Price       *float64
	Stock       int
	Pinned      bool
}

// ProductService orchestrates the two storage substrates. Its one real job
// is keeping them consistent: ingested files that do not end up referenced
// by a persisted product are removed before the error is returned, and
// deleting a product reclaims every file it references.
type ProductService struct {
	store    ProductStore
	ingestor MediaIngestor
	mqClient *rabbitmq.Client
	validate *validator.Validate
}

// NewProductService creates a new ProductService. mqClient may be nil, in
// which case no events are published.
func NewProductService(store ProductStore, ingestor MediaIngestor, mqClient *rabbitmq.Client) *ProductService {
	return &ProductService{
		store:    store,
		ingestor: ingestor,
		mqClient: mqClient,
		validate: validator.New(),
	}
}

// GetAllProducts retrieves all products in insertion order.
func (s *ProductService) GetAllProducts() []models.Product {
	return s.store.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.store.GetByID(id)
}

// CreateProduct ingests the uploaded images and creates a new product
// referencing them. Any validation failure after ingestion removes the
// files stored in this request, so a rejected create never leaks files.
func (s *ProductService) CreateProduct(input ProductInput, files []*multipart.FileHeader) (*models.Product, error) {
	stored, err := s.ingestor.Ingest(files)
	if err != nil {
		return nil, err
	}

	if input.Name == "" || input.Price == nil || len(stored) == 0 {
		s.ingestor.Remove(stored)
		return nil, errs.ErrMissingFields
	}

	product := models.Product{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Description: input.Description,
		Price:       *input.Price,
		Stock:       input.Stock,
		Pinned:      input.Pinned,
		Images:      stored,
	}
	if err := s.validate.Struct(product); err != nil {
		s.ingestor.Remove(stored)
		return nil, errs.ErrMissingFields
	}

	if err := s.store.Insert(product); err != nil {
		s.ingestor.Remove(stored)
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}

	s.publishEvent("product.created", &product)
	return &product, nil
}

// UpdateProduct replaces a product's mutable fields wholesale. Its image
// list becomes the caller's kept list followed by the newly uploaded files
// in upload order. Files dropped from the kept list are left on disk: the
// caller fully controls retention on this path. If the ID does not resolve,
// the files ingested in this request are removed before failing.
func (s *ProductService) UpdateProduct(id string, input ProductInput, files []*multipart.FileHeader, keptImages []string) (*models.Product, error) {
	stored, err := s.ingestor.Ingest(files)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.GetByID(id); err != nil {
		s.ingestor.Remove(stored)
		return nil, err
	}

	images := make([]string, 0, len(keptImages)+len(stored))
	images = append(images, keptImages...)
	images = append(images, stored...)

	var price float64
	if input.Price != nil {
		price = *input.Price
	}
	product := models.Product{
		ID:          id,
		Name:        input.Name,
		Description: input.Description,
		Price:       price,
		Stock:       input.Stock,
		Pinned:      input.Pinned,
		Images:      images,
	}

	if err := s.store.Replace(id, product); err != nil {
		s.ingestor.Remove(stored)
		if errors.Is(err, errs.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to replace product %s: %w", id, err)
	}

	s.publishEvent("product.updated", &product)
	return &product, nil
}

// DeleteProduct removes a product and cascades to every image file it
// references. Files already gone from disk are skipped without error.
func (s *ProductService) DeleteProduct(id string) error {
	product, err := s.store.GetByID(id)
	if err != nil {
		return err
	}

	s.ingestor.Remove(product.Images)

	if err := s.store.Remove(id); err != nil {
		if errors.Is(err, errs.ErrProductNotFound) {
			return err
		}
		return fmt.Errorf("failed to remove product %s: %w", id, err)
	}

	s.publishEvent("product.deleted", product)
	return nil
}

// publishEvent announces a product change on the event queue. Publishing is
// best-effort: a broker failure is logged and never fails the request.
func (s *ProductService) publishEvent(event string, product *models.Product) {
	if s.mqClient == nil {
		log.Debug().Str("event", event).Msg("RabbitMQ client is not configured, skipping event publication")
		return
	}

	payload := map[string]interface{}{
		"id":     product.ID,
		"name":   product.Name,
		"price":  product.Price,
		"stock":  product.Stock,
		"images": product.Images,
	}
	if err := s.mqClient.PublishProductEvent(event, payload); err != nil {
		log.Warn().Err(err).Str("event", event).Str("product_id", product.ID).Msg("Failed to publish product event")
	}
}
