package handlers

import (
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"katalog/internal/services"
	"katalog/pkg/errs"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Post("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleGetProducts retrieves all products in insertion order. Clients that
// want pinned products first sort on their side.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	return c.JSON(h.service.GetAllProducts())
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a product from a multipart form carrying the
// product fields and up to 10 image files.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	input, files, _, err := parseProductForm(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid multipart form",
		})
	}

	product, err := h.service.CreateProduct(input, files)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct replaces a product's fields wholesale. The form's
// existingImages[] values list the stored filenames to keep, in display
// order; newly uploaded files are appended after them.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	input, files, keptImages, err := parseProductForm(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid multipart form",
		})
	}

	product, err := h.service.UpdateProduct(c.Params("id"), input, files, keptImages)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product and its image files.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Product deleted successfully",
	})
}

// parseProductForm extracts the product fields, uploaded files and kept
// image names from the multipart form. A missing or unparseable price is
// passed to the service as absent; stock and pinned default to zero values.
func parseProductForm(c *fiber.Ctx) (services.ProductInput, []*multipart.FileHeader, []string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return services.ProductInput{}, nil, nil, err
	}

	input := services.ProductInput{
		Name:        formValue(form, "name"),
		Description: formValue(form, "description"),
	}
	if priceStr := formValue(form, "price"); priceStr != "" {
		if price, err := strconv.ParseFloat(priceStr, 64); err == nil {
			input.Price = &price
		}
	}
	if stockStr := formValue(form, "stock"); stockStr != "" {
		if stock, err := strconv.Atoi(stockStr); err == nil {
			input.Stock = stock
		}
	}
	if pinnedStr := formValue(form, "pinned"); pinnedStr != "" {
		if pinned, err := strconv.ParseBool(pinnedStr); err == nil {
			input.Pinned = pinned
		}
	}

	keptImages := form.Value["existingImages[]"]
	if len(keptImages) == 0 {
		keptImages = form.Value["existingImages"]
	}

	return input, form.File["images"], keptImages, nil
}

// formValue returns the first value for a multipart form field.
func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// respondError maps a service error to its HTTP response. Errors outside
// the taxonomy are logged in full and answered with a generic message so no
// internal detail leaks to the client.
func respondError(c *fiber.Ctx, err error) error {
	status := errs.GetErrorStatusCode(err)
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
		return c.Status(status).JSON(fiber.Map{
			"error": errs.ErrInternalServer.Error(),
		})
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
