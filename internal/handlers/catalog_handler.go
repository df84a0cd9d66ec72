package handlers

import (
	"net/http"

	"supply_manager/internal/repository"
	"supply_manager/internal/services"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalogService services.CatalogService
}

func NewCatalogHandler(catalogService services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// Categories

func (h *CatalogHandler) GetCategories(c *gin.Context) {
	categories, err := h.catalogService.GetCategories(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *CatalogHandler) GetCategory(c *gin.Context) {
	id, ok := paramID(c, "id", "Category")
	if !ok {
		return
	}
	category, err := h.catalogService.GetCategory(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req services.CategoryInput
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.catalogService.CreateCategory(c.Request.Context(), p, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "Category")
	if !ok {
		return
	}
	var req services.CategoryInput
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.catalogService.UpdateCategory(c.Request.Context(), p, id, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "Category")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteCategory(c.Request.Context(), p, id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Category removed"})
}

// Suppliers

func (h *CatalogHandler) GetSuppliers(c *gin.Context) {
	suppliers, err := h.catalogService.GetSuppliers(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, suppliers)
}

func (h *CatalogHandler) GetSupplier(c *gin.Context) {
	id, ok := paramID(c, "id", "Supplier")
	if !ok {
		return
	}
	supplier, err := h.catalogService.GetSupplier(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, supplier)
}

func (h *CatalogHandler) CreateSupplier(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req services.SupplierInput
	if !bindJSON(c, &req) {
		return
	}

	supplier, err := h.catalogService.CreateSupplier(c.Request.Context(), p, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, supplier)
}

func (h *CatalogHandler) UpdateSupplier(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "Supplier")
	if !ok {
		return
	}
	var req services.SupplierInput
	if !bindJSON(c, &req) {
		return
	}

	supplier, err := h.catalogService.UpdateSupplier(c.Request.Context(), p, id, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, supplier)
}

func (h *CatalogHandler) DeleteSupplier(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "Supplier")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteSupplier(c.Request.Context(), p, id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Supplier removed"})
}

// Products

func (h *CatalogHandler) GetProducts(c *gin.Context) {
	var filter repository.ProductFilter
	var ok bool
	if filter.CategoryID, ok = queryID(c, "category"); !ok {
		return
	}
	if filter.SupplierID, ok = queryID(c, "supplier"); !ok {
		return
	}

	products, err := h.catalogService.GetProducts(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := paramID(c, "id", "Product")
	if !ok {
		return
	}
	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req services.ProductInput
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), p, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "Product")
	if !ok {
		return
	}
	var req services.ProductInput
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.catalogService.UpdateProduct(c.Request.Context(), p, id, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "Product")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteProduct(c.Request.Context(), p, id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Product removed"})
}

func (h *CatalogHandler) AdjustStock(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "Product")
	if !ok {
		return
	}
	var req struct {
		Delta int `json:"delta"`
	}
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.catalogService.AdjustStock(c.Request.Context(), p, id, req.Delta)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}
