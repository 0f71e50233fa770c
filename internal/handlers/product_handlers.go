package handlers

import (
	"net/http"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/services"
	"retail_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ProductHandler exposes catalog CRUD endpoints.
type ProductHandler struct {
	productService services.ProductService
}

func NewProductHandler(ps services.ProductService) *ProductHandler {
	return &ProductHandler{productService: ps}
}

// CreateProduct handles POST /products.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	product, err := h.productService.CreateProduct(userID, req)
	if err != nil {
		utils.LogError(err, "CreateProduct: Error from productService.CreateProduct")
		respondServiceError(c, err, "create product")
		return
	}
	c.JSON(http.StatusCreated, product)
}

// GetProducts handles GET /products with filter query parameters.
func (h *ProductHandler) GetProducts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var filters models.ProductFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	products, total, err := h.productService.GetProducts(userID, filters)
	if err != nil {
		utils.LogError(err, "GetProducts: Error from productService.GetProducts")
		respondServiceError(c, err, "list products")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":        products,
		"total_count": total,
		"page":        filters.Page,
		"page_size":   filters.PageSize,
	})
}

// GetProduct handles GET /products/:id.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	product, err := h.productService.GetProductByID(userID, productID)
	if err != nil {
		respondServiceError(c, err, "get product")
		return
	}
	c.JSON(http.StatusOK, product)
}

// UpdateProduct handles PUT /products/:id. Absent fields are left unchanged.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	product, err := h.productService.UpdateProduct(userID, productID, req)
	if err != nil {
		utils.LogError(err, "UpdateProduct: Error from productService.UpdateProduct")
		respondServiceError(c, err, "update product")
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /products/:id.
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(userID, productID); err != nil {
		utils.LogError(err, "DeleteProduct: Error from productService.DeleteProduct")
		respondServiceError(c, err, "delete product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
