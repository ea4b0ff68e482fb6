// internal/handlers/product.go
package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mintcart/mintcart-backend/internal/i18n"
	"github.com/mintcart/mintcart-backend/internal/services"
	"github.com/mintcart/mintcart-backend/internal/utils"
)

// ProductHandler serves the storefront record API under /api/:chainId/:address.
type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// POST /api/:chainId/:address/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	chainID, owner, ok := h.ownerParams(c)
	if !ok {
		return
	}

	var req services.CreateProductRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	record, err := h.productService.CreateRecord(c.Request.Context(), chainID, owner, &req)
	if err != nil {
		lang := utils.GetLangFromContext(c)
		switch {
		case errors.Is(err, services.ErrRecordExists):
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyProductExists))
		case errors.Is(err, services.ErrInvalidRecord):
			utils.BadRequestResponse(c, err.Error(), nil)
		default:
			if validationErrors := utils.GetValidationErrors(err); len(validationErrors) > 0 {
				utils.ValidationErrorResponse(c, validationErrors)
				return
			}
			utils.InternalErrorResponse(c, "")
		}
		return
	}

	utils.CreatedResponse(c, record)
}

// GET /api/:chainId/:address/products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	chainID, owner, ok := h.ownerParams(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	records, total, err := h.productService.ListRecords(c.Request.Context(), chainID, owner, params)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	result := utils.CreatePaginationResult(records, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /api/:chainId/:address/products/:slug
func (h *ProductHandler) GetProduct(c *gin.Context) {
	chainID, owner, ok := h.ownerParams(c)
	if !ok {
		return
	}

	record, err := h.productService.GetRecord(c.Request.Context(), chainID, owner, c.Param("slug"))
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			utils.NotFoundResponse(c, i18n.KeyProductNotFound)
			return
		}
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, record)
}

func (h *ProductHandler) ownerParams(c *gin.Context) (int64, string, bool) {
	lang := utils.GetLangFromContext(c)

	chainID, err := strconv.ParseInt(c.Param("chainId"), 10, 64)
	if err != nil || chainID <= 0 {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "chainId"), nil)
		return 0, "", false
	}

	owner := c.Param("address")
	if !utils.IsEthAddress(owner) {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "address"), nil)
		return 0, "", false
	}
	return chainID, owner, true
}
