// internal/services/product_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/mintcart/mintcart-backend/internal/models"
	"github.com/mintcart/mintcart-backend/internal/repository"
	"github.com/mintcart/mintcart-backend/internal/utils"
)

// ProductService backs the storefront record API.
type ProductService struct {
	products repository.ProductRepository
}

type CreateProductRecordRequest struct {
	Contract    string      `json:"contract" validate:"required,eth_address"`
	Name        string      `json:"name" validate:"required,max=255"`
	Description string      `json:"description" validate:"max=5000"`
	Slug        string      `json:"slug" validate:"required,slug"`
	TokenURI    string      `json:"tokenUri" validate:"required,max=512"`
	Price       json.Number `json:"price" validate:"required,decimal_amount"`
	Supply      json.Number `json:"supply" validate:"required"`
	Sold        json.Number `json:"sold,omitempty"`
}

// ErrInvalidRecord wraps request errors that are not struct validation failures.
var ErrInvalidRecord = errors.New("invalid product record")

func NewProductService(products repository.ProductRepository) *ProductService {
	return &ProductService{products: products}
}

func (s *ProductService) CreateRecord(ctx context.Context, chainID int64, owner string, req *CreateProductRecordRequest) (*models.ProductRecord, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if chainID <= 0 {
		return nil, fmt.Errorf("%w: chain id must be positive", ErrInvalidRecord)
	}
	if !utils.IsEthAddress(owner) {
		return nil, fmt.Errorf("%w: owner %q is not an address", ErrInvalidRecord, owner)
	}

	// Stores keep supply as a signed 64-bit integer.
	supply, err := strconv.ParseUint(req.Supply.String(), 10, 63)
	if err != nil {
		return nil, fmt.Errorf("%w: supply must be a non-negative integer", ErrInvalidRecord)
	}
	if req.Sold != "" && req.Sold != "0" {
		return nil, fmt.Errorf("%w: a new product cannot have sales", ErrInvalidRecord)
	}
	price, err := utils.ParseAmount(req.Price.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	record := &models.ProductRecord{
		ChainID:         chainID,
		OwnerAddress:    utils.NormalizeAddress(owner),
		Slug:            req.Slug,
		ContractAddress: utils.NormalizeAddress(req.Contract),
		Name:            req.Name,
		Description:     req.Description,
		TokenURI:        req.TokenURI,
		Price:           price,
		Supply:          supply,
		Sold:            0,
	}

	if err := s.products.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrRecordExists
		}
		return nil, fmt.Errorf("failed to create product record: %w", err)
	}
	return record, nil
}

func (s *ProductService) GetRecord(ctx context.Context, chainID int64, owner, slug string) (*models.ProductRecord, error) {
	record, err := s.products.FindBySlug(ctx, chainID, utils.NormalizeAddress(owner), slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return record, nil
}

func (s *ProductService) ListRecords(ctx context.Context, chainID int64, owner string, params utils.PaginationParams) ([]models.ProductRecord, int64, error) {
	records, total, err := s.products.ListByOwner(ctx, chainID, utils.NormalizeAddress(owner), params.Page, params.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return records, total, nil
}
