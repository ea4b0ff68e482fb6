// internal/handlers/create_product.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mintcart/mintcart-backend/internal/i18n"
	"github.com/mintcart/mintcart-backend/internal/services"
	"github.com/mintcart/mintcart-backend/internal/utils"
)

type CreateProductHandler struct {
	workflow      *services.CreateProductService
	signer        services.Signer
	publicBaseURL string
}

func NewCreateProductHandler(workflow *services.CreateProductService, signer services.Signer, publicBaseURL string) *CreateProductHandler {
	return &CreateProductHandler{
		workflow:      workflow,
		signer:        signer,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// CreateProductRequest mirrors the create-product form.
type CreateProductRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Slug        string     `json:"slug"`
	Price       flexString `json:"price"`
	Supply      flexString `json:"supply"`
}

// flexString accepts a JSON string or number, as form inputs send either.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(b)
	return nil
}

type workflowErrorResponse struct {
	status int
	key    string
}

var workflowErrors = map[services.ErrorKind]workflowErrorResponse{
	services.KindInvalidDraft:        {http.StatusBadRequest, i18n.KeyCreateInvalidDraft},
	services.KindInvalidAmount:       {http.StatusBadRequest, i18n.KeyCreateInvalidAmount},
	services.KindStorageUnavailable:  {http.StatusBadGateway, i18n.KeyCreateStorageUnavailable},
	services.KindTransactionRejected: {http.StatusForbidden, i18n.KeyCreateTxRejected},
	services.KindSubmissionFailed:    {http.StatusBadGateway, i18n.KeyCreateSubmissionFailed},
	services.KindTransactionReverted: {http.StatusUnprocessableEntity, i18n.KeyCreateTxReverted},
	services.KindConfirmationTimeout: {http.StatusGatewayTimeout, i18n.KeyCreateConfirmationTimeout},
	services.KindPersistenceFailed:   {http.StatusBadGateway, i18n.KeyCreatePersistenceFailed},
	services.KindDuplicateProduct:    {http.StatusConflict, i18n.KeyCreateDuplicate},
}

// POST /v1/products
func (h *CreateProductHandler) CreateProduct(c *gin.Context) {
	address, chainID, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.WalletNotConnectedResponse(c)
		return
	}

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	draft := services.ProductDraft{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Slug:        strings.TrimSpace(req.Slug),
		Price:       strings.TrimSpace(string(req.Price)),
	}
	supply, err := strconv.ParseUint(strings.TrimSpace(string(req.Supply)), 10, 64)
	if err != nil {
		h.respondError(c, &services.WorkflowError{
			Kind:  services.KindInvalidDraft,
			State: services.StateIdle,
			Err:   errors.New("invalid fields: supply"),
		})
		return
	}
	draft.Supply = supply

	session := &services.WalletSession{
		ChainID:        chainID,
		Address:        address,
		DisplayAddress: utils.DisplayAddress(address),
		Signer:         h.signer,
	}
	nav := services.NavigatorFunc(func(path string) {
		c.Header("Location", path)
	})

	result, err := h.workflow.Submit(c.Request.Context(), session, draft, nav)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, utils.APIResponse{
		Success: true,
		Data: gin.H{
			"redirect":   result.Redirect,
			"product":    result.Record,
			"tx_hash":    result.TxHash,
			"contract":   result.ContractAddress,
			"token_uri":  result.TokenURI,
			"public_url": fmt.Sprintf("%s/%s/%s", h.publicBaseURL, address, draft.Slug),
			"resumed":    result.Resumed,
		},
	})
}

// GET /v1/products/intents
func (h *CreateProductHandler) GetIntents(c *gin.Context) {
	address, chainID, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.WalletNotConnectedResponse(c)
		return
	}

	intents, err := h.workflow.Intents(c.Request.Context(), chainID, address)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}
	utils.SuccessResponse(c, intents)
}

func (h *CreateProductHandler) respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	if errors.Is(err, services.ErrWalletNotConnected) {
		utils.WalletNotConnectedResponse(c)
		return
	}

	var werr *services.WorkflowError
	if !errors.As(err, &werr) {
		utils.InternalErrorResponse(c, "")
		return
	}

	details := gin.H{"state": werr.State}
	if errors.Is(err, services.ErrUnsupportedChain) {
		utils.ErrorResponse(c, http.StatusBadRequest, "UNSUPPORTED_CHAIN", i18n.T(lang, i18n.KeyCreateUnsupportedChain), details)
		return
	}

	mapped, ok := workflowErrors[werr.Kind]
	if !ok {
		utils.InternalErrorResponse(c, "")
		return
	}

	var message string
	if werr.Kind == services.KindInvalidDraft {
		message = i18n.T(lang, mapped.key, strings.TrimPrefix(werr.Err.Error(), "invalid fields: "))
	} else {
		message = i18n.T(lang, mapped.key)
	}
	utils.ErrorResponse(c, mapped.status, string(werr.Kind), message, details)
}
