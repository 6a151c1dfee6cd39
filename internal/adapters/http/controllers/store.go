package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mzawadzki/storekeeper/internal/adapters/http/handlers"
	"github.com/mzawadzki/storekeeper/internal/core/domain"
	"github.com/mzawadzki/storekeeper/internal/core/dto"
	"github.com/mzawadzki/storekeeper/internal/core/service"
	"github.com/mzawadzki/storekeeper/internal/core/serviceerrors"
)

type StoreController struct {
	storeService *service.StoreService
}

func NewStoreController(storeService *service.StoreService) *StoreController {
	return &StoreController{storeService: storeService}
}

type ProductResponse struct {
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewProductResponse(product domain.Product) ProductResponse {
	return ProductResponse{
		Name:      product.Name,
		Price:     product.Price.Cents(),
		Stock:     product.Stock,
		CreatedAt: product.CreatedAt,
		UpdatedAt: product.UpdatedAt,
	}
}

type StorefrontResponse struct {
	Balance  int64             `json:"balance"`
	Products []ProductResponse `json:"products"`
}

type ReceiptResponse struct {
	Operation   string    `json:"operation"`
	ProductName string    `json:"product_name,omitempty"`
	UnitPrice   int64     `json:"unit_price,omitempty"`
	Quantity    int       `json:"quantity,omitempty"`
	Total       int64     `json:"total"`
	Balance     int64     `json:"balance"`
	ExecutedAt  time.Time `json:"executed_at"`
}

func NewReceiptResponse(receipt *domain.Receipt) ReceiptResponse {
	return ReceiptResponse{
		Operation:   string(receipt.Operation),
		ProductName: receipt.ProductName,
		UnitPrice:   receipt.UnitPrice.Cents(),
		Quantity:    receipt.Quantity,
		Total:       receipt.Total.Cents(),
		Balance:     receipt.Balance.Cents(),
		ExecutedAt:  receipt.ExecutedAt,
	}
}

// Storefront godoc
// @Summary     Storefront
// @Description Returns all products and the current account balance
// @Tags        store
// @Produce     json
// @Success     200 {object} StorefrontResponse
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /api/v1/store [get]
func (sc *StoreController) Storefront(c *gin.Context) {
	view, err := sc.storeService.Storefront(c.Request.Context())
	if err != nil {
		handlers.HandleError(c, err)
		return
	}

	products := make([]ProductResponse, len(view.Products))
	for i, product := range view.Products {
		products[i] = NewProductResponse(product)
	}

	c.JSON(http.StatusOK, StorefrontResponse{
		Balance:  view.Balance.Cents(),
		Products: products,
	})
}

// Buy godoc
// @Summary     Buy stock
// @Description Restocks a product, paying for the units from the account
// @Tags        store
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key header   string          false "Idempotency key"
// @Param       request         body     dto.BuyRequest  true  "Purchase data"
// @Success     200             {object} ReceiptResponse
// @Failure     400             {object} handlers.ErrorResponse
// @Failure     422             {object} handlers.ErrorResponse
// @Failure     429             {object} handlers.ErrorResponse
// @Failure     500             {object} handlers.ErrorResponse
// @Router      /api/v1/store/buy [post]
func (sc *StoreController) Buy(c *gin.Context) {
	var request dto.BuyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handlers.HandleError(c, serviceerrors.NewInvalidRequestError(err.Error()))
		return
	}
	idempotencyKey := c.GetHeader("Idempotency-Key")
	receipt, err := sc.storeService.Buy(c.Request.Context(), idempotencyKey, &request)
	if err != nil {
		handlers.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewReceiptResponse(receipt))
}

// Sell godoc
// @Summary     Sell stock
// @Description Sells units from stock and credits the sale total
// @Tags        store
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key header   string           false "Idempotency key"
// @Param       request         body     dto.SellRequest  true  "Sale data"
// @Success     200             {object} ReceiptResponse
// @Failure     400             {object} handlers.ErrorResponse
// @Failure     404             {object} handlers.ErrorResponse
// @Failure     422             {object} handlers.ErrorResponse
// @Failure     429             {object} handlers.ErrorResponse
// @Failure     500             {object} handlers.ErrorResponse
// @Router      /api/v1/store/sell [post]
func (sc *StoreController) Sell(c *gin.Context) {
	var request dto.SellRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handlers.HandleError(c, serviceerrors.NewInvalidRequestError(err.Error()))
		return
	}
	idempotencyKey := c.GetHeader("Idempotency-Key")
	receipt, err := sc.storeService.Sell(c.Request.Context(), idempotencyKey, &request)
	if err != nil {
		handlers.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewReceiptResponse(receipt))
}

// AdjustBalance godoc
// @Summary     Adjust account balance
// @Description Applies a signed cash movement with an operator comment
// @Tags        account
// @Accept      json
// @Produce     json
// @Param       request body     dto.AdjustBalanceRequest true "Adjustment data"
// @Success     200     {object} ReceiptResponse
// @Failure     400     {object} handlers.ErrorResponse
// @Failure     422     {object} handlers.ErrorResponse
// @Failure     429     {object} handlers.ErrorResponse
// @Failure     500     {object} handlers.ErrorResponse
// @Router      /api/v1/account/adjust [post]
func (sc *StoreController) AdjustBalance(c *gin.Context) {
	var request dto.AdjustBalanceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handlers.HandleError(c, serviceerrors.NewInvalidRequestError(err.Error()))
		return
	}
	receipt, err := sc.storeService.AdjustBalance(c.Request.Context(), &request)
	if err != nil {
		handlers.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewReceiptResponse(receipt))
}
