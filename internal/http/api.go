package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"stock-ledger/internal/domain"
	"stock-ledger/internal/ledger"
	"stock-ledger/internal/metrics"
	"stock-ledger/internal/service"
)

// Handler wires HTTP routes to the inventory commands.
type Handler struct {
	inventory       service.Inventory
	defaultPageSize int
}

func NewHandler(inventory service.Inventory, defaultPageSize int) *Handler {
	if defaultPageSize <= 0 {
		defaultPageSize = ledger.DefaultPageSize
	}
	return &Handler{
		inventory:       inventory,
		defaultPageSize: defaultPageSize,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(), metrics.Middleware())
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api")
	{
		api.POST("/users", h.registerUser)
		api.GET("/users", h.listUsers)
		api.POST("/products", h.registerProduct)
		api.GET("/products", h.listProducts)
		api.GET("/products/:id", h.getProduct)
		api.POST("/products/:id/adjust", h.adjustStock)
		api.GET("/products/:id/transactions", h.productHistory)
		api.GET("/transactions", h.listTransactions)
		api.GET("/summary", h.summary)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type registerUserRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Price and quantity accept either JSON numbers or numeric strings so form
// values can be posted as they are.
type registerProductRequest struct {
	SKU      string      `json:"sku"`
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Quantity json.Number `json:"quantity"`
}

type adjustStockRequest struct {
	Delta *int `json:"delta" binding:"required"`
}

func (h *Handler) registerUser(c *gin.Context) {
	var req registerUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.inventory.RegisterUser(c.Request.Context(), req.FullName, req.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, userToResponse(user))
}

func (h *Handler) listUsers(c *gin.Context) {
	users := h.inventory.ListUsers(c.Request.Context())
	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = userToResponse(users[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) registerProduct(c *gin.Context) {
	var req registerProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.inventory.RegisterProduct(c.Request.Context(), req.SKU, req.Name, req.Price.String(), req.Quantity.String())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, productToResponse(product))
}

func (h *Handler) listProducts(c *gin.Context) {
	products := h.inventory.ListProducts(c.Request.Context())
	resp := make([]ProductResponse, len(products))
	for i := range products {
		resp[i] = productToResponse(products[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getProduct(c *gin.Context) {
	product, ok := h.inventory.FindProduct(c.Request.Context(), c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	c.JSON(http.StatusOK, productToResponse(product))
}

func (h *Handler) adjustStock(c *gin.Context) {
	var req adjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := h.inventory.AdjustStock(c.Request.Context(), c.Param("id"), *req.Delta)
	switch res.Outcome {
	case service.OutcomeNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	case service.OutcomeRejected:
		c.JSON(http.StatusConflict, AdjustResponse{
			Outcome: string(res.Outcome),
			Product: productToResponse(res.Product),
			Error:   "insufficient stock",
		})
	default:
		resp := AdjustResponse{
			Outcome: string(res.Outcome),
			Product: productToResponse(res.Product),
		}
		if res.Transaction != nil {
			tx := transactionToResponse(*res.Transaction)
			resp.Transaction = &tx
		}
		c.JSON(http.StatusOK, resp)
	}
}

func (h *Handler) productHistory(c *gin.Context) {
	txs, ok := h.inventory.ProductHistory(c.Request.Context(), c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	c.JSON(http.StatusOK, transactionsToResponse(txs))
}

func (h *Handler) listTransactions(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(h.defaultPageSize)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page_size"})
		return
	}

	p := h.inventory.ListTransactions(c.Request.Context(), page, pageSize)
	c.JSON(http.StatusOK, TransactionPageResponse{
		Items:      transactionsToResponse(p.Items),
		Page:       p.Page,
		PageSize:   p.PageSize,
		Total:      p.Total,
		TotalPages: p.TotalPages,
	})
}

func (h *Handler) summary(c *gin.Context) {
	sum := h.inventory.Summary(c.Request.Context())
	c.JSON(http.StatusOK, SummaryResponse{
		Users:        sum.Users,
		Products:     sum.Products,
		TotalUnits:   sum.TotalUnits,
		StockValue:   sum.StockValue,
		Transactions: sum.Transactions,
	})
}

func writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

type UserResponse struct {
	ID        string `json:"id"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

type ProductResponse struct {
	ID          string          `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	LastUpdated string          `json:"lastUpdated"`
}

type TransactionResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"productId"`
	SKU         string `json:"sku"`
	ProductName string `json:"productName"`
	Type        string `json:"type"`
	Amount      int    `json:"amount"`
	Timestamp   string `json:"timestamp"`
}

type TransactionPageResponse struct {
	Items      []TransactionResponse `json:"items"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"pageSize"`
	Total      int                   `json:"total"`
	TotalPages int                   `json:"totalPages"`
}

type AdjustResponse struct {
	Outcome     string               `json:"outcome"`
	Product     ProductResponse      `json:"product"`
	Transaction *TransactionResponse `json:"transaction,omitempty"`
	Error       string               `json:"error,omitempty"`
}

type SummaryResponse struct {
	Users        int             `json:"users"`
	Products     int             `json:"products"`
	TotalUnits   int             `json:"totalUnits"`
	StockValue   decimal.Decimal `json:"stockValue"`
	Transactions int             `json:"transactions"`
}

func userToResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

func productToResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Price:       p.Price,
		Quantity:    p.Quantity,
		LastUpdated: p.LastUpdated.Format(time.RFC3339),
	}
}

func transactionToResponse(tx domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          tx.ID,
		ProductID:   tx.ProductID,
		SKU:         tx.SKU,
		ProductName: tx.ProductName,
		Type:        string(tx.Type),
		Amount:      tx.Amount,
		Timestamp:   tx.Timestamp.Format(time.RFC3339),
	}
}

func transactionsToResponse(txs []domain.Transaction) []TransactionResponse {
	resp := make([]TransactionResponse, len(txs))
	for i := range txs {
		resp[i] = transactionToResponse(txs[i])
	}
	return resp
}
