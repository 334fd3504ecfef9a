package inventory

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rxdesk/pharmacy-api/internal/domain"
	"github.com/rxdesk/pharmacy-api/internal/pkg/httputil"
	"github.com/shopspring/decimal"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrProductNotFound, Status: http.StatusNotFound},
	{Error: ErrInvalidCategory, Status: http.StatusBadRequest},
	{Error: ErrInvalidStock, Status: http.StatusBadRequest},
	{Error: ErrInvalidPrice, Status: http.StatusBadRequest},
	{Error: ErrInvalidQuantity, Status: http.StatusBadRequest},
	{Error: ErrInvalidExpiry, Status: http.StatusBadRequest},
	{Error: ErrNothingToUpdate, Status: http.StatusBadRequest},
}

// Handler handles HTTP requests for inventory.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new inventory handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers product routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/inventory/products", func(r chi.Router) {
		r.Post("/", h.Add)
		r.Get("/", h.List)
		r.Get("/{code}", h.Get)
		r.Put("/{code}", h.Update)
		r.Delete("/{code}", h.Delete)
	})
}

// AddProductRequest represents the request body for adding a product.
// Prices accept JSON numbers or numeric strings.
type AddProductRequest struct {
	ProductName   string          `json:"productName" validate:"required,min=1,max=255"`
	Category      string          `json:"category" validate:"required"`
	BatchNumber   string          `json:"batchNumber" validate:"required,max=100"`
	BoxNumber     string          `json:"boxNumber" validate:"max=50"`
	ExpiryDate    string          `json:"expiryDate" validate:"required"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	SellingPrice  decimal.Decimal `json:"sellingPrice"`
	StockQuantity int             `json:"stockQuantity"`
	Supplier      string          `json:"supplier" validate:"max=255"`
	InvoiceNumber string          `json:"invoiceNumber" validate:"max=100"`
}

// UpdateProductRequest represents the request body for updating a product.
type UpdateProductRequest struct {
	SellingPrice  *decimal.Decimal `json:"sellingPrice"`
	StockQuantity *int             `json:"stockQuantity"`
}

// ListResponse wraps a product listing.
type ListResponse struct {
	Products []*domain.Product `json:"products"`
	Count    int               `json:"count"`
}

// Add handles POST /inventory/products.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.Add(r.Context(), httputil.GetTenantID(r.Context()), AddInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, p)
}

// List handles GET /inventory/products.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	products, err := h.service.List(r.Context(), httputil.GetTenantID(r.Context()), ListInput{
		Category: q.Get("category"),
		Stock:    q.Get("stock"),
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, ListResponse{Products: products, Count: len(products)})
}

// Get handles GET /inventory/products/{code}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), httputil.GetTenantID(r.Context()), chi.URLParam(r, "code"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, p)
}

// Update handles PUT /inventory/products/{code}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.Update(r.Context(), httputil.GetTenantID(r.Context()), chi.URLParam(r, "code"), UpdateInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, p)
}

// Delete handles DELETE /inventory/products/{code}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), httputil.GetTenantID(r.Context()), chi.URLParam(r, "code")); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.NoContent(w)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		httputil.ValidationError(w, err)
		return false
	}
	return true
}
