package customers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rxdesk/pharmacy-api/internal/domain"
	"github.com/rxdesk/pharmacy-api/internal/pkg/httputil"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrCustomerNotFound, Status: http.StatusNotFound},
}

// Handler handles HTTP requests for customers.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new customers handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers customer routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/customers", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Put("/{id}/notes", h.SaveNotes)
	})
}

// CreateCustomerRequest represents the request body for adding a customer.
type CreateCustomerRequest struct {
	Name   string `json:"name" validate:"required,min=1,max=255"`
	Mobile string `json:"mobile" validate:"required,min=5,max=20"`
	Email  string `json:"email" validate:"omitempty,email"`
}

// SaveNotesRequest represents the request body for customer notes.
type SaveNotesRequest struct {
	Notes string `json:"notes" validate:"max=5000"`
}

// ListResponse is one page of customers.
type ListResponse struct {
	Customers  []*domain.Customer  `json:"customers"`
	Pagination httputil.Pagination `json:"pagination"`
}

// Create handles POST /customers.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if !h.decode(w, r, &req) {
		return
	}

	c, err := h.service.Create(r.Context(), httputil.GetTenantID(r.Context()), CreateInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, c)
}

// List handles GET /customers.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := httputil.ParsePage(r)

	result, err := h.service.List(r.Context(), httputil.GetTenantID(r.Context()), ListInput{
		Search: r.URL.Query().Get("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, ListResponse{
		Customers:  result.Customers,
		Pagination: httputil.NewPagination(result.Total, page, limit),
	})
}

// Get handles GET /customers/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), httputil.GetTenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, c)
}

// SaveNotes handles PUT /customers/{id}/notes.
func (h *Handler) SaveNotes(w http.ResponseWriter, r *http.Request) {
	var req SaveNotesRequest
	if !h.decode(w, r, &req) {
		return
	}

	c, err := h.service.SaveNotes(r.Context(), httputil.GetTenantID(r.Context()), chi.URLParam(r, "id"), req.Notes)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, c)
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
