package staff

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rxdesk/pharmacy-api/internal/domain"
	"github.com/rxdesk/pharmacy-api/internal/pkg/httputil"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrStaffNotFound, Status: http.StatusNotFound},
	{Error: ErrEmailExists, Status: http.StatusConflict},
	{Error: ErrInvalidStaffRole, Status: http.StatusBadRequest},
	{Error: ErrInvalidStatus, Status: http.StatusBadRequest},
	{Error: ErrPasswordTooLong, Status: http.StatusBadRequest},
}

// Handler handles HTTP requests for staff management.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new staff handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers staff routes. They require an admin role.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/staff", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Patch("/{id}/status", h.UpdateStatus)
		r.Delete("/{id}", h.Delete)
	})
}

// CreateStaffRequest represents the request body for adding staff.
type CreateStaffRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=255"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,min=5,max=20"`
	StaffRole string `json:"staffRole" validate:"required"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	Status    string `json:"status"`
}

// UpdateStaffRequest represents the request body for editing staff.
type UpdateStaffRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=255"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone" validate:"omitempty,min=5,max=20"`
	StaffRole *string `json:"staffRole"`
	Status    *string `json:"status"`
}

// UpdateStatusRequest represents the request body for a status change.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ListResponse is one page of staff.
type ListResponse struct {
	Staff      []*domain.PublicUser `json:"staff"`
	Pagination httputil.Pagination  `json:"pagination"`
}

// Create handles POST /staff.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateStaffRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.Create(r.Context(), actorFrom(r), CreateInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, user.Public())
}

// List handles GET /staff.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := httputil.ParsePage(r)
	q := r.URL.Query()

	result, err := h.service.List(r.Context(), actorFrom(r), ListInput{
		Search:    q.Get("search"),
		StaffRole: q.Get("staffRole"),
		Status:    q.Get("status"),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	staff := make([]*domain.PublicUser, 0, len(result.Staff))
	for _, u := range result.Staff {
		staff = append(staff, u.Public())
	}

	httputil.Success(w, http.StatusOK, ListResponse{
		Staff:      staff,
		Pagination: httputil.NewPagination(result.Total, page, limit),
	})
}

// Get handles GET /staff/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Get(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, user.Public())
}

// Update handles PUT /staff/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateStaffRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.Update(r.Context(), actorFrom(r), chi.URLParam(r, "id"), UpdateInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, user.Public())
}

// UpdateStatus handles PATCH /staff/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.SetStatus(r.Context(), actorFrom(r), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, user.Public())
}

// Delete handles DELETE /staff/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), actorFrom(r), chi.URLParam(r, "id")); err != nil {
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

func actorFrom(r *http.Request) Actor {
	return Actor{
		ID:   httputil.GetUserID(r.Context()),
		Role: httputil.GetRole(r.Context()),
	}
}
