package pharmacy

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rxdesk/pharmacy-api/internal/pkg/ctxlog"
	"github.com/rxdesk/pharmacy-api/internal/pkg/httputil"
)

// multipartOverhead leaves room for the text fields next to the logo part.
const multipartOverhead = 1 << 20

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrPharmacyExists, Status: http.StatusConflict},
	{Error: ErrPharmacyNotFound, Status: http.StatusNotFound},
	{Error: ErrInvalidWorkingDays, Status: http.StatusBadRequest, Message: ErrInvalidWorkingDays.Error()},
	{Error: ErrInvalidGSTRate, Status: http.StatusBadRequest},
	{Error: ErrUnsupportedLogoType, Status: http.StatusBadRequest},
	{Error: ErrLogoTooLarge, Status: http.StatusRequestEntityTooLarge},
}

// Handler handles HTTP requests for pharmacy profiles.
type Handler struct {
	service      *Service
	validator    *validator.Validate
	maxLogoBytes int64
}

// NewHandler creates a new pharmacy handler.
func NewHandler(service *Service, maxLogoBytes int64) *Handler {
	return &Handler{
		service:      service,
		validator:    validator.New(),
		maxLogoBytes: maxLogoBytes,
	}
}

// RegisterAdminRoutes registers routes restricted to tenant owners.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/auth/pharmacy-setup", h.Setup)
}

// RegisterRoutes registers routes available to every role of the tenant.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/pharmacy", h.Get)
}

// SetupRequest represents the pharmacy-setup body, as JSON or multipart fields.
// WorkingDays accepts a list, a JSON-encoded list or a comma-separated string.
type SetupRequest struct {
	PharmacyName  string `json:"pharmacyName" validate:"required,min=1,max=255"`
	Phone         string `json:"phone" validate:"required,min=5,max=20"`
	Email         string `json:"email" validate:"required,email"`
	Address       string `json:"address" validate:"max=1000"`
	City          string `json:"city" validate:"max=100"`
	State         string `json:"state" validate:"max=100"`
	Pincode       string `json:"pincode" validate:"max=12"`
	OpenTime      string `json:"openTime" validate:"max=20"`
	CloseTime     string `json:"closeTime" validate:"max=20"`
	WorkingDays   any    `json:"workingDays"`
	GSTPercentage string `json:"gstPercentage" validate:"omitempty,numeric"`
	InvoicePrefix string `json:"invoicePrefix" validate:"max=10"`
}

// Setup handles POST /auth/pharmacy-setup.
func (h *Handler) Setup(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r.Context())
	if userID == "" {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var (
		req  SetupRequest
		logo io.Reader
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxLogoBytes+multipartOverhead)
		if err := r.ParseMultipartForm(multipartOverhead); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				httputil.HandleError(r.Context(), w, ErrLogoTooLarge, errorMappings)
				return
			}
			httputil.Error(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		defer func() {
			if err := r.MultipartForm.RemoveAll(); err != nil {
				ctxlog.FromContext(r.Context()).Warn("failed to remove multipart temp files", "error", err)
			}
		}()

		req = setupRequestFromForm(r.MultipartForm)

		file, _, err := r.FormFile("logo")
		switch {
		case err == nil:
			defer func() { _ = file.Close() }()
			logo = file
		case !errors.Is(err, http.ErrMissingFile):
			httputil.Error(w, http.StatusBadRequest, "invalid logo upload")
			return
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	p, err := h.service.Setup(r.Context(), userID, SetupInput(req), logo)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, p)
}

// Get handles GET /pharmacy. Staff see the pharmacy of their tenant.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID := httputil.GetTenantID(r.Context())
	if tenantID == "" {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	p, err := h.service.Get(r.Context(), tenantID)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, p)
}

func setupRequestFromForm(form *multipart.Form) SetupRequest {
	value := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	req := SetupRequest{
		PharmacyName:  value("pharmacyName"),
		Phone:         value("phone"),
		Email:         value("email"),
		Address:       value("address"),
		City:          value("city"),
		State:         value("state"),
		Pincode:       value("pincode"),
		OpenTime:      value("openTime"),
		CloseTime:     value("closeTime"),
		GSTPercentage: value("gstPercentage"),
		InvoicePrefix: value("invoicePrefix"),
	}

	// Repeated fields arrive as a list; a single one is a JSON or comma-separated string.
	switch days := form.Value["workingDays"]; len(days) {
	case 0:
	case 1:
		req.WorkingDays = days[0]
	default:
		req.WorkingDays = days
	}

	return req
}
