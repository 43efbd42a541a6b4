package employee

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"employee-service/internal/httputil"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service        Service
	logger         *slog.Logger
	maxUploadBytes int64
}

func NewHandler(service Service, logger *slog.Logger, maxUploadBytes int64) *Handler {
	return &Handler{
		service:        service,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes mounts the employee API. Trailing slashes are handled by
// middleware.StripSlashes on the parent router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Get("/", h.ListEmployees)
		r.Post("/", h.CreateEmployee)
		r.Get("/chart_data", h.ChartData)
		r.Get("/{id}", h.GetEmployee)
		r.Put("/{id}", h.UpdateEmployee)
		r.Patch("/{id}", h.PatchEmployee)
		r.Delete("/{id}", h.DeleteEmployee)
	})
}

type employeeResponse struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	EmployeeID string `json:"employee_id"`
	Photo      string `json:"photo"`
	Age        int    `json:"age"`
}

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "fetching all employees")

	employees, err := h.service.GetAllEmployees(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	response := make([]employeeResponse, 0, len(employees))
	for i := range employees {
		response = append(response, h.toResponse(r, &employees[i]))
	}
	httputil.RespondWithJSON(w, http.StatusOK, response)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "creating employee")
	employee, err := h.service.CreateEmployee(r.Context(), in)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, h.toResponse(r, employee))
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "fetching employee by ID", "id", id)
	employee, err := h.service.GetEmployeeByID(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, h.toResponse(r, employee))
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	in, ok := h.decode(w, r)
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "updating employee", "id", id)
	employee, err := h.service.UpdateEmployee(r.Context(), id, in)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, h.toResponse(r, employee))
}

func (h *Handler) PatchEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	in, ok := h.decode(w, r)
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "patching employee", "id", id)
	employee, err := h.service.PatchEmployee(r.Context(), id, in)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, h.toResponse(r, employee))
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "deleting employee", "id", id)
	if err := h.service.DeleteEmployee(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ChartData(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "fetching chart data")

	points, err := h.service.ChartData(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, points)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (Input, bool) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}
	in, err := ParseRequest(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return Input{}, false
	}
	return in, true
}

// toResponse resolves the stored photo key to an absolute URL.
func (h *Handler) toResponse(r *http.Request, e *Employee) employeeResponse {
	url, err := h.service.PhotoURL(r.Context(), e.Photo)
	if err != nil {
		h.logger.WarnContext(r.Context(), "failed to resolve photo url", "key", e.Photo, "error", err)
		url = ""
	}
	if strings.HasPrefix(url, "/") {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		url = scheme + "://" + r.Host + url
	}
	return employeeResponse{
		ID:         e.ID,
		Name:       e.Name,
		EmployeeID: e.EmployeeID,
		Photo:      url,
		Age:        e.Age,
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusNotFound, "Employee not found")
		return 0, false
	}
	return id, true
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		h.logger.InfoContext(ctx, "validation failed", "fields", validationErr.Fields)
		httputil.RespondWithFieldErrors(w, http.StatusBadRequest, "Invalid input", validationErr.Fields)
		return
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		h.logger.InfoContext(ctx, "request body too large", "limit", maxErr.Limit)
		httputil.RespondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	if errors.Is(err, ErrEmployeeNotFound) {
		h.logger.InfoContext(ctx, "employee not found")
		httputil.RespondWithError(w, http.StatusNotFound, "Employee not found")
		return
	}
	if errors.Is(err, ErrDuplicateEmployeeID) {
		h.logger.InfoContext(ctx, "duplicate employee id")
		httputil.RespondWithFieldErrors(w, http.StatusConflict, "Employee with this employee id already exists",
			map[string]string{"employee_id": "employee with this employee id already exists."})
		return
	}
	if errors.Is(err, ErrUnsupportedMediaType) {
		h.logger.InfoContext(ctx, "unsupported media type", "error", err)
		httputil.RespondWithError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}
	if errors.Is(err, ErrInvalidInput) {
		h.logger.InfoContext(ctx, "invalid input", "error", err)
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.ErrorContext(ctx, "internal error", "error", err)
	httputil.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
}
