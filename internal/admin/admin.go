// Package admin serves the operator console: a server-rendered employee list
// with search and age filter, plus add, change and delete pages.
package admin

import (
	"crypto/subtle"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"employee-service/internal/config"
	"employee-service/internal/employee"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

//go:embed templates/*.html
var templateFS embed.FS

type Handler struct {
	service        employee.Service
	logger         *slog.Logger
	base           string
	username       string
	passwordHash   []byte
	maxUploadBytes int64
	pages          map[string]*template.Template
}

// NewHandler builds the console mounted at base (for example "/admin").
// Basic auth is enforced only when both username and password hash are set.
func NewHandler(service employee.Service, logger *slog.Logger, cfg config.AdminConfig, base string, maxUploadBytes int64) (*Handler, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{"list", "form", "delete"} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = t
	}

	h := &Handler{
		service:        service,
		logger:         logger,
		base:           base,
		maxUploadBytes: maxUploadBytes,
		pages:          pages,
	}
	if cfg.Username != "" && cfg.PasswordHash != "" {
		h.username = cfg.Username
		h.passwordHash = []byte(cfg.PasswordHash)
	}
	return h, nil
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	if h.passwordHash != nil {
		r.Use(h.basicAuth)
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, h.base+"/employees", http.StatusFound)
	})
	r.Get("/employees", h.list)
	r.Get("/employees/add", h.addForm)
	r.Post("/employees/add", h.add)
	r.Get("/employees/{id}/change", h.changeForm)
	r.Post("/employees/{id}/change", h.change)
	r.Get("/employees/{id}/delete", h.deleteConfirm)
	r.Post("/employees/{id}/delete", h.delete)
	return r
}

func (h *Handler) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(h.username)) != 1 ||
			bcrypt.CompareHashAndPassword(h.passwordHash, []byte(pass)) != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="employee admin"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ageLink struct {
	Label    string
	URL      string
	Selected bool
}

type listPage struct {
	Title     string
	Base      string
	Query     string
	Age       string
	Employees []employee.Employee
	AgeLinks  []ageLink
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query().Get("q")
	ageParam := r.URL.Query().Get("age")

	filter := employee.Filter{Query: query}
	if age, err := strconv.Atoi(ageParam); err == nil {
		filter.Age = &age
	} else {
		ageParam = ""
	}

	employees, err := h.service.SearchEmployees(ctx, filter)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	ages, err := h.service.ListAges(ctx)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	links := []ageLink{{Label: "All", URL: h.listURL(query, ""), Selected: ageParam == ""}}
	for _, age := range ages {
		a := strconv.Itoa(age)
		links = append(links, ageLink{Label: a, URL: h.listURL(query, a), Selected: a == ageParam})
	}

	h.render(w, r, http.StatusOK, "list", listPage{
		Title:     "Select employee to change",
		Base:      h.base,
		Query:     query,
		Age:       ageParam,
		Employees: employees,
		AgeLinks:  links,
	})
}

func (h *Handler) listURL(query, age string) string {
	v := url.Values{}
	if query != "" {
		v.Set("q", query)
	}
	if age != "" {
		v.Set("age", age)
	}
	if len(v) == 0 {
		return h.base + "/employees"
	}
	return h.base + "/employees?" + v.Encode()
}

type formValues struct {
	ID         int
	Name       string
	EmployeeID string
	Age        string
	PhotoURL   string
	Errors     map[string]string
}

type formPage struct {
	Title string
	Base  string
	Error string
	Form  formValues
}

func (h *Handler) addForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "form", formPage{Title: "Add employee", Base: h.base})
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	in, err := h.parse(w, r)
	if err == nil {
		_, err = h.service.CreateEmployee(r.Context(), in)
	}
	if err != nil {
		h.formError(w, r, formPage{Title: "Add employee", Base: h.base, Form: submitted(r)}, err)
		return
	}
	http.Redirect(w, r, h.base+"/employees", http.StatusSeeOther)
}

func (h *Handler) changeForm(w http.ResponseWriter, r *http.Request) {
	e, ok := h.load(w, r)
	if !ok {
		return
	}
	photoURL, _ := h.service.PhotoURL(r.Context(), e.Photo)
	h.render(w, r, http.StatusOK, "form", formPage{
		Title: "Change employee",
		Base:  h.base,
		Form: formValues{
			ID:         e.ID,
			Name:       e.Name,
			EmployeeID: e.EmployeeID,
			Age:        strconv.Itoa(e.Age),
			PhotoURL:   photoURL,
		},
	})
}

// change keeps the current photo when no new file is uploaded.
func (h *Handler) change(w http.ResponseWriter, r *http.Request) {
	e, ok := h.load(w, r)
	if !ok {
		return
	}
	in, err := h.parse(w, r)
	if err == nil {
		if in.Name == nil {
			in.Name = new(string)
		}
		if in.EmployeeID == nil {
			in.EmployeeID = new(string)
		}
		if in.Age == nil && !in.HasFieldError("age") {
			in.SetFieldError("age", "This field is required.")
		}
		_, err = h.service.PatchEmployee(r.Context(), e.ID, in)
	}
	if err != nil {
		form := submitted(r)
		form.ID = e.ID
		form.PhotoURL, _ = h.service.PhotoURL(r.Context(), e.Photo)
		h.formError(w, r, formPage{Title: "Change employee", Base: h.base, Form: form}, err)
		return
	}
	http.Redirect(w, r, h.base+"/employees", http.StatusSeeOther)
}

type deletePage struct {
	Title    string
	Base     string
	Employee *employee.Employee
}

func (h *Handler) deleteConfirm(w http.ResponseWriter, r *http.Request) {
	e, ok := h.load(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, "delete", deletePage{Title: "Delete employee", Base: h.base, Employee: e})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	e, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteEmployee(r.Context(), e.ID); err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			http.NotFound(w, r)
			return
		}
		h.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, h.base+"/employees", http.StatusSeeOther)
}

func (h *Handler) parse(w http.ResponseWriter, r *http.Request) (employee.Input, error) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}
	return employee.ParseRequest(r)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*employee.Employee, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}
	e, err := h.service.GetEmployeeByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			http.NotFound(w, r)
			return nil, false
		}
		h.serverError(w, r, err)
		return nil, false
	}
	return e, true
}

func submitted(r *http.Request) formValues {
	return formValues{
		Name:       r.PostFormValue("name"),
		EmployeeID: r.PostFormValue("employee_id"),
		Age:        r.PostFormValue("age"),
	}
}

// formError re-renders the form with inline errors for validation and
// uniqueness failures.
func (h *Handler) formError(w http.ResponseWriter, r *http.Request, page formPage, err error) {
	var validationErr *employee.ValidationError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &validationErr):
		page.Form.Errors = validationErr.Fields
	case errors.Is(err, employee.ErrDuplicateEmployeeID):
		page.Form.Errors = map[string]string{"employee_id": "Employee with this Employee id already exists."}
	case errors.As(err, &maxErr):
		page.Error = "The uploaded file is too large."
	case errors.Is(err, employee.ErrInvalidInput), errors.Is(err, employee.ErrUnsupportedMediaType):
		page.Error = "The submitted form could not be read."
	default:
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "form", page)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.pages[page].ExecuteTemplate(w, "layout", data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render admin page", "page", page, "error", err)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "admin request failed", "path", r.URL.Path, "error", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
