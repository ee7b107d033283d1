package catalog

import (
	"net/http"
	"strconv"

	"ebookstore/internal/httpx"
)

const catalogPath = "/v1/books"

// maxPage keeps (page-1)*page_size far from overflow.
const maxPage = 1_000_000

type HTTPHandler struct {
	svc    *Service
	owners OwnershipChecker
}

func NewHTTPHandler(svc *Service, owners OwnershipChecker) *HTTPHandler {
	return &HTTPHandler{svc: svc, owners: owners}
}

// BookView is a Book as rendered by the catalog and detail views.
type BookView struct {
	Book
	PriceFormatted string `json:"price_formatted"`
}

// DetailView adds the requesting device's ownership to a book.
type DetailView struct {
	BookView
	Owned     bool       `json:"owned"`
	Ownership *Ownership `json:"ownership,omitempty"`
}

func newBookView(b Book) BookView {
	return BookView{Book: b, PriceFormatted: FormatPrice(b.Price)}
}

// List handles GET /v1/books
// @Summary List the catalog
// @Tags catalog
// @Produce json
// @Param category query string false "Filter by category"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page" default(20)
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/books [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	pageSize, _ := strconv.Atoi(query.Get("page_size"))
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	books, total := h.svc.List(r.Context(), Query{
		Category: query.Get("category"),
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	})

	views := make([]BookView, 0, len(books))
	for _, b := range books {
		views = append(views, newBookView(b))
	}

	httpx.JSONSuccess(w, r, views, map[string]interface{}{
		"page":        page,
		"page_size":   pageSize,
		"total":       total,
		"total_pages": (total + pageSize - 1) / pageSize,
	})
}

// Detail handles GET /v1/books/{id}
// @Summary Book detail with ownership status
// @Tags catalog
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/books/{id} [get]
func (h *HTTPHandler) Detail(w http.ResponseWriter, r *http.Request) {
	book, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.JSONNotFoundRedirect(w, r, "Book not found", catalogPath)
		return
	}

	view := DetailView{BookView: newBookView(book)}
	if h.owners != nil {
		if o, ok := h.owners.Ownership(r, book.ID); ok {
			view.Owned = true
			view.Ownership = &o
		}
	}

	httpx.JSONSuccess(w, r, view, nil)
}
