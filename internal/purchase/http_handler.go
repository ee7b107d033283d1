package purchase

import (
	"errors"
	"net/http"

	"ebookstore/internal/catalog"
	"ebookstore/internal/httpx"
	"ebookstore/internal/payment"
)

const catalogPath = "/v1/books"

type HTTPHandler struct {
	svc *Service
}

func NewHTTPHandler(svc *Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

// CheckoutView is the purchase page for one book.
type CheckoutView struct {
	State          string       `json:"state"`
	Book           catalog.Book `json:"book"`
	PriceFormatted string       `json:"price_formatted"`
	Redirect       string       `json:"redirect,omitempty"`
}

type checkoutRequest struct {
	Email string `json:"email" validate:"required,contains=@,max=254"`
}

// CheckoutResponse carries what the browser needs to open the payment widget.
type CheckoutResponse struct {
	Reference    string         `json:"reference"`
	State        string         `json:"state"`
	Launch       payment.Launch `json:"launch"`
	CallbackPath string         `json:"callback_path"`
}

type callbackRequest struct {
	Status    string `json:"status" validate:"required,oneof=success cancelled"`
	Reference string `json:"reference"`
}

// CallbackResponse tells the browser where a completed purchase leads.
type CallbackResponse struct {
	Reference string `json:"reference"`
	BookID    string `json:"book_id"`
	State     string `json:"state"`
	Redirect  string `json:"redirect"`
}

func bookPath(bookID string) string {
	return catalogPath + "/" + bookID
}

// View handles GET /v1/checkout/{bookId}
// @Summary Purchase view for a book
// @Tags purchase
// @Produce json
// @Param bookId path string true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/checkout/{bookId} [get]
func (h *HTTPHandler) View(w http.ResponseWriter, r *http.Request) {
	flow, err := h.svc.Begin(r.Context(), httpx.DeviceIDFrom(r), r.PathValue("bookId"))
	if err != nil {
		httpx.JSONNotFoundRedirect(w, r, "Book not found", catalogPath)
		return
	}

	book := flow.Book()
	view := CheckoutView{
		State:          flow.State().String(),
		Book:           book,
		PriceFormatted: catalog.FormatPrice(book.Price),
	}
	if flow.State() == StateAlreadyOwned {
		view.Redirect = bookPath(book.ID)
	}
	httpx.JSONSuccess(w, r, view, nil)
}

// Checkout handles POST /v1/checkout/{bookId}
// @Summary Open a payment session
// @Tags purchase
// @Accept json
// @Produce json
// @Param bookId path string true "Book ID"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Failure 422 {object} httpx.ErrorResponse
// @Failure 503 {object} httpx.ErrorResponse
// @Router /v1/checkout/{bookId} [post]
func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	bookID := r.PathValue("bookId")
	flow, launch, err := h.svc.Checkout(r.Context(), httpx.DeviceIDFrom(r), bookID, req.Email)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		httpx.JSONNotFoundRedirect(w, r, "Book not found", catalogPath)
		return
	case errors.Is(err, ErrAlreadyOwned):
		httpx.JSONErrorWithMeta(w, r, http.StatusConflict, "ALREADY_PURCHASED", "You already own this book", nil,
			map[string]interface{}{"redirect": bookPath(bookID)})
		return
	case errors.Is(err, payment.ErrInvalidEmail):
		httpx.JSONError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid input",
			[]httpx.ErrorDetail{{Field: "email", Message: "Please enter a valid email address"}})
		return
	case errors.Is(err, payment.ErrMissingCredential):
		httpx.JSONError(w, r, http.StatusServiceUnavailable, "PAYMENT_CONFIGURATION_ERROR",
			"Payment configuration error. Please contact support.", nil)
		return
	default:
		h.svc.logger.Error().Err(err).Str("book_id", bookID).Msg("opening payment session")
		httpx.JSONError(w, r, http.StatusBadGateway, "PAYMENT_PROVIDER_ERROR", "Payment provider unavailable", nil)
		return
	}

	ref := flow.Reference()
	httpx.JSONSuccessCreated(w, r, CheckoutResponse{
		Reference:    ref,
		State:        flow.State().String(),
		Launch:       launch,
		CallbackPath: "/v1/payments/" + ref + "/callback",
	})
}

// Callback handles POST /v1/payments/{reference}/callback
// @Summary Payment widget callback
// @Tags purchase
// @Accept json
// @Produce json
// @Param reference path string true "Payment reference"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /v1/payments/{reference}/callback [post]
func (h *HTTPHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req callbackRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	reference := r.PathValue("reference")
	res := payment.Cancelled()
	if req.Status == payment.OutcomeSuccess.String() {
		res = payment.Success(req.Reference)
	}

	flow, conf, err := h.svc.Complete(r.Context(), httpx.DeviceIDFrom(r), reference, res)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Payment session not found", nil)
		return
	case errors.Is(err, payment.ErrSessionSettled):
		httpx.JSONError(w, r, http.StatusConflict, "PAYMENT_ALREADY_SETTLED", "Payment already completed", nil)
		return
	case errors.Is(err, ErrUserCancelled):
		httpx.JSONErrorWithMeta(w, r, http.StatusConflict, "PAYMENT_CANCELLED", "Payment was cancelled", nil,
			map[string]interface{}{
				"state": flow.State().String(),
				"retry": "/v1/checkout/" + flow.Book().ID,
			})
		return
	default:
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccess(w, r, CallbackResponse{
		Reference: conf.Reference,
		BookID:    conf.BookID,
		State:     flow.State().String(),
		Redirect:  SuccessPath(conf.Reference, conf.BookID),
	}, nil)
}

// Success handles GET /v1/success
// @Summary Purchase confirmation
// @Tags purchase
// @Produce json
// @Param reference query string true "Payment reference"
// @Param bookId query string true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/success [get]
func (h *HTTPHandler) Success(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := h.svc.Confirm(r.Context(), httpx.DeviceIDFrom(r), q.Get("reference"), q.Get("bookId"))
	if err != nil {
		httpx.JSONNotFoundRedirect(w, r, "Purchase not found", catalogPath)
		return
	}
	httpx.JSONSuccess(w, r, view, nil)
}

// Download handles GET /v1/books/{id}/download
// @Summary Download a purchased book
// @Tags purchase
// @Param id path string true "Book ID"
// @Success 302
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/books/{id}/download [get]
func (h *HTTPHandler) Download(w http.ResponseWriter, r *http.Request) {
	bookID := r.PathValue("id")
	link, err := h.svc.Download(r.Context(), httpx.DeviceIDFrom(r), bookID)
	switch {
	case err == nil:
		http.Redirect(w, r, link, http.StatusFound)
	case errors.Is(err, ErrNotFound):
		httpx.JSONNotFoundRedirect(w, r, "Purchase not found", bookPath(bookID))
	default:
		h.svc.logger.Error().Err(err).Str("book_id", bookID).Msg("resolving download")
		httpx.JSONError(w, r, http.StatusBadGateway, "DOWNLOAD_UNAVAILABLE", "Download temporarily unavailable", nil)
	}
}
