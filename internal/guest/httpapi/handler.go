package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spicemart/backend/internal/guest/app"
	"github.com/spicemart/backend/internal/guest/domain"
)

// Handler exposes the guest cart and wishlist over HTTP. All state lives in
// the session store; the only request credential is the opaque session id in
// the path or body.
type Handler struct {
	cart     *app.CartService
	wishlist *app.WishlistService
	log      *slog.Logger
}

func New(cart *app.CartService, wishlist *app.WishlistService, log *slog.Logger) *Handler {
	return &Handler{cart: cart, wishlist: wishlist, log: log}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /guest-cart/add", h.addCartItems)
	mux.HandleFunc("GET /guest-cart/{session_id}", h.getCart)
	mux.HandleFunc("PATCH /guest-cart/quantity", h.setQuantity)
	mux.HandleFunc("DELETE /guest-cart/{session_id}/items/{product_id}", h.removeCartItem)
	mux.HandleFunc("DELETE /guest-cart/{session_id}/clear", h.clearCart)
	mux.HandleFunc("POST /guest-cart/merge/{session_id}/{user_id}", h.mergeCart)

	mux.HandleFunc("GET /guest-wishlist/{session_id}", h.getWishlist)
	mux.HandleFunc("POST /guest-wishlist/{session_id}/add/{product_id}", h.addWishlistItem)
	mux.HandleFunc("DELETE /guest-wishlist/{session_id}/items/{product_id}", h.removeWishlistItem)
	mux.HandleFunc("DELETE /guest-wishlist/{session_id}/clear", h.clearWishlist)
	mux.HandleFunc("POST /guest-wishlist/merge/{session_id}/{user_id}", h.mergeWishlist)
}

type cartLinePayload struct {
	ProductID string `json:"product_id"`
	Container string `json:"container,omitempty"`
	Quantity  int32  `json:"quantity"`
}

type addCartRequest struct {
	SessionID string            `json:"session_id"`
	Items     []cartLinePayload `json:"items"`
}

type setQuantityRequest struct {
	SessionID string `json:"session_id"`
	ProductID string `json:"product_id"`
	Container string `json:"container,omitempty"`
	Quantity  int32  `json:"quantity"`
}

func (h *Handler) addCartItems(w http.ResponseWriter, r *http.Request) {
	var req addCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, badRequest("malformed request body"))
		return
	}

	lines := make([]domain.CartLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, domain.CartLine{
			ProductID: it.ProductID,
			Container: it.Container,
			Quantity:  it.Quantity,
		})
	}

	view, err := h.cart.AddItems(r.Context(), req.SessionID, lines)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.cart.GetCart(r.Context(), r.PathValue("session_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, badRequest("malformed request body"))
		return
	}

	key := domain.CartKey{ProductID: req.ProductID, Container: req.Container}
	view, err := h.cart.SetQuantity(r.Context(), req.SessionID, key, req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	key := domain.CartKey{
		ProductID: r.PathValue("product_id"),
		Container: r.URL.Query().Get("container"),
	}

	view, err := h.cart.RemoveItem(r.Context(), r.PathValue("session_id"), key)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.Clear(r.Context(), r.PathValue("session_id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) mergeCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cart.MergeIntoUser(r.Context(), r.PathValue("session_id"), r.PathValue("user_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) getWishlist(w http.ResponseWriter, r *http.Request) {
	view, err := h.wishlist.GetWishlist(r.Context(), r.PathValue("session_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) addWishlistItem(w http.ResponseWriter, r *http.Request) {
	view, err := h.wishlist.Add(r.Context(), r.PathValue("session_id"), r.PathValue("product_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) removeWishlistItem(w http.ResponseWriter, r *http.Request) {
	view, err := h.wishlist.Remove(r.Context(), r.PathValue("session_id"), r.PathValue("product_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) clearWishlist(w http.ResponseWriter, r *http.Request) {
	if err := h.wishlist.Clear(r.Context(), r.PathValue("session_id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) mergeWishlist(w http.ResponseWriter, r *http.Request) {
	wishlist, err := h.wishlist.MergeIntoUser(r.Context(), r.PathValue("session_id"), r.PathValue("user_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, wishlist)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func badRequest(msg string) error {
	return fmt.Errorf("%s: %w", msg, app.ErrInvalidArgument)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	httpStatus, code, msg := httpStatusFromGRPC(statusFromErr(err))

	if httpStatus >= http.StatusInternalServerError {
		h.log.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("err", err),
		)
	}

	h.writeJSON(w, httpStatus, errorBody{Error: errorDetail{Code: code, Message: msg}})
}

func (h *Handler) writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("response encode failed", slog.Any("err", err))
	}
}
