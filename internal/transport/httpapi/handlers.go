package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/oerazoo/orders-service/internal/domain"
	"github.com/oerazoo/orders-service/internal/service/order"
)

// Handler обслуживает REST API заказов.
type Handler struct {
	svc    *order.Service
	logger *log.Entry
}

// NewHandler создает HTTP-обработчик поверх сервиса заказов.
func NewHandler(svc *order.Service) *Handler {
	return &Handler{
		svc:    svc,
		logger: log.WithField("component", "http-api"),
	}
}

// Register вешает маршруты API на роутер.
func (h *Handler) Register(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Get("/filter", h.filterOrders)
		r.Get("/{id}", h.getOrder)
		r.Put("/{id}", h.updateOrder)
		r.Post("/{id}/items", h.addItems)
		r.Delete("/{id}/items/{itemId}", h.removeItem)
		r.Post("/{id}/cancel", h.cancelOrder)
	})
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	input := order.CreateOrderInput{
		UserID:   req.OrderData.UserID,
		StoreID:  req.OrderData.StoreID,
		DealerID: req.OrderData.DealerID,
		Address:  req.OrderData.Address,
		Status:   domain.OrderStatus(req.OrderData.Status),
	}

	created, err := h.svc.CreateOrder(r.Context(), input, toNewItemInputs(req.Items), req.PaymentMethod)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(created))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	found, err := h.svc.GetOrderByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(found))
}

func (h *Handler) filterOrders(w http.ResponseWriter, r *http.Request) {
	filter, err := parseOrderFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	orders, err := h.svc.GetOrdersByFilter(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	patch := domain.OrderPatch{
		UserID:   req.UserID,
		StoreID:  req.StoreID,
		DealerID: req.DealerID,
		Address:  req.Address,
	}
	if req.Status != nil {
		status := domain.OrderStatus(*req.Status)
		patch.Status = &status
	}
	if req.TotalAmount != nil {
		total := decimal.NewFromFloat(*req.TotalAmount)
		patch.TotalAmount = &total
	}

	updated, err := h.svc.UpdateOrder(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(updated))
}

func (h *Handler) addItems(w http.ResponseWriter, r *http.Request) {
	items, err := decodeAddItems(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	updated, err := h.svc.AddItemsToOrder(r.Context(), chi.URLParam(r, "id"), toNewItemInputs(items))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(updated))
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	updated, err := h.svc.RemoveItemFromOrder(
		r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemId"),
	)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(updated))
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	canceled, err := h.svc.CancelOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(canceled))
}

// parseOrderFilter собирает фильтр из query-параметров. Любое
// нечитаемое значение — ошибка запроса, а не пустой фильтр.
func parseOrderFilter(r *http.Request) (domain.OrderFilter, error) {
	var filter domain.OrderFilter
	q := r.URL.Query()

	if v := q.Get("id"); v != "" {
		filter.ID = &v
	}
	if v := q.Get("address"); v != "" {
		filter.Address = &v
	}
	if v := q.Get("status"); v != "" {
		status := domain.OrderStatus(v)
		if !status.IsValid() {
			return domain.OrderFilter{}, domain.ErrStatusUnknown
		}
		filter.Status = &status
	}

	intFields := []struct {
		name   string
		target **int64
	}{
		{"user_id", &filter.UserID},
		{"store_id", &filter.StoreID},
		{"dealer_id", &filter.DealerID},
	}
	for _, field := range intFields {
		v := q.Get(field.name)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return domain.OrderFilter{}, domain.ErrFilterInvalid
		}
		*field.target = &parsed
	}

	if v := q.Get("total_amount"); v != "" {
		parsed, err := decimal.NewFromString(v)
		if err != nil {
			return domain.OrderFilter{}, domain.ErrFilterInvalid
		}
		filter.TotalAmount = &parsed
	}

	timeFields := []struct {
		name   string
		target **time.Time
	}{
		{"created_at", &filter.CreatedAt},
		{"updated_at", &filter.UpdatedAt},
	}
	for _, field := range timeFields {
		v := q.Get(field.name)
		if v == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return domain.OrderFilter{}, domain.ErrFilterInvalid
		}
		*field.target = &parsed
	}

	return filter, nil
}
