package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oerazoo/orders-service/internal/domain"
)

type orderDataRequest struct {
	UserID   int64  `json:"user_id"`
	StoreID  int64  `json:"store_id"`
	DealerID int64  `json:"dealer_id"`
	Address  string `json:"address"`
	Status   string `json:"status"`
}

type newItemRequest struct {
	ProductID int64   `json:"product_id"`
	Quantity  int32   `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type createOrderRequest struct {
	OrderData     orderDataRequest `json:"orderData"`
	Items         []newItemRequest `json:"items"`
	PaymentMethod string           `json:"payment_method"`
}

type addItemsRequest struct {
	Items []newItemRequest `json:"items"`
}

// decodeAddItems читает позиции из тела запроса. Исходный контракт —
// «голый» JSON-массив; обёртка {"items": [...]} тоже принимается.
func decodeAddItems(r io.Reader) ([]newItemRequest, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []newItemRequest
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var req addItemsRequest
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return nil, err
	}
	return req.Items, nil
}

type updateOrderRequest struct {
	UserID      *int64   `json:"user_id"`
	StoreID     *int64   `json:"store_id"`
	DealerID    *int64   `json:"dealer_id"`
	Address     *string  `json:"address"`
	Status      *string  `json:"status"`
	TotalAmount *float64 `json:"total_amount"`
}

type orderItemResponse struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	ProductID  int64     `json:"product_id"`
	Quantity   int32     `json:"quantity"`
	UnitPrice  float64   `json:"unit_price"`
	TotalPrice float64   `json:"total_price"`
	CreatedAt  time.Time `json:"created_at"`
}

type statusHistoryResponse struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	Status     string    `json:"status"`
	RecordedAt time.Time `json:"recorded_at"`
}

type orderResponse struct {
	ID            string                  `json:"id"`
	UserID        int64                   `json:"user_id"`
	StoreID       int64                   `json:"store_id"`
	DealerID      int64                   `json:"dealer_id"`
	Address       string                  `json:"address"`
	Status        string                  `json:"status"`
	TotalAmount   float64                 `json:"total_amount"`
	Items         []orderItemResponse     `json:"items"`
	StatusHistory []statusHistoryResponse `json:"statusHistory"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

func toNewItemInputs(items []newItemRequest) []domain.NewItemInput {
	inputs := make([]domain.NewItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, domain.NewItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: decimal.NewFromFloat(item.UnitPrice),
		})
	}
	return inputs
}

func toOrderResponse(order domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ID:         item.ID,
			OrderID:    item.OrderID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice.InexactFloat64(),
			TotalPrice: item.TotalPrice.InexactFloat64(),
			CreatedAt:  item.CreatedAt,
		})
	}

	history := make([]statusHistoryResponse, 0, len(order.StatusHistory))
	for _, entry := range order.StatusHistory {
		history = append(history, statusHistoryResponse{
			ID:         entry.ID,
			OrderID:    entry.OrderID,
			Status:     string(entry.Status),
			RecordedAt: entry.RecordedAt,
		})
	}

	return orderResponse{
		ID:            order.ID,
		UserID:        order.UserID,
		StoreID:       order.StoreID,
		DealerID:      order.DealerID,
		Address:       order.Address,
		Status:        string(order.Status),
		TotalAmount:   order.TotalAmount.InexactFloat64(),
		Items:         items,
		StatusHistory: history,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}

func toOrderResponses(orders []domain.Order) []orderResponse {
	responses := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		responses = append(responses, toOrderResponse(order))
	}
	return responses
}
