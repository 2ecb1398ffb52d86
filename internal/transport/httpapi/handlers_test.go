package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/oerazoo/orders-service/internal/domain"
	"github.com/oerazoo/orders-service/internal/service/order"
	"github.com/oerazoo/orders-service/internal/storage/memory"
)

type failingPublisher struct{}

func (failingPublisher) PublishReserveInventory(
	string, []domain.OrderItem, int64, int64, decimal.Decimal, string,
) error {
	return fmt.Errorf("%w: broker unavailable", domain.ErrPublishFailed)
}

func newTestServer(t *testing.T, publisher domain.SagaPublisher) *httptest.Server {
	t.Helper()

	store := memory.NewStore()
	if publisher == nil {
		publisher = order.NewNoopPublisher()
	}
	svc := order.NewServiceWithoutMetrics(
		memory.NewOrderRepository(store),
		memory.NewStatusHistoryRepository(store),
		publisher,
	)

	server := httptest.NewServer(NewRouter(NewHandler(svc)))
	t.Cleanup(server.Close)
	return server
}

func createOrderBody() []byte {
	return []byte(`{
		"orderData": {
			"user_id": 7,
			"store_id": 3,
			"dealer_id": 5,
			"address": "Carrera 7 #45-10"
		},
		"items": [
			{"product_id": 100, "quantity": 2, "unit_price": 10.00},
			{"product_id": 200, "quantity": 1, "unit_price": 5.00}
		],
		"payment_method": "tarjeta"
	}`)
}

func postOrder(t *testing.T, server *httptest.Server) orderResponse {
	t.Helper()

	resp, err := http.Post(server.URL+"/orders", "application/json", bytes.NewReader(createOrderBody()))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created orderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	return created
}

func TestCreateOrderEndpoint(t *testing.T) {
	server := newTestServer(t, nil)

	created := postOrder(t, server)

	require.NotEmpty(t, created.ID)
	require.Equal(t, "pendiente", created.Status)
	require.Equal(t, 25.0, created.TotalAmount)
	require.Len(t, created.Items, 2)
	require.Empty(t, created.StatusHistory)
}

func TestCreateOrderEndpoint_Validation(t *testing.T) {
	server := newTestServer(t, nil)

	cases := []struct {
		name string
		body string
	}{
		{"broken json", `{"orderData": `},
		{"missing items", `{"orderData":{"user_id":7,"store_id":3,"dealer_id":5,"address":"x"},"items":[],"payment_method":"pse"}`},
		{"bad payment method", `{"orderData":{"user_id":7,"store_id":3,"dealer_id":5,"address":"x"},"items":[{"product_id":1,"quantity":1,"unit_price":1}],"payment_method":"cheque"}`},
		{"missing user", `{"orderData":{"store_id":3,"dealer_id":5,"address":"x"},"items":[{"product_id":1,"quantity":1,"unit_price":1}],"payment_method":"pse"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(server.URL+"/orders", "application/json", bytes.NewReader([]byte(tc.body)))
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestCreateOrderEndpoint_PublishFailure(t *testing.T) {
	server := newTestServer(t, failingPublisher{})

	resp, err := http.Post(server.URL+"/orders", "application/json", bytes.NewReader(createOrderBody()))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestGetOrderEndpoint(t *testing.T) {
	server := newTestServer(t, nil)
	created := postOrder(t, server)

	resp, err := http.Get(server.URL + "/orders/" + created.ID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var found orderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&found))
	require.Equal(t, created.ID, found.ID)
	require.Len(t, found.Items, 2)
}

func TestGetOrderEndpoint_NotFound(t *testing.T) {
	server := newTestServer(t, nil)

	resp, err := http.Get(server.URL + "/orders/does-not-exist")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateOrderEndpoint_StatusChange(t *testing.T) {
	server := newTestServer(t, nil)
	created := postOrder(t, server)

	body := []byte(`{"status": "aceptada"}`)
	req, err := http.NewRequest(http.MethodPut, server.URL+"/orders/"+created.ID, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated orderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	require.Equal(t, "aceptada", updated.Status)

	// История видна при следующем чтении.
	getResp, err := http.Get(server.URL + "/orders/" + created.ID)
	require.NoError(t, err)
	defer getResp.Body.Close()

	var found orderResponse
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&found))
	require.Len(t, found.StatusHistory, 1)
	require.Equal(t, "aceptada", found.StatusHistory[0].Status)
}

func TestUpdateOrderEndpoint_UnknownStatus(t *testing.T) {
	server := newTestServer(t, nil)
	created := postOrder(t, server)

	req, err := http.NewRequest(
		http.MethodPut,
		server.URL+"/orders/"+created.ID,
		bytes.NewReader([]byte(`{"status": "enviado"}`)),
	)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAddAndRemoveItemEndpoints(t *testing.T) {
	server := newTestServer(t, nil)
	created := postOrder(t, server)

	body := []byte(`{"items": [{"product_id": 300, "quantity": 3, "unit_price": 2.50}]}`)
	resp, err := http.Post(server.URL+"/orders/"+created.ID+"/items", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var withExtra orderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&withExtra))
	require.Len(t, withExtra.Items, 3)
	require.Equal(t, 32.5, withExtra.TotalAmount)

	var removeID string
	for _, item := range withExtra.Items {
		if item.ProductID == 200 {
			removeID = item.ID
		}
	}
	require.NotEmpty(t, removeID)

	req, err := http.NewRequest(
		http.MethodDelete,
		server.URL+"/orders/"+created.ID+"/items/"+removeID,
		nil,
	)
	require.NoError(t, err)

	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer delResp.Body.Close()
	require.Equal(t, http.StatusOK, delResp.StatusCode)

	var afterRemove orderResponse
	require.NoError(t, json.NewDecoder(delResp.Body).Decode(&afterRemove))
	require.Len(t, afterRemove.Items, 2)
	require.Equal(t, 27.5, afterRemove.TotalAmount)
}

func TestAddItemsEndpoint_BareArrayBody(t *testing.T) {
	server := newTestServer(t, nil)
	created := postOrder(t, server)

	body := []byte(`[{"product_id": 300, "quantity": 1, "unit_price": 2.50}]`)
	resp, err := http.Post(server.URL+"/orders/"+created.ID+"/items", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated orderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	require.Len(t, updated.Items, 3)
	require.Equal(t, 27.5, updated.TotalAmount)
}

func TestRemoveItemEndpoint_NotFound(t *testing.T) {
	server := newTestServer(t, nil)
	created := postOrder(t, server)

	req, err := http.NewRequest(
		http.MethodDelete,
		server.URL+"/orders/"+created.ID+"/items/unknown-item",
		nil,
	)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCancelOrderEndpoint(t *testing.T) {
	server := newTestServer(t, nil)
	created := postOrder(t, server)

	resp, err := http.Post(server.URL+"/orders/"+created.ID+"/cancel", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var canceled orderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&canceled))
	require.Equal(t, "cancelada", canceled.Status)
	require.Len(t, canceled.StatusHistory, 1)
}

func TestFilterOrdersEndpoint(t *testing.T) {
	server := newTestServer(t, nil)
	created := postOrder(t, server)
	postOrder(t, server)

	resp, err := http.Get(server.URL + "/orders/filter?user_id=7&status=pendiente")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var orders []orderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&orders))
	require.Len(t, orders, 2)
	require.Equal(t, created.ID, orders[0].ID)
}

func TestFilterOrdersEndpoint_BadValues(t *testing.T) {
	server := newTestServer(t, nil)

	for _, query := range []string{"user_id=abc", "status=enviado", "total_amount=many"} {
		resp, err := http.Get(server.URL + "/orders/filter?" + query)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, "query %q", query)
	}
}

func TestLivenessEndpoint(t *testing.T) {
	server := newTestServer(t, nil)

	resp, err := http.Get(server.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
