package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/festiva/festiva/internal/models"
)

func TestPlaceOrder(t *testing.T) {
	env := newTestEnv(t)
	orgAccess, _ := env.registerAndLogin(t, "org", "org@example.com", "password", "organizer")
	id := env.createEvent(t, orgAccess, "Jazz Night", 25, 100)

	access, _ := env.registerAndLogin(t, "alice", "alice@example.com", "password", "")

	rec := env.do(t, http.MethodPost, "/orders", map[string]any{
		"items": []map[string]any{{"eventId": id, "quantity": 3}},
	}, withBearer(access))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	require.Equal(t, true, body["success"])
	require.Equal(t, true, body["notified"])
	require.Equal(t, 75.0, body["totalAmount"])

	var event models.Event
	require.NoError(t, env.DB.First(&event, id).Error)
	require.Equal(t, uint(97), event.TicketsAvailable)

	var order models.Order
	require.NoError(t, env.DB.Preload("Items").First(&order).Error)
	require.Equal(t, 75.0, order.Total)
	require.True(t, order.Notified)
	require.Len(t, order.Items, 1)
	require.Equal(t, uint(3), order.Items[0].Quantity)
	require.Equal(t, 25.0, order.Items[0].UnitPrice)

	require.Equal(t, []string{"alice@example.com"}, env.Notifier.sent)

	var orderEvents int
	for _, ev := range env.Producer.published {
		if ev.Topic == "order_events" {
			orderEvents++
		}
	}
	require.Equal(t, 1, orderEvents)
}

func TestPlaceOrderInsufficientInventory(t *testing.T) {
	env := newTestEnv(t)
	orgAccess, _ := env.registerAndLogin(t, "org", "org@example.com", "password", "organizer")
	cheap := env.createEvent(t, orgAccess, "Jazz Night", 25, 2)
	other := env.createEvent(t, orgAccess, "Rock Fest", 40, 50)

	access, _ := env.registerAndLogin(t, "alice", "alice@example.com", "password", "")

	rec := env.do(t, http.MethodPost, "/orders", map[string]any{
		"items": []map[string]any{
			{"eventId": other, "quantity": 5},
			{"eventId": cheap, "quantity": 3},
		},
	}, withBearer(access))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "insufficient_inventory", errorCode(t, rec))

	// the whole attempt rolled back, including the line that had stock
	var event models.Event
	require.NoError(t, env.DB.First(&event, other).Error)
	require.Equal(t, uint(50), event.TicketsAvailable)

	var count int64
	require.NoError(t, env.DB.Model(&models.Order{}).Count(&count).Error)
	require.Zero(t, count)
	require.Empty(t, env.Notifier.sent)
}

func TestPlaceOrderUnknownEvent(t *testing.T) {
	env := newTestEnv(t)
	access, _ := env.registerAndLogin(t, "alice", "alice@example.com", "password", "")

	rec := env.do(t, http.MethodPost, "/orders", map[string]any{
		"items": []map[string]any{{"eventId": 9999, "quantity": 1}},
	}, withBearer(access))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "not_found", errorCode(t, rec))
}

func TestPlaceOrderValidation(t *testing.T) {
	env := newTestEnv(t)
	access, _ := env.registerAndLogin(t, "alice", "alice@example.com", "password", "")

	rec := env.do(t, http.MethodPost, "/orders", map[string]any{
		"items": []map[string]any{},
	}, withBearer(access))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "validation_error", errorCode(t, rec))

	rec = env.do(t, http.MethodPost, "/orders", map[string]any{
		"items": []map[string]any{{"eventId": 1, "quantity": 0}},
	}, withBearer(access))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "validation_error", errorCode(t, rec))
}

func TestPlaceOrderRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/orders", map[string]any{
		"items": []map[string]any{{"eventId": 1, "quantity": 1}},
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "missing_credential", errorCode(t, rec))

	rec = env.do(t, http.MethodPost, "/orders", map[string]any{
		"items": []map[string]any{{"eventId": 1, "quantity": 1}},
	}, withBearer("garbage"))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "invalid_token", errorCode(t, rec))
}

func TestListOrders(t *testing.T) {
	env := newTestEnv(t)
	orgAccess, _ := env.registerAndLogin(t, "org", "org@example.com", "password", "organizer")
	id := env.createEvent(t, orgAccess, "Jazz Night", 25, 100)

	access, _ := env.registerAndLogin(t, "alice", "alice@example.com", "password", "")
	otherAccess, _ := env.registerAndLogin(t, "bob", "bob@example.com", "password", "")

	rec := env.do(t, http.MethodPost, "/orders", map[string]any{
		"items": []map[string]any{{"eventId": id, "quantity": 2}},
	}, withBearer(access))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/orders", nil, withBearer(access))
	require.Equal(t, http.StatusOK, rec.Code)

	var orders []models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	require.Len(t, orders, 1)
	require.Equal(t, 50.0, orders[0].Total)
	require.Len(t, orders[0].Items, 1)

	// history is scoped to the caller
	rec = env.do(t, http.MethodGet, "/orders", nil, withBearer(otherAccess))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	require.Empty(t, orders)

	rec = env.do(t, http.MethodGet, "/orders", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPlaceOrderMailFailureStillSucceeds(t *testing.T) {
	env := newTestEnv(t)
	orgAccess, _ := env.registerAndLogin(t, "org", "org@example.com", "password", "organizer")
	id := env.createEvent(t, orgAccess, "Jazz Night", 25, 100)

	access, _ := env.registerAndLogin(t, "alice", "alice@example.com", "password", "")
	env.Notifier.fail = true

	rec := env.do(t, http.MethodPost, "/orders", map[string]any{
		"items": []map[string]any{{"eventId": id, "quantity": 1}},
	}, withBearer(access))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	require.Equal(t, true, body["success"])
	require.Equal(t, false, body["notified"])

	var order models.Order
	require.NoError(t, env.DB.First(&order).Error)
	require.False(t, order.Notified)

	// inventory was still committed
	var event models.Event
	require.NoError(t, env.DB.First(&event, id).Error)
	require.Equal(t, uint(99), event.TicketsAvailable)
}

func TestPlaceOrderKafkaFailureStillSucceeds(t *testing.T) {
	env := newTestEnv(t)
	orgAccess, _ := env.registerAndLogin(t, "org", "org@example.com", "password", "organizer")
	id := env.createEvent(t, orgAccess, "Jazz Night", 25, 100)

	access, _ := env.registerAndLogin(t, "alice", "alice@example.com", "password", "")
	env.Producer.fail = true

	rec := env.do(t, http.MethodPost, "/orders", map[string]any{
		"items": []map[string]any{{"eventId": id, "quantity": 1}},
	}, withBearer(access))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	require.Equal(t, true, body["success"])
	require.Equal(t, true, body["notified"])
}
