package webhooks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfan-ansarii/goldys-inventory-management/internal/carrier"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/db/models"
)

type fakeStores struct {
	byDomain map[string]*models.Store
}

func (f *fakeStores) Get(_ context.Context, id uuid.UUID) (*models.Store, error) {
	for _, store := range f.byDomain {
		if store.ID == id {
			return store, nil
		}
	}
	return nil, nil
}

func (f *fakeStores) ResolveDomain(_ context.Context, domain string) (*models.Store, error) {
	return f.byDomain[domain], nil
}

type fakeDedup struct {
	seen map[string]bool
}

func (f *fakeDedup) MarkEventSeen(_ context.Context, scope, eventID string, _ time.Duration) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	key := scope + ":" + eventID
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

type fakePublisher struct {
	topics []string
	data   [][]byte
	attrs  []map[string]string
}

func (f *fakePublisher) Publish(_ context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	f.topics = append(f.topics, topic)
	f.data = append(f.data, data)
	f.attrs = append(f.attrs, attrs)
	return "msg-1", nil
}

func channelFixture() (ChannelDeps, *fakePublisher, *models.Store) {
	store := &models.Store{ID: uuid.New()}
	pub := &fakePublisher{}
	deps := ChannelDeps{
		Stores:    &fakeStores{byDomain: map[string]*models.Store{"goldys.myshopify.com": store}},
		Dedup:     &fakeDedup{},
		Publisher: pub,
		Topic:     "orders",
		DedupTTL:  time.Hour,
	}
	return deps, pub, store
}

func postChannel(handler http.HandlerFunc, topic, domain, eventID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/channel", strings.NewReader(body))
	if topic != "" {
		req.Header.Set(HeaderTopic, topic)
	}
	if domain != "" {
		req.Header.Set(HeaderShopDomain, domain)
	}
	if eventID != "" {
		req.Header.Set(HeaderEventID, eventID)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestChannelQueuesOrderEvent(t *testing.T) {
	deps, pub, store := channelFixture()
	handler := Channel(deps)

	rec := postChannel(handler, "orders/create", "goldys.myshopify.com", "evt-1", `{"name":"GN1001"}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, pub.topics, 1)
	assert.Equal(t, "orders", pub.topics[0])
	assert.Equal(t, store.ID.String(), pub.attrs[0]["store_id"])
	assert.Equal(t, "orders/create", pub.attrs[0]["topic"])
	assert.JSONEq(t, `{"name":"GN1001"}`, string(pub.data[0]))
}

func TestChannelAcksUnknownDomainWithoutQueueing(t *testing.T) {
	deps, pub, _ := channelFixture()
	handler := Channel(deps)

	rec := postChannel(handler, "orders/create", "stranger.myshopify.com", "evt-1", `{}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, pub.topics)
}

func TestChannelDropsDuplicateDeliveries(t *testing.T) {
	deps, pub, _ := channelFixture()
	handler := Channel(deps)

	first := postChannel(handler, "orders/updated", "goldys.myshopify.com", "evt-7", `{}`)
	second := postChannel(handler, "orders/updated", "goldys.myshopify.com", "evt-7", `{}`)

	assert.Equal(t, http.StatusAccepted, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Len(t, pub.topics, 1)

	var body struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &body))
	assert.Equal(t, "duplicate", body.Data["status"])
}

func TestChannelIgnoresUnsupportedTopics(t *testing.T) {
	deps, pub, _ := channelFixture()
	handler := Channel(deps)

	rec := postChannel(handler, "products/create", "goldys.myshopify.com", "evt-1", `{}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, pub.topics)
}

func TestChannelRequiresDomainHeader(t *testing.T) {
	deps, _, _ := channelFixture()
	handler := Channel(deps)

	rec := postChannel(handler, "orders/create", "", "evt-1", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCarrierQueuesTrackingEvent(t *testing.T) {
	store := &models.Store{ID: uuid.New()}
	pub := &fakePublisher{}
	handler := Carrier(CarrierDeps{
		Stores:    &fakeStores{byDomain: map[string]*models.Store{"goldys.myshopify.com": store}},
		Publisher: pub,
		Topic:     "tracking",
	})

	body := `{"awb":"AWB123","current_status":"Delivered","order_id":"GN1001","courier_name":"Bluedart","etd":"2026-01-01"}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/carrier?domain=goldys.myshopify.com", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, pub.data, 1)

	var event carrier.TrackingEvent
	require.NoError(t, json.Unmarshal(pub.data[0], &event))
	assert.Equal(t, store.ID, event.StoreID)
	assert.Equal(t, "GN1001", event.OrderName)
	assert.Equal(t, "AWB123", event.AWB)
	assert.Equal(t, "Delivered", event.Status)
	assert.Equal(t, "Bluedart", event.Carrier)
}

func TestCarrierRejectsMissingAWB(t *testing.T) {
	store := &models.Store{ID: uuid.New()}
	pub := &fakePublisher{}
	handler := Carrier(CarrierDeps{
		Stores:    &fakeStores{byDomain: map[string]*models.Store{"goldys.myshopify.com": store}},
		Publisher: pub,
		Topic:     "tracking",
	})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/carrier?domain=goldys.myshopify.com", strings.NewReader(`{"current_status":"Delivered"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, pub.data)
}
