package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"main/config"
	"main/model"
	"main/repository"
	"main/usecase"
	"main/utils"
)

func init() {
	os.Setenv("GO_ENV", "test")
	gin.SetMode(gin.TestMode)
	utils.InitValidator()
}

var handlerTestNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func handlerDaysAgo(days float64) time.Time {
	return handlerTestNow.Add(-time.Duration(days * 24 * float64(time.Hour)))
}

// newTestRouter builds the route tree without the auth layer so handlers
// are exercised directly.
func newTestRouter(svc *usecase.PinService) *gin.Engine {
	router := gin.New()
	pins := router.Group("/api/pins")
	{
		pins.GET("/", func(c *gin.Context) { ListPinsHandler(c, svc) })
		pins.POST("/", func(c *gin.Context) { CreatePinHandler(c, svc) })
		pins.GET("/recent", func(c *gin.Context) { ListTierHandler(usecase.TierRecent)(c, svc) })
		pins.GET("/trending", func(c *gin.Context) { ListTierHandler(usecase.TierTrending)(c, svc) })
		pins.GET("/classics", func(c *gin.Context) { ListTierHandler(usecase.TierClassics)(c, svc) })
		pins.GET("/:id", func(c *gin.Context) { GetPinHandler(c, svc) })
		pins.GET("/:id/score", func(c *gin.Context) { GetPinScoreHandler(c, svc) })
		pins.GET("/:id/forecast", func(c *gin.Context) { ForecastPinHandler(c, svc) })
		pins.GET("/:id/recommendations", func(c *gin.Context) { PinRecommendationsHandler(c, svc) })
		pins.POST("/:id/endorse", func(c *gin.Context) { ActivityHandler(usecase.ActionEndorse)(c, svc) })
		pins.POST("/:id/downvote", func(c *gin.Context) { ActivityHandler(usecase.ActionDownvote)(c, svc) })
		pins.POST("/scores/refresh", func(c *gin.Context) { RefreshScoresHandler(c, svc) })
	}
	admin := router.Group("/api/admin")
	{
		admin.GET("/integrity", func(c *gin.Context) { IntegrityCheckHandler(c, svc) })
		admin.POST("/heal", func(c *gin.Context) { HealHandler(c, svc) })
		admin.POST("/migrate", func(c *gin.Context) { MigrateHandler(c, svc) })
		admin.POST("/validate", func(c *gin.Context) { ValidateCollectionHandler(c, svc) })
	}
	return router
}

func newHandlerTestService(t *testing.T, pins []*model.Pin) (*usecase.PinService, *repository.MemoryPinStore) {
	t.Helper()
	store := repository.NewMemoryPinStore()
	if pins != nil {
		payload, err := json.Marshal(pins)
		if err != nil {
			t.Fatalf("failed to seed store: %v", err)
		}
		store.Seed(payload)
	}
	svc := usecase.NewPinService(store, config.DefaultConfig())
	svc.SetClock(func() time.Time { return handlerTestNow })
	return svc, store
}

func handlerTestPin(id string) *model.Pin {
	pin := model.NewPin(id, 48.85, 2.35, "Corner Bistro", handlerDaysAgo(10))
	pin.PlaceID = "place-" + id
	pin.Category = "food"
	return pin
}

func performRequest(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	return body
}

func TestListPinsHandler(t *testing.T) {
	svc, _ := newHandlerTestService(t, []*model.Pin{
		handlerTestPin("p1"),
		handlerTestPin("p2"),
	})
	router := newTestRouter(svc)

	w := performRequest(router, http.MethodGet, "/api/pins/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	body := decodeEnvelope(t, w)
	data, ok := body["data"].([]interface{})
	if !ok || len(data) != 2 {
		t.Errorf("data = %v, want 2 pins", body["data"])
	}
}

func TestCreatePinHandler(t *testing.T) {
	svc, _ := newHandlerTestService(t, nil)
	router := newTestRouter(svc)

	payload, _ := json.Marshal(map[string]interface{}{
		"latitude":  51.5,
		"longitude": -0.12,
		"title":     "Borough Market Stall",
		"tags":      []string{"market", "street food"},
	})
	w := performRequest(router, http.MethodPost, "/api/pins/", payload)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", w.Code, w.Body.String())
	}
	body := decodeEnvelope(t, w)
	data, _ := body["data"].(map[string]interface{})
	if data["pinID"] == "" || data["placeID"] == "" {
		t.Errorf("created response missing identity: %v", data)
	}
}

func TestCreatePinHandlerRejectsBadBinding(t *testing.T) {
	svc, _ := newHandlerTestService(t, nil)
	router := newTestRouter(svc)

	tests := []map[string]interface{}{
		{"latitude": 200, "longitude": 0, "title": "Too Far North"},
		{"latitude": 10, "longitude": 10}, // no title or locationName
		{"latitude": 10, "longitude": 10, "title": "Bad Tag", "tags": []string{"a,b"}},
	}
	for _, fields := range tests {
		payload, _ := json.Marshal(fields)
		w := performRequest(router, http.MethodPost, "/api/pins/", payload)
		if w.Code != http.StatusBadRequest {
			t.Errorf("payload %v: status = %d, want 400", fields, w.Code)
		}
	}
}

func TestGetPinHandlerNotFound(t *testing.T) {
	svc, _ := newHandlerTestService(t, []*model.Pin{handlerTestPin("p1")})
	router := newTestRouter(svc)

	w := performRequest(router, http.MethodGet, "/api/pins/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestTierListingHandler(t *testing.T) {
	fresh := handlerTestPin("fresh")
	aged := handlerTestPin("aged")
	aged.Timestamp = handlerDaysAgo(400)
	aged.LastEndorsedAt = handlerDaysAgo(350)
	aged.TotalEndorsements = 20

	svc, _ := newHandlerTestService(t, []*model.Pin{fresh, aged})
	router := newTestRouter(svc)

	w := performRequest(router, http.MethodGet, "/api/pins/classics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeEnvelope(t, w)
	data, _ := body["data"].(map[string]interface{})
	if data["tier"] != usecase.TierClassics {
		t.Errorf("tier = %v, want %s", data["tier"], usecase.TierClassics)
	}
	pins, _ := data["pins"].([]interface{})
	if len(pins) != 1 {
		t.Errorf("classics listing has %d pins, want 1", len(pins))
	}
}

func TestActivityHandlerEndorse(t *testing.T) {
	svc, _ := newHandlerTestService(t, []*model.Pin{handlerTestPin("p1")})
	router := newTestRouter(svc)

	w := performRequest(router, http.MethodPost, "/api/pins/p1/endorse", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	body := decodeEnvelope(t, w)
	data, _ := body["data"].(map[string]interface{})
	pin, _ := data["pin"].(map[string]interface{})
	if got := pin["totalEndorsements"]; got != float64(2) {
		t.Errorf("totalEndorsements = %v, want 2", got)
	}
}

func TestActivityHandlerMissingPin(t *testing.T) {
	svc, _ := newHandlerTestService(t, nil)
	router := newTestRouter(svc)

	w := performRequest(router, http.MethodPost, "/api/pins/ghost/downvote", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestForecastHandlerRejectsBadDays(t *testing.T) {
	svc, _ := newHandlerTestService(t, []*model.Pin{handlerTestPin("p1")})
	router := newTestRouter(svc)

	for _, query := range []string{"?days=-3", "?days=soon"} {
		w := performRequest(router, http.MethodGet, "/api/pins/p1/forecast"+query, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("query %q: status = %d, want 400", query, w.Code)
		}
	}

	w := performRequest(router, http.MethodGet, "/api/pins/p1/forecast?days=14", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeEnvelope(t, w)
	data, _ := body["data"].(map[string]interface{})
	if data["days"] != float64(14) {
		t.Errorf("days = %v, want 14", data["days"])
	}
}

func TestRefreshScoresHandler(t *testing.T) {
	svc, _ := newHandlerTestService(t, []*model.Pin{handlerTestPin("p1"), handlerTestPin("p2")})
	router := newTestRouter(svc)

	w := performRequest(router, http.MethodPost, "/api/pins/scores/refresh", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeEnvelope(t, w)
	data, _ := body["data"].(map[string]interface{})
	if data["updated"] != float64(2) {
		t.Errorf("updated = %v, want 2", data["updated"])
	}
}

func TestIntegrityHandler(t *testing.T) {
	good, _ := json.Marshal(handlerTestPin("ok"))
	svc, store := newHandlerTestService(t, nil)
	store.Seed([]byte(`[` + string(good) + `,"broken"]`))
	router := newTestRouter(svc)

	w := performRequest(router, http.MethodGet, "/api/admin/integrity", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeEnvelope(t, w)
	data, _ := body["data"].(map[string]interface{})
	if data["needsHealing"] != true {
		t.Errorf("needsHealing = %v, want true", data["needsHealing"])
	}
}

func TestHealHandler(t *testing.T) {
	good, _ := json.Marshal(handlerTestPin("ok"))
	svc, store := newHandlerTestService(t, nil)
	store.Seed([]byte(`[` + string(good) + `,"broken"]`))
	router := newTestRouter(svc)

	w := performRequest(router, http.MethodPost, "/api/admin/heal", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	if store.Snapshot() == nil {
		t.Error("heal endpoint did not snapshot the collection")
	}

	// The garbage entry is gone afterwards.
	w = performRequest(router, http.MethodGet, "/api/pins/", nil)
	body := decodeEnvelope(t, w)
	data, _ := body["data"].([]interface{})
	if len(data) != 1 {
		t.Errorf("post-heal listing has %d pins, want 1", len(data))
	}
}

func TestHealHandlerUnreadableCollection(t *testing.T) {
	svc, store := newHandlerTestService(t, nil)
	store.Seed([]byte(`{"broken`))
	router := newTestRouter(svc)

	w := performRequest(router, http.MethodPost, "/api/admin/heal", nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 for unreadable collection", w.Code)
	}
	if store.Snapshot() != nil {
		t.Error("unreadable collection must not be snapshotted")
	}
}

func TestValidateCollectionHandler(t *testing.T) {
	svc, _ := newHandlerTestService(t, nil)
	router := newTestRouter(svc)

	batch := []*model.Pin{
		handlerTestPin("good"),
		model.NewPin("bad", 99, 0, "Outside", handlerDaysAgo(1)),
	}
	payload, _ := json.Marshal(batch)

	w := performRequest(router, http.MethodPost, "/api/admin/validate", payload)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeEnvelope(t, w)
	data, _ := body["data"].(map[string]interface{})
	validation, _ := data["validation"].(map[string]interface{})
	if validation["validCount"] != float64(1) || validation["invalidCount"] != float64(1) {
		t.Errorf("valid/invalid = %v/%v, want 1/1",
			validation["validCount"], validation["invalidCount"])
	}
}

func TestMigrateHandler(t *testing.T) {
	legacy := handlerTestPin("legacy")
	legacy.PlaceID = ""
	legacy.Category = ""
	svc, _ := newHandlerTestService(t, []*model.Pin{legacy})
	router := newTestRouter(svc)

	w := performRequest(router, http.MethodPost, "/api/admin/migrate", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeEnvelope(t, w)
	data, _ := body["data"].(map[string]interface{})
	if data["migrated"] != float64(1) {
		t.Errorf("migrated = %v, want 1", data["migrated"])
	}
}
