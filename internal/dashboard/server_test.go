package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zhuravin/rentline/internal/models"
	"github.com/zhuravin/rentline/internal/store"
)

func setupRouter(t *testing.T) (*store.Store, *gin.Engine) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Listing{}, &models.Photo{}, &models.User{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	s, err := store.New(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	registerRoutes(router, s)
	return s, router
}

func doGET(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	_, router := setupRouter(t)
	w := doGET(t, router, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	s, router := setupRouter(t)
	l := &models.Listing{Description: "Flat", Price: "1500.50", ManagerContact: "@m"}
	if err := s.CreateListing(l, []string{"media-1", "media-2"}); err != nil {
		t.Fatalf("create listing: %v", err)
	}
	if _, err := s.UpsertUser("user-1", "u", "", ""); err != nil {
		t.Fatalf("upsert user: %v", err)
	}

	w := doGET(t, router, "/api/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		TotalListings   int64   `json:"total_listings"`
		TotalPhotos     int64   `json:"total_photos"`
		TotalUsers      int64   `json:"total_users"`
		SubscribedUsers int64   `json:"subscribed_users"`
		HighestPrice    float64 `json:"highest_price"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalListings != 1 || resp.TotalPhotos != 2 || resp.TotalUsers != 1 {
		t.Errorf("stats = %+v", resp)
	}
	if resp.HighestPrice != 1500.50 {
		t.Errorf("highest price = %v", resp.HighestPrice)
	}
}

func TestListingsEndpoint(t *testing.T) {
	s, router := setupRouter(t)
	regular := &models.Listing{Description: "Flat", Price: "1000", ManagerContact: "@m"}
	if err := s.CreateListing(regular, []string{"media-1"}); err != nil {
		t.Fatalf("create listing: %v", err)
	}
	promo := &models.Listing{Description: "PROMO", IsPromotional: true}
	if err := s.CreateListing(promo, nil); err != nil {
		t.Fatalf("create promo: %v", err)
	}

	var resp struct {
		Count    int `json:"count"`
		Listings []struct {
			ID            uint `json:"id"`
			IsPromotional bool `json:"is_promotional"`
		} `json:"listings"`
	}

	w := doGET(t, router, "/api/listings")
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 || resp.Listings[0].ID != regular.ID {
		t.Errorf("regular listings = %+v", resp)
	}

	w = doGET(t, router, "/api/listings?promotional=true")
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 || !resp.Listings[0].IsPromotional {
		t.Errorf("promo listings = %+v", resp)
	}
}

func TestListingDetailEndpoint(t *testing.T) {
	s, router := setupRouter(t)
	l := &models.Listing{Description: "Flat", Price: "1000", ManagerContact: "@m"}
	if err := s.CreateListing(l, []string{"media-1", "media-2"}); err != nil {
		t.Fatalf("create listing: %v", err)
	}

	w := doGET(t, router, "/api/listings/1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		MediaRefs  []string `json:"media_refs"`
		PhotoCount int      `json:"photo_count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.PhotoCount != 2 || len(resp.MediaRefs) != 2 {
		t.Errorf("detail = %+v", resp)
	}

	if w := doGET(t, router, "/api/listings/999"); w.Code != http.StatusNotFound {
		t.Errorf("missing listing status = %d", w.Code)
	}
	if w := doGET(t, router, "/api/listings/abc"); w.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d", w.Code)
	}
}
