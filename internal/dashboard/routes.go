package dashboard

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zhuravin/rentline/internal/models"
	"github.com/zhuravin/rentline/internal/store"
)

// registerRoutes sets up the read-only API on the Gin router.
func registerRoutes(router *gin.Engine, s *store.Store) {
	router.GET("/healthz", handleHealth)
	router.GET("/api/stats", handleStats(s))
	router.GET("/api/listings", handleListings(s))
	router.GET("/api/listings/:id", handleListingDetail(s))
}

type listingJSON struct {
	ID             uint       `json:"id"`
	Description    string     `json:"description"`
	Price          string     `json:"price,omitempty"`
	ManagerContact string     `json:"manager_contact,omitempty"`
	IsPromotional  bool       `json:"is_promotional"`
	ViewCount      int64      `json:"view_count"`
	PhotoCount     int        `json:"photo_count,omitempty"`
	MediaRefs      []string   `json:"media_refs,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	LastShownAt    *time.Time `json:"last_shown_at,omitempty"`
}

func toListingJSON(l *models.Listing) listingJSON {
	out := listingJSON{
		ID:             l.ID,
		Description:    l.Description,
		Price:          l.Price,
		ManagerContact: l.ManagerContact,
		IsPromotional:  l.IsPromotional,
		ViewCount:      l.ViewCount,
		CreatedAt:      l.CreatedAt,
		LastShownAt:    l.LastShownAt,
	}
	for _, p := range l.Photos {
		out.MediaRefs = append(out.MediaRefs, p.MediaRef)
	}
	out.PhotoCount = len(out.MediaRefs)
	return out
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleStats(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := s.CollectStats()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "stats query failed"})
			return
		}
		resp := gin.H{
			"total_listings":   stats.TotalListings,
			"promo_listings":   stats.PromoListings,
			"total_photos":     stats.TotalPhotos,
			"total_users":      stats.TotalUsers,
			"subscribed_users": stats.SubscribedUsers,
		}
		if stats.HasHighestPrice {
			resp["highest_price"] = stats.HighestPrice
		}
		if stats.TopViewed != nil {
			resp["top_viewed"] = gin.H{
				"id":         stats.TopViewed.ID,
				"view_count": stats.TopViewed.ViewCount,
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

func handleListings(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			listings []models.Listing
			err      error
		)
		if c.Query("promotional") == "true" {
			listings, err = s.PromotionalListings()
		} else {
			listings, err = s.RegularListings()
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "listing query failed"})
			return
		}
		out := make([]listingJSON, 0, len(listings))
		for i := range listings {
			out = append(out, toListingJSON(&listings[i]))
		}
		c.JSON(http.StatusOK, gin.H{"listings": out, "count": len(out)})
	}
}

func handleListingDetail(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing id"})
			return
		}
		listing, err := s.GetListing(uint(id))
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "listing query failed"})
			return
		}
		c.JSON(http.StatusOK, toListingJSON(listing))
	}
}
