package db

import (
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/zhuravin/rentline/internal/models"
)

// Sample data for seeding. Media refs are placeholders — real refs are upload
// handles issued by the chat platform, so seeded listings render without
// images until their photos are replaced through the edit flow.
var (
	seedDescriptions = []string{
		"Cozy one-bedroom apartment in the city center. Fresh renovation, fully furnished. Metro, shops and a park nearby.",
		"Spacious two-bedroom apartment with a panoramic view. Modern designer renovation, built-in kitchen, air conditioning.",
		"Bright studio in a new residential complex. Quality finish, furniture, appliances. Gated grounds, underground parking.",
		"Comfortable three-bedroom apartment in a quiet district. Separate rooms, two bathrooms, walk-in closet.",
		"Stylish studio apartment with a terrace. Floor-to-ceiling windows, modern furniture, all appliances included.",
	}
	seedPromoContent = []string{
		"SPECIAL OFFER! First month of rent at 50% off. Book the apartment of your dreams today!",
		"PROMO! Long-term leases come with free monthly cleaning. Quality housing from a trusted agency!",
		"EXCLUSIVE! VIP apartments in the historic center. Designer renovation, panoramic windows, terrace.",
		"HOT DEAL! New business-class complex. First tenants get a free month of fitness membership!",
		"PREMIUM apartments in an elite building! Special terms for long-term rental. Limited availability!",
	}
	seedPrices   = []string{"45000", "60000", "75000", "85000", "120000"}
	seedManagers = []string{"@rental_manager_anna", "@rental_expert_mike", "@home_finder_kate", "@property_pro_alex", "@rent_master_maria"}
)

// SeedOpts controls database seeding.
type SeedOpts struct {
	Regular int   // number of regular listings (default 20)
	Promos  int   // number of promotional listings (default 5)
	Seed    int64 // rng seed; 0 means time-based
}

// Seed populates the database with sample listings for development. Regular
// listings get staggered creation dates over the past month so the feed has a
// meaningful ordering.
func Seed(db *gorm.DB, opts SeedOpts) error {
	if opts.Regular == 0 {
		opts.Regular = 20
	}
	if opts.Promos == 0 {
		opts.Promos = 5
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	base := time.Now().AddDate(0, 0, -30)
	for i := 0; i < opts.Regular; i++ {
		listing := models.Listing{
			Description:    seedDescriptions[rng.Intn(len(seedDescriptions))],
			Price:          seedPrices[rng.Intn(len(seedPrices))],
			ManagerContact: seedManagers[rng.Intn(len(seedManagers))],
			CreatedAt:      base.AddDate(0, 0, i),
		}
		if err := createWithPhotos(db, &listing, 2+rng.Intn(3), rng); err != nil {
			return fmt.Errorf("db: seed regular listing %d: %w", i+1, err)
		}
	}

	for i := 0; i < opts.Promos; i++ {
		listing := models.Listing{
			Description:   seedPromoContent[rng.Intn(len(seedPromoContent))],
			Price:         "PROMOTIONAL OFFER",
			IsPromotional: true,
		}
		if err := createWithPhotos(db, &listing, 3+rng.Intn(3), rng); err != nil {
			return fmt.Errorf("db: seed promo listing %d: %w", i+1, err)
		}
	}

	return nil
}

// createWithPhotos writes a listing and its placeholder photos in one
// transaction, matching the atomicity of the real creation flow.
func createWithPhotos(db *gorm.DB, listing *models.Listing, photoCount int, rng *rand.Rand) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(listing).Error; err != nil {
			return err
		}
		for pos := 0; pos < photoCount; pos++ {
			photo := models.Photo{
				ListingID: listing.ID,
				MediaRef:  fmt.Sprintf("seed-media-%d-%d", listing.ID, rng.Intn(100000)),
				Position:  pos,
			}
			if err := tx.Create(&photo).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
