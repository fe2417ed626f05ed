package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/zhuravin/rentline/internal/models"
	"github.com/zhuravin/rentline/internal/store"
)

// Fixed user-facing texts. Errors are always rendered as a chat message,
// never a raw technical string.
const (
	WelcomeMessage        = "Hi! 👋 I can help you find a place to rent. Press the button below to start browsing."
	NoListingsMessage     = "No listings available yet. 🤷 Check back later!"
	LastListingNotice     = "This is the last listing! 🤷"
	FirstListingNotice    = "This is the first listing! 🤷"
	ListingGoneNotice     = "This listing has been removed. 😢"
	NotAdminMessage       = "⛔️ You don't have administrator rights"
	AdminMenuMessage      = "👑 Admin panel\n\nPick an action from the menu below:"
	GenericFailureMessage = "Something went wrong. 😕 Please try again."
	NewListingAlert       = "Hi! We have a new listing! 🏠"
	SessionExpiredMessage = "That operation is no longer active. Start again from the menu."
)

// FormatListing builds the caption for a rendered listing. Regular listings
// show their pagination position; promotional ones do not.
func FormatListing(l *models.Listing, position, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📝 Description:\n%s\n\n", l.Description)
	if l.IsPromotional {
		return b.String()
	}
	fmt.Fprintf(&b, "💰 Price: %s\n\n", l.Price)
	fmt.Fprintf(&b, "Listing %d of %d", position, total)
	return b.String()
}

// FormatPreview builds the confirmation-state preview for a listing being
// created.
func FormatPreview(description, price, managerContact string, photoCount int) string {
	var b strings.Builder
	b.WriteString("📋 Listing preview:\n\n")
	fmt.Fprintf(&b, "📝 Description:\n%s\n\n", description)
	fmt.Fprintf(&b, "💰 Price: %s\n\n", price)
	fmt.Fprintf(&b, "👤 Manager: %s\n\n", managerContact)
	fmt.Fprintf(&b, "📸 Photos: %d\n\n", photoCount)
	b.WriteString("Everything correct?")
	return b.String()
}

// FormatPromoPreview builds the confirmation-state preview for a promotional
// listing.
func FormatPromoPreview(content string, photoCount int) string {
	var b strings.Builder
	b.WriteString("📋 Promo preview:\n\n")
	fmt.Fprintf(&b, "%s\n\n", content)
	fmt.Fprintf(&b, "📸 Photos: %d\n\n", photoCount)
	b.WriteString("Everything correct?")
	return b.String()
}

// FormatManagerContact builds the "contact manager" response.
func FormatManagerContact(contact string) string {
	return fmt.Sprintf("👤 To rent this place, contact the manager:\n%s", contact)
}

// FormatListingList renders an admin-facing summary of listings, one per line.
func FormatListingList(header string, listings []models.Listing) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	for _, l := range listings {
		fmt.Fprintf(&b, "ID %d: %s\n💰 %s\n\n", l.ID, Truncate(l.Description, 50), l.Price)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatStats renders bot statistics for admins and the scheduled digest.
func FormatStats(st *store.Stats) string {
	var b strings.Builder
	b.WriteString("📊 Bot statistics:\n\n")
	fmt.Fprintf(&b, "📝 Listings: %d (+%d promotional)\n", st.TotalListings, st.PromoListings)
	fmt.Fprintf(&b, "📸 Photos: %d\n", st.TotalPhotos)
	fmt.Fprintf(&b, "👥 Users: %d (%d subscribed)\n", st.TotalUsers, st.SubscribedUsers)
	if st.HasHighestPrice {
		fmt.Fprintf(&b, "💰 Highest price: %.2f\n", st.HighestPrice)
	}
	if st.TopViewed != nil {
		fmt.Fprintf(&b, "👁 Most viewed: ID %d (%d views)\n", st.TopViewed.ID, st.TopViewed.ViewCount)
	}
	fmt.Fprintf(&b, "📅 As of: %s", time.Now().Format("02.01.2006 15:04"))
	return b.String()
}
