package chat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zhuravin/rentline/internal/models"
)

// Callback action names. Actions that reference a listing carry its id as a
// suffix: "next-<id>", "rent-<id>", "edit-desc-<id>", and so on.
const (
	ActionShowAds             = "show-ads"
	ActionNext                = "next"
	ActionPrev                = "prev"
	ActionRent                = "rent"
	ActionView                = "view"
	ActionToggleNotifications = "toggle-notifications"

	ActionAddListing    = "add-listing"
	ActionAddPromo      = "add-promo"
	ActionEditListing   = "edit-listing"
	ActionEditAd        = "edit-ad"
	ActionEditPhotos    = "edit-photos"
	ActionEditDesc      = "edit-desc"
	ActionEditPrice     = "edit-price"
	ActionEditManager   = "edit-manager"
	ActionDeleteListing = "delete-listing"
	ActionDeleteAd      = "delete-ad"
	ActionConfirmDelete = "confirm-delete"
	ActionStats         = "stats"
	ActionBackAdmin     = "back-admin"

	ActionPhotosDone = "photos-done"
	ActionConfirm    = "confirm"
	ActionCancel     = "cancel"
)

// ListingAction builds an action string carrying a listing id.
func ListingAction(action string, id uint) string {
	return fmt.Sprintf("%s-%d", action, id)
}

// SplitListingAction parses an action of the form "<name>-<id>". It returns
// the name, the id, and whether the suffix was a valid id.
func SplitListingAction(action string) (string, uint, bool) {
	i := strings.LastIndex(action, "-")
	if i < 0 {
		return action, 0, false
	}
	id, err := strconv.ParseUint(action[i+1:], 10, 32)
	if err != nil {
		return action, 0, false
	}
	return action[:i], uint(id), true
}

// StartKeyboard is the single "browse listings" entry button.
func StartKeyboard() *Keyboard {
	return (&Keyboard{}).Row(Button{Label: "🏠 Browse listings", Action: ActionShowAds})
}

// NavigationKeyboard builds paging controls for a rendered listing. The prev
// button is omitted at position 1 and the next button at position total; a
// rent button is added unless the listing is promotional.
func NavigationKeyboard(l *models.Listing, position, total int) *Keyboard {
	kb := &Keyboard{}
	var nav []Button
	if position > 1 {
		nav = append(nav, Button{Label: "⬅️", Action: ListingAction(ActionPrev, l.ID)})
	}
	if position < total {
		nav = append(nav, Button{Label: "➡️", Action: ListingAction(ActionNext, l.ID)})
	}
	if len(nav) > 0 {
		kb.Row(nav...)
	}
	if !l.IsPromotional {
		kb.Row(Button{Label: "📞 Rent", Action: ListingAction(ActionRent, l.ID)})
	}
	return kb
}

// AdminMenuKeyboard is the admin panel entry menu.
func AdminMenuKeyboard() *Keyboard {
	return (&Keyboard{}).
		Row(
			Button{Label: "➕ Add listing", Action: ActionAddListing},
			Button{Label: "📢 Add promo", Action: ActionAddPromo},
		).
		Row(
			Button{Label: "📝 Edit listing", Action: ActionEditListing},
			Button{Label: "❌ Delete listing", Action: ActionDeleteListing},
		).
		Row(Button{Label: "📊 Statistics", Action: ActionStats})
}

// PhotoUploadKeyboard offers the sentinel "done" signal plus cancel during
// photo collection.
func PhotoUploadKeyboard() *Keyboard {
	return (&Keyboard{}).
		Row(Button{Label: "Done", Action: ActionPhotosDone}).
		Row(Button{Label: "Cancel", Action: ActionCancel})
}

// ConfirmKeyboard offers the two terminal signals of the confirmation state.
func ConfirmKeyboard() *Keyboard {
	return (&Keyboard{}).Row(
		Button{Label: "✅ Save", Action: ActionConfirm},
		Button{Label: "❌ Cancel", Action: ActionCancel},
	)
}

// CancelKeyboard is attached to single-field edit prompts.
func CancelKeyboard() *Keyboard {
	return (&Keyboard{}).Row(Button{Label: "Cancel", Action: ActionCancel})
}

// EditFieldKeyboard lists the per-field edit sub-flows for a listing.
func EditFieldKeyboard(id uint) *Keyboard {
	return (&Keyboard{}).
		Row(Button{Label: "📸 Change photos", Action: ListingAction(ActionEditPhotos, id)}).
		Row(Button{Label: "📝 Change description", Action: ListingAction(ActionEditDesc, id)}).
		Row(Button{Label: "💰 Change price", Action: ListingAction(ActionEditPrice, id)}).
		Row(Button{Label: "👤 Change manager", Action: ListingAction(ActionEditManager, id)}).
		Row(Button{Label: "🔙 Back", Action: ActionBackAdmin})
}

// ListingListKeyboard renders one button per listing, each carrying the given
// action prefix ("edit-ad" or "delete-ad").
func ListingListKeyboard(listings []models.Listing, action string) *Keyboard {
	kb := &Keyboard{}
	for _, l := range listings {
		kb.Row(Button{
			Label:  fmt.Sprintf("ID%d: %s", l.ID, Truncate(l.Description, 20)),
			Action: ListingAction(action, l.ID),
		})
	}
	kb.Row(Button{Label: "🔙 Back", Action: ActionBackAdmin})
	return kb
}

// DeleteConfirmKeyboard asks for final confirmation before deleting.
func DeleteConfirmKeyboard(id uint) *Keyboard {
	return (&Keyboard{}).Row(
		Button{Label: "✅ Yes, delete", Action: ListingAction(ActionConfirmDelete, id)},
		Button{Label: "❌ Cancel", Action: ActionBackAdmin},
	)
}

// ViewKeyboard is the deep-link button attached to new-listing notifications.
func ViewKeyboard(id uint) *Keyboard {
	return (&Keyboard{}).Row(Button{Label: "🏠 View", Action: ListingAction(ActionView, id)})
}

// Truncate returns s truncated to maxLen with "..." appended if needed.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
