package models

// slotCatalog is the fixed, ordered set of bookable time-of-day labels.
var slotCatalog = []string{
	"09:00 AM", "09:30 AM", "10:00 AM", "10:30 AM",
	"11:00 AM", "11:30 AM", "02:00 PM", "02:30 PM",
	"03:00 PM", "03:30 PM", "04:00 PM", "04:30 PM",
}

// SlotCatalog returns a copy of the slot labels in display order.
func SlotCatalog() []string {
	out := make([]string, len(slotCatalog))
	copy(out, slotCatalog)
	return out
}

// IsCatalogSlot reports whether label is a bookable slot.
func IsCatalogSlot(label string) bool {
	for _, s := range slotCatalog {
		if s == label {
			return true
		}
	}
	return false
}
