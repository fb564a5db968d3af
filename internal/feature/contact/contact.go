package contact

import (
	"net/url"
	"strings"

	"estate-market/internal/domain"
)

// escape matches encodeURIComponent closely enough for mail clients:
// spaces become %20 rather than '+'.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// MailtoURL builds the link a visitor follows to email a listing's owner.
func MailtoURL(landlord domain.User, l domain.Listing, message string) string {
	return "mailto:" + landlord.Email +
		"?subject=" + escape("Regarding "+l.Name) +
		"&body=" + escape(message)
}

// Intro is the line shown above the message box.
func Intro(landlord domain.User, l domain.Listing) string {
	return "Contact " + landlord.Username + " for " + strings.ToLower(l.Name)
}
