package magiclink

import (
	"strings"

	"github.com/maildummy/s3-magiclink/internal/mailparse"
)

// MatchesRecipient reports whether email is one of msg's To or Cc
// addresses, ignoring case.
func MatchesRecipient(msg *mailparse.Message, email string) bool {
	target := strings.ToLower(strings.TrimSpace(email))
	if target == "" || msg == nil {
		return false
	}
	for _, addr := range msg.Recipients() {
		if addr == target {
			return true
		}
	}
	return false
}
