package send

import (
	"strings"

	"github.com/veigalabs/chatdesk/internal/status"
)

// sessionWindowMarkers are substrings the backend uses when it rejects a
// free-form send because the counterparty's session window has closed.
// Anything else (transport failures, malformed responses, other backend
// rejections) collapses to a generic error.
var sessionWindowMarkers = []string{
	"re-engagement",
	"24 hours",
	"session window",
}

// Classify maps a send error to a failure reason. The session-window case
// is the only one worth distinguishing: it changes the remediation offered
// to the operator (template flow instead of retry).
func Classify(err error) status.Reason {
	if err == nil {
		return status.ReasonNone
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range sessionWindowMarkers {
		if strings.Contains(msg, marker) {
			return status.ReasonSessionWindowExpired
		}
	}
	return status.ReasonGenericError
}
