package service

import (
	"time"

	"github.com/tutordesk/tutordesk/internal/notification"
	"github.com/tutordesk/tutordesk/internal/types"
)

var parisLocation = types.MustLocation(types.DefaultTimezone)

// formatDate renders t the way French emails show dates
func formatDate(t time.Time) string {
	return t.In(parisLocation).Format("02/01/2006")
}

// deliveryNote is the timeline note recorded next to a sent message
func deliveryNote(r notification.Result) string {
	if r.Success {
		return ""
	}
	return "échec d'envoi : " + r.Reason
}
