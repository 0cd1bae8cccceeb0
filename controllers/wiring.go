package controllers

import "cliently-backend/services"

// Handlers are package-level funcs, so the services they call are wired in
// once at startup rather than injected per request.
var (
	geocoder  *services.GeocodeService
	reminders *services.ReminderService
	smsSender services.SMSSender
)

func InitServices(g *services.GeocodeService, r *services.ReminderService, s services.SMSSender) {
	geocoder = g
	reminders = r
	smsSender = s
}
