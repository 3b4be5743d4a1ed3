// @title           Eva Harper API
// @version         1.0
// @description     Backend des KI-Modeassistenten Eva Harper: Warteliste, Sitzungen, Credits und KI-Funktionen.
// @contact.name    Eva Harper
// @contact.email   support@evaharper.com
// @BasePath        /
// @securityDefinitions.apikey SessionCookie
// @in              cookie
// @name            eva_session

package main

import "eva_harper_backend/internal/app"

func main() {
	app.Run()
}
