package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerDraftRoutes(mux *http.ServeMux, handler *Handler) {
	mux.Handle("GET /v1/leagues/{leagueID}/draft", RequireCapability(http.HandlerFunc(handler.GetDraftState)))
	mux.Handle("POST /v1/leagues/{leagueID}/draft/buy", RequireCapability(http.HandlerFunc(handler.BuyPlayer)))
	mux.Handle("POST /v1/leagues/{leagueID}/draft/sell", RequireCapability(http.HandlerFunc(handler.SellPlayer)))
	mux.Handle("POST /v1/leagues/{leagueID}/draft/role", RequireCapability(http.HandlerFunc(handler.SetPlayerRole)))
	mux.Handle("POST /v1/leagues/{leagueID}/draft/lock", RequireCapability(http.HandlerFunc(handler.LockRoster)))
	mux.Handle("POST /v1/leagues/{leagueID}/draft/unlock", RequireCapability(http.HandlerFunc(handler.UnlockRoster)))
	mux.Handle("GET /v1/leagues/{leagueID}/standings", RequireCapability(http.HandlerFunc(handler.GetLeagueStandings)))
}

func registerStatsRoutes(mux *http.ServeMux, handler *Handler) {
	mux.Handle("GET /v1/matches/{matchID}/players/{playerID}/stats", RequireCapability(http.HandlerFunc(handler.GetMatchPlayerStats)))
	mux.Handle("GET /v1/tournaments/{tournamentID}/stats", RequireCapability(http.HandlerFunc(handler.GetTournamentStatBoard)))
	mux.Handle("GET /v1/tournaments/{tournamentID}/players/{playerID}/stats", RequireCapability(http.HandlerFunc(handler.GetTournamentPlayerStats)))
	mux.Handle("GET /v1/tournaments/{tournamentID}/players/{playerID}/summary", RequireCapability(http.HandlerFunc(handler.GetTournamentPlayerSummary)))
}
