package httpapi

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/csfantasy/draft-engine/internal/domain/stats"
	"github.com/csfantasy/draft-engine/internal/usecase"
)

// statBoardMaxPlayers bounds one board request; a full league roster plus
// comparison picks fits well under it.
const statBoardMaxPlayers = 50

func (h *Handler) GetMatchPlayerStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatchPlayerStats")
	defer span.End()

	matchID, err := pathID(r, "matchID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	playerID, err := pathID(r, "playerID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	mapFilter := strings.TrimSpace(r.URL.Query().Get("map"))

	view, err := h.statsService.MatchView(ctx, matchID, playerID, mapFilter)
	if err != nil {
		h.logger.WarnContext(ctx, "get match player stats failed",
			"match_id", matchID,
			"player_id", playerID,
			"map", mapFilter,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, view)
}

func (h *Handler) GetTournamentPlayerStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTournamentPlayerStats")
	defer span.End()

	tournamentID, err := pathID(r, "tournamentID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	playerID, err := pathID(r, "playerID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	view, err := h.statsService.TournamentView(ctx, tournamentID, playerID)
	if err != nil {
		h.logger.WarnContext(ctx, "get tournament player stats failed",
			"tournament_id", tournamentID,
			"player_id", playerID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, view)
}

type statBoardRowDTO struct {
	PlayerID int64 `json:"player_id"`
	stats.AggregatedView
}

type statBoardDTO struct {
	TournamentID int64             `json:"tournament_id"`
	Rows         []statBoardRowDTO `json:"rows"`
}

// GetTournamentStatBoard aggregates a whole set of players in one call,
// the comparison view a drafting screen renders next to the market.
// Players whose stats cannot be fetched are absent from the rows rather
// than failing the board.
func (h *Handler) GetTournamentStatBoard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTournamentStatBoard")
	defer span.End()

	tournamentID, err := pathID(r, "tournamentID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	playerIDs, err := parsePlayerList(r.URL.Query().Get("players"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	views, err := h.statsService.TournamentViews(ctx, tournamentID, playerIDs)
	if err != nil {
		h.logger.WarnContext(ctx, "get tournament stat board failed",
			"tournament_id", tournamentID,
			"players", len(playerIDs),
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	board := statBoardDTO{
		TournamentID: tournamentID,
		Rows:         make([]statBoardRowDTO, 0, len(views)),
	}
	for playerID, view := range views {
		board.Rows = append(board.Rows, statBoardRowDTO{PlayerID: playerID, AggregatedView: view})
	}
	sort.Slice(board.Rows, func(i, j int) bool {
		return board.Rows[i].PlayerID < board.Rows[j].PlayerID
	})

	writeSuccess(ctx, w, http.StatusOK, board)
}

func parsePlayerList(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		id, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: players must be a comma-separated list of positive integers", usecase.ErrInvalidInput)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: players query parameter is required", usecase.ErrInvalidInput)
	}
	if len(ids) > statBoardMaxPlayers {
		return nil, fmt.Errorf("%w: at most %d players per request", usecase.ErrInvalidInput, statBoardMaxPlayers)
	}
	return ids, nil
}

func (h *Handler) GetTournamentPlayerSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTournamentPlayerSummary")
	defer span.End()

	tournamentID, err := pathID(r, "tournamentID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	playerID, err := pathID(r, "playerID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	summary, err := h.statsService.PlayerSummary(ctx, tournamentID, playerID)
	if err != nil {
		h.logger.WarnContext(ctx, "get tournament player summary failed",
			"tournament_id", tournamentID,
			"player_id", playerID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, summary)
}
