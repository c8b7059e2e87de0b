package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/csfantasy/draft-engine/internal/platform/logging"
	"github.com/csfantasy/draft-engine/internal/usecase"
)

type Handler struct {
	draftService     *usecase.DraftService
	statsService     *usecase.StatsService
	standingsService *usecase.StandingsService
	logger           *logging.Logger
	validator        *validator.Validate
}

func NewHandler(
	draftService *usecase.DraftService,
	statsService *usecase.StatsService,
	standingsService *usecase.StandingsService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		draftService:     draftService,
		statsService:     statsService,
		standingsService: standingsService,
		logger:           logger,
		validator:        validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

// Wire DTOs. The draft snapshot is the one shape the frontend renders the
// whole drafting screen from, so it carries phase and the action map too.

type limitsDTO struct {
	Slots      int `json:"slots"`
	MaxPerTeam int `json:"max_per_team"`
}

type rosterSlotDTO struct {
	PlayerID   int64    `json:"player_id"`
	PlayerName string   `json:"player_name"`
	TeamID     int64    `json:"team_id"`
	TeamName   string   `json:"team_name"`
	Price      int64    `json:"price"`
	RoleBadge  string   `json:"role_badge"`
	FantasyPts *float64 `json:"fantasy_pts"`
	FPPG       *float64 `json:"fppg"`
}

type marketListingDTO struct {
	PlayerID    int64  `json:"player_id"`
	PlayerName  string `json:"player_name"`
	Nationality string `json:"player_nationality_code,omitempty"`
	TeamID      int64  `json:"team_id"`
	TeamName    string `json:"team_name"`
	Price       int64  `json:"price"`
}

type draftViewDTO struct {
	LeagueID     int64              `json:"league_id"`
	LeagueName   string             `json:"league_name,omitempty"`
	TournamentID int64              `json:"tournament_id"`
	BudgetLeft   int64              `json:"budget_left"`
	Participants int                `json:"participants"`
	Phase        string             `json:"phase"`
	Limits       limitsDTO          `json:"limits"`
	Roster       []rosterSlotDTO    `json:"roster"`
	Market       []marketListingDTO `json:"market"`
	Actions      map[string]bool    `json:"actions"`
}

func draftViewToDTO(view usecase.DraftView) draftViewDTO {
	snap := view.Snapshot

	roster := make([]rosterSlotDTO, 0, len(snap.Roster))
	for _, slot := range snap.Roster {
		roster = append(roster, rosterSlotDTO{
			PlayerID:   slot.PlayerID,
			PlayerName: slot.PlayerName,
			TeamID:     slot.TeamID,
			TeamName:   slot.TeamName,
			Price:      slot.Price,
			RoleBadge:  string(slot.Role),
			FantasyPts: slot.FantasyPts,
			FPPG:       slot.FPPG,
		})
	}

	market := make([]marketListingDTO, 0, len(snap.Market))
	for _, listing := range snap.Market {
		market = append(market, marketListingDTO{
			PlayerID:    listing.PlayerID,
			PlayerName:  listing.PlayerName,
			Nationality: listing.Nationality,
			TeamID:      listing.TeamID,
			TeamName:    listing.TeamName,
			Price:       listing.Price,
		})
	}

	actions := make(map[string]bool, len(view.Actions))
	for action, allowed := range view.Actions {
		actions[string(action)] = allowed
	}

	return draftViewDTO{
		LeagueID:     snap.LeagueID,
		LeagueName:   snap.LeagueName,
		TournamentID: snap.TournamentID,
		BudgetLeft:   snap.BudgetLeft,
		Participants: snap.Participants,
		Phase:        string(view.Phase),
		Limits: limitsDTO{
			Slots:      snap.Limits.Slots,
			MaxPerTeam: snap.Limits.MaxPerTeam,
		},
		Roster:  roster,
		Market:  market,
		Actions: actions,
	}
}

type standingRowDTO struct {
	Rank          int     `json:"rank"`
	FantasyTeamID int64   `json:"fantasy_team_id"`
	TeamName      string  `json:"team_name"`
	UserName      string  `json:"user_name"`
	TotalPoints   float64 `json:"total_points"`
	RosterSize    int     `json:"roster_size"`
	BudgetLeft    int64   `json:"budget_left"`
}

type standingsPageDTO struct {
	Rows       []standingRowDTO `json:"rows"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalRows  int              `json:"total_rows"`
	TotalPages int              `json:"total_pages"`
	HasNext    bool             `json:"has_next"`
	HasPrev    bool             `json:"has_prev"`
}

func standingsPageToDTO(page usecase.StandingsPage) standingsPageDTO {
	rows := make([]standingRowDTO, 0, len(page.Rows))
	for _, row := range page.Rows {
		rows = append(rows, standingRowDTO{
			Rank:          row.Rank,
			FantasyTeamID: row.FantasyTeamID,
			TeamName:      row.TeamName,
			UserName:      row.UserName,
			TotalPoints:   row.TotalPoints,
			RosterSize:    row.RosterSize,
			BudgetLeft:    row.BudgetLeft,
		})
	}
	return standingsPageDTO{
		Rows:       rows,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalRows:  page.TotalRows,
		TotalPages: page.TotalPages,
		HasNext:    page.Page < page.TotalPages,
		HasPrev:    page.Page > 1,
	}
}
