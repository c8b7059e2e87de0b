package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/csfantasy/draft-engine/internal/domain/draft"
	"github.com/csfantasy/draft-engine/internal/platform/cache"
	"github.com/csfantasy/draft-engine/internal/platform/logging"
)

const standingsPageSize = 20

// StandingsBackend supplies the raw, unordered ladder rows.
type StandingsBackend interface {
	FetchStandings(ctx context.Context, leagueID int64) ([]draft.StandingRow, error)
}

// StandingsPage is one page of the league ladder. Ranks are absolute
// across pages, starting at 1.
type StandingsPage struct {
	Rows       []RankedStandingRow
	Page       int
	PageSize   int
	TotalRows  int
	TotalPages int
}

type RankedStandingRow struct {
	Rank int
	draft.StandingRow
}

type StandingsService struct {
	backend StandingsBackend
	rows    *cache.Store[[]draft.StandingRow]
	logger  *logging.Logger
}

func NewStandingsService(backend StandingsBackend, ttl time.Duration, logger *logging.Logger) *StandingsService {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &StandingsService{
		backend: backend,
		rows:    cache.NewStore[[]draft.StandingRow](ttl),
		logger:  logger,
	}
}

// Page returns one standings page, ordered by points descending with
// fantasy team id as the deterministic tie-breaker. Out-of-range pages
// clamp to the nearest valid page instead of erroring.
func (s *StandingsService) Page(ctx context.Context, leagueID int64, page int) (StandingsPage, error) {
	ctx, span := startUsecaseSpan(ctx, "StandingsService.Page")
	defer span.End()

	if leagueID <= 0 {
		return StandingsPage{}, fmt.Errorf("%w: league id must be greater than zero", ErrInvalidInput)
	}

	key := fmt.Sprintf("standings|%d", leagueID)
	rows, err := s.rows.GetOrLoad(ctx, key, func(ctx context.Context) ([]draft.StandingRow, error) {
		fetched, err := s.backend.FetchStandings(ctx, leagueID)
		if err != nil {
			return nil, err
		}
		sortStandings(fetched)
		return fetched, nil
	})
	if err != nil {
		return StandingsPage{}, err
	}

	totalPages := (len(rows) + standingsPageSize - 1) / standingsPageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * standingsPageSize
	end := start + standingsPageSize
	if start > len(rows) {
		start = len(rows)
	}
	if end > len(rows) {
		end = len(rows)
	}

	ranked := make([]RankedStandingRow, 0, end-start)
	for i, row := range rows[start:end] {
		ranked = append(ranked, RankedStandingRow{
			Rank:        start + i + 1,
			StandingRow: row,
		})
	}

	return StandingsPage{
		Rows:       ranked,
		Page:       page,
		PageSize:   standingsPageSize,
		TotalRows:  len(rows),
		TotalPages: totalPages,
	}, nil
}

func sortStandings(rows []draft.StandingRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TotalPoints != rows[j].TotalPoints {
			return rows[i].TotalPoints > rows[j].TotalPoints
		}
		return rows[i].FantasyTeamID < rows[j].FantasyTeamID
	})
}
