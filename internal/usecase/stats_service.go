package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/csfantasy/draft-engine/internal/domain/stats"
	"github.com/csfantasy/draft-engine/internal/platform/cache"
	"github.com/csfantasy/draft-engine/internal/platform/logging"
)

// StatsBackend is the stat-payload slice of the backend.
type StatsBackend interface {
	FetchMatchStats(ctx context.Context, matchID, playerID int64) (stats.StatPayload, error)
	FetchTournamentStats(ctx context.Context, tournamentID, playerID int64) (stats.StatPayload, error)
}

type StatsService struct {
	backend     StatsBackend
	payloads    *cache.Store[stats.StatPayload]
	logger      *logging.Logger
	concurrency int
}

func NewStatsService(backend StatsBackend, payloadTTL time.Duration, concurrency int, logger *logging.Logger) *StatsService {
	if logger == nil {
		logger = logging.Default()
	}
	if payloadTTL <= 0 {
		payloadTTL = 30 * time.Second
	}
	if concurrency < 1 {
		concurrency = 8
	}

	return &StatsService{
		backend:     backend,
		payloads:    cache.NewStore[stats.StatPayload](payloadTTL),
		logger:      logger,
		concurrency: concurrency,
	}
}

// MatchView aggregates a player's maps within one match. An empty
// mapFilter reduces across all maps; otherwise it selects a single map by
// id or name and returns that map's identity projection.
func (s *StatsService) MatchView(ctx context.Context, matchID, playerID int64, mapFilter string) (stats.AggregatedView, error) {
	ctx, span := startUsecaseSpan(ctx, "StatsService.MatchView")
	defer span.End()

	if matchID <= 0 || playerID <= 0 {
		return stats.AggregatedView{}, fmt.Errorf("%w: match id and player id must be greater than zero", ErrInvalidInput)
	}

	payload, err := s.matchPayload(ctx, matchID, playerID)
	if err != nil {
		return stats.AggregatedView{}, err
	}

	mapFilter = strings.TrimSpace(mapFilter)
	if mapFilter == "" {
		return stats.ReduceAllMaps(payload), nil
	}

	entry, ok := selectMap(payload.Maps, mapFilter)
	if !ok {
		return stats.AggregatedView{}, fmt.Errorf("%w: map %q not present in match %d", ErrNotFound, mapFilter, matchID)
	}
	return stats.SingleMapView(entry), nil
}

// TournamentView aggregates a player's whole tournament run.
func (s *StatsService) TournamentView(ctx context.Context, tournamentID, playerID int64) (stats.AggregatedView, error) {
	ctx, span := startUsecaseSpan(ctx, "StatsService.TournamentView")
	defer span.End()

	if tournamentID <= 0 || playerID <= 0 {
		return stats.AggregatedView{}, fmt.Errorf("%w: tournament id and player id must be greater than zero", ErrInvalidInput)
	}

	payload, err := s.tournamentPayload(ctx, tournamentID, playerID)
	if err != nil {
		return stats.AggregatedView{}, err
	}
	return stats.ReduceAllMaps(payload), nil
}

// PlayerSummary builds the compact modal view of a player's run.
func (s *StatsService) PlayerSummary(ctx context.Context, tournamentID, playerID int64) (stats.PlayerSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "StatsService.PlayerSummary")
	defer span.End()

	if tournamentID <= 0 || playerID <= 0 {
		return stats.PlayerSummary{}, fmt.Errorf("%w: tournament id and player id must be greater than zero", ErrInvalidInput)
	}

	payload, err := s.tournamentPayload(ctx, tournamentID, playerID)
	if err != nil {
		return stats.PlayerSummary{}, err
	}
	return stats.Summarize(payload), nil
}

// TournamentViews fans out one fetch per player with bounded concurrency.
// A player whose payload cannot be fetched is dropped from the result
// rather than failing the whole board; only context cancellation aborts.
func (s *StatsService) TournamentViews(ctx context.Context, tournamentID int64, playerIDs []int64) (map[int64]stats.AggregatedView, error) {
	ctx, span := startUsecaseSpan(ctx, "StatsService.TournamentViews")
	defer span.End()

	if tournamentID <= 0 {
		return nil, fmt.Errorf("%w: tournament id must be greater than zero", ErrInvalidInput)
	}

	unique := dedupeIDs(playerIDs)
	out := make(map[int64]stats.AggregatedView, len(unique))
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(s.concurrency).WithContext(ctx)
	for _, playerID := range unique {
		playerID := playerID
		p.Go(func(ctx context.Context) error {
			view, err := s.TournamentView(ctx, tournamentID, playerID)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.WarnContext(ctx, "dropping player from stat board",
					"tournament_id", tournamentID,
					"player_id", playerID,
					"error", err,
				)
				return nil
			}
			mu.Lock()
			out[playerID] = view
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *StatsService) matchPayload(ctx context.Context, matchID, playerID int64) (stats.StatPayload, error) {
	key := fmt.Sprintf("%s|match|%d|%d", AccessTokenFromContext(ctx), matchID, playerID)
	return s.payloads.GetOrLoad(ctx, key, func(ctx context.Context) (stats.StatPayload, error) {
		return s.backend.FetchMatchStats(ctx, matchID, playerID)
	})
}

func (s *StatsService) tournamentPayload(ctx context.Context, tournamentID, playerID int64) (stats.StatPayload, error) {
	key := fmt.Sprintf("%s|tournament|%d|%d", AccessTokenFromContext(ctx), tournamentID, playerID)
	return s.payloads.GetOrLoad(ctx, key, func(ctx context.Context) (stats.StatPayload, error) {
		return s.backend.FetchTournamentStats(ctx, tournamentID, playerID)
	})
}

func selectMap(entries []stats.MapEntry, filter string) (stats.MapEntry, bool) {
	if id, err := strconv.ParseInt(filter, 10, 64); err == nil {
		for _, entry := range entries {
			if entry.MapID == id {
				return entry, true
			}
		}
	}
	for _, entry := range entries {
		if strings.EqualFold(entry.MapName, filter) {
			return entry, true
		}
	}
	return stats.MapEntry{}, false
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
