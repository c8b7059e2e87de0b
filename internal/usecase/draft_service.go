package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/csfantasy/draft-engine/internal/domain/draft"
	"github.com/csfantasy/draft-engine/internal/domain/role"
	"github.com/csfantasy/draft-engine/internal/platform/logging"
)

// DraftBackend is the slice of the backend the draft flow needs. Every
// mutation returns the fresh post-mutation snapshot; the engine never
// applies local arithmetic to a stale one.
type DraftBackend interface {
	FetchDraftState(ctx context.Context, leagueID int64) (draft.Snapshot, error)
	Buy(ctx context.Context, leagueID, playerID int64) (draft.Snapshot, error)
	Sell(ctx context.Context, leagueID, playerID int64) (draft.Snapshot, error)
	SetRole(ctx context.Context, leagueID, playerID int64, badge role.Role) (draft.Snapshot, error)
	LockRoster(ctx context.Context, leagueID int64) (draft.Snapshot, error)
	UnlockRoster(ctx context.Context, leagueID int64) (draft.Snapshot, error)
}

// DraftView pairs a snapshot with its derived phase and the action
// legality map, so callers never re-derive lifecycle state themselves.
type DraftView struct {
	Snapshot draft.Snapshot
	Phase    draft.Phase
	Actions  map[draft.Action]bool
}

type DraftService struct {
	backend     DraftBackend
	logger      *logging.Logger
	snapshotTTL time.Duration
	now         func() time.Time

	mu     sync.Mutex
	states map[string]*draftState
}

// draftState is the per (user, league) cache cell. mutateMu serializes
// mutations; dataMu guards the snapshot fields. storedSeq implements
// fetch ordering: a slow fetch that started before a newer snapshot was
// stored must not overwrite it.
type draftState struct {
	mutateMu sync.Mutex

	dataMu    sync.Mutex
	fetchSeq  uint64
	storedSeq uint64
	snapshot  *draft.Snapshot
	fetchedAt time.Time
}

func NewDraftService(backend DraftBackend, snapshotTTL time.Duration, logger *logging.Logger) *DraftService {
	if logger == nil {
		logger = logging.Default()
	}
	if snapshotTTL <= 0 {
		snapshotTTL = 5 * time.Second
	}

	return &DraftService{
		backend:     backend,
		logger:      logger,
		snapshotTTL: snapshotTTL,
		now:         time.Now,
		states:      make(map[string]*draftState),
	}
}

func (s *DraftService) State(ctx context.Context, leagueID int64) (DraftView, error) {
	ctx, span := startUsecaseSpan(ctx, "DraftService.State")
	defer span.End()

	if leagueID <= 0 {
		return DraftView{}, fmt.Errorf("%w: league id must be greater than zero", ErrInvalidInput)
	}

	st := s.state(ctx, leagueID)

	st.dataMu.Lock()
	if st.snapshot != nil && s.now().Sub(st.fetchedAt) < s.snapshotTTL {
		snap := *st.snapshot
		st.dataMu.Unlock()
		return buildView(snap), nil
	}
	seq := st.nextSeqLocked()
	st.dataMu.Unlock()

	snap, err := s.backend.FetchDraftState(ctx, leagueID)
	if err != nil {
		return DraftView{}, err
	}

	return buildView(st.store(seq, snap, s.now())), nil
}

func (s *DraftService) Buy(ctx context.Context, leagueID, playerID int64) (DraftView, error) {
	ctx, span := startUsecaseSpan(ctx, "DraftService.Buy")
	defer span.End()

	if playerID <= 0 {
		return DraftView{}, fmt.Errorf("%w: player id must be greater than zero", ErrInvalidInput)
	}

	return s.mutate(ctx, leagueID, "buy",
		func(snap draft.Snapshot) error {
			listing, ok := snap.MarketListing(playerID)
			if !ok {
				return fmt.Errorf("%w: player %d is not listed", ErrNotFound, playerID)
			}
			return snap.CanBuy(listing)
		},
		func(ctx context.Context) (draft.Snapshot, error) {
			return s.backend.Buy(ctx, leagueID, playerID)
		},
	)
}

func (s *DraftService) Sell(ctx context.Context, leagueID, playerID int64) (DraftView, error) {
	ctx, span := startUsecaseSpan(ctx, "DraftService.Sell")
	defer span.End()

	if playerID <= 0 {
		return DraftView{}, fmt.Errorf("%w: player id must be greater than zero", ErrInvalidInput)
	}

	return s.mutate(ctx, leagueID, "sell",
		func(snap draft.Snapshot) error {
			return snap.CanSell(playerID)
		},
		func(ctx context.Context) (draft.Snapshot, error) {
			return s.backend.Sell(ctx, leagueID, playerID)
		},
	)
}

func (s *DraftService) SetRole(ctx context.Context, leagueID, playerID int64, rawBadge string) (DraftView, error) {
	ctx, span := startUsecaseSpan(ctx, "DraftService.SetRole")
	defer span.End()

	if playerID <= 0 {
		return DraftView{}, fmt.Errorf("%w: player id must be greater than zero", ErrInvalidInput)
	}
	badge, ok := role.Parse(rawBadge)
	if !ok {
		return DraftView{}, fmt.Errorf("%w: unknown role badge %q", draft.ErrUnknownRole, rawBadge)
	}

	return s.mutate(ctx, leagueID, "set_role",
		func(snap draft.Snapshot) error {
			return snap.CanSetRole(playerID, badge)
		},
		func(ctx context.Context) (draft.Snapshot, error) {
			return s.backend.SetRole(ctx, leagueID, playerID, badge)
		},
	)
}

func (s *DraftService) Lock(ctx context.Context, leagueID int64) (DraftView, error) {
	ctx, span := startUsecaseSpan(ctx, "DraftService.Lock")
	defer span.End()

	return s.mutate(ctx, leagueID, "lock",
		func(snap draft.Snapshot) error {
			return snap.CanLock()
		},
		func(ctx context.Context) (draft.Snapshot, error) {
			return s.backend.LockRoster(ctx, leagueID)
		},
	)
}

func (s *DraftService) Unlock(ctx context.Context, leagueID int64) (DraftView, error) {
	ctx, span := startUsecaseSpan(ctx, "DraftService.Unlock")
	defer span.End()

	return s.mutate(ctx, leagueID, "unlock",
		func(snap draft.Snapshot) error {
			return snap.CanUnlock()
		},
		func(ctx context.Context) (draft.Snapshot, error) {
			return s.backend.UnlockRoster(ctx, leagueID)
		},
	)
}

// mutate runs one serialized mutation for the league: pre-flight against
// the latest snapshot, relay to the backend, then store the fresh
// snapshot the backend returned. A backend rejection invalidates the
// cached snapshot so the next decision starts from re-fetched state.
func (s *DraftService) mutate(
	ctx context.Context,
	leagueID int64,
	op string,
	preflight func(draft.Snapshot) error,
	relay func(context.Context) (draft.Snapshot, error),
) (DraftView, error) {
	if leagueID <= 0 {
		return DraftView{}, fmt.Errorf("%w: league id must be greater than zero", ErrInvalidInput)
	}

	st := s.state(ctx, leagueID)
	st.mutateMu.Lock()
	defer st.mutateMu.Unlock()

	snap, err := s.currentSnapshot(ctx, leagueID, st)
	if err != nil {
		return DraftView{}, err
	}

	if err := preflight(snap); err != nil {
		return DraftView{}, err
	}

	fresh, err := relay(ctx)
	if err != nil {
		if isServerRejection(err) {
			st.invalidate()
			s.logger.WarnContext(ctx, "draft mutation rejected by backend, snapshot invalidated",
				"league_id", leagueID,
				"op", op,
				"error", err,
			)
		}
		return DraftView{}, err
	}

	st.dataMu.Lock()
	seq := st.nextSeqLocked()
	st.dataMu.Unlock()

	stored := st.store(seq, fresh, s.now())
	s.logger.InfoContext(ctx, "draft mutation accepted",
		"league_id", leagueID,
		"op", op,
		"roster_size", len(stored.Roster),
		"budget_left", stored.BudgetLeft,
	)
	return buildView(stored), nil
}

func (s *DraftService) currentSnapshot(ctx context.Context, leagueID int64, st *draftState) (draft.Snapshot, error) {
	st.dataMu.Lock()
	if st.snapshot != nil && s.now().Sub(st.fetchedAt) < s.snapshotTTL {
		snap := *st.snapshot
		st.dataMu.Unlock()
		return snap, nil
	}
	seq := st.nextSeqLocked()
	st.dataMu.Unlock()

	snap, err := s.backend.FetchDraftState(ctx, leagueID)
	if err != nil {
		return draft.Snapshot{}, err
	}
	return st.store(seq, snap, s.now()), nil
}

// state returns the cache cell for this caller and league. The capability
// token is part of the key: snapshots are per user and must never leak
// between sessions.
func (s *DraftService) state(ctx context.Context, leagueID int64) *draftState {
	key := fmt.Sprintf("%s|%d", AccessTokenFromContext(ctx), leagueID)

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[key]
	if !ok {
		st = &draftState{}
		s.states[key] = st
	}
	return st
}

func (st *draftState) nextSeqLocked() uint64 {
	st.fetchSeq++
	return st.fetchSeq
}

// store keeps the snapshot only when no newer fetch has landed since this
// one started, and returns whichever snapshot is freshest.
func (st *draftState) store(seq uint64, snap draft.Snapshot, at time.Time) draft.Snapshot {
	st.dataMu.Lock()
	defer st.dataMu.Unlock()

	if seq > st.storedSeq || st.snapshot == nil {
		st.storedSeq = seq
		st.snapshot = &snap
		st.fetchedAt = at
	}
	return *st.snapshot
}

func (st *draftState) invalidate() {
	st.dataMu.Lock()
	defer st.dataMu.Unlock()
	st.snapshot = nil
	st.fetchedAt = time.Time{}
}

func isServerRejection(err error) bool {
	return errors.Is(err, ErrServerRejected)
}

func buildView(snap draft.Snapshot) DraftView {
	return DraftView{
		Snapshot: snap,
		Phase:    draft.DerivePhase(snap.Flags),
		Actions:  snap.AllowedActions(),
	}
}
