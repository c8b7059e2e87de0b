package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/csfantasy/draft-engine/internal/domain/draft"
	"github.com/csfantasy/draft-engine/internal/domain/role"
	"github.com/csfantasy/draft-engine/internal/domain/stats"
	"github.com/csfantasy/draft-engine/internal/platform/logging"
	"github.com/csfantasy/draft-engine/internal/platform/resilience"
	"github.com/csfantasy/draft-engine/internal/usecase"
)

const (
	defaultBaseURL   = "http://localhost:8000/api"
	maxResponseBytes = 6 << 20
)

var bearerHeaderRegex = regexp.MustCompile(`(?i)bearer\s+[^\s"']+`)
var errBackendTransient = crerr.New("draft backend transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the draft backend, the single source of truth for
// snapshots, stat payloads and standings. Reads are retried and collapsed
// through single-flight; mutations go out exactly once.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		token:          strings.TrimSpace(cfg.Token),
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		circuitEnabled: cfg.CircuitBreaker.Enabled,
	}
}

func (c *Client) FetchDraftState(ctx context.Context, leagueID int64) (draft.Snapshot, error) {
	if leagueID <= 0 {
		return draft.Snapshot{}, fmt.Errorf("%w: league id must be greater than zero", usecase.ErrInvalidInput)
	}

	path := fmt.Sprintf("/draft/state/%d", leagueID)
	var dto draftStateDTO
	if _, err := c.getJSON(ctx, path, &dto); err != nil {
		return draft.Snapshot{}, fmt.Errorf("fetch draft state league_id=%d: %w", leagueID, err)
	}

	snap := dto.toSnapshot()
	if snap.LeagueID == 0 {
		snap.LeagueID = leagueID
	}
	return snap, nil
}

func (c *Client) Buy(ctx context.Context, leagueID, playerID int64) (draft.Snapshot, error) {
	return c.mutate(ctx, leagueID, "/draft/buy", map[string]any{
		"league_id": leagueID,
		"player_id": playerID,
	})
}

func (c *Client) Sell(ctx context.Context, leagueID, playerID int64) (draft.Snapshot, error) {
	return c.mutate(ctx, leagueID, "/draft/sell", map[string]any{
		"league_id": leagueID,
		"player_id": playerID,
	})
}

func (c *Client) SetRole(ctx context.Context, leagueID, playerID int64, badge role.Role) (draft.Snapshot, error) {
	return c.mutate(ctx, leagueID, "/draft/set-role", map[string]any{
		"league_id":  leagueID,
		"player_id":  playerID,
		"role_badge": string(badge),
	})
}

func (c *Client) LockRoster(ctx context.Context, leagueID int64) (draft.Snapshot, error) {
	return c.mutate(ctx, leagueID, "/draft/lock", map[string]any{
		"league_id": leagueID,
	})
}

func (c *Client) UnlockRoster(ctx context.Context, leagueID int64) (draft.Snapshot, error) {
	return c.mutate(ctx, leagueID, "/draft/unlock", map[string]any{
		"league_id": leagueID,
	})
}

func (c *Client) FetchMatchStats(ctx context.Context, matchID, playerID int64) (stats.StatPayload, error) {
	if matchID <= 0 || playerID <= 0 {
		return stats.StatPayload{}, fmt.Errorf("%w: match id and player id must be greater than zero", usecase.ErrInvalidInput)
	}

	path := fmt.Sprintf("/matches/%d/players/%d/stats", matchID, playerID)
	raw, err := c.getRaw(ctx, path)
	if err != nil {
		return stats.StatPayload{}, fmt.Errorf("fetch match stats match_id=%d player_id=%d: %w", matchID, playerID, err)
	}

	payload := ParseStatPayload(raw, c.logger)
	if payload.MatchID == 0 {
		payload.MatchID = matchID
	}
	if payload.PlayerID == 0 {
		payload.PlayerID = playerID
	}
	return payload, nil
}

func (c *Client) FetchTournamentStats(ctx context.Context, tournamentID, playerID int64) (stats.StatPayload, error) {
	if tournamentID <= 0 || playerID <= 0 {
		return stats.StatPayload{}, fmt.Errorf("%w: tournament id and player id must be greater than zero", usecase.ErrInvalidInput)
	}

	path := fmt.Sprintf("/tournaments/%d/players/%d/stats", tournamentID, playerID)
	raw, err := c.getRaw(ctx, path)
	if err != nil {
		return stats.StatPayload{}, fmt.Errorf("fetch tournament stats tournament_id=%d player_id=%d: %w", tournamentID, playerID, err)
	}

	payload := ParseStatPayload(raw, c.logger)
	if payload.TournamentID == 0 {
		payload.TournamentID = tournamentID
	}
	if payload.PlayerID == 0 {
		payload.PlayerID = playerID
	}
	return payload, nil
}

func (c *Client) FetchStandings(ctx context.Context, leagueID int64) ([]draft.StandingRow, error) {
	if leagueID <= 0 {
		return nil, fmt.Errorf("%w: league id must be greater than zero", usecase.ErrInvalidInput)
	}

	path := fmt.Sprintf("/leagues/%d/standings", leagueID)
	var envelope struct {
		Standings []standingRowDTO `json:"standings"`
	}
	if _, err := c.getJSON(ctx, path, &envelope); err != nil {
		return nil, fmt.Errorf("fetch standings league_id=%d: %w", leagueID, err)
	}
	return toStandingRows(envelope.Standings), nil
}

// mutate POSTs the request exactly once, then pulls a fresh snapshot on
// acceptance: the backend ack never carries full state, and the engine
// does no optimistic local arithmetic.
func (c *Client) mutate(ctx context.Context, leagueID int64, path string, body map[string]any) (draft.Snapshot, error) {
	if leagueID <= 0 {
		return draft.Snapshot{}, fmt.Errorf("%w: league id must be greater than zero", usecase.ErrInvalidInput)
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "draft backend circuit breaker rejected mutation", "path", path, "state", c.breaker.State())
			return draft.Snapshot{}, fmt.Errorf("%w: draft backend is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	err := c.postJSON(ctx, path, body)
	if c.circuitEnabled {
		if err != nil && crerr.Is(err, errBackendTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if err != nil {
		if crerr.Is(err, errBackendTransient) {
			return draft.Snapshot{}, fmt.Errorf("%w: %s", usecase.ErrDependencyUnavailable, sanitizeSensitiveText(err.Error(), c.token))
		}
		return draft.Snapshot{}, err
	}

	snap, err := c.FetchDraftState(ctx, leagueID)
	if err != nil {
		return draft.Snapshot{}, fmt.Errorf("refresh after mutation %s: %w", path, err)
	}
	return snap, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body map[string]any) error {
	encoded, err := sonic.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode mutation body: %w", err)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	_, _ = buf.Write(encoded)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf.B))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("accept", "application/json")
	c.setAuthorization(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: send mutation: %s", errBackendTransient, sanitizeSensitiveText(err.Error(), c.token))
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("%w: read mutation response: %v", errBackendTransient, readErr)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: backend status=%d", usecase.ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: backend status=404", usecase.ErrNotFound)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%w: %s", usecase.ErrServerRejected, rejectionReason(raw, resp.StatusCode))
	case isRetryableStatus(resp.StatusCode):
		return fmt.Errorf("%w: backend status=%d body=%s", errBackendTransient, resp.StatusCode, abbreviateBody(raw))
	default:
		return fmt.Errorf("backend status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
	}
}

func (c *Client) getJSON(ctx context.Context, path string, target any) ([]byte, error) {
	raw, err := c.getRaw(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("decode backend payload: %w", err)
	}
	return raw, nil
}

func (c *Client) getRaw(ctx context.Context, path string) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "draft backend circuit breaker rejected request", "path", path, "state", c.breaker.State())
			return nil, fmt.Errorf("%w: draft backend is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	// Reads for the same path and caller collapse into one in-flight
	// request; the token is part of the key so users never share results.
	key := usecase.AccessTokenFromContext(ctx) + "|" + path
	out, err, _ := c.flight.Do(key, func() (any, error) {
		raw, reqErr := c.executeGet(ctx, path)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errBackendTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		if crerr.Is(err, errBackendTransient) {
			return nil, fmt.Errorf("%w: %s", usecase.ErrDependencyUnavailable, sanitizeSensitiveText(err.Error(), c.token))
		}
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}
	return raw, nil
}

func (c *Client) executeGet(ctx context.Context, path string) ([]byte, error) {
	fullURL := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		c.setAuthorization(ctx, req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errBackendTransient, sanitizeSensitiveText(err.Error(), c.token))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errBackendTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
				return nil, fmt.Errorf("%w: backend status=%d", usecase.ErrUnauthorized, resp.StatusCode)
			case resp.StatusCode == http.StatusNotFound:
				return nil, fmt.Errorf("%w: backend status=404", usecase.ErrNotFound)
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: backend status=%d body=%s", errBackendTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("backend status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("backend request failed")
	}
	c.logger.WarnContext(ctx, "draft backend request failed", "path", path, "error", lastErr)
	return nil, lastErr
}

func (c *Client) setAuthorization(ctx context.Context, req *http.Request) {
	token := usecase.AccessTokenFromContext(ctx)
	if token == "" {
		token = c.token
	}
	if token != "" {
		req.Header.Set("authorization", "Bearer "+token)
	}
}

func rejectionReason(raw []byte, status int) string {
	var body struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := sonic.Unmarshal(raw, &body); err == nil {
		if reason := strings.TrimSpace(body.Error); reason != "" {
			return reason
		}
		if reason := strings.TrimSpace(body.Detail); reason != "" {
			return reason
		}
	}
	return fmt.Sprintf("backend status=%d", status)
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func sanitizeSensitiveText(value, token string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if token != "" {
		value = strings.ReplaceAll(value, token, "REDACTED")
	}
	return bearerHeaderRegex.ReplaceAllString(value, "Bearer REDACTED")
}

func abbreviateBody(raw []byte) string {
	body := strings.TrimSpace(string(raw))
	if len(body) > 256 {
		return body[:256] + "..."
	}
	return body
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
