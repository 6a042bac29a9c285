// Package app wires the ingestion pipeline, the projection orchestrator and
// the session store into the operations the HTTP layer exposes.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"geolens/adapters/tabular"
	"geolens/domain/core"
	"geolens/domain/session"
	"geolens/internal/ingest"
	"geolens/internal/logging"
	"geolens/internal/projection"
	"geolens/ports"
)

const (
	stateKeyPrefix = "state:"
	savedKeyPrefix = "saved:"
	projKeyPrefix  = "proj:"

	// DefaultSaveTTL keeps explicitly saved sessions for a week.
	DefaultSaveTTL = 7 * 24 * time.Hour

	// projectionTTL bounds the cached dimension-reduction results.
	projectionTTL = 24 * time.Hour
)

// ExplorerService implements the data-explorer operations: upload a dataset,
// apply a selection, and save/load/list/delete named sessions.
type ExplorerService struct {
	store   ports.SessionStore
	reader  *tabular.Reader
	pre     *ingest.Preprocessor
	logger  *logging.Logger
	saveTTL time.Duration
}

// NewExplorerService creates the service with the default save TTL.
func NewExplorerService(store ports.SessionStore, logger *logging.Logger) *ExplorerService {
	return &ExplorerService{
		store:   store,
		reader:  tabular.NewReader(),
		pre:     ingest.NewPreprocessor(logger),
		logger:  logger,
		saveTTL: DefaultSaveTTL,
	}
}

// SetSaveTTL overrides the retention of explicitly saved sessions.
func (s *ExplorerService) SetSaveTTL(ttl time.Duration) {
	if ttl > 0 {
		s.saveTTL = ttl
	}
}

// NewSessionID mints a browser session identifier.
func (s *ExplorerService) NewSessionID() string {
	return uuid.NewString()
}

// Upload parses and ingests an uploaded file and replaces the session's
// state with a fresh one. Schema errors and quality violations leave any
// existing state untouched.
func (s *ExplorerService) Upload(ctx context.Context, sessionID, filename string, data []byte) (session.State, error) {
	raw, err := s.reader.Read(filename, data)
	if err != nil {
		return session.State{}, err
	}
	state, err := s.pre.Preprocess(ctx, raw)
	if err != nil {
		return session.State{}, err
	}
	if err := s.putState(ctx, sessionID, state); err != nil {
		return session.State{}, err
	}
	s.logger.Info("session %s: ingested %s (hash %s)", sessionID, filename, state.DataHash.DataHash)
	return state, nil
}

// State returns the session's current state.
func (s *ExplorerService) State(ctx context.Context, sessionID string) (session.State, error) {
	return s.getState(ctx, sessionID)
}

// Apply runs (or retrieves from cache) the dimension reduction for a
// selection and swaps it into the session atomically. On any error the
// session keeps its previous working data.
func (s *ExplorerService) Apply(ctx context.Context, sessionID string, sel session.Selection) (session.State, error) {
	state, err := s.getState(ctx, sessionID)
	if err != nil {
		return session.State{}, err
	}

	cacheKey := state.CacheKey(sel)
	wd, err := s.cachedProjection(ctx, cacheKey)
	if err != nil {
		wd, err = s.runProjection(ctx, state, sel, cacheKey)
		if err != nil {
			return session.State{}, err
		}
	} else {
		s.logger.Debug("session %s: projection cache hit for %s", sessionID, cacheKey)
	}

	next := state.ApplyWorkingData(wd, sel)
	if err := s.putState(ctx, sessionID, next); err != nil {
		return session.State{}, err
	}
	return next, nil
}

// SaveSession snapshots the session's current state under a new saved id
// that expires after the save TTL.
func (s *ExplorerService) SaveSession(ctx context.Context, sessionID string) (string, error) {
	blob, err := s.store.Get(ctx, stateKeyPrefix+sessionID)
	if err != nil {
		return "", err
	}
	savedID := uuid.NewString()
	if err := s.store.Set(ctx, savedKeyPrefix+savedID, blob, s.saveTTL); err != nil {
		return "", err
	}
	s.logger.Info("session %s: saved as %s", sessionID, savedID)
	return savedID, nil
}

// LoadSession restores a saved snapshot into the session and returns it.
func (s *ExplorerService) LoadSession(ctx context.Context, sessionID, savedID string) (session.State, error) {
	blob, err := s.store.Get(ctx, savedKeyPrefix+savedID)
	if err != nil {
		return session.State{}, err
	}
	state, err := session.Decode(blob)
	if err != nil {
		return session.State{}, err
	}
	if err := s.store.Set(ctx, stateKeyPrefix+sessionID, blob, 0); err != nil {
		return session.State{}, err
	}
	return state, nil
}

// ListSessions lists saved snapshot ids, newest first.
func (s *ExplorerService) ListSessions(ctx context.Context) ([]string, error) {
	keys, err := s.store.ListKeys(ctx, savedKeyPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = k[len(savedKeyPrefix):]
	}
	return ids, nil
}

// DeleteSession removes a saved snapshot.
func (s *ExplorerService) DeleteSession(ctx context.Context, savedID string) error {
	return s.store.Delete(ctx, savedKeyPrefix+savedID)
}

func (s *ExplorerService) getState(ctx context.Context, sessionID string) (session.State, error) {
	blob, err := s.store.Get(ctx, stateKeyPrefix+sessionID)
	if err != nil {
		return session.State{}, err
	}
	return session.Decode(blob)
}

func (s *ExplorerService) putState(ctx context.Context, sessionID string, state session.State) error {
	blob, err := state.Encode()
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.store.Set(ctx, stateKeyPrefix+sessionID, blob, 0)
}

// cachedProjection looks up a previously computed run by its cache key.
func (s *ExplorerService) cachedProjection(ctx context.Context, cacheKey string) (session.WorkingData, error) {
	blob, err := s.store.Get(ctx, projKeyPrefix+cacheKey)
	if err != nil {
		return session.WorkingData{}, err
	}
	var wd session.WorkingData
	if err := json.Unmarshal(blob, &wd); err != nil {
		return session.WorkingData{}, fmt.Errorf("decode cached projection: %w", err)
	}
	return wd, nil
}

// runProjection executes the orchestrator against the session's master
// table and caches the packaged result.
func (s *ExplorerService) runProjection(ctx context.Context, state session.State, sel session.Selection, cacheKey string) (session.WorkingData, error) {
	master, err := state.MasterTable()
	if err != nil {
		return session.WorkingData{}, err
	}

	out, err := projection.Run(master, state.MetaData.Schema(), projection.Params{
		Features:   sel.Features,
		LocIDs:     sel.LocIDs,
		NNeighbors: sel.NNeighbors,
	}, state.DataHash.DataHash)
	if err != nil {
		return session.WorkingData{}, err
	}

	wd, err := session.PackageWorkingData(out.DFPlotPCA, out.DFPlotPMAP, out.LoadingMatrix, out.ExplVar, state.MetaData.ColsKeyMeta.Date)
	if err != nil {
		return session.WorkingData{}, err
	}

	blob, err := json.Marshal(wd)
	if err != nil {
		return session.WorkingData{}, fmt.Errorf("encode cached projection: %w", err)
	}
	if err := s.store.Set(ctx, projKeyPrefix+cacheKey, blob, projectionTTL); err != nil {
		// Caching is best effort; the run itself succeeded.
		s.logger.Warn("could not cache projection %s: %v", cacheKey, err)
	}
	return wd, nil
}

// IsNotFound reports whether an error means the session or snapshot does not
// exist.
func IsNotFound(err error) bool {
	return errors.Is(err, core.ErrSessionNotFound)
}
