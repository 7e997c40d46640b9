// Package app provides application services that orchestrate the
// validation core. Services are explicit, caller-constructed values: there
// is no process-wide instance, so multiple stores can coexist in one
// process.
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/artpar/valigate/adapters/metrics"
	"github.com/artpar/valigate/core/codec"
	"github.com/artpar/valigate/core/modelcheck"
	"github.com/artpar/valigate/core/validate"
	"github.com/artpar/valigate/domain/model"
	"github.com/artpar/valigate/ports"
	"github.com/rs/zerolog"
)

// ModelService wires storage, serialization, structural validation and the
// data-validation engine together for callers.
type ModelService struct {
	store   ports.ModelStore
	engine  *validate.Engine
	logger  zerolog.Logger
	metrics *metrics.Collector

	// Deserialized models are immutable, so loaded versions can be cached
	// forever. Guarded by mu.
	mu    sync.RWMutex
	cache map[string]*model.Model // name@version
}

// NewModelService creates a model service. metrics may be nil.
func NewModelService(store ports.ModelStore, engine *validate.Engine, logger zerolog.Logger, collector *metrics.Collector) *ModelService {
	return &ModelService{
		store:   store,
		engine:  engine,
		logger:  logger,
		metrics: collector,
		cache:   make(map[string]*model.Model),
	}
}

// Store structurally validates m, serializes it and stores it under the
// next version for name. A model that fails the structural check is
// rejected before anything touches storage.
func (s *ModelService) Store(ctx context.Context, name string, m *model.Model) (int, error) {
	if report := modelcheck.Check(m); !report.Valid {
		return 0, fmt.Errorf("model %q is invalid: %s", name, strings.Join(report.Errors, "; "))
	}
	serialized, err := codec.Serialize(m)
	if err != nil {
		return 0, fmt.Errorf("serialize model %q: %w", name, err)
	}
	return s.putNext(ctx, name, serialized)
}

// StoreSerialized stores an already-serialized model under the next
// version for name. The blob is deserialized first so malformed or
// non-allow-listed function sources are rejected up front.
func (s *ModelService) StoreSerialized(ctx context.Context, name, serialized string) (int, error) {
	if _, err := codec.Deserialize(serialized); err != nil {
		return 0, fmt.Errorf("model %q: %w", name, err)
	}
	return s.putNext(ctx, name, serialized)
}

func (s *ModelService) putNext(ctx context.Context, name, serialized string) (int, error) {
	versions, err := s.store.ListVersions(ctx, name)
	if err != nil {
		return 0, err
	}
	next := 1
	if len(versions) > 0 {
		next = versions[0] + 1
	}
	if err := s.store.Put(ctx, name, next, serialized); err != nil {
		return 0, err
	}
	if s.metrics != nil {
		s.metrics.ModelsStored.Inc()
	}
	s.logger.Info().Str("model", name).Int("version", next).Msg("model stored")
	return next, nil
}

// Load retrieves and deserializes a specific model version.
func (s *ModelService) Load(ctx context.Context, name string, version int) (*model.Model, error) {
	key := fmt.Sprintf("%s@%d", name, version)

	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		if s.metrics != nil {
			s.metrics.ModelsLoaded.WithLabelValues("cache").Inc()
		}
		return cached, nil
	}

	serialized, err := s.store.Get(ctx, name, version)
	if err != nil {
		return nil, err
	}
	m, err := codec.Deserialize(serialized)
	if err != nil {
		return nil, fmt.Errorf("model %q version %d: %w", name, version, err)
	}

	s.mu.Lock()
	s.cache[key] = m
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ModelsLoaded.WithLabelValues("store").Inc()
	}
	s.logger.Debug().Str("model", name).Int("version", version).Msg("model loaded")
	return m, nil
}

// LoadLatest retrieves and deserializes the newest version of a model.
func (s *ModelService) LoadLatest(ctx context.Context, name string) (*model.Model, int, error) {
	_, version, err := s.store.GetLatest(ctx, name)
	if err != nil {
		return nil, 0, err
	}
	m, err := s.Load(ctx, name, version)
	if err != nil {
		return nil, 0, err
	}
	return m, version, nil
}

// Versions lists stored versions for a model, descending.
func (s *ModelService) Versions(ctx context.Context, name string) ([]int, error) {
	return s.store.ListVersions(ctx, name)
}

// GetSerialized returns the stored blob for a model version (0 = latest).
func (s *ModelService) GetSerialized(ctx context.Context, name string, version int) (string, int, error) {
	if version > 0 {
		serialized, err := s.store.Get(ctx, name, version)
		return serialized, version, err
	}
	return s.store.GetLatest(ctx, name)
}

// ValidateData validates a data document against a stored model
// (version 0 = latest). Data problems land in the result, never in err;
// err reports storage and deserialization failures only.
func (s *ModelService) ValidateData(ctx context.Context, name string, version int, data map[string]any) (model.Result, error) {
	var m *model.Model
	var err error
	if version > 0 {
		m, err = s.Load(ctx, name, version)
	} else {
		m, version, err = s.LoadLatest(ctx, name)
	}
	if err != nil {
		return model.Result{}, err
	}

	start := time.Now()
	result := s.engine.Validate(data, m)
	if s.metrics != nil {
		s.metrics.ObserveValidation(name, result.Valid, len(result.Errors), time.Since(start))
	}
	s.logger.Debug().
		Str("model", name).
		Int("version", version).
		Bool("valid", result.Valid).
		Int("errors", len(result.Errors)).
		Msg("data validated")
	return result, nil
}
