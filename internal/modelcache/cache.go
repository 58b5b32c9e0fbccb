// Package modelcache holds the lazily-loaded model variants shared across
// concurrent invocations. Each variant is loaded at most once per process via
// single-flight semantics; a Ready slot is never evicted.
package modelcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-gateway/internal/core"
	"golang.org/x/sync/singleflight"
)

// Load failure message format; the variant ID is the client-facing model
// type.
const errFmtLoadFailed = "Failed to load %s model"

type loadState int

const (
	stateReady loadState = iota + 1
	stateFailed
)

// slot is one cache entry. The handle is set only in the Ready state; the
// load error and failure time only in the Failed state.
type slot struct {
	variant  core.ModelVariant
	state    loadState
	handle   core.SpeechModel
	loadErr  error
	failedAt time.Time
}

// Cache owns the per-variant model slots. It is the only state shared across
// concurrent invocations and is safe for concurrent use. The slot mutex is
// never held across a load or a generation call.
type Cache struct {
	loader   core.ModelLoader
	log      *logger.Logger
	cooldown time.Duration
	group    singleflight.Group
	mu       sync.RWMutex
	slots    map[core.VariantID]*slot
}

// New creates an empty cache. A load failure is cached for the cooldown
// duration before the next request re-attempts the load; a non-positive
// cooldown makes failures sticky for the process lifetime.
func New(loader core.ModelLoader, cooldown time.Duration, log *logger.Logger) *Cache {
	return &Cache{
		loader:   loader,
		log:      log,
		cooldown: cooldown,
		group:    singleflight.Group{},
		mu:       sync.RWMutex{},
		slots:    make(map[core.VariantID]*slot),
	}
}

// GetOrLoad returns the loaded handle for the variant, loading it on first
// use. Concurrent callers for the same variant share a single load and
// observe the same handle or the same error. Callers for different variants
// proceed independently.
func (c *Cache) GetOrLoad(ctx context.Context, variant core.ModelVariant) (core.SpeechModel, error) {
	handle, settled, err := c.lookup(variant.ID)
	if settled {
		return handle, err
	}

	result, flightErr, _ := c.group.Do(string(variant.ID), func() (any, error) {
		return c.loadSlot(ctx, variant)
	})
	if flightErr != nil {
		return nil, flightErr
	}

	model, ok := result.(core.SpeechModel)
	if !ok {
		return nil, core.NewError(core.KindModelLoadFailure, fmt.Sprintf(errFmtLoadFailed, variant.ID))
	}

	return model, nil
}

// lookup is the hot path: a read-locked check that settles the call when the
// slot is Ready, or Failed within the cooldown window.
func (c *Cache) lookup(id core.VariantID) (core.SpeechModel, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.slots[id]
	if !exists {
		return nil, false, nil
	}

	switch entry.state {
	case stateReady:
		return entry.handle, true, nil
	case stateFailed:
		if c.failureStillCached(entry) {
			return nil, true, entry.loadErr
		}
	}

	return nil, false, nil
}

// loadSlot runs inside the single flight for a variant. It re-checks the slot
// first so late joiners that lost the lookup race do not trigger a duplicate
// load, then performs the load without holding the slot mutex.
func (c *Cache) loadSlot(ctx context.Context, variant core.ModelVariant) (core.SpeechModel, error) {
	handle, settled, err := c.lookup(variant.ID)
	if settled {
		return handle, err
	}

	c.log.Info("Loading %s model on %s...", variant.ID, variant.Device)

	started := time.Now()

	model, loadErr := c.loader.Load(ctx, variant)
	if loadErr != nil {
		taggedErr := core.WrapError(
			core.KindModelLoadFailure,
			fmt.Sprintf(errFmtLoadFailed, variant.ID),
			loadErr,
		)

		c.storeFailure(variant, taggedErr)
		c.log.Error("Failed to load %s model: %v", variant.ID, loadErr)

		return nil, taggedErr
	}

	c.storeHandle(variant, model)
	c.log.Info("Loaded %s model in %s", variant.ID, time.Since(started).Round(time.Millisecond))

	return model, nil
}

func (c *Cache) storeHandle(variant core.ModelVariant, model core.SpeechModel) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.slots[variant.ID] = &slot{
		variant:  variant,
		state:    stateReady,
		handle:   model,
		loadErr:  nil,
		failedAt: time.Time{},
	}
}

func (c *Cache) storeFailure(variant core.ModelVariant, loadErr error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.slots[variant.ID] = &slot{
		variant:  variant,
		state:    stateFailed,
		handle:   nil,
		loadErr:  loadErr,
		failedAt: time.Now(),
	}
}

// failureStillCached reports whether a Failed slot should keep returning its
// cached error. Callers must hold at least the read lock.
func (c *Cache) failureStillCached(entry *slot) bool {
	if c.cooldown <= 0 {
		return true
	}

	return time.Since(entry.failedAt) < c.cooldown
}
