// Package dispatch implements the top-level job boundary: route, materialize,
// load, generate, encode, release. Every failure is normalized into an error
// reply; nothing escapes the boundary.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-gateway/internal/core"
	"github.com/book-expert/speech-gateway/internal/modelcache"
	"github.com/book-expert/speech-gateway/internal/resources"
	"github.com/book-expert/speech-gateway/internal/respond"
	"github.com/book-expert/speech-gateway/internal/router"
)

// Client-facing messages for boundary failures.
const (
	msgInvalidPayload   = "Invalid job payload"
	msgGenerationFailed = "Generation failed"
	fmtInternalError    = "Internal error: %v"
)

// ScopeFactory opens per-invocation resource scopes.
type ScopeFactory interface {
	NewScope() *resources.Scope
}

// Dispatcher is the job entry point. Its one hard guarantee is that Handle
// always returns a well-formed JobResponse carrying either audio or an error,
// never both, never neither.
type Dispatcher struct {
	router  *router.Router
	cache   *modelcache.Cache
	encoder *respond.Encoder
	scopes  ScopeFactory
	log     *logger.Logger
}

// New wires a dispatcher from its collaborators.
func New(
	jobRouter *router.Router,
	cache *modelcache.Cache,
	encoder *respond.Encoder,
	scopes ScopeFactory,
	log *logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		router:  jobRouter,
		cache:   cache,
		encoder: encoder,
		scopes:  scopes,
		log:     log,
	}
}

// HandleRaw parses a JSON job payload and dispatches it. Malformed payloads
// become error replies like every other failure.
func (d *Dispatcher) HandleRaw(ctx context.Context, payload []byte) core.JobResponse {
	var req core.JobRequest

	err := json.Unmarshal(payload, &req)
	if err != nil {
		parseErr := core.WrapError(core.KindInternal, msgInvalidPayload, err)
		d.log.Error("Job rejected (%s): %v", core.KindOf(parseErr), parseErr)

		return core.ErrorResponse(parseErr)
	}

	return d.Handle(ctx, req)
}

// Handle runs one job to completion or failure. Every resource materialized
// during the invocation is released before it returns, on every exit path.
func (d *Dispatcher) Handle(ctx context.Context, req core.JobRequest) (response core.JobResponse) {
	defer func() {
		if recovered := recover(); recovered != nil {
			d.log.Error("Job panicked: %v", recovered)

			response = core.JobResponse{Error: fmt.Sprintf(fmtInternalError, recovered)}
		}
	}()

	scope := d.scopes.NewScope()
	defer scope.ReleaseAll()

	return d.process(ctx, req, scope)
}

func (d *Dispatcher) process(ctx context.Context, req core.JobRequest, scope *resources.Scope) core.JobResponse {
	route, routeErr := d.router.Route(req, scope)
	if routeErr != nil {
		d.log.Error("Job %s rejected (%s): %v", scope.ID(), core.KindOf(routeErr), routeErr)

		return core.ErrorResponse(routeErr)
	}

	if req.ReturnFormat == core.ReturnURL {
		d.log.Warn("Job %s requested the URL return format (%s)", scope.ID(), core.KindUnsupportedFeature)
	}

	model, loadErr := d.cache.GetOrLoad(ctx, route.Variant)
	if loadErr != nil {
		d.log.Error("Job %s failed (%s): %v", scope.ID(), core.KindOf(loadErr), loadErr)

		return core.ErrorResponse(loadErr)
	}

	result, generateErr := model.Generate(ctx, route.Args)
	if generateErr != nil {
		taggedErr := core.WrapError(core.KindGenerationFailure, msgGenerationFailed, generateErr)
		d.log.Error("Job %s failed (%s): %v", scope.ID(), core.KindOf(taggedErr), taggedErr)

		return core.ErrorResponse(taggedErr)
	}

	reply, encodeErr := d.encoder.Encode(result, respond.Context{
		Mode:         route.Mode,
		Variant:      route.Variant.ID,
		LanguageID:   route.Args.LanguageID,
		VoiceCloned:  route.Args.VoiceCloned,
		ReturnFormat: req.ReturnFormat,
	})
	if encodeErr != nil {
		d.log.Error("Job %s failed (%s): %v", scope.ID(), core.KindOf(encodeErr), encodeErr)

		return core.ErrorResponse(encodeErr)
	}

	return reply
}
