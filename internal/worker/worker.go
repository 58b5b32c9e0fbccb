// Package worker provides the NATS adapter between the hosting platform's
// job delivery and the dispatcher. It owns no job semantics: every payload,
// well-formed or not, becomes exactly one reply.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/speech-gateway/internal/core"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Client-facing message for undecodable job envelopes.
const msgInvalidEnvelope = "Invalid job payload"

// jobEnvelope is the inbound message shape: a correlation header plus the job
// input object. The header is optional and used only for logging.
type jobEnvelope struct {
	Header events.EventHeader `json:"header"`
	Input  json.RawMessage    `json:"input"`
}

// Dispatcher is the boundary the worker hands payloads to.
type Dispatcher interface {
	HandleRaw(ctx context.Context, payload []byte) core.JobResponse
}

// Worker listens for speech jobs on a NATS subject and replies with the
// dispatch outcome.
type Worker struct {
	natsConnection *nats.Conn
	subject        string
	dispatcher     Dispatcher
	timeout        time.Duration
	log            *logger.Logger
}

// New creates a new worker instance.
func New(
	natsConnection *nats.Conn,
	subject string,
	dispatcher Dispatcher,
	timeout time.Duration,
	log *logger.Logger,
) (*Worker, error) {
	return &Worker{
		natsConnection: natsConnection,
		subject:        subject,
		dispatcher:     dispatcher,
		timeout:        timeout,
		log:            log,
	}, nil
}

// Run starts the worker and begins listening for messages. It blocks until
// the context is canceled, then drains the subscription.
func (w *Worker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *Worker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	response := w.process(ctx, msg.Data)

	replyData, marshalErr := json.Marshal(response)
	if marshalErr != nil {
		w.log.Error("Failed to marshal job reply: %v", marshalErr)

		return
	}

	respondErr := msg.Respond(replyData)
	if respondErr != nil {
		w.log.Error("Failed to publish job reply: %v", respondErr)
	}
}

// process decodes the envelope and dispatches the job input. Envelope
// failures become error replies like every other failure.
func (w *Worker) process(ctx context.Context, data []byte) core.JobResponse {
	var envelope jobEnvelope

	unmarshalErr := json.Unmarshal(data, &envelope)
	if unmarshalErr != nil {
		w.log.Error("Failed to decode job envelope: %v", unmarshalErr)

		return core.ErrorResponse(core.WrapError(core.KindInternal, msgInvalidEnvelope, unmarshalErr))
	}

	if len(envelope.Input) == 0 {
		w.log.Error("Job envelope carries no input")

		return core.ErrorResponse(core.NewError(core.KindInternal, msgInvalidEnvelope))
	}

	correlationID := envelope.Header.EventID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	w.log.Info("Processing job %s (workflow %s)", correlationID, envelope.Header.WorkflowID)

	response := w.dispatcher.HandleRaw(ctx, envelope.Input)

	if response.Error != "" {
		w.log.Error("Job %s failed: %s", correlationID, response.Error)
	} else {
		w.log.Info("Job %s completed", correlationID)
	}

	return response
}
