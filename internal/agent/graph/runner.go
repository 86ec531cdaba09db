package graph

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dm-insight-core/server/internal/agent/graph/conversations"
	"github.com/dm-insight-core/server/internal/agent/graph/observers"
	"github.com/dm-insight-core/server/internal/agent/model"
	errx "github.com/dm-insight-core/server/internal/core/error"
	logx "github.com/dm-insight-core/server/pkg/logger"
)

const tracerName = "github.com/dm-insight-core/server/internal/agent/graph"

// Runner executes one conversation turn at a time per session.
type Runner interface {
	// Invoke runs a turn. An empty session ID starts a new session.
	Invoke(ctx context.Context, in model.TurnInput) (*model.TurnSnapshot, error)
	// Reset forgets everything stored for the session.
	Reset(ctx context.Context, sessionID string) error
}

type graphRunner struct {
	runnable compose.Runnable[model.TurnInput, *model.TurnSnapshot]
	sessions *conversations.SessionManager
	tracer   trace.Tracer
}

// NewRunner compiles the graph for config.
func NewRunner(ctx context.Context, config *GraphConfig) (Runner, error) {
	runnable, err := BuildGraph(ctx, config)
	if err != nil {
		return nil, err
	}
	return &graphRunner{
		runnable: runnable,
		sessions: config.Sessions,
		tracer:   otel.Tracer(tracerName),
	}, nil
}

func (r *graphRunner) Invoke(ctx context.Context, in model.TurnInput) (*model.TurnSnapshot, error) {
	if strings.TrimSpace(in.Utterance) == "" {
		return nil, errx.BadRequest(errx.EmptyInputMessage)
	}
	if in.SessionID == "" {
		in.SessionID = uuid.NewString()
	}

	ctx, span := r.tracer.Start(ctx, "chatbot.turn",
		trace.WithAttributes(attribute.String("session.id", in.SessionID)),
	)
	defer span.End()

	unlock := r.sessions.Lock(in.SessionID)
	defer unlock()

	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errx.MessageOf(err))
		logx.Error().Err(err).Str("session_id", in.SessionID).Msg("turn failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("chatbot.intent", out.Intent),
		attribute.String("chatbot.stage", out.Stage),
		attribute.Int("chatbot.analyses", len(out.AnalysisResults)),
	)
	return out, nil
}

func (r *graphRunner) Reset(ctx context.Context, sessionID string) error {
	return r.sessions.Reset(ctx, sessionID)
}
