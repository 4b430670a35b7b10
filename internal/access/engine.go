package access

import (
	"context"

	"github.com/upb/storefront-api/services"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Decision is the engine's answer for one request. Stage names the stage
// that decided; Err is set on denial.
type Decision struct {
	Allowed bool
	Stage   string
	Err     error
}

// Engine runs an ordered list of stages. The first stage returning Allow or
// Deny decides; if every stage continues the request is allowed. An engine
// without stages denies everything.
type Engine struct {
	stages []Stage
}

// NewEngine returns the engine with the canonical stage order:
// authentication, public exemption, role, ownership.
func NewEngine(owners map[ResourceKind]OwnerLookup) *Engine {
	return NewEngineWithStages(
		Authentication{},
		PublicExemption{},
		RoleCheck{},
		OwnershipCheck{Owners: owners},
	)
}

// NewEngineWithStages builds an engine over an explicit stage list
func NewEngineWithStages(stages ...Stage) *Engine {
	return &Engine{stages: stages}
}

// Decide evaluates req against the stage pipeline
func (e *Engine) Decide(ctx context.Context, req Request) Decision {
	d := e.decide(ctx, req)

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		attrs := []attribute.KeyValue{
			attribute.String("access.route", string(req.Route)),
			attribute.Bool("access.allowed", d.Allowed),
			attribute.String("access.stage", d.Stage),
		}
		if d.Err != nil {
			attrs = append(attrs, attribute.String("access.error_type", string(services.GetErrorType(d.Err))))
		}
		span.AddEvent("access.decision", trace.WithAttributes(attrs...))
	}
	return d
}

func (e *Engine) decide(ctx context.Context, req Request) Decision {
	if len(e.stages) == 0 {
		return Decision{Stage: "none", Err: services.ErrForbidden}
	}
	for _, stage := range e.stages {
		if err := ctx.Err(); err != nil {
			return Decision{Stage: stage.Name(), Err: err}
		}

		verdict, err := stage.Evaluate(ctx, req)
		switch verdict {
		case Allow:
			return Decision{Allowed: true, Stage: stage.Name()}
		case Deny:
			if err == nil {
				err = services.ErrForbidden
			}
			return Decision{Stage: stage.Name(), Err: err}
		}
		if err != nil {
			return Decision{Stage: stage.Name(), Err: err}
		}
	}
	return Decision{Allowed: true, Stage: "complete"}
}
