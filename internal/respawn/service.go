package respawn

import (
	"context"
	"log/slog"
	"time"

	"github.com/danielpatrickdp/persona-respawn/internal/artifact"
	"github.com/danielpatrickdp/persona-respawn/internal/eval"
	"github.com/danielpatrickdp/persona-respawn/internal/gate"
	"github.com/danielpatrickdp/persona-respawn/internal/identity"
	"github.com/danielpatrickdp/persona-respawn/internal/learning"
	"github.com/danielpatrickdp/persona-respawn/internal/logging"
	"github.com/danielpatrickdp/persona-respawn/internal/mutate"
	"github.com/danielpatrickdp/persona-respawn/internal/persona"
	"github.com/danielpatrickdp/persona-respawn/internal/request"
	"github.com/samber/oops"
)

// #region service-struct

// Service runs the respawn pipeline: validate, resolve the persona set,
// check idempotency, select, summarize, mutate, commit.
//
// A Service holds no per-request state and needs no locking. Duplicate
// requests that race each other may both commit; see gate.Gate.
type Service struct {
	store      Store
	generator  persona.Generator
	ids        identity.Source
	now        func() time.Time
	logger     *slog.Logger
	metrics    *Metrics
	provenance ProvenanceRecorder

	gate   *gate.Gate
	eval   *eval.EvalHarness
	mutate mutate.MutateConfig
}

// #endregion service-struct

// #region constructor

// New creates a Service from opts.
func New(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, oops.In("respawn").Errorf("store is required")
	}
	if opts.Generator == nil {
		return nil, oops.In("respawn").Errorf("generator is required")
	}
	if opts.IDs == nil {
		opts.IDs = identity.UUIDSource{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	evalConfig := eval.DefaultEvalConfig()
	evalConfig.SuccessorReputation = request.Defaults.RespawnReputation

	return &Service{
		store:      opts.Store,
		generator:  opts.Generator,
		ids:        opts.IDs,
		now:        opts.Now,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		provenance: opts.Provenance,
		gate:       gate.NewGate(opts.Store),
		eval:       eval.NewEvalHarness(evalConfig),
		mutate:     mutate.DefaultMutateConfig(),
	}, nil
}

// #endregion constructor

// #region run

// execution carries what the pipeline learned, for logging and provenance.
type execution struct {
	response *persona.Response
	decision string
	key      string
	reason   string
}

// Run executes one respawn request. raw is the decoded JSON request object.
// Every failure comes back as an error envelope; Run never panics outward.
func (s *Service) Run(ctx context.Context, raw any) (out Outcome) {
	boardID := request.BoardIDOf(raw)

	req, msg := request.Parse(raw)
	if msg != "" {
		out = errorOutcome(boardID, invalidInput(msg))
		out.Decision = logging.DecisionFailed
		s.logger.Warn("respawn rejected", "board_id", boardID, "reason", msg)
		s.metrics.outcome(outcomeLabel("", out))
		return out
	}

	defer func() {
		if r := recover(); r != nil {
			err := respawnFailed(oops.In("respawn").With("board_id", boardID).Errorf("panic: %v", r))
			out = s.finish(ctx, req, execution{}, err)
		}
	}()

	ex, err := s.execute(ctx, req)
	return s.finish(ctx, req, ex, err)
}

func (s *Service) execute(ctx context.Context, req request.Request) (execution, error) {
	set, err := s.resolve(ctx, req)
	if err != nil {
		return execution{}, err
	}

	ex := execution{key: gate.Key(req)}
	d, err := s.gate.Evaluate(ctx, req.BoardID, ex.key)
	if err != nil {
		return ex, respawnFailed(oops.In("gate").With("board_id", req.BoardID).Wrapf(err, "check idempotency"))
	}
	if d.Action == gate.ActionReplay {
		ex.response = d.Cached
		ex.decision = logging.DecisionReplay
		ex.reason = d.Reason
		return ex, nil
	}

	target, ok := persona.Select(set, req.Trigger.PersonaID, req.Trigger.Threshold())
	if !ok {
		return ex, noDeadPersona(req.Trigger)
	}

	summary, err := s.summarize(ctx, req.BoardID, target.PersonaID, req.Lookback())
	if err != nil {
		return ex, respawnFailed(oops.In("summarize").With("board_id", req.BoardID).Wrapf(err, "read decisions"))
	}
	mutated := mutate.Mutate(target, summary, s.ids, s.mutate)

	resp, updated, err := s.commit(ctx, commitInput{
		req:     req,
		key:     ex.key,
		set:     set,
		target:  target,
		next:    mutated.Persona,
		summary: summary,
	})
	if err != nil {
		return ex, err
	}

	result := s.eval.Run(set, updated, target.PersonaID, mutated.Persona)
	if !result.Passed {
		s.logger.Error("respawn eval failed",
			"board_id", req.BoardID, "respawn_id", resp.RespawnID, "reason", result.Reason)
		s.metrics.evalFailed()
	}

	ex.response = resp
	ex.decision = logging.DecisionCommit
	ex.reason = mutated.Reason
	return ex, nil
}

// #endregion run

// #region summarize

// summarize reads up to lookback recent decisions and profiles personaID.
// Payloads that are not decision objects are skipped.
func (s *Service) summarize(ctx context.Context, boardID, personaID string, lookback int) (learning.Summary, error) {
	payloads, err := s.store.Recent(ctx, boardID, artifact.TypeDecision, lookback)
	if err != nil {
		return learning.Summary{}, err
	}
	decisions := make([]learning.Decision, 0, len(payloads))
	for i, p := range payloads {
		d, err := learning.Normalize(p)
		if err != nil {
			s.logger.Warn("skipping malformed decision", "board_id", boardID, "position", i, "error", err)
			continue
		}
		decisions = append(decisions, d)
	}
	return learning.Summarize(personaID, decisions, request.Defaults.ConfidenceMismatch), nil
}

// #endregion summarize

// #region finish

// finish turns the execution into an Outcome and records it in the log,
// metrics and provenance.
func (s *Service) finish(ctx context.Context, req request.Request, ex execution, err error) Outcome {
	entry := logging.ProvenanceEntry{
		BoardID:        req.BoardID,
		IdempotencyKey: ex.key,
		TriggerType:    req.Trigger.Kind(),
		CreatedAt:      s.now().UTC(),
	}

	var out Outcome
	if err != nil {
		out = errorOutcome(req.BoardID, err)
		entry.Reason = out.Error.Error.Message
		entry.Decision = logging.DecisionFailed
		if out.Code() == CodeNoDeadPersona {
			entry.Decision = logging.DecisionNoDeadPersona
			s.logger.Info("respawn skipped", "board_id", req.BoardID, "trigger", req.Trigger.Kind())
		} else {
			s.logger.Error("respawn failed",
				"board_id", req.BoardID, "code", out.Code(), "error", err)
		}
	} else {
		out = Outcome{Response: ex.response}
		entry.Decision = ex.decision
		entry.RespawnID = ex.response.RespawnID
		entry.Reason = ex.reason
		msg := "respawn committed"
		if ex.decision == logging.DecisionReplay {
			msg = "respawn replayed"
		}
		s.logger.Info(msg,
			"board_id", req.BoardID,
			"respawn_id", ex.response.RespawnID,
			"replaced_persona_id", ex.response.ReplacedPersonaID,
			"new_persona_id", ex.response.NewPersona.PersonaID)
	}

	out.Decision = entry.Decision
	s.metrics.outcome(outcomeLabel(entry.Decision, out))
	s.record(ctx, entry)
	return out
}

// record writes a provenance entry. Failures are logged, never returned:
// the pipeline outcome is already decided.
func (s *Service) record(ctx context.Context, entry logging.ProvenanceEntry) {
	if s.provenance == nil {
		return
	}
	if err := s.provenance.Record(ctx, entry); err != nil {
		s.logger.Warn("provenance write failed", "board_id", entry.BoardID, "decision", entry.Decision, "error", err)
	}
}

// #endregion finish
