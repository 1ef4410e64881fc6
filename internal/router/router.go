package router

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/nexous-ai/nexous/internal/model"
	"github.com/nexous-ai/nexous/internal/nexerr"
	"github.com/nexous-ai/nexous/internal/provider"
	"github.com/nexous-ai/nexous/internal/telemetry"
	"github.com/nexous-ai/nexous/internal/trace"
)

// Attempt records one provider call attempt, successful or not,
// mirroring the original router's internal _attempts list.
type Attempt struct {
	Provider    string
	Model       string
	AttemptNum  int
	Success     bool
	IsFallback  bool
	Tokens      int
	LatencyMS   int64
	Error       string
	Recoverable bool
	Timestamp   time.Time
}

// Router interprets a Policy to select and call a provider/model,
// handling retry-with-backoff on the primary and ordered fallback
// (spec §4.3). Only the Agent calls the Router; the Runner never
// knows the LLM layer exists (spec §5).
type Router struct {
	policy   Policy
	registry *provider.Registry
	recorder *trace.Recorder
	agentID  string
	clock    trace.Clock
	tel      telemetry.Telemetry

	attempts []Attempt
}

// New constructs a Router bound to one agent's policy and the shared,
// read-only Provider Adapter Registry. recorder may be nil, in which
// case no StepRecord/ErrorRecord is emitted (useful for --dry-run and
// unit tests that only care about routing decisions). tel's zero value
// is safe to pass: every call site nil-checks before use.
func New(policy Policy, registry *provider.Registry, recorder *trace.Recorder, agentID string, tel telemetry.Telemetry) *Router {
	return &Router{policy: policy, registry: registry, recorder: recorder, agentID: agentID, clock: trace.SystemClock{}, tel: tel}
}

// Attempts returns a copy of the attempt log from the most recent Route call.
func (r *Router) Attempts() []Attempt {
	out := make([]Attempt, len(r.attempts))
	copy(out, r.attempts)
	return out
}

// Route performs one logical LLM call: the primary spec with bounded
// retry, then each fallback spec tried exactly once, in order.
func (r *Router) Route(ctx context.Context, messages []model.Message, temperature float64, maxTokens int) (model.Response, error) {
	r.attempts = nil

	primaryProvider, primaryModel, err := ProviderModel(r.policy.Primary)
	if err != nil {
		return model.Response{}, nexerr.New(nexerr.KindLLMAllFailed, err.Error(), err).WithAgent(r.agentID)
	}

	if resp := r.tryWithRetry(ctx, primaryProvider, primaryModel, messages, temperature, maxTokens, true, ""); resp != nil {
		return *resp, nil
	}

	for _, spec := range r.policy.Fallback {
		fbProvider, fbModel, err := ProviderModel(spec)
		if err != nil {
			continue
		}
		if resp := r.tryWithRetry(ctx, fbProvider, fbModel, messages, temperature, maxTokens, false, r.policy.Primary); resp != nil {
			return *resp, nil
		}
	}

	r.logAllFailed()
	return model.Response{}, nexerr.New(nexerr.KindLLMAllFailed,
		fmt.Sprintf("all LLM providers failed; attempts: %d", len(r.attempts)), nil).WithAgent(r.agentID)
}

// tryWithRetry performs up to retryCount attempts against one
// provider/model, returning the successful response or nil.
func (r *Router) tryWithRetry(ctx context.Context, providerName, modelName string, messages []model.Message, temperature float64, maxTokens int, isPrimary bool, fallbackFrom string) *model.Response {
	retryCount := 1
	if isPrimary {
		retryCount = r.policy.Retry
		if retryCount < 1 {
			retryCount = 1
		}
	}

	for attempt := 1; attempt <= retryCount; attempt++ {
		client, err := r.registry.Get(providerName)
		if err != nil {
			r.recordAttempt(Attempt{Provider: providerName, Model: modelName, AttemptNum: attempt, IsFallback: fallbackFrom != "", Error: err.Error(), Recoverable: false})
			return nil
		}
		if !client.IsAvailable() {
			r.recordAttempt(Attempt{Provider: providerName, Model: modelName, AttemptNum: attempt, IsFallback: fallbackFrom != "",
				Error: fmt.Sprintf("%s API key not set", providerName), Recoverable: false})
			return nil
		}

		attemptCtx := ctx
		var span telemetry.Span
		if r.tel.Tracer != nil {
			attemptCtx, span = r.tel.Tracer.Start(ctx, "router.attempt")
		}

		req := model.Request{Model: modelName, Messages: messages, Temperature: temperature, MaxTokens: maxTokens, Timeout: r.policy.Timeout}
		resp, err := client.Generate(attemptCtx, req)
		if r.tel.Metrics != nil {
			r.tel.Metrics.IncCounter("router_attempts_total", 1, "provider", providerName, "model", modelName)
		}
		if err == nil {
			resp.Attempt = attempt
			if fallbackFrom != "" {
				resp.FallbackFrom = fallbackFrom
			}
			r.recordAttempt(Attempt{
				Provider: providerName, Model: modelName, AttemptNum: attempt, Success: true,
				IsFallback: fallbackFrom != "", Tokens: resp.Usage.InputTokens + resp.Usage.OutputTokens,
				LatencyMS: resp.LatencyMS,
			})
			if r.tel.Metrics != nil {
				r.tel.Metrics.RecordTimer("router_attempt_latency", time.Duration(resp.LatencyMS)*time.Millisecond, "provider", providerName, "model", modelName)
			}
			r.logLLMStep(providerName, modelName, resp, fallbackFrom)
			if span != nil {
				span.End()
			}
			return &resp
		}

		if span != nil {
			span.RecordError(err)
			span.End()
		}

		recoverable := isRecoverable(err)
		r.recordAttempt(Attempt{Provider: providerName, Model: modelName, AttemptNum: attempt, IsFallback: fallbackFrom != "",
			Error: err.Error(), Recoverable: recoverable})

		if !recoverable {
			break
		}
		if attempt < retryCount {
			delay := r.policy.RetryDelay * math.Pow(2, float64(attempt-1))
			if !sleepOrCancel(ctx, time.Duration(delay*float64(time.Second))) {
				return nil
			}
		}
	}
	return nil
}

// sleepOrCancel sleeps for d or returns early (false) if ctx is
// cancelled first.
func sleepOrCancel(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func isRecoverable(err error) bool {
	var perr *model.ProviderError
	if errors.As(err, &perr) {
		return perr.Recoverable
	}
	return true
}

func (r *Router) recordAttempt(a Attempt) {
	a.Timestamp = r.clock.Now()
	r.attempts = append(r.attempts, a)
}

func (r *Router) logLLMStep(providerName, modelName string, resp model.Response, fallbackFrom string) {
	if r.recorder == nil {
		return
	}
	inputSummary := fmt.Sprintf("LLM call to %s/%s", providerName, modelName)
	if fallbackFrom != "" {
		inputSummary += fmt.Sprintf(" (fallback from %s)", fallbackFrom)
	}
	outputSummary := resp.Content
	if len(outputSummary) > 200 {
		outputSummary = outputSummary[:200] + "..."
	}
	metadata := map[string]any{
		"provider":      providerName,
		"model":         modelName,
		"tokens_input":  resp.Usage.InputTokens,
		"tokens_output": resp.Usage.OutputTokens,
		"latency_ms":    resp.LatencyMS,
		"finish_reason": resp.FinishReason,
		"attempt":       resp.Attempt,
	}
	if fallbackFrom != "" {
		metadata["is_fallback"] = true
		metadata["fallback_from"] = fallbackFrom
	}
	r.recorder.LogStep(r.agentID, trace.StepLLM, trace.StepStatusOK, map[string]any{
		"input_summary":  inputSummary,
		"output_summary": outputSummary,
	}, metadata)
}

func (r *Router) logAllFailed() {
	if r.recorder == nil {
		return
	}
	detail := make([]map[string]any, 0, len(r.attempts))
	for _, a := range r.attempts {
		detail = append(detail, map[string]any{
			"provider": a.Provider, "model": a.Model, "attempt": a.AttemptNum,
			"success": a.Success, "is_fallback": a.IsFallback, "error": a.Error, "recoverable": a.Recoverable,
		})
	}
	r.recorder.LogStep(r.agentID, trace.StepLLM, trace.StepStatusError, map[string]any{
		"error":    "All LLM providers failed",
		"attempts": len(r.attempts),
	}, map[string]any{"attempts_detail": detail})
}
