// Package orchestrator drives the staged consultation dialogue for each
// inbound message: deduplication, crisis short-circuit, completion call
// raced against the adaptive timeout, and reply-or-push delivery.
package orchestrator

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/asaoka-ai/asaoka-linebot-go/internal/crisis"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/ctxutil"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/dedup"
	apperrors "github.com/asaoka-ai/asaoka-linebot-go/internal/errors"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/llm"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/logger"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/metrics"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/router"
	appsentry "github.com/asaoka-ai/asaoka-linebot-go/internal/sentry"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/session"
	"github.com/asaoka-ai/asaoka-linebot-go/internal/stage"
)

// interimMessage is the placeholder sent on the direct reply channel when
// the completion call misses the adaptive timeout. The real answer follows
// as a push.
const interimMessage = "お待たせしています。いま内容を整理しています。まとまり次第、このまま続けてお送りしますね。"

// apologyMessage replaces the answer when both the structured call and the
// freeform fallback fail.
const apologyMessage = "処理中にエラーが発生しました。恐れ入りますが、もう一度お試しください。"

// Session flag keys.
const (
	flagLabel    = "label"
	flagDomain   = "domain"
	flagFreeform = "freeform"
)

// Responder delivers text to the user. Reply consumes the single-use reply
// token; Push has no usage limit and is used for deferred delivery.
type Responder interface {
	Reply(ctx context.Context, replyToken, text string) error
	Push(ctx context.Context, to, text string) error
}

// TimeoutSource provides the adaptive reply wait bound and collects call
// latency samples. Satisfied by latency.Estimator.
type TimeoutSource interface {
	Record(d time.Duration)
	Current() time.Duration
}

// Deps are the orchestrator's collaborators.
type Deps struct {
	Sessions  session.Store
	Dedup     *dedup.Table
	Pushes    *dedup.PushCache
	Estimator TimeoutSource
	LLM       llm.Client
	Responder Responder

	// System is the counselor persona portion of the system prompt.
	System string

	Logger  *logger.Logger
	Metrics *metrics.Metrics
}

// Orchestrator implements the per-message dialogue flow.
type Orchestrator struct {
	sessions  session.Store
	dedup     *dedup.Table
	pushes    *dedup.PushCache
	estimator TimeoutSource
	llm       llm.Client
	responder Responder
	system    string
	log       *logger.Logger
	metrics   *metrics.Metrics

	sf singleflight.Group
	wg sync.WaitGroup
}

// New creates the orchestrator.
func New(deps Deps) *Orchestrator {
	return &Orchestrator{
		sessions:  deps.Sessions,
		dedup:     deps.Dedup,
		pushes:    deps.Pushes,
		estimator: deps.Estimator,
		llm:       deps.LLM,
		responder: deps.Responder,
		system:    deps.System,
		log:       deps.Logger.WithModule("orchestrator"),
		metrics:   deps.Metrics,
	}
}

// outcome is the result of one completion worker.
type outcome struct {
	reply    *llm.Reply
	err      error
	duration time.Duration
}

// HandleText processes one inbound text message end to end. The returned
// error is informational; the transport always acknowledges the webhook.
func (o *Orchestrator) HandleText(ctx context.Context, ev Event) error {
	if !ev.Valid() {
		return apperrors.ErrInvalidInput
	}

	key := ev.DedupKey()
	decision := o.dedup.Admit(key)
	if !decision.Proceed {
		o.metrics.RecordDedupDrop(decision.Reason)
		o.log.WithField("chat", ev.ChatKey()).
			WithField("reason", decision.Reason).
			Debugf("duplicate event dropped")
		return fmt.Errorf("%w: %s", apperrors.ErrDuplicateEvent, decision.Reason)
	}

	log := o.log.WithField("chat", ev.ChatKey())

	if crisis.Match(ev.Text) {
		o.metrics.CrisisShortCircuits.Inc()
		if err := o.responder.Reply(ctx, ev.ReplyToken, crisis.SafetyMessage); err != nil {
			log.WithError(err).Warnf("safety reply delivery failed")
		}
		o.dedup.Complete(key)
		return nil
	}

	chatKey := ev.ChatKey()
	unlock := o.sessions.Lock(chatKey)

	sess := o.sessions.GetOrCreate(chatKey)
	o.metrics.ActiveSessions.Set(float64(o.sessions.Len()))

	// One-shot opening: a session that already used its surprise turn is
	// forced out of S0 before the request is built.
	current := sess.EffectiveStage()
	sess.Stage = current

	if !o.llm.Enabled() {
		text := o.applyTemplate(sess, current, ev.Text)
		unlock()
		if err := o.responder.Reply(ctx, ev.ReplyToken, text); err != nil {
			log.WithError(err).Warnf("template reply delivery failed")
		}
		o.dedup.Complete(key)
		return nil
	}

	req := llm.Request{
		System:   o.system,
		Stage:    current,
		History:  slices.Clone(sess.History),
		UserText: ev.Text,
	}

	// The call keeps running after a timeout; only the delivery channel
	// changes. Detach it from the request lifecycle.
	callCtx := ctxutil.PreserveTracing(ctx)
	resultCh := make(chan outcome, 1)
	go func() {
		start := time.Now()
		reply, err := o.llm.Complete(callCtx, req)
		resultCh <- outcome{reply: reply, err: err, duration: time.Since(start)}
	}()

	wait := o.estimator.Current()
	o.metrics.AdaptiveTimeoutSeconds.Set(wait.Seconds())

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		text := o.resolveText(ctx, log, res)
		if err := o.responder.Reply(ctx, ev.ReplyToken, text); err != nil {
			log.WithError(err).Warnf("reply delivery failed")
		}
		o.applyOutcome(sess, current, ev.Text, text, res)
		unlock()
		o.dedup.Complete(key)
		return nil

	case <-timer.C:
		unlock()
		o.metrics.TimeoutFallbacksTotal.Inc()
		log.WithField("wait", wait.String()).Infof("completion missed the reply window, deferring to push")
		if err := o.responder.Reply(ctx, ev.ReplyToken, interimMessage); err != nil {
			log.WithError(err).Warnf("interim reply delivery failed")
		}
		o.wg.Add(1)
		go o.deliverDeferred(callCtx, key, chatKey, ev, current, resultCh)
		return nil
	}
}

// deliverDeferred waits out the in-flight call after a timeout and pushes
// the final answer, then applies the session outcome.
func (o *Orchestrator) deliverDeferred(ctx context.Context, key, chatKey string, ev Event, current stage.Stage, resultCh <-chan outcome) {
	defer o.wg.Done()

	log := o.log.WithField("chat", chatKey)

	res := <-resultCh
	text := o.resolveText(ctx, log, res)

	if o.pushes.Suppress(ev.SourceID, text) {
		o.metrics.RecordDeferredPush("suppressed")
		log.Debugf("identical push suppressed")
	} else {
		sfKey := dedup.PushKey(ev.SourceID, text)
		_, err, _ := o.sf.Do(sfKey, func() (any, error) {
			return nil, o.responder.Push(ctx, ev.SourceID, text)
		})
		if err != nil {
			o.metrics.RecordDeferredPush("error")
			log.WithError(err).Warnf("deferred push delivery failed")
		} else {
			o.metrics.RecordDeferredPush("sent")
		}
	}

	unlock := o.sessions.Lock(chatKey)
	sess := o.sessions.GetOrCreate(chatKey)
	o.applyOutcome(sess, current, ev.Text, text, res)
	unlock()

	o.dedup.Complete(key)
}

// resolveText turns a completion outcome into the user-visible text. A
// failed outcome means both the structured call and the freeform fallback
// failed, so it is reported to Sentry before the apology goes out.
func (o *Orchestrator) resolveText(ctx context.Context, log *logger.Logger, res outcome) string {
	if res.err != nil {
		log.WithError(res.err).Errorf("completion failed on both paths")
		appsentry.CaptureExceptionWithContext(ctx, res.err)
		return apologyMessage
	}
	return res.reply.Message
}

// applyOutcome records the exchange and advances the stage. Caller holds
// the per-chat lock.
func (o *Orchestrator) applyOutcome(sess *session.Session, current stage.Stage, userText, finalText string, res outcome) {
	sess.AppendExchange(userText, finalText)

	next := current.Next()
	if res.err == nil {
		next = res.reply.NextStage
		if res.reply.Label != "" {
			sess.Flags[flagLabel] = res.reply.Label
		}
		if res.reply.Freeform {
			sess.Flags[flagFreeform] = "1"
		}
		o.estimator.Record(res.duration)
	}

	if current == stage.S0 {
		sess.UsedSurprise = true
	}

	o.metrics.RecordStageTransition(current.String(), next.String())
	sess.Stage = next
}

// applyTemplate produces the keyword-routed template reply used when the
// completion service is switched off, and advances the session the same
// way a freeform completion would. Caller holds the per-chat lock.
func (o *Orchestrator) applyTemplate(sess *session.Session, current stage.Stage, userText string) string {
	meta := router.Route(userText)
	text := router.FallbackReply(meta)

	sess.AppendExchange(userText, text)
	sess.Flags[flagDomain] = meta.Domain

	if current == stage.S0 {
		sess.UsedSurprise = true
	}

	next := current.Next()
	o.metrics.RecordStageTransition(current.String(), next.String())
	sess.Stage = next

	return text
}

// Wait blocks until all deferred push workers have finished. Called during
// graceful shutdown, after the webhook handler has drained.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}
