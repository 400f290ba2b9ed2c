package router

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/support-bot/internal/auth"
	"github.com/spec-kit/support-bot/internal/channel"
	"github.com/spec-kit/support-bot/internal/config"
	"github.com/spec-kit/support-bot/internal/conversation"
	"github.com/spec-kit/support-bot/internal/domain"
	"github.com/spec-kit/support-bot/internal/events"
	"github.com/spec-kit/support-bot/internal/observability"
	"github.com/spec-kit/support-bot/internal/ratelimit"
	"github.com/spec-kit/support-bot/internal/repository"
	"github.com/spec-kit/support-bot/internal/service"
	apperrors "github.com/spec-kit/support-bot/pkg/util"
)

// Action classifies what the router did with a message.
type Action int

const (
	// ActionHandled means the message was consumed and may have produced
	// replies.
	ActionHandled Action = iota
	// ActionDropped means a policy branch discarded the message with no
	// outbound effect.
	ActionDropped
	// ActionIgnored means nothing matched: no command, no wizard.
	ActionIgnored
)

// Decision is the first-class outcome of routing one message, so tests can
// assert "no outbound effect" directly instead of inferring it.
type Decision struct {
	Action Action
	Reason string
}

func handled(reason string) Decision { return Decision{Action: ActionHandled, Reason: reason} }
func dropped(reason string) Decision { return Decision{Action: ActionDropped, Reason: reason} }
func ignored() Decision              { return Decision{Action: ActionIgnored} }

// Router sequences every inbound message through the fixed evaluation
// order: ban gate, audit, spam gate, guards, greeting, login interception,
// command dispatch, wizard continuation.
type Router struct {
	cfg        config.BotConfig
	logger     *zap.Logger
	bans       repository.BanRepository
	admins     repository.AdminRepository
	audit      repository.AuditRepository
	spam       *ratelimit.SpamDetector
	sessions   *auth.SessionManager
	wizards    *conversation.Store
	intake     *service.IntakeService
	lifecycle  *service.LifecycleService
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	sender     channel.Sender

	selfIdentity domain.Identity
	commands     []command
}

// Dependencies bundles everything the router needs.
type Dependencies struct {
	Cfg        config.BotConfig
	Logger     *zap.Logger
	BanRepo    repository.BanRepository
	AdminRepo  repository.AdminRepository
	AuditRepo  repository.AuditRepository
	Spam       *ratelimit.SpamDetector
	Sessions   *auth.SessionManager
	Wizards    *conversation.Store
	Intake     *service.IntakeService
	Lifecycle  *service.LifecycleService
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Sender     channel.Sender
}

// New constructs the router.
func New(deps Dependencies) *Router {
	r := &Router{
		cfg:        deps.Cfg,
		logger:     deps.Logger,
		bans:       deps.BanRepo,
		admins:     deps.AdminRepo,
		audit:      deps.AuditRepo,
		spam:       deps.Spam,
		sessions:   deps.Sessions,
		wizards:    deps.Wizards,
		intake:     deps.Intake,
		lifecycle:  deps.Lifecycle,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		sender:     deps.Sender,
	}
	if self, ok := domain.NormalizeIdentity(deps.Cfg.SelfID); ok {
		r.selfIdentity = self
	}
	r.commands = commandTable()
	return r
}

// HandleMessage routes one inbound message. No error escapes: unexpected
// failures are logged, the sender is told best-effort, and the process
// keeps running.
func (r *Router) HandleMessage(ctx context.Context, msg domain.InboundMessage) Decision {
	r.metrics.RecordMessage(msg.Channel)

	// 1. Ignore self-originated messages.
	identity, ok := domain.NormalizeIdentity(msg.From)
	if !ok {
		r.logger.Debug("unparseable sender", zap.String("from", msg.From))
		r.metrics.RecordDrop("unparseable")
		return dropped("unparseable")
	}
	if r.selfIdentity != "" && identity == r.selfIdentity {
		return dropped("self")
	}

	// 2. Banned identities get audited and nothing else; any in-flight
	// wizard is silently abandoned.
	banned, err := r.bans.IsBanned(ctx, identity)
	if err != nil {
		r.logger.Error("ban check failed", zap.String("identity", identity.String()), zap.Error(err))
	}
	if banned {
		r.recordAudit(ctx, identity, msg, true)
		r.wizards.Delete(identity)
		r.metrics.RecordDrop("banned")
		return dropped("banned")
	}

	// 3. Unconditional audit log.
	r.recordAudit(ctx, identity, msg, false)

	// 4. Spam gate, private conversations only.
	if !msg.IsGroup {
		switch r.spam.Record(identity) {
		case ratelimit.SpamTriggered:
			r.autoBan(ctx, identity, "spam volume")
			r.reply(ctx, msg.From, replySpamWarning)
			return handled("spam-ban")
		case ratelimit.SpamAlreadyTriggered:
			r.metrics.RecordDrop("spam")
			return dropped("spam")
		}
	}

	// 5. Media and malformed-message guards.
	if msg.HasMedia && r.cfg.MediaMaxBytes > 0 && msg.MediaBytes > r.cfg.MediaMaxBytes {
		r.reply(ctx, msg.From, replyMediaTooLarge)
		return handled("media-too-large")
	}
	body := strings.TrimSpace(msg.Body)
	if body == "" && !msg.HasMedia {
		r.metrics.RecordDrop("empty")
		return dropped("empty")
	}

	// 6. Ban re-check against the canonical phone form. Defense in depth:
	// step 2 already used it, but a failed query there must not let a
	// banned sender through.
	if banned, err := r.bans.IsBanned(ctx, identity); err == nil && banned {
		r.wizards.Delete(identity)
		r.metrics.RecordDrop("banned")
		return dropped("banned")
	}

	// 7. Greeting shortcut.
	if !msg.IsGroup && !strings.HasPrefix(body, "/") &&
		strings.EqualFold(body, r.cfg.GreetingWord) {
		return r.startWizard(ctx, identity, msg)
	}

	// 8. Admin-login interception consumes the whole message. /stop is the
	// one escape hatch; anything else is credential input.
	if !msg.IsGroup && r.sessions.LoginActive(identity) {
		if body == "/stop" {
			r.sessions.AbortLogin(identity)
			r.reply(ctx, msg.From, replyCancelled)
			return handled("login-abort")
		}
		return r.continueLogin(ctx, identity, msg)
	}

	// 9. Command dispatch, first match wins.
	for _, cmd := range r.commands {
		if !cmd.matches(body) {
			continue
		}
		if msg.IsGroup && cmd.privateOnly {
			// Admin-surface commands look unrecognized in groups.
			r.metrics.RecordDrop("group-blocked")
			return dropped("group-blocked")
		}
		if !msg.IsGroup && cmd.groupOnly {
			return ignored()
		}
		r.metrics.RecordCommand(cmd.prefix)
		if cmd.adminOnly {
			authorized, err := r.sessions.IsAuthorized(ctx, identity)
			if err != nil {
				r.logger.Error("authorization check failed", zap.String("identity", identity.String()), zap.Error(err))
				r.reply(ctx, msg.From, replyUnexpectedError)
				return handled(cmd.prefix)
			}
			if !authorized {
				r.reply(ctx, msg.From, replyAdminRequired)
				return handled(cmd.prefix)
			}
		}
		r.runCommand(ctx, cmd, identity, msg, body)
		return handled(cmd.prefix)
	}

	// 10. Wizard continuation.
	if _, active := r.wizards.Get(identity); active && !msg.IsGroup {
		return r.continueWizard(ctx, identity, msg, body)
	}

	return ignored()
}

func (r *Router) runCommand(ctx context.Context, cmd command, identity domain.Identity, msg domain.InboundMessage, body string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("command handler panicked",
				zap.String("command", cmd.prefix), zap.Any("panic", rec))
			r.reply(ctx, msg.From, replyUnexpectedError)
		}
	}()
	args := strings.Fields(body)[1:]
	cmd.handler(r, ctx, call{identity: identity, msg: msg, args: args})
}

func (r *Router) startWizard(ctx context.Context, identity domain.Identity, msg domain.InboundMessage) Decision {
	if state, exists := r.wizards.Get(identity); exists {
		// One wizard per identity: a repeated start re-prompts the
		// current step instead of forking a duplicate.
		r.reply(ctx, msg.From, conversation.PromptFor(state.Step))
		return handled("wizard-resume")
	}

	verdict := r.intake.CheckAllowance(identity)
	if !verdict.Allowed {
		r.reply(ctx, msg.From, replyRateLimited(verdict))
		return handled("rate-limited")
	}

	r.wizards.Start(identity, msg.DisplayName)
	r.reply(ctx, msg.From, conversation.PromptCorpus())
	return handled("wizard-start")
}

func (r *Router) continueWizard(ctx context.Context, identity domain.Identity, msg domain.InboundMessage, body string) (decision Decision) {
	// A user must never be stranded inside the wizard: repeated processing
	// failures end it with an apology instead of looping forever.
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("wizard step panicked",
				zap.String("identity", identity.String()), zap.Any("panic", rec))
			if gaveUp := r.wizards.RecordFailure(identity); gaveUp {
				r.reply(ctx, msg.From, replyWizardGaveUp)
			} else {
				r.reply(ctx, msg.From, replyUnexpectedError)
			}
			decision = handled("wizard-failure")
		}
	}()

	state, ok := r.wizards.Get(identity)
	if !ok {
		return ignored()
	}

	next, result := conversation.Advance(state, body)
	if !result.Completed {
		r.wizards.Put(identity, next)
		r.reply(ctx, msg.From, result.Reply)
		return handled("wizard-step")
	}

	ticket, err := r.intake.CreateFromWizard(ctx, identity, next)
	if err != nil {
		// Final-commit failure: the draft is gone, the user must not be
		// stuck in a wizard that can no longer finish.
		r.logger.Error("ticket creation failed",
			zap.String("identity", identity.String()), zap.Error(err))
		r.wizards.Delete(identity)
		r.reply(ctx, msg.From, replyCreationFailed)
		return handled("wizard-commit-failed")
	}

	r.wizards.Delete(identity)
	r.reply(ctx, msg.From, replyTicketCreated(ticket.ID, ticket.CreatedAt))
	return handled("wizard-complete")
}

func (r *Router) continueLogin(ctx context.Context, identity domain.Identity, msg domain.InboundMessage) Decision {
	result, err := r.sessions.Submit(ctx, identity, msg.DisplayName, strings.TrimSpace(msg.Body))
	if err != nil {
		r.logger.Error("login processing failed", zap.String("identity", identity.String()), zap.Error(err))
		r.reply(ctx, msg.From, replyUnexpectedError)
		return handled("login-error")
	}
	switch result {
	case auth.SubmitPromptPassword:
		r.reply(ctx, msg.From, replyLoginPassword)
		return handled("login-password-prompt")
	case auth.SubmitSuccess:
		r.reply(ctx, msg.From, replyLoginOK)
		return handled("login-success")
	case auth.SubmitBanned:
		r.metrics.RecordBan()
		r.publishBan(ctx, identity, "repeated failed login")
		// Banned identities receive no replies, including this one.
		return dropped("login-banned")
	default:
		r.reply(ctx, msg.From, replyLoginFailed)
		return handled("login-failed")
	}
}

func (r *Router) autoBan(ctx context.Context, identity domain.Identity, reason string) {
	newly, err := r.bans.Add(ctx, identity, reason)
	if err != nil {
		r.logger.Error("auto-ban failed", zap.String("identity", identity.String()), zap.Error(err))
		return
	}
	if newly {
		r.metrics.RecordBan()
		r.logger.Warn("identity auto-banned",
			zap.String("identity", identity.String()), zap.String("reason", reason))
		r.publishBan(ctx, identity, reason)
	}
	r.wizards.Delete(identity)
}

func (r *Router) publishBan(ctx context.Context, identity domain.Identity, reason string) {
	if r.dispatcher == nil {
		return
	}
	_ = r.dispatcher.Publish(ctx, events.Event{
		Type:    events.EventIdentityBanned,
		Actor:   identity.String(),
		Payload: events.IdentityBannedPayload{Identity: identity, Reason: reason},
	})
}

func (r *Router) recordAudit(ctx context.Context, identity domain.Identity, msg domain.InboundMessage, banned bool) {
	err := r.audit.Record(ctx, domain.AuditRecord{
		Identity:    identity,
		DisplayName: msg.DisplayName,
		Body:        msg.Body,
		IsGroup:     msg.IsGroup,
		Banned:      banned,
		ReceivedAt:  msg.Timestamp,
	})
	if err != nil {
		r.logger.Error("audit record failed", zap.String("identity", identity.String()), zap.Error(err))
	}
}

func (r *Router) reply(ctx context.Context, target, text string) {
	if err := r.sender.SendText(ctx, target, text); err != nil {
		r.logger.Error("send failed", zap.String("target", target), zap.Error(err))
	}
}

// adminName picks a display name for lifecycle attribution.
func adminName(msg domain.InboundMessage, identity domain.Identity) string {
	if msg.DisplayName != "" {
		return msg.DisplayName
	}
	return identity.String()
}

func conflictDetailID(err error, key string) (int64, bool) {
	domainErr := apperrors.ToDomainError(err)
	if domainErr == nil || domainErr.Details == nil {
		return 0, false
	}
	if v, ok := domainErr.Details[key]; ok {
		if id, ok := v.(int64); ok {
			return id, true
		}
	}
	return 0, false
}
