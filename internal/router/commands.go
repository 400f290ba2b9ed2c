package router

import (
	"context"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/support-bot/internal/domain"
	apperrors "github.com/spec-kit/support-bot/pkg/util"
)

// call carries the parsed context of one command invocation.
type call struct {
	identity domain.Identity
	msg      domain.InboundMessage
	args     []string
}

// command is one entry in the ordered dispatch table.
type command struct {
	prefix      string
	adminOnly   bool
	privateOnly bool
	groupOnly   bool
	handler     func(r *Router, ctx context.Context, c call)
}

// matches reports whether body invokes this command: the exact prefix or
// the prefix followed by arguments.
func (c command) matches(body string) bool {
	if body == c.prefix {
		return true
	}
	return strings.HasPrefix(body, c.prefix+" ")
}

// commandTable is the fixed, ordered command surface; first match wins.
func commandTable() []command {
	return []command{
		{prefix: "/start", privateOnly: true, handler: cmdStart},
		{prefix: "/stop", privateOnly: true, handler: cmdStop},
		{prefix: "/login", privateOnly: true, handler: cmdLogin},
		{prefix: "/logout", privateOnly: true, handler: cmdLogout},
		{prefix: "/solved", adminOnly: true, handler: cmdSolved},
		{prefix: "/long", adminOnly: true, handler: cmdLong},
		{prefix: "/unsolved", adminOnly: true, groupOnly: true, handler: cmdUnsolved},
		{prefix: "/assign", adminOnly: true, handler: cmdAssign},
		{prefix: "/noassign", adminOnly: true, handler: cmdNoAssign},
		{prefix: "/ban", adminOnly: true, privateOnly: true, handler: cmdBan},
		{prefix: "/unban", adminOnly: true, privateOnly: true, handler: cmdUnban},
		{prefix: "/listban", adminOnly: true, privateOnly: true, handler: cmdListBan},
		{prefix: "/admin", adminOnly: true, privateOnly: true, handler: cmdAdmin},
	}
}

func cmdStart(r *Router, ctx context.Context, c call) {
	r.startWizard(ctx, c.identity, c.msg)
}

func cmdStop(r *Router, ctx context.Context, c call) {
	if r.wizards.Delete(c.identity) {
		r.reply(ctx, c.msg.From, replyCancelled)
	}
}

func cmdLogin(r *Router, ctx context.Context, c call) {
	r.sessions.BeginLogin(c.identity)
	r.reply(ctx, c.msg.From, replyLoginUsername)
}

func cmdLogout(r *Router, ctx context.Context, c call) {
	if r.sessions.Logout(c.identity) {
		r.reply(ctx, c.msg.From, replyLogoutOK)
	} else {
		r.reply(ctx, c.msg.From, replyNotLoggedIn)
	}
}

func cmdSolved(r *Router, ctx context.Context, c call) {
	if len(c.args) < 2 {
		r.reply(ctx, c.msg.From, "Usage: /solved <id> <solution>")
		return
	}
	id, ok := parseTicketID(c.args[0])
	if !ok {
		r.reply(ctx, c.msg.From, "Usage: /solved <id> <solution>")
		return
	}
	solution := strings.Join(c.args[1:], " ")
	if _, err := r.lifecycle.Solve(ctx, id, solution, c.identity, adminName(c.msg, c.identity)); err != nil {
		r.replyLifecycleError(ctx, c.msg.From, id, err)
		return
	}
	r.reply(ctx, c.msg.From, replySolved(id))
}

func cmdLong(r *Router, ctx context.Context, c call) {
	id, ok := singleID(c.args)
	if !ok {
		r.reply(ctx, c.msg.From, "Usage: /long <id>")
		return
	}
	if _, err := r.lifecycle.MarkLongTerm(ctx, id, c.identity, adminName(c.msg, c.identity)); err != nil {
		r.replyLifecycleError(ctx, c.msg.From, id, err)
		return
	}
	r.reply(ctx, c.msg.From, replyLongTerm(id))
}

func cmdUnsolved(r *Router, ctx context.Context, c call) {
	id, ok := singleID(c.args)
	if !ok {
		r.reply(ctx, c.msg.From, "Usage: /unsolved <id>")
		return
	}
	if _, err := r.lifecycle.Reopen(ctx, id, c.identity); err != nil {
		r.replyLifecycleError(ctx, c.msg.From, id, err)
		return
	}
	r.reply(ctx, c.msg.From, replyReopened(id))
}

func cmdAssign(r *Router, ctx context.Context, c call) {
	id, ok := singleID(c.args)
	if !ok {
		r.reply(ctx, c.msg.From, "Usage: /assign <id>")
		return
	}
	if _, err := r.lifecycle.Assign(ctx, id, c.identity, adminName(c.msg, c.identity)); err != nil {
		if activeID, blocked := conflictDetailID(err, "active_ticket_id"); blocked {
			r.reply(ctx, c.msg.From, replyAssignBlocked(activeID))
			return
		}
		r.replyLifecycleError(ctx, c.msg.From, id, err)
		return
	}
	r.reply(ctx, c.msg.From, replyAssigned(id))
}

func cmdNoAssign(r *Router, ctx context.Context, c call) {
	id, ok := singleID(c.args)
	if !ok {
		r.reply(ctx, c.msg.From, "Usage: /noassign <id>")
		return
	}
	if _, err := r.lifecycle.Unassign(ctx, id, c.identity, adminName(c.msg, c.identity)); err != nil {
		r.replyLifecycleError(ctx, c.msg.From, id, err)
		return
	}
	r.reply(ctx, c.msg.From, replyUnassigned(id))
}

func cmdBan(r *Router, ctx context.Context, c call) {
	if len(c.args) != 1 {
		r.reply(ctx, c.msg.From, "Usage: /ban <address>")
		return
	}
	target, ok := domain.NormalizeIdentity(c.args[0])
	if !ok {
		r.reply(ctx, c.msg.From, replyBadAddress(c.args[0]))
		return
	}
	newly, err := r.bans.Add(ctx, target, "admin command")
	if err != nil {
		r.logger.Error("ban failed", zap.String("target", target.String()), zap.Error(err))
		r.reply(ctx, c.msg.From, replyUnexpectedError)
		return
	}
	if newly {
		r.metrics.RecordBan()
		r.wizards.Delete(target)
		r.publishBan(ctx, target, "admin command")
	}
	r.reply(ctx, c.msg.From, replyBanned(target, newly))
}

func cmdUnban(r *Router, ctx context.Context, c call) {
	if len(c.args) != 1 {
		r.reply(ctx, c.msg.From, "Usage: /unban <address>")
		return
	}
	target, ok := domain.NormalizeIdentity(c.args[0])
	if !ok {
		r.reply(ctx, c.msg.From, replyBadAddress(c.args[0]))
		return
	}
	removed, err := r.bans.Remove(ctx, target)
	if err != nil {
		r.logger.Error("unban failed", zap.String("target", target.String()), zap.Error(err))
		r.reply(ctx, c.msg.From, replyUnexpectedError)
		return
	}
	if removed {
		r.spam.Forget(target)
	}
	r.reply(ctx, c.msg.From, replyUnbanned(target, removed))
}

func cmdListBan(r *Router, ctx context.Context, c call) {
	identities, err := r.bans.List(ctx)
	if err != nil {
		r.logger.Error("list bans failed", zap.Error(err))
		r.reply(ctx, c.msg.From, replyUnexpectedError)
		return
	}
	r.reply(ctx, c.msg.From, replyIdentityList("Banned:", identities))
}

func cmdAdmin(r *Router, ctx context.Context, c call) {
	if len(c.args) == 0 {
		r.reply(ctx, c.msg.From, "Usage: /admin add <address> | remove <address> | list")
		return
	}
	switch c.args[0] {
	case "add":
		if len(c.args) != 2 {
			r.reply(ctx, c.msg.From, "Usage: /admin add <address>")
			return
		}
		target, ok := domain.NormalizeIdentity(c.args[1])
		if !ok {
			r.reply(ctx, c.msg.From, replyBadAddress(c.args[1]))
			return
		}
		added, err := r.admins.Add(ctx, target, "")
		if err != nil {
			r.logger.Error("admin add failed", zap.String("target", target.String()), zap.Error(err))
			r.reply(ctx, c.msg.From, replyUnexpectedError)
			return
		}
		if added {
			r.reply(ctx, c.msg.From, target.String()+" added to the admin list.")
		} else {
			r.reply(ctx, c.msg.From, target.String()+" is already an admin.")
		}
	case "remove":
		if len(c.args) != 2 {
			r.reply(ctx, c.msg.From, "Usage: /admin remove <address>")
			return
		}
		target, ok := domain.NormalizeIdentity(c.args[1])
		if !ok {
			r.reply(ctx, c.msg.From, replyBadAddress(c.args[1]))
			return
		}
		removed, err := r.admins.Remove(ctx, target)
		if err != nil {
			r.logger.Error("admin remove failed", zap.String("target", target.String()), zap.Error(err))
			r.reply(ctx, c.msg.From, replyUnexpectedError)
			return
		}
		if removed {
			r.reply(ctx, c.msg.From, target.String()+" removed from the admin list.")
		} else {
			r.reply(ctx, c.msg.From, target.String()+" is not an admin.")
		}
	case "list":
		identities, err := r.admins.List(ctx)
		if err != nil {
			r.logger.Error("admin list failed", zap.Error(err))
			r.reply(ctx, c.msg.From, replyUnexpectedError)
			return
		}
		r.reply(ctx, c.msg.From, replyIdentityList("Admins:", identities))
	default:
		r.reply(ctx, c.msg.From, "Usage: /admin add <address> | remove <address> | list")
	}
}

func (r *Router) replyLifecycleError(ctx context.Context, target string, id int64, err error) {
	domainErr := apperrors.ToDomainError(err)
	switch domainErr.Code {
	case "NOT_FOUND":
		r.reply(ctx, target, replyTicketNotFound(id))
	case "CONFLICT", "FORBIDDEN":
		r.reply(ctx, target, upperFirst(domainErr.Message)+".")
	default:
		r.logger.Error("lifecycle command failed", zap.Int64("ticket_id", id), zap.Error(err))
		r.reply(ctx, target, replyUnexpectedError)
	}
}

func singleID(args []string) (int64, bool) {
	if len(args) != 1 {
		return 0, false
	}
	return parseTicketID(args[0])
}

func parseTicketID(raw string) (int64, bool) {
	raw = strings.TrimPrefix(raw, "#")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
