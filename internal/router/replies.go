package router

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/support-bot/internal/domain"
	"github.com/spec-kit/support-bot/internal/ratelimit"
)

// User-facing reply texts. Kept in one place so the command handlers stay
// readable.
const (
	replySpamWarning = "You are sending messages too fast and have been blocked."

	replyMediaTooLarge = "Attachment is too large; please send files under the size limit or describe the problem in text."

	replyAdminRequired = "This command requires admin access. Use /login in a private chat."

	replyLoginUsername  = "Enter the admin username:"
	replyLoginPassword  = "Enter the password:"
	replyLoginOK        = "Login successful. You now have admin access."
	replyLoginFailed    = "Wrong username or password."
	replyLogoutOK       = "Logged out."
	replyNotLoggedIn    = "You are not logged in."
	replyCancelled      = "Request cancelled. Send /start to begin a new one."
	replyWizardGaveUp   = "Sorry, something keeps going wrong. Please try again later with /start."
	replyCreationFailed = "Sorry, your request could not be saved. Please try again with /start."

	replyUnexpectedError = "Sorry, something went wrong. Please try again."
)

func replyTicketCreated(id int64, at time.Time) string {
	return fmt.Sprintf("Your request has been registered as ticket #%d (%s). We will contact you.",
		id, at.Format("02.01.2006 15:04"))
}

func replyRateLimited(v ratelimit.Verdict) string {
	wait := v.Remaining.Round(time.Second)
	if wait <= 0 {
		wait = time.Second
	}
	return fmt.Sprintf("You have reached the limit of %d requests per %s. Please wait %s.",
		v.MaxForPeriod, v.Violated, wait)
}

func replyTicketNotFound(id int64) string {
	return fmt.Sprintf("Ticket #%d not found.", id)
}

func replySolved(id int64) string {
	return fmt.Sprintf("Ticket #%d marked as solved.", id)
}

func replyLongTerm(id int64) string {
	return fmt.Sprintf("Ticket #%d moved to long-term.", id)
}

func replyReopened(id int64) string {
	return fmt.Sprintf("Ticket #%d reopened.", id)
}

func replyAssigned(id int64) string {
	return fmt.Sprintf("Ticket #%d is now assigned to you.", id)
}

func replyUnassigned(id int64) string {
	return fmt.Sprintf("Ticket #%d released.", id)
}

func replyAssignBlocked(activeID int64) string {
	return fmt.Sprintf("You already hold ticket #%d. Finish it before taking another.", activeID)
}

func replyBanned(target domain.Identity, newly bool) string {
	if newly {
		return fmt.Sprintf("%s is now banned.", target)
	}
	return fmt.Sprintf("%s was already banned.", target)
}

func replyUnbanned(target domain.Identity, removed bool) string {
	if removed {
		return fmt.Sprintf("%s is no longer banned.", target)
	}
	return fmt.Sprintf("%s is not banned.", target)
}

func replyIdentityList(header string, identities []domain.Identity) string {
	if len(identities) == 0 {
		return header + " (empty)"
	}
	items := make([]string, len(identities))
	for i, id := range identities {
		items[i] = id.String()
	}
	return header + "\n" + strings.Join(items, "\n")
}

func replyBadAddress(raw string) string {
	return fmt.Sprintf("%q does not look like a valid address.", raw)
}
