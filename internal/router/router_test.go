package router

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-bot/internal/auth"
	"github.com/spec-kit/support-bot/internal/config"
	"github.com/spec-kit/support-bot/internal/conversation"
	"github.com/spec-kit/support-bot/internal/domain"
	"github.com/spec-kit/support-bot/internal/events"
	"github.com/spec-kit/support-bot/internal/observability"
	"github.com/spec-kit/support-bot/internal/ratelimit"
	"github.com/spec-kit/support-bot/internal/service"
)

type sentMessage struct {
	target string
	body   string
}

type fakeSender struct {
	sent []sentMessage
}

func (f *fakeSender) SendText(_ context.Context, target, body string) error {
	f.sent = append(f.sent, sentMessage{target: target, body: body})
	return nil
}

func (f *fakeSender) last() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].body
}

type fakeBans struct {
	banned map[domain.Identity]string
}

func (f *fakeBans) IsBanned(_ context.Context, id domain.Identity) (bool, error) {
	_, ok := f.banned[id]
	return ok, nil
}

func (f *fakeBans) Add(_ context.Context, id domain.Identity, reason string) (bool, error) {
	if _, ok := f.banned[id]; ok {
		return false, nil
	}
	f.banned[id] = reason
	return true, nil
}

func (f *fakeBans) Remove(_ context.Context, id domain.Identity) (bool, error) {
	if _, ok := f.banned[id]; !ok {
		return false, nil
	}
	delete(f.banned, id)
	return true, nil
}

func (f *fakeBans) List(context.Context) ([]domain.Identity, error) {
	out := []domain.Identity{}
	for id := range f.banned {
		out = append(out, id)
	}
	return out, nil
}

type fakeAdmins struct {
	members  map[domain.Identity]bool
	failures map[domain.Identity]int
}

func (f *fakeAdmins) IsAdmin(_ context.Context, id domain.Identity) (bool, error) {
	return f.members[id], nil
}

func (f *fakeAdmins) Add(_ context.Context, id domain.Identity, _ string) (bool, error) {
	if f.members[id] {
		return false, nil
	}
	f.members[id] = true
	return true, nil
}

func (f *fakeAdmins) Remove(_ context.Context, id domain.Identity) (bool, error) {
	if !f.members[id] {
		return false, nil
	}
	delete(f.members, id)
	return true, nil
}

func (f *fakeAdmins) List(context.Context) ([]domain.Identity, error) {
	out := []domain.Identity{}
	for id := range f.members {
		out = append(out, id)
	}
	return out, nil
}

func (f *fakeAdmins) IncrementLoginFailures(_ context.Context, id domain.Identity) (int, error) {
	f.failures[id]++
	return f.failures[id], nil
}

func (f *fakeAdmins) ResetLoginFailures(_ context.Context, id domain.Identity) error {
	delete(f.failures, id)
	return nil
}

type fakeAudit struct {
	records []domain.AuditRecord
}

func (f *fakeAudit) Record(_ context.Context, record domain.AuditRecord) error {
	f.records = append(f.records, record)
	return nil
}

type fakeTickets struct {
	tickets map[int64]*domain.Ticket
	nextID  int64
}

func (f *fakeTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	ticket.ID = f.nextID
	ticket.CreatedAt = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clone := *ticket
	f.tickets[ticket.ID] = &clone
	f.nextID++
	return nil
}

func (f *fakeTickets) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (f *fakeTickets) MarkSolved(_ context.Context, id int64, solution, adminID, adminName string, at time.Time) error {
	ticket, ok := f.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.Status = domain.TicketStatusSolved
	ticket.Solution = &solution
	ticket.SolvedAt = &at
	ticket.AssignedAdmin = &adminID
	ticket.AssignedAdminName = &adminName
	return nil
}

func (f *fakeTickets) MarkLongTerm(_ context.Context, id int64, adminID, adminName string, at time.Time) error {
	ticket, ok := f.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.Status = domain.TicketStatusLongTerm
	ticket.SolvedAt = &at
	ticket.AssignedAdmin = &adminID
	ticket.AssignedAdminName = &adminName
	return nil
}

func (f *fakeTickets) Reopen(_ context.Context, id int64) error {
	ticket, ok := f.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.Status = domain.TicketStatusOpen
	ticket.SolvedAt = nil
	ticket.AssignedAdmin = nil
	ticket.AssignedAdminName = nil
	ticket.Solution = nil
	return nil
}

func (f *fakeTickets) AssignIfUnassigned(_ context.Context, id int64, adminID, adminName string) (bool, error) {
	ticket, ok := f.tickets[id]
	if !ok || ticket.AssignedAdmin != nil || ticket.Status != domain.TicketStatusOpen {
		return false, nil
	}
	ticket.AssignedAdmin = &adminID
	ticket.AssignedAdminName = &adminName
	return true, nil
}

func (f *fakeTickets) Unassign(_ context.Context, id int64, adminID string) (bool, error) {
	ticket, ok := f.tickets[id]
	if !ok || ticket.AssignedAdmin == nil || *ticket.AssignedAdmin != adminID {
		return false, nil
	}
	ticket.AssignedAdmin = nil
	ticket.AssignedAdminName = nil
	return true, nil
}

func (f *fakeTickets) FindActiveByAssignee(_ context.Context, adminID string) (*domain.Ticket, error) {
	for _, ticket := range f.tickets {
		if ticket.AssignedAdmin != nil && *ticket.AssignedAdmin == adminID &&
			ticket.Status != domain.TicketStatusSolved && ticket.Status != domain.TicketStatusLongTerm {
			clone := *ticket
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTickets) ListOpenOlderThan(_ context.Context, cutoff time.Time) ([]domain.Ticket, error) {
	out := []domain.Ticket{}
	for _, ticket := range f.tickets {
		if ticket.Status == domain.TicketStatusOpen && ticket.CreatedAt.Before(cutoff) {
			out = append(out, *ticket)
		}
	}
	return out, nil
}

func (f *fakeTickets) ListByStatus(_ context.Context, status domain.TicketStatus) ([]domain.Ticket, error) {
	out := []domain.Ticket{}
	for _, ticket := range f.tickets {
		if ticket.Status == status {
			out = append(out, *ticket)
		}
	}
	return out, nil
}

type fixture struct {
	router  *Router
	sender  *fakeSender
	bans    *fakeBans
	admins  *fakeAdmins
	audit   *fakeAudit
	tickets *fakeTickets
	wizards *conversation.Store
}

func newFixture() *fixture {
	logger := zap.NewNop()
	sender := &fakeSender{}
	bans := &fakeBans{banned: make(map[domain.Identity]string)}
	admins := &fakeAdmins{members: make(map[domain.Identity]bool), failures: make(map[domain.Identity]int)}
	audit := &fakeAudit{}
	tickets := &fakeTickets{tickets: make(map[int64]*domain.Ticket), nextID: 1}
	wizards := conversation.NewStore()
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	limiter := ratelimit.NewLimiter(config.RateLimitConfig{MaxPerMinute: 1, MaxPerHour: 5, MaxPerDay: 20})
	spam := ratelimit.NewSpamDetector(config.SpamConfig{MaxMessages: 10, Window: time.Minute})
	sessions := auth.NewSessionManager(
		auth.NewCredentials(config.AdminConfig{Username: "root", Password: "hunter2"}),
		admins, bans, logger,
	)
	intake := service.NewIntakeService(service.IntakeDependencies{
		TicketRepo: tickets,
		Limiter:    limiter,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	lifecycle := service.NewLifecycleService(service.LifecycleDependencies{
		TicketRepo: tickets,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	r := New(Dependencies{
		Cfg: config.BotConfig{
			SelfID:        "70000000000",
			GreetingWord:  "hello",
			MediaMaxBytes: 1024,
		},
		Logger:     logger,
		BanRepo:    bans,
		AdminRepo:  admins,
		AuditRepo:  audit,
		Spam:       spam,
		Sessions:   sessions,
		Wizards:    wizards,
		Intake:     intake,
		Lifecycle:  lifecycle,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Sender:     sender,
	})
	return &fixture{
		router:  r,
		sender:  sender,
		bans:    bans,
		admins:  admins,
		audit:   audit,
		tickets: tickets,
		wizards: wizards,
	}
}

func privateMsg(from, body string) domain.InboundMessage {
	return domain.InboundMessage{
		Channel:     "test",
		MessageID:   "m1",
		From:        from,
		DisplayName: "Alice",
		Body:        body,
		Timestamp:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func groupMsg(from, body string) domain.InboundMessage {
	msg := privateMsg(from, body)
	msg.IsGroup = true
	return msg
}

const requester = "79161234567@c.us"

func TestBannedSenderGetsSilence(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.bans.banned["79161234567"] = "spam volume"

	decision := f.router.HandleMessage(ctx, privateMsg(requester, "hello"))
	if decision.Action != ActionDropped || decision.Reason != "banned" {
		t.Fatalf("decision = %+v, want dropped/banned", decision)
	}
	if len(f.sender.sent) != 0 {
		t.Errorf("banned sender received %d replies", len(f.sender.sent))
	}
	if len(f.audit.records) != 1 || !f.audit.records[0].Banned {
		t.Errorf("audit records = %+v, want one banned record", f.audit.records)
	}
}

func TestSelfMessagesDropped(t *testing.T) {
	f := newFixture()
	decision := f.router.HandleMessage(context.Background(), privateMsg("70000000000@c.us", "hello"))
	if decision.Action != ActionDropped || decision.Reason != "self" {
		t.Fatalf("decision = %+v, want dropped/self", decision)
	}
}

func TestGreetingStartsWizard(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	decision := f.router.HandleMessage(ctx, privateMsg(requester, "Hello"))
	if decision.Action != ActionHandled || decision.Reason != "wizard-start" {
		t.Fatalf("decision = %+v, want handled/wizard-start", decision)
	}
	if f.sender.last() != conversation.PromptCorpus() {
		t.Errorf("reply = %q, want the corpus prompt", f.sender.last())
	}
	if _, active := f.wizards.Get("79161234567"); !active {
		t.Error("no wizard state after greeting")
	}
}

func TestGreetingInGroupIgnored(t *testing.T) {
	f := newFixture()
	decision := f.router.HandleMessage(context.Background(), groupMsg(requester, "hello"))
	if decision.Action != ActionIgnored {
		t.Fatalf("decision = %+v, want ignored", decision)
	}
	if len(f.sender.sent) != 0 {
		t.Error("group greeting produced a reply")
	}
}

func TestFullWizardFlowCreatesTicket(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.router.HandleMessage(ctx, privateMsg(requester, "/start"))
	f.router.HandleMessage(ctx, privateMsg(requester, "1"))
	f.router.HandleMessage(ctx, privateMsg(requester, "205"))
	decision := f.router.HandleMessage(ctx, privateMsg(requester, "3"))

	if decision.Action != ActionHandled || decision.Reason != "wizard-complete" {
		t.Fatalf("decision = %+v, want handled/wizard-complete", decision)
	}
	if !strings.Contains(f.sender.last(), "ticket #1") {
		t.Errorf("confirmation = %q, want ticket #1", f.sender.last())
	}

	ticket, ok := f.tickets.tickets[1]
	if !ok {
		t.Fatal("ticket not persisted")
	}
	if ticket.RequesterIdentity != "79161234567" || ticket.Corpus != "1" || ticket.Room != "205" {
		t.Errorf("ticket = %+v", ticket)
	}
	if _, active := f.wizards.Get("79161234567"); active {
		t.Error("wizard state not cleared after completion")
	}
}

func TestInvalidRoomReprompts(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.router.HandleMessage(ctx, privateMsg(requester, "/start"))
	f.router.HandleMessage(ctx, privateMsg(requester, "1"))
	decision := f.router.HandleMessage(ctx, privateMsg(requester, "1400"))

	if decision.Reason != "wizard-step" {
		t.Fatalf("decision = %+v, want wizard-step", decision)
	}
	if !strings.Contains(f.sender.last(), "101-543") {
		t.Errorf("re-prompt = %q, want the building 1 range", f.sender.last())
	}
	state, _ := f.wizards.Get("79161234567")
	if state.Step != conversation.AwaitRoom {
		t.Errorf("step = %v, want AwaitRoom", state.Step)
	}
}

func TestRepeatedStartResumesWizard(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.router.HandleMessage(ctx, privateMsg(requester, "/start"))
	f.router.HandleMessage(ctx, privateMsg(requester, "1"))
	decision := f.router.HandleMessage(ctx, privateMsg(requester, "/start"))

	if decision.Reason != "wizard-resume" {
		t.Fatalf("decision = %+v, want wizard-resume", decision)
	}
	state, active := f.wizards.Get("79161234567")
	if !active || state.Step != conversation.AwaitRoom || state.Corpus != "1" {
		t.Errorf("state after repeated /start = %+v", state)
	}
}

func TestRateLimitBlocksSecondWizard(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.router.HandleMessage(ctx, privateMsg(requester, "/start"))
	f.router.HandleMessage(ctx, privateMsg(requester, "1"))
	f.router.HandleMessage(ctx, privateMsg(requester, "205"))
	f.router.HandleMessage(ctx, privateMsg(requester, "3"))

	decision := f.router.HandleMessage(ctx, privateMsg(requester, "/start"))
	if decision.Reason != "rate-limited" {
		t.Fatalf("decision = %+v, want rate-limited", decision)
	}
	if !strings.Contains(f.sender.last(), "limit") {
		t.Errorf("reply = %q, want a limit explanation", f.sender.last())
	}
}

func TestStopCancelsWizard(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	decision := f.router.HandleMessage(ctx, privateMsg(requester, "/stop"))
	if decision.Reason != "/stop" {
		t.Fatalf("decision = %+v", decision)
	}
	if len(f.sender.sent) != 0 {
		t.Error("/stop with no wizard produced a reply")
	}

	f.router.HandleMessage(ctx, privateMsg(requester, "/start"))
	f.router.HandleMessage(ctx, privateMsg(requester, "/stop"))
	if f.sender.last() != replyCancelled {
		t.Errorf("reply = %q, want %q", f.sender.last(), replyCancelled)
	}
	if _, active := f.wizards.Get("79161234567"); active {
		t.Error("wizard survived /stop")
	}
}

func TestAdminCommandRequiresAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	decision := f.router.HandleMessage(ctx, privateMsg(requester, "/solved 1 fixed"))
	if decision.Action != ActionHandled {
		t.Fatalf("decision = %+v", decision)
	}
	if f.sender.last() != replyAdminRequired {
		t.Errorf("reply = %q, want %q", f.sender.last(), replyAdminRequired)
	}
}

func TestAdminCommandsBlockedInGroups(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.admins.members["79161234567"] = true

	decision := f.router.HandleMessage(ctx, groupMsg(requester, "/ban 79160000000"))
	if decision.Action != ActionDropped || decision.Reason != "group-blocked" {
		t.Fatalf("decision = %+v, want dropped/group-blocked", decision)
	}
	if len(f.sender.sent) != 0 {
		t.Error("group-blocked command produced a reply")
	}
}

func TestUnsolvedOnlyInGroup(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.admins.members["79161234567"] = true

	decision := f.router.HandleMessage(ctx, privateMsg(requester, "/unsolved 1"))
	if decision.Action != ActionIgnored {
		t.Fatalf("private /unsolved decision = %+v, want ignored", decision)
	}
}

func TestAllowlistedAdminCanSolve(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	admin := "79990001122@c.us"
	f.admins.members["79990001122"] = true

	f.router.HandleMessage(ctx, privateMsg(requester, "/start"))
	f.router.HandleMessage(ctx, privateMsg(requester, "1"))
	f.router.HandleMessage(ctx, privateMsg(requester, "205"))
	f.router.HandleMessage(ctx, privateMsg(requester, "3"))

	f.router.HandleMessage(ctx, privateMsg(admin, "/solved 1 replaced the valve"))
	if f.sender.last() != replySolved(1) {
		t.Fatalf("reply = %q, want %q", f.sender.last(), replySolved(1))
	}
	if f.tickets.tickets[1].Status != domain.TicketStatusSolved {
		t.Errorf("ticket status = %q", f.tickets.tickets[1].Status)
	}

	f.router.HandleMessage(ctx, privateMsg(admin, "/solved 1 again"))
	if !strings.Contains(f.sender.last(), "already solved") {
		t.Errorf("reply = %q, want an already-solved message", f.sender.last())
	}
}

func TestAssignBlockedByActiveTicket(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	admin := "79990001122@c.us"
	f.admins.members["79990001122"] = true

	for i := 0; i < 2; i++ {
		f.tickets.tickets[f.tickets.nextID] = &domain.Ticket{
			ID:                f.tickets.nextID,
			RequesterIdentity: "79161234567",
			Corpus:            "1",
			Room:              "205",
			Problem:           "No hot water",
			Status:            domain.TicketStatusOpen,
			CreatedAt:         time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		}
		f.tickets.nextID++
	}

	f.router.HandleMessage(ctx, privateMsg(admin, "/assign 1"))
	if f.sender.last() != replyAssigned(1) {
		t.Fatalf("reply = %q, want %q", f.sender.last(), replyAssigned(1))
	}

	f.router.HandleMessage(ctx, privateMsg(admin, "/assign 2"))
	if f.sender.last() != replyAssignBlocked(1) {
		t.Errorf("reply = %q, want %q", f.sender.last(), replyAssignBlocked(1))
	}
}

func TestSpamAutoBan(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	var decision Decision
	for i := 0; i < 11; i++ {
		decision = f.router.HandleMessage(ctx, privateMsg(requester, "flood"))
	}
	if decision.Action != ActionHandled || decision.Reason != "spam-ban" {
		t.Fatalf("11th decision = %+v, want handled/spam-ban", decision)
	}
	if _, banned := f.bans.banned["79161234567"]; !banned {
		t.Fatal("flooder not banned")
	}
	if f.sender.last() != replySpamWarning {
		t.Errorf("warning = %q, want %q", f.sender.last(), replySpamWarning)
	}
	warnings := len(f.sender.sent)

	decision = f.router.HandleMessage(ctx, privateMsg(requester, "flood"))
	if decision.Action != ActionDropped || decision.Reason != "banned" {
		t.Errorf("post-ban decision = %+v, want dropped/banned", decision)
	}
	if len(f.sender.sent) != warnings {
		t.Error("banned flooder received another reply")
	}
}

func TestSpamGateSkipsGroups(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	for i := 0; i < 30; i++ {
		f.router.HandleMessage(ctx, groupMsg(requester, "chatter"))
	}
	if _, banned := f.bans.banned["79161234567"]; banned {
		t.Error("group chatter triggered the spam ban")
	}
}

func TestMediaTooLarge(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	msg := privateMsg(requester, "")
	msg.HasMedia = true
	msg.MediaBytes = 4096
	decision := f.router.HandleMessage(ctx, msg)
	if decision.Reason != "media-too-large" {
		t.Fatalf("decision = %+v, want media-too-large", decision)
	}
	if f.sender.last() != replyMediaTooLarge {
		t.Errorf("reply = %q, want %q", f.sender.last(), replyMediaTooLarge)
	}
}

func TestLoginInterceptsReplies(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.router.HandleMessage(ctx, privateMsg(requester, "/login"))
	if f.sender.last() != replyLoginUsername {
		t.Fatalf("reply = %q, want %q", f.sender.last(), replyLoginUsername)
	}

	// A command sent mid-login is consumed as credential input, never
	// dispatched.
	decision := f.router.HandleMessage(ctx, privateMsg(requester, "/solved 1 x"))
	if decision.Reason != "login-password-prompt" {
		t.Fatalf("decision = %+v, want login-password-prompt", decision)
	}

	f.router.HandleMessage(ctx, privateMsg(requester, "wrong"))
	if f.sender.last() != replyLoginFailed {
		t.Errorf("reply = %q, want %q", f.sender.last(), replyLoginFailed)
	}

	f.router.HandleMessage(ctx, privateMsg(requester, "/login"))
	f.router.HandleMessage(ctx, privateMsg(requester, "root"))
	decision = f.router.HandleMessage(ctx, privateMsg(requester, "hunter2"))
	if decision.Reason != "login-success" {
		t.Fatalf("decision = %+v, want login-success", decision)
	}
	if f.sender.last() != replyLoginOK {
		t.Errorf("reply = %q, want %q", f.sender.last(), replyLoginOK)
	}
}

func TestStopAbortsLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.router.HandleMessage(ctx, privateMsg(requester, "/login"))
	decision := f.router.HandleMessage(ctx, privateMsg(requester, "/stop"))
	if decision.Reason != "login-abort" {
		t.Fatalf("decision = %+v, want login-abort", decision)
	}
	if f.sender.last() != replyCancelled {
		t.Errorf("reply = %q, want %q", f.sender.last(), replyCancelled)
	}

	// The next message is no longer consumed as credential input.
	decision = f.router.HandleMessage(ctx, privateMsg(requester, "what is this bot"))
	if decision.Action != ActionIgnored {
		t.Errorf("post-abort decision = %+v, want ignored", decision)
	}
}

func TestRepeatedLoginFailuresBanSilently(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	var decision Decision
	for attempt := 0; attempt < 3; attempt++ {
		f.router.HandleMessage(ctx, privateMsg(requester, "/login"))
		f.router.HandleMessage(ctx, privateMsg(requester, "root"))
		decision = f.router.HandleMessage(ctx, privateMsg(requester, "wrong"))
	}

	if decision.Action != ActionDropped || decision.Reason != "login-banned" {
		t.Fatalf("final decision = %+v, want dropped/login-banned", decision)
	}
	if _, banned := f.bans.banned["79161234567"]; !banned {
		t.Fatal("identity not banned after three failed logins")
	}
	// The banning attempt itself gets no reply; the last outbound text is
	// still the password prompt.
	if f.sender.last() != replyLoginPassword {
		t.Errorf("last reply = %q, want %q", f.sender.last(), replyLoginPassword)
	}
}

func TestBanCommandAbandonsWizard(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	admin := "79990001122@c.us"
	f.admins.members["79990001122"] = true

	f.router.HandleMessage(ctx, privateMsg(requester, "/start"))
	f.router.HandleMessage(ctx, privateMsg(admin, "/ban +7(916)123-45-67"))

	if f.sender.last() != replyBanned("79161234567", true) {
		t.Fatalf("reply = %q", f.sender.last())
	}
	if _, active := f.wizards.Get("79161234567"); active {
		t.Error("banned requester still has a wizard")
	}

	decision := f.router.HandleMessage(ctx, privateMsg(requester, "1"))
	if decision.Action != ActionDropped || decision.Reason != "banned" {
		t.Errorf("banned requester decision = %+v, want dropped/banned", decision)
	}
}

func TestUnbanRestoresService(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	admin := "79990001122@c.us"
	f.admins.members["79990001122"] = true
	f.bans.banned["79161234567"] = "spam volume"

	f.router.HandleMessage(ctx, privateMsg(admin, "/unban 79161234567"))
	if f.sender.last() != replyUnbanned("79161234567", true) {
		t.Fatalf("reply = %q", f.sender.last())
	}

	decision := f.router.HandleMessage(ctx, privateMsg(requester, "hello"))
	if decision.Reason != "wizard-start" {
		t.Errorf("decision after unban = %+v, want wizard-start", decision)
	}
}

func TestEmptyBodyDropped(t *testing.T) {
	f := newFixture()
	decision := f.router.HandleMessage(context.Background(), privateMsg(requester, "   "))
	if decision.Action != ActionDropped || decision.Reason != "empty" {
		t.Fatalf("decision = %+v, want dropped/empty", decision)
	}
}

func TestUnrecognizedMessageIgnored(t *testing.T) {
	f := newFixture()
	decision := f.router.HandleMessage(context.Background(), privateMsg(requester, "what is this bot"))
	if decision.Action != ActionIgnored {
		t.Fatalf("decision = %+v, want ignored", decision)
	}
	if len(f.sender.sent) != 0 {
		t.Error("unrecognized message produced a reply")
	}
}
