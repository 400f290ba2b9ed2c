package auth

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/support-bot/internal/domain"
	"github.com/spec-kit/support-bot/internal/repository"
)

// MaxLoginFailures is the number of consecutive failed password attempts
// after which the identity is banned.
const MaxLoginFailures = 3

// SubmitResult tells the router what a consumed login reply amounted to.
type SubmitResult int

const (
	SubmitPromptPassword SubmitResult = iota
	SubmitSuccess
	SubmitFailure
	SubmitBanned
)

// SessionManager owns transient login state and the set of authenticated
// sessions, and fronts the persistent admin allow-list. Sessions do not
// survive a restart; allow-list membership does.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[domain.Identity]struct{}
	logins   map[domain.Identity]LoginState

	creds  Credentials
	admins repository.AdminRepository
	bans   repository.BanRepository
	logger *zap.Logger
}

// NewSessionManager creates the manager.
func NewSessionManager(creds Credentials, admins repository.AdminRepository, bans repository.BanRepository, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		sessions: make(map[domain.Identity]struct{}),
		logins:   make(map[domain.Identity]LoginState),
		creds:    creds,
		admins:   admins,
		bans:     bans,
		logger:   logger,
	}
}

// LoginActive reports whether a login machine is mid-flight for identity.
func (m *SessionManager) LoginActive(identity domain.Identity) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, active := m.logins[identity]
	return active
}

// BeginLogin starts (or restarts) the login machine for identity.
func (m *SessionManager) BeginLogin(identity domain.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logins[identity] = LoginState{Step: LoginAwaitingUsername}
}

// Submit feeds one reply into the active login machine. The reply is fully
// consumed: a bare password must never leak into command dispatch or the
// ticket wizard.
func (m *SessionManager) Submit(ctx context.Context, identity domain.Identity, displayName, input string) (SubmitResult, error) {
	m.mu.Lock()
	state, active := m.logins[identity]
	if !active {
		m.mu.Unlock()
		return SubmitFailure, nil
	}
	next, outcome := AdvanceLogin(state, input, m.creds.Verify)
	if outcome == LoginContinue {
		m.logins[identity] = next
	} else {
		delete(m.logins, identity)
	}
	if outcome == LoginSucceeded {
		m.sessions[identity] = struct{}{}
	}
	m.mu.Unlock()

	switch outcome {
	case LoginContinue:
		return SubmitPromptPassword, nil
	case LoginSucceeded:
		if err := m.admins.ResetLoginFailures(ctx, identity); err != nil {
			m.logger.Warn("reset login failures", zap.String("identity", identity.String()), zap.Error(err))
		}
		if _, err := m.admins.Add(ctx, identity, displayName); err != nil {
			m.logger.Warn("enroll admin allow-list", zap.String("identity", identity.String()), zap.Error(err))
		}
		m.logger.Info("admin login succeeded", zap.String("identity", identity.String()))
		return SubmitSuccess, nil
	default:
		failures, err := m.admins.IncrementLoginFailures(ctx, identity)
		if err != nil {
			return SubmitFailure, err
		}
		if failures >= MaxLoginFailures {
			if _, err := m.bans.Add(ctx, identity, "repeated failed login"); err != nil {
				return SubmitFailure, err
			}
			if err := m.admins.ResetLoginFailures(ctx, identity); err != nil {
				m.logger.Warn("reset login failures after ban", zap.String("identity", identity.String()), zap.Error(err))
			}
			m.logger.Warn("identity banned after repeated failed logins", zap.String("identity", identity.String()))
			return SubmitBanned, nil
		}
		return SubmitFailure, nil
	}
}

// IsAuthorized reports whether identity holds a session or standing
// allow-list membership.
func (m *SessionManager) IsAuthorized(ctx context.Context, identity domain.Identity) (bool, error) {
	m.mu.Lock()
	_, ok := m.sessions[identity]
	m.mu.Unlock()
	if ok {
		return true, nil
	}
	return m.admins.IsAdmin(ctx, identity)
}

// Logout removes the transient session; returns false when none existed.
func (m *SessionManager) Logout(identity domain.Identity) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[identity]; !ok {
		return false
	}
	delete(m.sessions, identity)
	return true
}

// AbortLogin discards any in-flight login state for identity.
func (m *SessionManager) AbortLogin(identity domain.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.logins, identity)
}
