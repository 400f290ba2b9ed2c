package auth

// LoginStep enumerates the two-step login progression.
type LoginStep int

const (
	LoginAwaitingUsername LoginStep = iota
	LoginAwaitingPassword
)

// LoginState is the transient per-identity login machine state.
type LoginState struct {
	Step     LoginStep
	Username string
}

// LoginOutcome is the effect of feeding one reply into the machine.
type LoginOutcome int

const (
	// LoginContinue means the machine consumed the reply and wants more input.
	LoginContinue LoginOutcome = iota
	// LoginSucceeded means the credential pair matched.
	LoginSucceeded
	// LoginFailed means the credential pair did not match; state is discarded.
	LoginFailed
)

// AdvanceLogin feeds one reply into the login machine. It is pure: the
// caller owns session creation, failure counting and banning.
func AdvanceLogin(state LoginState, input string, verify func(username, password string) bool) (LoginState, LoginOutcome) {
	switch state.Step {
	case LoginAwaitingUsername:
		return LoginState{Step: LoginAwaitingPassword, Username: input}, LoginContinue
	case LoginAwaitingPassword:
		if verify(state.Username, input) {
			return LoginState{}, LoginSucceeded
		}
		return LoginState{}, LoginFailed
	default:
		return LoginState{}, LoginFailed
	}
}
