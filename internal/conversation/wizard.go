package conversation

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/support-bot/internal/domain"
)

// Step enumerates the wizard states.
type Step int

const (
	AwaitCorpus Step = iota
	AwaitRoom
	AwaitProblemChoice
	AwaitCustomProblem
)

// MaxFailures is the number of processing failures tolerated inside one
// conversation before the wizard gives up.
const MaxFailures = 3

const (
	customProblemMinLen = 1
	customProblemMaxLen = 100
)

// State is the transient per-identity wizard state.
type State struct {
	Step        Step
	Corpus      string
	Room        string
	Problem     string
	DisplayName string
	StartedAt   time.Time
	Failures    int
}

// Result is the effect of feeding one reply into the wizard.
type Result struct {
	// Reply is the next prompt, or the re-prompt explaining a rejection.
	Reply string
	// Completed is true when the state now carries a full ticket draft.
	Completed bool
}

// PromptCorpus is the opening prompt sent when a wizard starts.
func PromptCorpus() string {
	return "Which building are you in? Reply 1 or 2."
}

func promptRoom() string {
	return "What is your room number? E.g. 205 or 1203A."
}

func promptProblem() string {
	return "What is the problem? Reply with a number:\n" + CatalogText()
}

func promptCustomProblem() string {
	return fmt.Sprintf("Describe the problem in your own words (%d-%d characters).", customProblemMinLen, customProblemMaxLen)
}

// PromptFor returns the prompt for the step a wizard is currently waiting
// on, used when a sender restarts an existing wizard.
func PromptFor(step Step) string {
	switch step {
	case AwaitRoom:
		return promptRoom()
	case AwaitProblemChoice:
		return promptProblem()
	case AwaitCustomProblem:
		return promptCustomProblem()
	default:
		return PromptCorpus()
	}
}

// Advance feeds one reply into the wizard. It is pure: persistence and
// notifications happen in the caller once Completed is set.
func Advance(state State, input string) (State, Result) {
	input = strings.TrimSpace(input)

	switch state.Step {
	case AwaitCorpus:
		if input != "1" && input != "2" {
			return state, Result{Reply: "Please reply 1 or 2 to choose your building."}
		}
		state.Corpus = input
		state.Step = AwaitRoom
		return state, Result{Reply: promptRoom()}

	case AwaitRoom:
		room, ok, msg := ValidateRoom(state.Corpus, input)
		if !ok {
			return state, Result{Reply: msg}
		}
		state.Room = room
		state.Step = AwaitProblemChoice
		return state, Result{Reply: promptProblem()}

	case AwaitProblemChoice:
		key, err := strconv.Atoi(input)
		if err != nil {
			return state, Result{Reply: "Please reply with the number of a problem from the list."}
		}
		label, ok := CatalogLabel(key)
		if !ok {
			return state, Result{Reply: fmt.Sprintf("Please choose a number between 1 and %d.", len(ProblemCatalog))}
		}
		if key == CustomProblemKey {
			state.Step = AwaitCustomProblem
			return state, Result{Reply: promptCustomProblem()}
		}
		state.Problem = label
		return state, Result{Completed: true}

	case AwaitCustomProblem:
		if len(input) < customProblemMinLen || len(input) > customProblemMaxLen {
			return state, Result{Reply: promptCustomProblem()}
		}
		state.Problem = input
		return state, Result{Completed: true}

	default:
		return state, Result{Reply: PromptCorpus()}
	}
}

// Store keeps at most one wizard State per identity.
type Store struct {
	mu     sync.Mutex
	states map[domain.Identity]State
	now    func() time.Time
}

// NewStore creates an empty wizard store.
func NewStore() *Store {
	return &Store{states: make(map[domain.Identity]State), now: time.Now}
}

// WithClock overrides the time source, for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Start creates a wizard for identity unless one already exists; the
// existing one keeps going so a repeated start never forks a duplicate.
// Returns true when a new wizard was created.
func (s *Store) Start(identity domain.Identity, displayName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.states[identity]; exists {
		return false
	}
	s.states[identity] = State{
		Step:        AwaitCorpus,
		DisplayName: displayName,
		StartedAt:   s.now(),
	}
	return true
}

// Get returns the wizard state for identity, if any.
func (s *Store) Get(identity domain.Identity) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[identity]
	return state, ok
}

// Put replaces the wizard state for identity.
func (s *Store) Put(identity domain.Identity, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[identity] = state
}

// Delete discards the wizard state for identity; returns false when none
// existed.
func (s *Store) Delete(identity domain.Identity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.states[identity]; !ok {
		return false
	}
	delete(s.states, identity)
	return true
}

// RecordFailure bumps the failure counter and reports whether the wizard
// should terminate.
func (s *Store) RecordFailure(identity domain.Identity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[identity]
	if !ok {
		return false
	}
	state.Failures++
	if state.Failures > MaxFailures {
		delete(s.states, identity)
		return true
	}
	s.states[identity] = state
	return false
}
