// Package session holds the signed-in user of a client. State changes go
// through Reduce so every transition is a plain value the caller can test.
package session

import (
	"context"
	"errors"
	"sync"

	"estate-market/internal/domain"
)

var ErrRequestInFlight = errors.New("session: another request is in flight")

type Op string

const (
	OpSignIn     Op = "signIn"
	OpSignOut    Op = "signOut"
	OpUpdateUser Op = "updateUser"
	OpDeleteUser Op = "deleteUser"
	// OpRestore adopts a user remembered from an earlier run without a
	// request; it only ever succeeds.
	OpRestore Op = "restore"
)

type Phase int

const (
	Started Phase = iota
	Succeeded
	Failed
)

type Action struct {
	Op    Op
	Phase Phase
	User  *domain.User // set on signIn/updateUser/restore success
	Err   error        // set on failure
}

// State is anonymous when User is nil. Pending names the request in flight.
type State struct {
	User    *domain.User
	Pending Op
	Err     error
}

func (s State) Authenticated() bool { return s.User != nil }
func (s State) Loading() bool       { return s.Pending != "" }

// Reduce returns the state after a. A failure leaves the user as it was.
func Reduce(s State, a Action) State {
	switch a.Phase {
	case Started:
		s.Pending = a.Op
		s.Err = nil
	case Succeeded:
		s.Pending = ""
		s.Err = nil
		switch a.Op {
		case OpSignIn, OpUpdateUser, OpRestore:
			s.User = cloneUser(a.User)
		case OpSignOut, OpDeleteUser:
			s.User = nil
		}
	case Failed:
		s.Pending = ""
		s.Err = a.Err
	}
	return s
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// AuthAPI performs the session-affecting calls against the backend.
type AuthAPI interface {
	SignIn(ctx context.Context, email, password string) (*domain.User, error)
	SignOut(ctx context.Context) error
	UpdateUser(ctx context.Context, id string, p domain.UserPatch) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// Store serializes session mutations: a second one started while the first
// is outstanding fails with ErrRequestInFlight instead of queueing.
type Store struct {
	api AuthAPI

	mu    sync.Mutex
	state State
	subs  []func(State)
}

func NewStore(api AuthAPI) *Store { return &Store{api: api} }

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.User = cloneUser(st.User)
	return st
}

// Subscribe registers fn to receive every new state. fn runs with the store
// locked and must not call back into it.
func (s *Store) Subscribe(fn func(State)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

func (s *Store) dispatchLocked(a Action) {
	s.state = Reduce(s.state, a)
	for _, fn := range s.subs {
		fn(s.state)
	}
}

// Restore starts the session as u, e.g. from a token saved by a previous
// process. A nil u leaves the store anonymous.
func (s *Store) Restore(u *domain.User) error {
	if u == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Loading() {
		return ErrRequestInFlight
	}
	s.dispatchLocked(Action{Op: OpRestore, Phase: Succeeded, User: u})
	return nil
}

// begin marks op pending. needUser rejects anonymous sessions and returns
// the current user's id.
func (s *Store) begin(op Op, needUser bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Loading() {
		return "", ErrRequestInFlight
	}
	var id string
	if needUser {
		if !s.state.Authenticated() {
			return "", domain.ErrUnauthorized
		}
		id = s.state.User.ID
	}
	s.dispatchLocked(Action{Op: op, Phase: Started})
	return id, nil
}

func (s *Store) finish(op Op, u *domain.User, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.dispatchLocked(Action{Op: op, Phase: Failed, Err: err})
		return
	}
	s.dispatchLocked(Action{Op: op, Phase: Succeeded, User: u})
}

func (s *Store) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	if _, err := s.begin(OpSignIn, false); err != nil {
		return nil, err
	}
	u, err := s.api.SignIn(ctx, email, password)
	s.finish(OpSignIn, u, err)
	return u, err
}

func (s *Store) SignOut(ctx context.Context) error {
	if _, err := s.begin(OpSignOut, false); err != nil {
		return err
	}
	err := s.api.SignOut(ctx)
	s.finish(OpSignOut, nil, err)
	return err
}

func (s *Store) UpdateUser(ctx context.Context, p domain.UserPatch) (*domain.User, error) {
	id, err := s.begin(OpUpdateUser, true)
	if err != nil {
		return nil, err
	}
	u, err := s.api.UpdateUser(ctx, id, p)
	s.finish(OpUpdateUser, u, err)
	return u, err
}

func (s *Store) DeleteUser(ctx context.Context) error {
	id, err := s.begin(OpDeleteUser, true)
	if err != nil {
		return err
	}
	err = s.api.DeleteUser(ctx, id)
	s.finish(OpDeleteUser, nil, err)
	return err
}
