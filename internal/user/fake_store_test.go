package user

import (
	"context"
	"errors"
	"sync"

	"github.com/nao1215/identity/pkg/event"
)

// errStoreDown はテスト用のストア障害。
var errStoreDown = errors.New("store down")

// fakeStore はテスト用のインメモリStore。
type fakeStore struct {
	mu    sync.Mutex
	users map[string]*User
	// getErr はGetByUsernameが返すエラー。
	getErr error
	// createErr はCreateが返すエラー。
	createErr error
	// updateErr はUpdateProfileが返すエラー。
	updateErr error
	// dropID はCreateがIDを落として返すかどうか。
	dropID bool
	// lastUpdate はUpdateProfileに渡された値。
	lastUpdate ProfileUpdate
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]*User)}
}

func (f *fakeStore) Create(_ context.Context, u *User) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.users[u.Username]; ok {
		return nil, ErrDuplicate
	}
	stored := *u
	f.users[u.Username] = &stored

	created := stored
	if f.dropID {
		created.ID = ""
	}
	return &created, nil
}

func (f *fakeStore) GetByUsername(_ context.Context, username string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	found := *u
	return &found, nil
}

func (f *fakeStore) UpdateProfile(_ context.Context, username string, update ProfileUpdate) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastUpdate = update
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	u, ok := f.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	if update.Nickname != nil {
		u.Nickname = update.Nickname
	}
	if update.Email != nil {
		u.Email = update.Email
	}
	if update.AvatarURL != nil {
		u.AvatarURL = update.AvatarURL
	}
	u.UpdatedAt = update.UpdatedAt
	updated := *u
	return &updated, nil
}

// put はユーザーを直接ストアに入れる。
func (f *fakeStore) put(u *User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.Username] = u
}

// recordingPublisher は送出されたイベントを記録するPublisher。
type recordingPublisher struct {
	mu     sync.Mutex
	events []*event.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e *event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []event.Type {
	p.mu.Lock()
	defer p.mu.Unlock()

	types := make([]event.Type, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

func (p *recordingPublisher) last() *event.Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}
