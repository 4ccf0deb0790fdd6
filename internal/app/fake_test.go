package app

import (
	"encoding/json"
	"sync"

	"github.com/dkeye/huddle/internal/core"
	"github.com/dkeye/huddle/internal/domain"
)

type fakeSignal struct {
	mu     sync.Mutex
	frames []core.Frame
	err    error
	closed int
	onSend func()
}

func (f *fakeSignal) TrySend(fr core.Frame) error {
	if f.onSend != nil {
		f.onSend()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed > 0 {
		return core.ErrConnectionClosed
	}
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeSignal) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
}

func (f *fakeSignal) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeSignal) closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeSignal) last(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return json.Unmarshal(f.frames[len(f.frames)-1], v)
}

func user(id string) *domain.User {
	return &domain.User{ID: domain.UserID(id), Username: id}
}

// join registers a fresh connection for id in (room, channel).
func join(reg *Registry, id string, room domain.RoomID, channel domain.ChannelID) (core.ConnectionID, *fakeSignal) {
	sig := &fakeSignal{}
	cid, err := reg.Register(user(id), sig)
	if err != nil {
		panic(err)
	}
	reg.SetMembership(cid, room, channel)
	return cid, sig
}
