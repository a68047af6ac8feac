package hub

import (
	"sync"
)

// LocalPubSub tracks which sessions listen on which channel when running without redis.
type LocalPubSub struct {
	mutex    sync.RWMutex
	channels map[string]map[int64]struct{}
}

func NewLocalPubSub() *LocalPubSub {
	return &LocalPubSub{channels: make(map[string]map[int64]struct{})}
}

// must be called with the mutex held
func (ps *LocalPubSub) remove(channel string, sessionID int64) {
	sessions, ok := ps.channels[channel]
	if !ok {
		return
	}

	delete(sessions, sessionID)
	if len(sessions) == 0 {
		delete(ps.channels, channel)
	}
}

func (ps *LocalPubSub) Unsubscribe(channel string, sessionID int64) {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	ps.remove(channel, sessionID)
}

func (ps *LocalPubSub) UnsubscribeFromAll(sessionID int64) {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	for channel := range ps.channels {
		ps.remove(channel, sessionID)
	}
}

func (ps *LocalPubSub) Subscribe(channel string, sessionID int64) {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	sessions, ok := ps.channels[channel]
	if !ok {
		sessions = make(map[int64]struct{})
		ps.channels[channel] = sessions
	}
	sessions[sessionID] = struct{}{}
}

// Subscribers returns a snapshot, safe to range over while others subscribe.
func (ps *LocalPubSub) Subscribers(channel string) []int64 {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()

	sessionIDs := make([]int64, 0, len(ps.channels[channel]))
	for sessionID := range ps.channels[channel] {
		sessionIDs = append(sessionIDs, sessionID)
	}
	return sessionIDs
}
