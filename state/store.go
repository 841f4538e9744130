package state

import "sync"

type Store struct {
	mu   sync.Mutex
	cur  State
	subs []chan State
}

func NewStore() *Store {
	return &Store{}
}

// Dispatch applies ev and publishes the resulting snapshot.
func (st *Store) Dispatch(ev Event) State {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.cur = Apply(st.cur, ev)
	for _, ch := range st.subs {
		publish(ch, st.cur)
	}
	return st.cur
}

func (st *Store) Snapshot() State {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.cur
}

// Subscribe returns a channel that always holds the newest snapshot.
// Intermediate snapshots are dropped when the reader falls behind.
func (st *Store) Subscribe() <-chan State {
	ch := make(chan State, 1)
	st.mu.Lock()
	st.subs = append(st.subs, ch)
	ch <- st.cur
	st.mu.Unlock()
	return ch
}

func publish(ch chan State, s State) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
