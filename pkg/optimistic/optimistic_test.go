package optimistic

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type counters struct {
	Likes    int
	UserVote string
}

func reviewKey(id string) Key {
	return Key{Resource: "review", ID: id}
}

func TestGetUnknownKey(t *testing.T) {
	r := NewReconciler()

	_, ok := r.Get(reviewKey("missing"))

	assert.False(t, ok)
}

func TestObserveReplacesLocalState(t *testing.T) {
	r := NewReconciler()
	key := reviewKey("r1")

	r.Observe(key, counters{Likes: 3})
	r.Observe(key, counters{Likes: 7, UserVote: "like"})

	got, ok := r.Get(key)
	assert.True(t, ok)
	assert.Equal(t, counters{Likes: 7, UserVote: "like"}, got)
}

func TestMutateCommitsServerState(t *testing.T) {
	r := NewReconciler()
	key := reviewKey("r1")
	r.Observe(key, counters{Likes: 3})

	got, err := r.Mutate(key,
		func(prev interface{}) interface{} {
			c := prev.(counters)
			c.Likes++
			c.UserVote = "like"
			return c
		},
		func() (interface{}, error) {
			// The server may disagree with the guess; its answer wins.
			return counters{Likes: 5, UserVote: "like"}, nil
		},
	)

	assert.NoError(t, err)
	assert.Equal(t, counters{Likes: 5, UserVote: "like"}, got)

	state, _ := r.Get(key)
	assert.Equal(t, counters{Likes: 5, UserVote: "like"}, state)
}

func TestMutateAppliesGuessBeforeSend(t *testing.T) {
	r := NewReconciler()
	key := reviewKey("r1")
	r.Observe(key, counters{Likes: 3})

	var seen interface{}
	_, err := r.Mutate(key,
		func(prev interface{}) interface{} {
			c := prev.(counters)
			c.Likes++
			return c
		},
		func() (interface{}, error) {
			seen, _ = r.Get(key)
			return counters{Likes: 4}, nil
		},
	)

	assert.NoError(t, err)
	assert.Equal(t, counters{Likes: 4}, seen)
}

func TestMutateRollsBackOnError(t *testing.T) {
	r := NewReconciler()
	key := reviewKey("r1")
	r.Observe(key, counters{Likes: 3, UserVote: ""})

	sendErr := errors.New("network down")
	got, err := r.Mutate(key,
		func(prev interface{}) interface{} {
			c := prev.(counters)
			c.Likes++
			c.UserVote = "like"
			return c
		},
		func() (interface{}, error) {
			return nil, sendErr
		},
	)

	assert.ErrorIs(t, err, sendErr)
	assert.Equal(t, counters{Likes: 3, UserVote: ""}, got)

	state, _ := r.Get(key)
	assert.Equal(t, counters{Likes: 3, UserVote: ""}, state)
}

func TestMutateSerializesSameKey(t *testing.T) {
	r := NewReconciler()
	key := reviewKey("r1")
	r.Observe(key, counters{})

	var mu sync.Mutex
	active := 0
	maxActive := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Mutate(key,
				func(prev interface{}) interface{} { return prev },
				func() (interface{}, error) {
					mu.Lock()
					active++
					if active > maxActive {
						maxActive = active
					}
					mu.Unlock()

					time.Sleep(2 * time.Millisecond)

					mu.Lock()
					active--
					mu.Unlock()
					return counters{}, nil
				},
			)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive)
}

func TestMutateDifferentKeysRunConcurrently(t *testing.T) {
	r := NewReconciler()
	started := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_, _ = r.Mutate(reviewKey("slow"),
			func(prev interface{}) interface{} { return prev },
			func() (interface{}, error) {
				close(started)
				<-release
				return counters{}, nil
			},
		)
	}()

	<-started
	done := make(chan struct{})
	go func() {
		_, err := r.Mutate(reviewKey("fast"),
			func(prev interface{}) interface{} { return prev },
			func() (interface{}, error) { return counters{Likes: 1}, nil },
		)
		assert.NoError(t, err)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("mutation on an unrelated key was blocked")
	}
	close(release)
}

func TestRapidToggleConverges(t *testing.T) {
	r := NewReconciler()
	key := reviewKey("r1")
	r.Observe(key, counters{Likes: 10})

	// Server-side toggle semantics for a like button.
	server := counters{Likes: 10}
	var serverMu sync.Mutex
	toggle := func() (interface{}, error) {
		serverMu.Lock()
		defer serverMu.Unlock()
		if server.UserVote == "like" {
			server.Likes--
			server.UserVote = ""
		} else {
			server.Likes++
			server.UserVote = "like"
		}
		return server, nil
	}

	guess := func(prev interface{}) interface{} {
		c := prev.(counters)
		if c.UserVote == "like" {
			c.Likes--
			c.UserVote = ""
		} else {
			c.Likes++
			c.UserVote = "like"
		}
		return c
	}

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Mutate(key, guess, toggle)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// An even number of toggles lands back on the initial state, and the
	// local copy matches the server exactly.
	state, _ := r.Get(key)
	assert.Equal(t, counters{Likes: 10, UserVote: ""}, state)
	assert.Equal(t, server, state)
}
