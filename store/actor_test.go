package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389-research/swarmkernel/core"
)

func TestConcurrentRetryIncrementsAreSerializedPerSwarm(t *testing.T) {
	s := openTestStore(t)
	task := core.Task{ID: core.NewULID()}
	swarmID, err := s.CreateSwarm(sampleScope(), nil, []core.Task{task})
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			// Each writer tries once; some will fail once the retry budget
			// is exhausted, which is fine — we're asserting no corruption,
			// not that all of them succeed.
			_, _ = s.IncrementRetry(swarmID, task.ID)
		}()
	}
	wg.Wait()

	_, _, tasks, err := s.GetSwarm(swarmID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.LessOrEqual(t, tasks[0].RetryCount, writers)
	assert.GreaterOrEqual(t, tasks[0].RetryCount, 0)
}

func TestActorRegistryLazilyCreatesOnePerSwarm(t *testing.T) {
	s := openTestStore(t)
	swarmA, err := s.CreateSwarm(sampleScope(), nil, nil)
	require.NoError(t, err)
	swarmB, err := s.CreateSwarm(sampleScope(), nil, nil)
	require.NoError(t, err)

	actorA := s.actors.forSwarm(swarmA.String())
	actorA2 := s.actors.forSwarm(swarmA.String())
	actorB := s.actors.forSwarm(swarmB.String())

	assert.Same(t, actorA, actorA2, "same swarm ID should reuse its actor")
	assert.NotSame(t, actorA, actorB, "distinct swarms should get distinct actors")
}
