package core

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fireRecorder struct {
	lock  sync.Mutex
	fired []string
}

func (f *fireRecorder) fire(taskID string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.fired = append(f.fired, taskID)
}

func (f *fireRecorder) Fired() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string{}, f.fired...)
}

func testRegistry(start time.Time) (*Registry, *fakeClock, *fireRecorder) {
	clock := newFakeClock(start)
	rec := &fireRecorder{}
	return NewRegistry(clock, rec.fire), clock, rec
}

func TestRegistryFiresAtInstant(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	reg, clock, rec := testRegistry(start)

	reg.Arm("t1", start.Add(5*time.Second))
	assert.Equal(t, 1, reg.Len())

	clock.Advance(4 * time.Second)
	assert.Empty(t, rec.Fired())

	clock.Advance(time.Second)
	assert.Equal(t, []string{"t1"}, rec.Fired())
	assert.Equal(t, 0, reg.Len())
}

func TestRegistryPastDueFiresImmediately(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	reg, clock, rec := testRegistry(start)

	reg.Arm("t1", start.Add(-time.Hour))

	clock.Advance(0)
	assert.Equal(t, []string{"t1"}, rec.Fired())
}

func TestRegistryArmReplaces(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	reg, clock, rec := testRegistry(start)

	reg.Arm("t1", start.Add(5*time.Second))
	reg.Arm("t1", start.Add(10*time.Second))
	assert.Equal(t, 1, reg.Len())

	clock.Advance(5 * time.Second)
	assert.Empty(t, rec.Fired())

	clock.Advance(5 * time.Second)
	assert.Equal(t, []string{"t1"}, rec.Fired())
}

func TestRegistryDisarm(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	reg, clock, rec := testRegistry(start)

	reg.Arm("t1", start.Add(time.Second))
	assert.True(t, reg.Disarm("t1"))
	assert.False(t, reg.Disarm("t1"))

	clock.Advance(time.Minute)
	assert.Empty(t, rec.Fired())
	assert.Equal(t, 0, reg.Len())
}

func TestRegistryNextFire(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	reg, clock, _ := testRegistry(start)

	at := start.Add(time.Minute)
	reg.Arm("t1", at)

	got := reg.NextFire("t1")
	assert.NotNil(t, got)
	assert.Equal(t, at, *got)
	assert.Nil(t, reg.NextFire("t2"))

	clock.Advance(time.Minute)
	assert.Nil(t, reg.NextFire("t1"))
}

func TestRegistryShutdown(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	reg, clock, rec := testRegistry(start)

	reg.Arm("t1", start.Add(time.Second))
	reg.Arm("t2", start.Add(2*time.Second))
	reg.Shutdown()

	// arming after shutdown is ignored
	reg.Arm("t3", start.Add(time.Second))

	clock.Advance(time.Minute)
	assert.Empty(t, rec.Fired())
	assert.Equal(t, 0, reg.Len())
}
