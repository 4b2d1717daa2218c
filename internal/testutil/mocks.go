package testutil

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/udisondev/navrunner/internal/model"
)

// FakeGame is an in-memory game state for unit tests.
// Safe for concurrent use so deferred probes can read it.
type FakeGame struct {
	mu           sync.RWMutex
	position     model.Vec3
	hasPlayer    bool
	conditionsOK bool
	flags        map[model.ConditionFlag]bool
	territory    model.TerritoryID
	mountAllowed map[model.TerritoryID]bool
}

// NewFakeGame creates a loaded avatar at the origin with conditions available.
func NewFakeGame() *FakeGame {
	return &FakeGame{
		hasPlayer:    true,
		conditionsOK: true,
		flags:        make(map[model.ConditionFlag]bool),
		mountAllowed: make(map[model.TerritoryID]bool),
	}
}

// PlayerPosition returns the avatar position.
func (g *FakeGame) PlayerPosition() (model.Vec3, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.position, g.hasPlayer
}

// ConditionsAvailable reports whether conditions are readable.
func (g *FakeGame) ConditionsAvailable() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.conditionsOK
}

// Condition returns a flag.
func (g *FakeGame) Condition(flag model.ConditionFlag) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.flags[flag]
}

// TerritoryID returns the current territory.
func (g *FakeGame) TerritoryID() model.TerritoryID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.territory
}

// TerritoryAllowsMount reports the configured mount permission.
func (g *FakeGame) TerritoryAllowsMount(id model.TerritoryID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.mountAllowed[id]
}

// SetPosition moves the avatar.
func (g *FakeGame) SetPosition(pos model.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.position = pos
}

// SetPlayerLoaded toggles avatar presence.
func (g *FakeGame) SetPlayerLoaded(loaded bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hasPlayer = loaded
}

// SetConditionsAvailable toggles the condition snapshot.
func (g *FakeGame) SetConditionsAvailable(ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.conditionsOK = ok
}

// SetCondition sets a flag.
func (g *FakeGame) SetCondition(flag model.ConditionFlag, on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.flags[flag] = on
}

// SetTerritory changes the current territory and its mount permission.
func (g *FakeGame) SetTerritory(id model.TerritoryID, mountAllowed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.territory = id
	g.mountAllowed[id] = mountAllowed
}

// FakeActuator records every desired position it receives.
type FakeActuator struct {
	mu        sync.Mutex
	desired   *model.Vec3
	history   []*model.Vec3
	precision float32
}

// NewFakeActuator creates an idle actuator.
func NewFakeActuator() *FakeActuator {
	return &FakeActuator{}
}

// SetDesiredPosition records the new target.
func (a *FakeActuator) SetDesiredPosition(pos *model.Vec3) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if pos != nil {
		v := *pos
		pos = &v
	}
	a.desired = pos
	a.history = append(a.history, pos)
}

// SetPrecision records the steering precision.
func (a *FakeActuator) SetPrecision(precision float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.precision = precision
}

// Desired returns the current target.
func (a *FakeActuator) Desired() (model.Vec3, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.desired == nil {
		return model.Vec3{}, false
	}
	return *a.desired, true
}

// Precision returns the last precision set.
func (a *FakeActuator) Precision() float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.precision
}

// Updates returns how many times the target was set or cleared.
func (a *FakeActuator) Updates() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.history)
}

// FakeIdle counts timer resets.
type FakeIdle struct {
	resets atomic.Int32
}

// ResetTimers counts a reset.
func (i *FakeIdle) ResetTimers() {
	i.resets.Add(1)
}

// Resets returns the number of resets.
func (i *FakeIdle) Resets() int {
	return int(i.resets.Load())
}

// RecordingExecutor records action usage. Every action is ready unless marked unavailable.
// OnUse runs after an accepted action, letting tests mutate game state (e.g. set Mounted).
type RecordingExecutor struct {
	mu          sync.Mutex
	unavailable map[model.ActionRef]bool
	used        []model.ActionRef
	OnUse       func(action model.ActionRef)
}

// NewRecordingExecutor creates an executor with every action ready.
func NewRecordingExecutor() *RecordingExecutor {
	return &RecordingExecutor{unavailable: make(map[model.ActionRef]bool)}
}

// SetUnavailable makes an action fail its readiness check.
func (e *RecordingExecutor) SetUnavailable(action model.ActionRef, unavailable bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.unavailable[action] = unavailable
}

// ActionReady reports readiness.
func (e *RecordingExecutor) ActionReady(kind model.ActionType, id uint32) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.unavailable[model.ActionRef{Type: kind, ID: id}]
}

// UseAction records the action and runs OnUse.
func (e *RecordingExecutor) UseAction(kind model.ActionType, id uint32) bool {
	action := model.ActionRef{Type: kind, ID: id}

	e.mu.Lock()
	if e.unavailable[action] {
		e.mu.Unlock()
		return false
	}
	e.used = append(e.used, action)
	onUse := e.OnUse
	e.mu.Unlock()

	if onUse != nil {
		onUse(action)
	}
	return true
}

// Used returns the accepted actions in order.
func (e *RecordingExecutor) Used() []model.ActionRef {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.ActionRef, len(e.used))
	copy(out, e.used)
	return out
}

// Count returns how many times action was accepted.
func (e *RecordingExecutor) Count(action model.ActionRef) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, a := range e.used {
		if a == action {
			n++
		}
	}
	return n
}

// ManualScheduler queues deferred tasks until the test runs them.
type ManualScheduler struct {
	mu    sync.Mutex
	tasks []ScheduledTask
}

// ScheduledTask is a pending deferred call.
type ScheduledTask struct {
	Delay time.Duration
	Run   func()
}

// AfterFunc queues f.
func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, ScheduledTask{Delay: d, Run: f})
}

// Pending returns the number of queued tasks.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Delays returns the delay of every queued task.
func (s *ManualScheduler) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, 0, len(s.tasks))
	for _, task := range s.tasks {
		out = append(out, task.Delay)
	}
	return out
}

// RunAll runs and drops every queued task in scheduling order.
func (s *ManualScheduler) RunAll() int {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()

	for _, task := range tasks {
		task.Run()
	}
	return len(tasks)
}
