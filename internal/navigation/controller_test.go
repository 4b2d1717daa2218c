package navigation

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/navrunner/internal/model"
	"github.com/udisondev/navrunner/internal/testutil"
)

const testTerritory model.TerritoryID = 132

var (
	mountAction    = DefaultActions().Mount
	dismountAction = DefaultActions().Dismount
	jumpAction     = DefaultActions().Jump
	sprintAction   = model.ActionRef{Type: model.ActionTypeAction, ID: model.ActionSprint}
)

type harness struct {
	game     *testutil.FakeGame
	actuator *testutil.FakeActuator
	idle     *testutil.FakeIdle
	exec     *testutil.RecordingExecutor
	sched    *testutil.ManualScheduler
	flight   *FlightCache
	ctrl     *Controller
}

// newHarness builds a following controller in a mountable territory, avatar at origin on foot.
func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()

	h := &harness{
		game:     testutil.NewFakeGame(),
		actuator: testutil.NewFakeActuator(),
		idle:     &testutil.FakeIdle{},
		exec:     testutil.NewRecordingExecutor(),
		sched:    &testutil.ManualScheduler{},
		flight:   NewFlightCache(),
	}
	h.game.SetTerritory(testTerritory, true)

	ctrl, err := NewController(Deps{
		Game:      h.game,
		Movement:  h.actuator,
		Idle:      h.idle,
		Executor:  h.exec,
		Flight:    h.flight,
		Scheduler: h.sched,
	}, opts)
	require.NoError(t, err)
	h.ctrl = ctrl
	return h
}

func followOptions() Options {
	opts := DefaultOptions()
	opts.RunAlongPoints = true
	return opts
}

// applyActions makes mount/dismount/jump change the fake game state.
func (h *harness) applyActions(jumpTakesOff bool) {
	h.exec.OnUse = func(action model.ActionRef) {
		switch {
		case action == dismountAction:
			h.game.SetCondition(model.ConditionMounted, false)
		case action == jumpAction:
			if jumpTakesOff {
				h.game.SetCondition(model.ConditionInFlight, true)
			}
		case action == mountAction || action.Type == model.ActionTypeMount:
			h.game.SetCondition(model.ConditionMounted, true)
		}
	}
}

func TestNewController_Validation(t *testing.T) {
	game := testutil.NewFakeGame()
	deps := Deps{
		Game:     game,
		Movement: testutil.NewFakeActuator(),
		Idle:     &testutil.FakeIdle{},
		Executor: testutil.NewRecordingExecutor(),
		Flight:   NewFlightCache(),
	}

	tests := []struct {
		name   string
		mutate func(d *Deps, o *Options)
	}{
		{name: "negative precision", mutate: func(_ *Deps, o *Options) { o.Precision = -1 }},
		{name: "NaN precision", mutate: func(_ *Deps, o *Options) { o.Precision = float32(math.NaN()) }},
		{name: "negative probe delay", mutate: func(_ *Deps, o *Options) { o.FlightProbeDelay = -1 }},
		{name: "missing flight store", mutate: func(d *Deps, _ *Options) { d.Flight = nil }},
		{name: "missing game", mutate: func(d *Deps, _ *Options) { d.Game = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, o := deps, DefaultOptions()
			tt.mutate(&d, &o)

			ctrl, err := NewController(d, o)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
			assert.Nil(t, ctrl)
		})
	}

	ctrl, err := NewController(deps, DefaultOptions())
	require.NoError(t, err)
	assert.False(t, ctrl.RunAlongPoints(), "following is off by default")
	assert.IsType(t, TimerScheduler{}, ctrl.scheduler)
}

func TestController_Precision(t *testing.T) {
	h := newHarness(t, followOptions())
	assert.Equal(t, float32(1), h.actuator.Precision(), "precision mirrored on construction")

	require.NoError(t, h.ctrl.SetArrivalPrecision(2.5))
	assert.Equal(t, float32(2.5), h.ctrl.ArrivalPrecision())
	assert.Equal(t, float32(2.5), h.actuator.Precision())

	err := h.ctrl.SetArrivalPrecision(-1)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	err = h.ctrl.SetArrivalPrecision(float32(math.NaN()))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	assert.Equal(t, float32(2.5), h.ctrl.ArrivalPrecision(), "rejected value must not apply")
	assert.Equal(t, float32(2.5), h.actuator.Precision())
}

func TestController_PreferredMountID(t *testing.T) {
	h := newHarness(t, followOptions())

	_, ok := h.ctrl.PreferredMountID()
	assert.False(t, ok)

	id := uint32(71)
	h.ctrl.SetPreferredMountID(&id)
	id = 5 // caller's variable must not alias

	got, ok := h.ctrl.PreferredMountID()
	require.True(t, ok)
	assert.Equal(t, uint32(71), got)

	h.ctrl.SetPreferredMountID(nil)
	_, ok = h.ctrl.PreferredMountID()
	assert.False(t, ok)
}

func TestController_QueueAPI(t *testing.T) {
	h := newHarness(t, followOptions())
	a, b := model.NewVec3(1, 2, 3), model.NewVec3(4, 5, 6)

	h.ctrl.Enqueue(a, b)
	assert.Equal(t, 2, h.ctrl.WaypointCount())
	assert.Equal(t, []model.Vec3{a, b}, slices.Collect(h.ctrl.Waypoints()))

	front, ok := h.ctrl.Peek()
	require.True(t, ok)
	assert.Equal(t, a, front)

	got, ok := h.ctrl.Dequeue()
	require.True(t, ok)
	assert.Equal(t, a, got)

	h.ctrl.ClearWaypoints()
	assert.Zero(t, h.ctrl.WaypointCount())
}

func TestController_Tick_NoAvatarOrConditions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(g *testutil.FakeGame)
	}{
		{name: "no avatar", setup: func(g *testutil.FakeGame) { g.SetPlayerLoaded(false) }},
		{name: "no conditions", setup: func(g *testutil.FakeGame) { g.SetConditionsAvailable(false) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, followOptions())
			tt.setup(h.game)
			h.ctrl.Enqueue(model.NewVec3(0, 0, 0), model.NewVec3(50, 0, 0))

			h.ctrl.Tick()

			assert.Equal(t, 2, h.ctrl.WaypointCount(), "queue untouched")
			_, ok := h.ctrl.DesiredPosition()
			assert.False(t, ok)
			assert.Empty(t, h.exec.Used())
			assert.Zero(t, h.idle.Resets())
		})
	}
}

func TestController_Tick_DrainsReachedWaypoints(t *testing.T) {
	h := newHarness(t, followOptions())
	for i := range 5 {
		h.ctrl.Enqueue(model.NewVec3(float32(i)*0.1, 0, 0))
	}

	h.ctrl.Tick()

	assert.Zero(t, h.ctrl.WaypointCount(), "all waypoints within precision drained in one tick")
	_, ok := h.ctrl.DesiredPosition()
	assert.False(t, ok)
	assert.Zero(t, h.actuator.Updates(), "movement never engaged")
	assert.Empty(t, h.exec.Used(), "no dismount when movement never engaged")
}

func TestController_Tick_DrainStopsAtFirstUnreached(t *testing.T) {
	h := newHarness(t, followOptions())
	far := model.NewVec3(30, 0, 0)
	h.ctrl.Enqueue(model.NewVec3(0.2, 0, 0), model.NewVec3(0, 0, 0.3), far, model.NewVec3(0, 0, 0))

	h.ctrl.Tick()

	assert.Equal(t, 2, h.ctrl.WaypointCount())
	desired, ok := h.ctrl.DesiredPosition()
	require.True(t, ok)
	assert.Equal(t, far, desired)
}

func TestController_Tick_ArrivalGeometry(t *testing.T) {
	above := model.NewVec3(0, 100, 0)

	tests := []struct {
		name        string
		flag        model.ConditionFlag
		airborne    bool
		wantArrived bool
	}{
		{name: "grounded ignores altitude", wantArrived: true},
		{name: "in flight uses 3D distance", flag: model.ConditionInFlight, airborne: true},
		{name: "diving uses 3D distance", flag: model.ConditionDiving, airborne: true},
		{name: "jumping is grounded", flag: model.ConditionJumping, wantArrived: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, followOptions())
			if tt.flag != 0 {
				h.game.SetCondition(tt.flag, true)
			}
			h.ctrl.Enqueue(above)

			h.ctrl.Tick()

			desired, ok := h.ctrl.DesiredPosition()
			if tt.wantArrived {
				assert.Zero(t, h.ctrl.WaypointCount())
				assert.False(t, ok)
			} else {
				assert.Equal(t, 1, h.ctrl.WaypointCount())
				require.True(t, ok)
				assert.Equal(t, above, desired)
			}
		})
	}
}

func TestController_Tick_PrecisionIsStrict(t *testing.T) {
	h := newHarness(t, followOptions())
	h.ctrl.Enqueue(model.NewVec3(1, 0, 0))

	h.ctrl.Tick()

	assert.Equal(t, 1, h.ctrl.WaypointCount(), "distance equal to precision is not arrival")
}

func TestController_Tick_ResetsIdleWhileTravelling(t *testing.T) {
	h := newHarness(t, followOptions())
	h.ctrl.Enqueue(model.NewVec3(40, 0, 0))

	for range 3 {
		h.ctrl.Tick()
	}
	assert.Equal(t, 3, h.idle.Resets())

	h.ctrl.SetRunAlongPoints(false)
	h.ctrl.Tick()
	assert.Equal(t, 3, h.idle.Resets(), "no reset once following stops")
}

func TestController_Mount_OncePerTarget(t *testing.T) {
	h := newHarness(t, followOptions())
	h.ctrl.Enqueue(model.NewVec3(10, 0, 0), model.NewVec3(20, 0, 0))

	// Mount is accepted but never takes effect, so every tick sees the avatar on foot.
	for range 5 {
		h.ctrl.Tick()
	}
	assert.Equal(t, 1, h.exec.Count(mountAction), "one mount attempt for the first target")

	h.game.SetPosition(model.NewVec3(9.9, 0, 0))
	for range 5 {
		h.ctrl.Tick()
	}
	assert.Equal(t, 2, h.exec.Count(mountAction), "one more attempt for the second target")
	assert.Equal(t, 2, h.actuator.Updates())
}

func TestController_Mount_Policy(t *testing.T) {
	preferred := uint32(71)
	preferredAction := model.ActionRef{Type: model.ActionTypeMount, ID: preferred}

	tests := []struct {
		name         string
		mountID      *uint32
		mountAllowed bool
		mounted      bool
		unavailable  []model.ActionRef
		wantUsed     []model.ActionRef
	}{
		{
			name:         "generic mount",
			mountAllowed: true,
			wantUsed:     []model.ActionRef{mountAction},
		},
		{
			name:         "preferred mount",
			mountID:      &preferred,
			mountAllowed: true,
			wantUsed:     []model.ActionRef{preferredAction},
		},
		{
			name:         "preferred unavailable falls back",
			mountID:      &preferred,
			mountAllowed: true,
			unavailable:  []model.ActionRef{preferredAction},
			wantUsed:     []model.ActionRef{mountAction},
		},
		{
			name:         "both unavailable",
			mountID:      &preferred,
			mountAllowed: true,
			unavailable:  []model.ActionRef{preferredAction, mountAction},
			wantUsed:     []model.ActionRef{},
		},
		{
			name:     "territory forbids mounts",
			wantUsed: []model.ActionRef{},
		},
		{
			name:         "already mounted",
			mountAllowed: true,
			mounted:      true,
			wantUsed:     []model.ActionRef{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := followOptions()
			opts.MountID = tt.mountID
			h := newHarness(t, opts)
			h.game.SetTerritory(testTerritory, tt.mountAllowed)
			h.game.SetCondition(model.ConditionMounted, tt.mounted)
			for _, a := range tt.unavailable {
				h.exec.SetUnavailable(a, true)
			}
			h.ctrl.Enqueue(model.NewVec3(10, 0, 0))

			h.ctrl.Tick()

			assert.Equal(t, tt.wantUsed, h.exec.Used())
		})
	}
}

func TestController_Fly_ProbesUnknownTerritory(t *testing.T) {
	tests := []struct {
		name        string
		takesOff    bool
		wantCapable bool
	}{
		{name: "territory allows flight", takesOff: true, wantCapable: true},
		{name: "territory forbids flight", takesOff: false, wantCapable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, followOptions())
			h.applyActions(tt.takesOff)
			h.ctrl.Enqueue(model.NewVec3(100, 0, 0))

			h.ctrl.Tick() // mounts
			require.True(t, h.game.Condition(model.ConditionMounted))
			assert.Zero(t, h.sched.Pending())

			h.ctrl.Tick() // same target: jumps and schedules a probe
			assert.Equal(t, 1, h.exec.Count(jumpAction))
			require.Equal(t, 1, h.sched.Pending())
			assert.Equal(t, DefaultFlightProbeDelay, h.sched.Delays()[0])

			_, known := h.flight.Lookup(testTerritory)
			assert.False(t, known, "probe has not resolved yet")

			h.sched.RunAll()
			capable, known := h.flight.Lookup(testTerritory)
			require.True(t, known)
			assert.Equal(t, tt.wantCapable, capable)

			// Either airborne or known flightless: no further jumps or probes.
			h.ctrl.Tick()
			assert.Equal(t, 1, h.exec.Count(jumpAction))
			assert.Zero(t, h.sched.Pending())
		})
	}
}

func TestController_Fly_KnownCapableTerritory(t *testing.T) {
	h := newHarness(t, followOptions())
	h.applyActions(false)
	h.flight.Record(testTerritory, true)
	h.ctrl.Enqueue(model.NewVec3(100, 0, 0))

	h.ctrl.Tick()
	h.ctrl.Tick()
	h.ctrl.Tick()

	assert.Equal(t, 2, h.exec.Count(jumpAction), "jump retried every tick while grounded")
	assert.Zero(t, h.sched.Pending(), "known territory is never re-probed")
}

func TestController_Fly_DuplicateProbesTolerated(t *testing.T) {
	h := newHarness(t, followOptions())
	h.applyActions(false)
	h.ctrl.Enqueue(model.NewVec3(100, 0, 0))

	h.ctrl.Tick()
	h.ctrl.Tick()
	h.ctrl.Tick()

	assert.Equal(t, 2, h.exec.Count(jumpAction))
	assert.Equal(t, 2, h.sched.Pending())

	// The avatar took off before the second probe resolved.
	h.game.SetCondition(model.ConditionInFlight, true)
	assert.Equal(t, 2, h.sched.RunAll())

	capable, known := h.flight.Lookup(testTerritory)
	require.True(t, known)
	assert.True(t, capable)
}

func TestController_Fly_MonotonicCache(t *testing.T) {
	h := newHarness(t, followOptions())
	h.applyActions(false)
	h.ctrl.Enqueue(model.NewVec3(100, 0, 0))

	h.ctrl.Tick()
	h.ctrl.Tick()
	require.Equal(t, 1, h.sched.Pending())

	// Another controller confirmed flight first.
	h.flight.Record(testTerritory, true)
	h.sched.RunAll() // avatar still grounded

	capable, known := h.flight.Lookup(testTerritory)
	require.True(t, known)
	assert.True(t, capable, "capable territory is never downgraded")
}

func TestController_Fly_Skipped(t *testing.T) {
	tests := []struct {
		name  string
		flags []model.ConditionFlag
	}{
		{name: "not mounted"},
		{name: "jumping", flags: []model.ConditionFlag{model.ConditionMounted, model.ConditionJumping}},
		{name: "already flying", flags: []model.ConditionFlag{model.ConditionMounted, model.ConditionInFlight}},
		{name: "diving", flags: []model.ConditionFlag{model.ConditionMounted, model.ConditionDiving}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, followOptions())
			h.game.SetTerritory(testTerritory, false)
			for _, f := range tt.flags {
				h.game.SetCondition(f, true)
			}
			h.ctrl.Enqueue(model.NewVec3(100, 0, 0))

			h.ctrl.Tick()
			h.ctrl.Tick()

			assert.Zero(t, h.exec.Count(jumpAction))
			assert.Zero(t, h.sched.Pending())
		})
	}
}

func TestController_RunFast(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		h := newHarness(t, followOptions())
		h.game.SetTerritory(testTerritory, false)
		h.ctrl.Enqueue(model.NewVec3(100, 0, 0))

		h.ctrl.Tick()
		h.ctrl.Tick()

		assert.Empty(t, h.exec.Used())
	})

	t.Run("on foot", func(t *testing.T) {
		opts := followOptions()
		opts.Actions.Sprint = &sprintAction
		h := newHarness(t, opts)
		h.game.SetTerritory(testTerritory, false)
		h.ctrl.Enqueue(model.NewVec3(100, 0, 0))

		h.ctrl.Tick()
		assert.Zero(t, h.exec.Count(sprintAction), "not on target change")
		h.ctrl.Tick()
		assert.Equal(t, 1, h.exec.Count(sprintAction))
	})

	t.Run("mounted", func(t *testing.T) {
		opts := followOptions()
		opts.Actions.Sprint = &sprintAction
		h := newHarness(t, opts)
		h.game.SetCondition(model.ConditionMounted, true)
		h.game.SetCondition(model.ConditionInFlight, true)
		h.ctrl.Enqueue(model.NewVec3(100, 0, 0))

		h.ctrl.Tick()
		h.ctrl.Tick()

		assert.Zero(t, h.exec.Count(sprintAction))
	})
}

func TestController_SafeDisengage(t *testing.T) {
	tests := []struct {
		name         string
		flags        []model.ConditionFlag
		wantDismount int
	}{
		{name: "mounted on ground", flags: []model.ConditionFlag{model.ConditionMounted}, wantDismount: 1},
		{name: "mounted in flight", flags: []model.ConditionFlag{model.ConditionMounted, model.ConditionInFlight}},
		{name: "mounted diving", flags: []model.ConditionFlag{model.ConditionMounted, model.ConditionDiving}},
		{name: "mounted mid-jump", flags: []model.ConditionFlag{model.ConditionMounted, model.ConditionJumping}, wantDismount: 1},
		{name: "on foot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, followOptions())
			h.flight.Record(testTerritory, false)
			for _, f := range tt.flags {
				h.game.SetCondition(f, true)
			}
			h.ctrl.Enqueue(model.NewVec3(100, 0, 0))
			h.ctrl.Tick()
			_, ok := h.ctrl.DesiredPosition()
			require.True(t, ok)

			h.ctrl.SetRunAlongPoints(false)
			_, ok = h.ctrl.DesiredPosition()
			assert.True(t, ok, "cleared by the next tick, not by the setter")
			assert.Zero(t, h.exec.Count(dismountAction))

			h.ctrl.Tick()
			h.ctrl.Tick()

			_, ok = h.ctrl.DesiredPosition()
			assert.False(t, ok)
			_, ok = h.actuator.Desired()
			assert.False(t, ok)
			assert.Equal(t, tt.wantDismount, h.exec.Count(dismountAction))
			assert.Equal(t, 1, h.ctrl.WaypointCount(), "disabling keeps the queue")
		})
	}
}

func TestController_IdempotentClear(t *testing.T) {
	h := newHarness(t, followOptions())
	h.game.SetCondition(model.ConditionMounted, true)
	h.ctrl.Enqueue(model.NewVec3(100, 0, 0))
	h.ctrl.Tick()

	h.ctrl.ClearWaypoints()
	h.ctrl.SetRunAlongPoints(false)
	h.ctrl.Tick()
	updates := h.actuator.Updates()
	used := len(h.exec.Used())

	h.ctrl.Tick()

	assert.Equal(t, updates, h.actuator.Updates(), "no actuator writes on second clear")
	assert.Len(t, h.exec.Used(), used, "no duplicate dismount")
	assert.Equal(t, 1, h.exec.Count(dismountAction))
}

func TestController_Close(t *testing.T) {
	h := newHarness(t, followOptions())
	h.game.SetCondition(model.ConditionMounted, true)
	h.ctrl.Enqueue(model.NewVec3(100, 0, 0))
	h.ctrl.Tick()

	h.ctrl.Close()

	_, ok := h.actuator.Desired()
	assert.False(t, ok)
	_, ok = h.ctrl.DesiredPosition()
	assert.False(t, ok)
	assert.Zero(t, h.exec.Count(dismountAction), "close does not dismount")
}

func TestController_EndToEnd(t *testing.T) {
	opts := followOptions()
	opts.Precision = 0.5
	h := newHarness(t, opts)
	h.applyActions(false)
	target := model.NewVec3(10, 0, 0)
	h.ctrl.Enqueue(target)

	h.ctrl.Tick()

	desired, ok := h.ctrl.DesiredPosition()
	require.True(t, ok)
	assert.Equal(t, target, desired)
	actuatorTarget, ok := h.actuator.Desired()
	require.True(t, ok)
	assert.Equal(t, target, actuatorTarget)
	assert.Equal(t, []model.ActionRef{mountAction}, h.exec.Used())
	require.True(t, h.game.Condition(model.ConditionMounted))

	h.game.SetPosition(model.NewVec3(9.6, 0, 0))
	h.ctrl.Tick()

	assert.Zero(t, h.ctrl.WaypointCount())
	_, ok = h.ctrl.DesiredPosition()
	assert.False(t, ok)
	_, ok = h.actuator.Desired()
	assert.False(t, ok)
	assert.Equal(t, []model.ActionRef{mountAction, dismountAction}, h.exec.Used())
	assert.False(t, h.game.Condition(model.ConditionMounted))
}
