package navigation

import (
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/udisondev/navrunner/internal/model"
)

// DefaultFlightProbeDelay is how long after a jump the flight probe samples the avatar.
const DefaultFlightProbeDelay = 200 * time.Millisecond

// Actions holds the action ids the controller fires.
type Actions struct {
	Mount    model.ActionRef
	Dismount model.ActionRef
	Jump     model.ActionRef
	// Sprint is the fast-movement action used on foot. nil disables it.
	Sprint *model.ActionRef
}

// DefaultActions returns the client's general actions for mount, dismount and jump.
func DefaultActions() Actions {
	return Actions{
		Mount:    model.ActionRef{Type: model.ActionTypeGeneralAction, ID: model.GeneralActionMount},
		Dismount: model.ActionRef{Type: model.ActionTypeGeneralAction, ID: model.GeneralActionDismount},
		Jump:     model.ActionRef{Type: model.ActionTypeGeneralAction, ID: model.GeneralActionJump},
	}
}

// Options configures a Controller.
type Options struct {
	Precision        float32
	MountID          *uint32
	RunAlongPoints   bool
	FlightProbeDelay time.Duration
	Actions          Actions
}

// DefaultOptions returns options with precision 1 and following disabled.
func DefaultOptions() Options {
	return Options{
		Precision:        1,
		FlightProbeDelay: DefaultFlightProbeDelay,
		Actions:          DefaultActions(),
	}
}

// Deps are the collaborators a Controller drives.
type Deps struct {
	Game      GameState
	Movement  MovementActuator
	Idle      IdleSuppressor
	Executor  ActionExecutor
	Flight    FlightStore
	Scheduler Scheduler // defaults to TimerScheduler
}

// Controller walks the avatar along a queue of waypoints, mounting,
// flying and dismounting on the way.
//
// Tick and every setter must be called from the same goroutine, or otherwise
// serialized by the owner. Only the deferred flight probe runs elsewhere.
//
// Setters take effect on the next Tick: after SetRunAlongPoints(false) or
// ClearWaypoints, the desired position is cleared (and a dismount issued if
// needed) by the next Tick that sees an avatar.
type Controller struct {
	game      GameState
	movement  MovementActuator
	idle      IdleSuppressor
	executor  ActionExecutor
	flight    FlightStore
	scheduler Scheduler

	queue          *Queue
	runAlongPoints bool
	precision      float32
	mountID        *uint32
	probeDelay     time.Duration
	actions        Actions

	desired    model.Vec3
	hasDesired bool
}

// NewController creates a controller. The actuator's precision is set to opts.Precision.
func NewController(deps Deps, opts Options) (*Controller, error) {
	if deps.Game == nil || deps.Movement == nil || deps.Idle == nil || deps.Executor == nil || deps.Flight == nil {
		return nil, fmt.Errorf("%w: missing collaborator", ErrInvalidConfiguration)
	}
	if err := ValidatePrecision(opts.Precision); err != nil {
		return nil, err
	}
	if opts.FlightProbeDelay < 0 {
		return nil, fmt.Errorf("%w: flight probe delay %s is negative", ErrInvalidConfiguration, opts.FlightProbeDelay)
	}
	if deps.Scheduler == nil {
		deps.Scheduler = TimerScheduler{}
	}

	c := &Controller{
		game:           deps.Game,
		movement:       deps.Movement,
		idle:           deps.Idle,
		executor:       deps.Executor,
		flight:         deps.Flight,
		scheduler:      deps.Scheduler,
		queue:          NewQueue(defaultQueueCapacity),
		runAlongPoints: opts.RunAlongPoints,
		probeDelay:     opts.FlightProbeDelay,
		actions:        opts.Actions,
	}
	c.SetPreferredMountID(opts.MountID)
	if err := c.SetArrivalPrecision(opts.Precision); err != nil {
		return nil, err
	}
	return c, nil
}

// Enqueue appends waypoints.
func (c *Controller) Enqueue(points ...model.Vec3) {
	c.queue.Enqueue(points...)
}

// Dequeue removes and returns the next waypoint.
func (c *Controller) Dequeue() (model.Vec3, bool) {
	return c.queue.Dequeue()
}

// Peek returns the next waypoint.
func (c *Controller) Peek() (model.Vec3, bool) {
	return c.queue.Peek()
}

// Waypoints iterates pending waypoints in traversal order.
func (c *Controller) Waypoints() iter.Seq[model.Vec3] {
	return c.queue.All()
}

// WaypointCount returns the number of pending waypoints.
func (c *Controller) WaypointCount() int {
	return c.queue.Len()
}

// ClearWaypoints drops all pending waypoints. The next tick releases movement.
func (c *Controller) ClearWaypoints() {
	c.queue.Clear()
}

// RunAlongPoints reports whether the controller drives movement.
func (c *Controller) RunAlongPoints() bool {
	return c.runAlongPoints
}

// SetRunAlongPoints toggles waypoint following. Disabling takes effect on the next tick.
func (c *Controller) SetRunAlongPoints(enabled bool) {
	c.runAlongPoints = enabled
}

// ArrivalPrecision returns the distance below which a waypoint counts as reached.
func (c *Controller) ArrivalPrecision() float32 {
	return c.precision
}

// SetArrivalPrecision sets the arrival precision and mirrors it to the actuator.
func (c *Controller) SetArrivalPrecision(precision float32) error {
	if err := ValidatePrecision(precision); err != nil {
		return err
	}
	c.precision = precision
	c.movement.SetPrecision(precision)
	return nil
}

// PreferredMountID returns the preferred mount, if any.
func (c *Controller) PreferredMountID() (uint32, bool) {
	if c.mountID == nil {
		return 0, false
	}
	return *c.mountID, true
}

// SetPreferredMountID sets the preferred mount. nil selects the generic mount action.
func (c *Controller) SetPreferredMountID(id *uint32) {
	if id == nil {
		c.mountID = nil
		return
	}
	v := *id
	c.mountID = &v
}

// DesiredPosition returns the point currently handed to the actuator.
func (c *Controller) DesiredPosition() (model.Vec3, bool) {
	return c.desired, c.hasDesired
}

// Close releases movement control without dismounting.
func (c *Controller) Close() {
	c.setDesired(nil)
}

// Tick runs one frame of navigation. It is a no-op while no avatar is
// loaded or no condition snapshot is available.
func (c *Controller) Tick() {
	pos, ok := c.game.PlayerPosition()
	if !ok {
		return
	}
	if !c.game.ConditionsAvailable() {
		return
	}

	c.updateDirection(pos)
}

func (c *Controller) updateDirection(pos model.Vec3) {
	if !c.runAlongPoints {
		c.onTargetLost()
		return
	}

	flying := c.isFlying()
	for {
		target, ok := c.queue.Peek()
		if !ok {
			c.onTargetLost()
			return
		}
		if !c.arrived(pos, target, flying) {
			c.onTargetFound(target)
			return
		}

		c.queue.Dequeue()
		if IsDebugEnabled() {
			slog.Debug("waypoint reached",
				"target", target,
				"position", pos,
				"flying", flying,
				"remaining", c.queue.Len())
		}
	}
}

// arrived uses 3D distance while airborne and horizontal distance on the ground.
func (c *Controller) arrived(pos, target model.Vec3, flying bool) bool {
	delta := target.Sub(pos)
	if flying {
		return delta.Length() < c.precision
	}
	return delta.LengthXZ() < c.precision
}

func (c *Controller) onTargetFound(target model.Vec3) {
	c.idle.ResetTimers()

	if c.hasDesired && c.desired == target {
		c.tryFly()
		c.tryRunFast()
		return
	}

	c.setDesired(&target)
	if IsDebugEnabled() {
		slog.Debug("heading to waypoint", "target", target, "remaining", c.queue.Len())
	}
	c.tryMount()
}

func (c *Controller) onTargetLost() {
	if !c.hasDesired {
		return
	}
	c.setDesired(nil)

	// Jumping does not count as airborne here.
	if c.isMounted() && !c.isFlying() {
		ok := c.execute(c.actions.Dismount)
		slog.Debug("dismount on arrival", "ok", ok)
	}
}

func (c *Controller) setDesired(pos *model.Vec3) {
	if pos == nil {
		c.desired, c.hasDesired = model.Vec3{}, false
	} else {
		c.desired, c.hasDesired = *pos, true
	}
	c.movement.SetDesiredPosition(pos)
}

func (c *Controller) isFlying() bool {
	return c.game.Condition(model.ConditionInFlight) || c.game.Condition(model.ConditionDiving)
}

func (c *Controller) isMounted() bool {
	return c.game.Condition(model.ConditionMounted)
}

// tryMount mounts up if the territory allows it. Called once per target change.
func (c *Controller) tryMount() bool {
	if c.isMounted() {
		return false
	}

	territory := c.game.TerritoryID()
	if !c.game.TerritoryAllowsMount(territory) {
		return false
	}

	if c.mountID != nil {
		preferred := model.ActionRef{Type: model.ActionTypeMount, ID: *c.mountID}
		if c.execute(preferred) {
			slog.Debug("mounted", "action", preferred, "territory", territory)
			return true
		}
	}

	ok := c.execute(c.actions.Mount)
	slog.Debug("mount attempt", "action", c.actions.Mount, "territory", territory, "ok", ok)
	return ok
}

// tryFly jumps into flight while mounted on the ground. Territories without a
// cached verdict are tried optimistically and probed after the jump.
func (c *Controller) tryFly() bool {
	if c.game.Condition(model.ConditionJumping) {
		return false
	}
	if c.isFlying() || !c.isMounted() {
		return false
	}

	territory := c.game.TerritoryID()
	capable, known := c.flight.Lookup(territory)
	if known && !capable {
		return false
	}

	ok := c.execute(c.actions.Jump)
	if !known {
		c.scheduleFlightProbe(territory)
	}
	return ok
}

// scheduleFlightProbe records whether the avatar is airborne after probeDelay.
// Duplicate probes for one territory are harmless; see FlightCache.Record.
func (c *Controller) scheduleFlightProbe(territory model.TerritoryID) {
	c.scheduler.AfterFunc(c.probeDelay, func() {
		flying := c.isFlying()
		c.flight.Record(territory, flying)
		slog.Debug("flight probe", "territory", territory, "capable", flying)
	})
}

// tryRunFast fires the sprint action on foot, when one is configured.
func (c *Controller) tryRunFast() bool {
	if c.isMounted() {
		return false
	}
	if c.actions.Sprint == nil {
		return false
	}
	return c.execute(*c.actions.Sprint)
}

// execute fires an action only after it reports ready.
func (c *Controller) execute(action model.ActionRef) bool {
	return c.executor.ActionReady(action.Type, action.ID) &&
		c.executor.UseAction(action.Type, action.ID)
}
