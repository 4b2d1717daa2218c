package navigation

import (
	"time"

	"github.com/udisondev/navrunner/internal/model"
)

// GameState exposes the parts of the client state the controller reads.
// Condition and TerritoryID are also called from the deferred flight probe,
// outside the tick, so implementations must tolerate concurrent reads.
type GameState interface {
	// PlayerPosition returns the avatar position; ok is false when no avatar is loaded.
	PlayerPosition() (pos model.Vec3, ok bool)

	// ConditionsAvailable reports whether a condition snapshot exists this frame.
	ConditionsAvailable() bool

	// Condition returns the state of a single condition flag.
	Condition(flag model.ConditionFlag) bool

	// TerritoryID returns the current territory.
	TerritoryID() model.TerritoryID

	// TerritoryAllowsMount reports whether the territory's static definition permits mounts.
	TerritoryAllowsMount(id model.TerritoryID) bool
}

// MovementActuator steers the avatar toward the desired position every frame.
type MovementActuator interface {
	// SetDesiredPosition sets the steering target. nil stops steering.
	SetDesiredPosition(pos *model.Vec3)

	// SetPrecision sets the distance at which the actuator stops steering.
	SetPrecision(precision float32)
}

// IdleSuppressor keeps the client from flagging the player as away.
type IdleSuppressor interface {
	ResetTimers()
}

// ActionExecutor is the in-game action primitive.
type ActionExecutor interface {
	// ActionReady reports whether the action can be used right now.
	ActionReady(kind model.ActionType, id uint32) bool

	// UseAction performs the action and reports whether it was accepted.
	UseAction(kind model.ActionType, id uint32) bool
}

// Scheduler runs f once after d without blocking the caller.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// TimerScheduler runs deferred tasks on runtime timers.
type TimerScheduler struct{}

// AfterFunc implements Scheduler.
func (TimerScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}
