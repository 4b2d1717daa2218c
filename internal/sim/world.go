package sim

import (
	"sync"
	"time"

	"github.com/udisondev/navrunner/internal/model"
)

const (
	jumpDuration   = 500 * time.Millisecond
	sprintDuration = 10 * time.Second
	liftOffHeight  = 2
)

var (
	generalMount    = model.ActionRef{Type: model.ActionTypeGeneralAction, ID: model.GeneralActionMount}
	generalDismount = model.ActionRef{Type: model.ActionTypeGeneralAction, ID: model.GeneralActionDismount}
	generalJump     = model.ActionRef{Type: model.ActionTypeGeneralAction, ID: model.GeneralActionJump}
	sprint          = model.ActionRef{Type: model.ActionTypeAction, ID: model.ActionSprint}
)

// World is a headless game client with one avatar. It implements every
// collaborator the navigation controller consumes and advances the avatar
// toward the desired position on each Tick.
//
// Safe for concurrent use: the controller's flight probe reads conditions
// from a timer goroutine.
type World struct {
	mu sync.RWMutex

	territories map[model.TerritoryID]Territory
	territory   model.TerritoryID
	ownedMounts map[uint32]bool
	speeds      Speeds
	dt          time.Duration

	loaded     bool
	position   model.Vec3
	mounted    bool
	flying     bool
	jumping    bool
	jumpLeft   time.Duration
	sprintLeft time.Duration

	desired   *model.Vec3
	precision float32

	afk        time.Duration
	idleResets int
	used       map[model.ActionRef]int
}

// NewWorld builds a world from a scenario. Each Tick advances it by dt.
func NewWorld(sc Scenario, dt time.Duration) *World {
	w := &World{
		territories: make(map[model.TerritoryID]Territory, len(sc.Territories)),
		territory:   sc.Start.Territory,
		ownedMounts: make(map[uint32]bool, len(sc.OwnedMounts)),
		speeds:      sc.Speeds,
		dt:          dt,
		loaded:      true,
		position:    sc.Start.Position.Vec3(),
		used:        make(map[model.ActionRef]int),
	}
	for _, t := range sc.Territories {
		w.territories[t.ID] = t
	}
	for _, id := range sc.OwnedMounts {
		w.ownedMounts[id] = true
	}
	return w
}

// Tick advances the world by one frame.
func (w *World) Tick() {
	w.Step(w.dt)
}

// Step advances the world by dt.
func (w *World) Step(dt time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.afk += dt
	if w.jumping {
		w.jumpLeft -= dt
		if w.jumpLeft <= 0 {
			w.jumping = false
		}
	}
	if w.sprintLeft > 0 {
		w.sprintLeft = max(w.sprintLeft-dt, 0)
	}

	if w.desired == nil || !w.loaded {
		return
	}

	step := w.speed() * float32(dt.Seconds())
	if w.flying {
		if w.position.Distance(*w.desired) >= w.precision {
			w.position = w.position.MoveTowards(*w.desired, step)
		}
		return
	}

	// On the ground only the horizontal plane is steered.
	ground := model.Vec3{X: w.desired.X, Y: w.position.Y, Z: w.desired.Z}
	if w.position.DistanceXZ(ground) >= w.precision {
		w.position = w.position.MoveTowards(ground, step)
	}
}

func (w *World) speed() float32 {
	switch {
	case w.flying:
		return w.speeds.Flying
	case w.mounted:
		return w.speeds.Mounted
	case w.sprintLeft > 0:
		return w.speeds.Sprint
	default:
		return w.speeds.Run
	}
}

// SetTerritory moves the avatar to another zone. Zoning drops the mount.
func (w *World) SetTerritory(id model.TerritoryID, pos model.Vec3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.territory = id
	w.position = pos
	w.mounted, w.flying, w.jumping = false, false, false
}

// SetLoaded toggles whether an avatar exists (loading screens).
func (w *World) SetLoaded(loaded bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loaded = loaded
}

// PlayerPosition implements navigation.GameState.
func (w *World) PlayerPosition() (model.Vec3, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.position, w.loaded
}

// ConditionsAvailable implements navigation.GameState.
func (w *World) ConditionsAvailable() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.loaded
}

// Condition implements navigation.GameState.
func (w *World) Condition(flag model.ConditionFlag) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	switch flag {
	case model.ConditionMounted:
		return w.mounted
	case model.ConditionInFlight:
		return w.flying
	case model.ConditionJumping:
		return w.jumping
	default:
		return false
	}
}

// TerritoryID implements navigation.GameState.
func (w *World) TerritoryID() model.TerritoryID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.territory
}

// TerritoryAllowsMount implements navigation.GameState.
func (w *World) TerritoryAllowsMount(id model.TerritoryID) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.territories[id].MountAllowed
}

// SetDesiredPosition implements navigation.MovementActuator.
func (w *World) SetDesiredPosition(pos *model.Vec3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if pos == nil {
		w.desired = nil
		return
	}
	v := *pos
	w.desired = &v
}

// SetPrecision implements navigation.MovementActuator.
func (w *World) SetPrecision(precision float32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.precision = precision
}

// ResetTimers implements navigation.IdleSuppressor.
func (w *World) ResetTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.afk = 0
	w.idleResets++
}

// ActionReady implements navigation.ActionExecutor.
func (w *World) ActionReady(kind model.ActionType, id uint32) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.actionReady(model.ActionRef{Type: kind, ID: id})
}

func (w *World) actionReady(action model.ActionRef) bool {
	if !w.loaded {
		return false
	}

	switch {
	case action.Type == model.ActionTypeMount:
		return w.canMount() && w.ownedMounts[action.ID]
	case action == generalMount:
		return w.canMount()
	case action == generalDismount:
		return w.mounted && !w.flying
	case action == generalJump:
		return !w.jumping
	case action == sprint:
		return !w.mounted && w.sprintLeft == 0
	default:
		return false
	}
}

func (w *World) canMount() bool {
	return !w.mounted && w.territories[w.territory].MountAllowed
}

// UseAction implements navigation.ActionExecutor.
func (w *World) UseAction(kind model.ActionType, id uint32) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	action := model.ActionRef{Type: kind, ID: id}
	if !w.actionReady(action) {
		return false
	}
	w.used[action]++

	switch {
	case kind == model.ActionTypeMount, action == generalMount:
		w.mounted = true
		w.sprintLeft = 0
	case action == generalDismount:
		w.mounted = false
	case action == generalJump:
		if w.mounted && w.territories[w.territory].FlightAllowed {
			w.flying = true
			w.position.Y += liftOffHeight
		} else {
			w.jumping = true
			w.jumpLeft = jumpDuration
		}
	case action == sprint:
		w.sprintLeft = sprintDuration
	}
	return true
}

// ActionCount returns how many times action was accepted.
func (w *World) ActionCount(action model.ActionRef) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.used[action]
}

// Snapshot is a point-in-time view of the avatar.
type Snapshot struct {
	Territory  model.TerritoryID
	Position   model.Vec3
	Mounted    bool
	Flying     bool
	Jumping    bool
	Sprinting  bool
	Steering   bool
	AFK        time.Duration
	IdleResets int
}

// Snapshot returns the current avatar state.
func (w *World) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return Snapshot{
		Territory:  w.territory,
		Position:   w.position,
		Mounted:    w.mounted,
		Flying:     w.flying,
		Jumping:    w.jumping,
		Sprinting:  w.sprintLeft > 0,
		Steering:   w.desired != nil,
		AFK:        w.afk,
		IdleResets: w.idleResets,
	}
}
