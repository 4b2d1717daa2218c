package model

// ConditionFlag identifies one bit of the client's condition table.
// Values match the game client's table.
type ConditionFlag uint32

const (
	// ConditionMounted - avatar is riding a mount
	ConditionMounted ConditionFlag = 4
	// ConditionJumping - avatar is mid-jump
	ConditionJumping ConditionFlag = 48
	// ConditionInFlight - avatar is airborne on a flying mount
	ConditionInFlight ConditionFlag = 77
	// ConditionDiving - avatar is swimming underwater (moves in 3D like flight)
	ConditionDiving ConditionFlag = 81
)

// String returns human-readable condition name
func (c ConditionFlag) String() string {
	switch c {
	case ConditionMounted:
		return "MOUNTED"
	case ConditionJumping:
		return "JUMPING"
	case ConditionInFlight:
		return "IN_FLIGHT"
	case ConditionDiving:
		return "DIVING"
	default:
		return "UNKNOWN"
	}
}

// TerritoryID identifies a zone/map. Small bounded set.
type TerritoryID uint16
