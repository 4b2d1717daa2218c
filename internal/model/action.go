package model

import "fmt"

// ActionType is the category an action id belongs to.
type ActionType uint8

const (
	ActionTypeAction        ActionType = 1
	ActionTypeGeneralAction ActionType = 5
	ActionTypeMount         ActionType = 13
)

// General action ids used by the navigation controller.
const (
	GeneralActionJump     uint32 = 2
	GeneralActionMount    uint32 = 9
	GeneralActionDismount uint32 = 23
)

// ActionSprint is the role action that boosts run speed on foot.
const ActionSprint uint32 = 3

func (t ActionType) String() string {
	switch t {
	case ActionTypeAction:
		return "Action"
	case ActionTypeGeneralAction:
		return "GeneralAction"
	case ActionTypeMount:
		return "Mount"
	default:
		return fmt.Sprintf("ActionType(%d)", uint8(t))
	}
}

// ActionRef is an action category and id pair.
type ActionRef struct {
	Type ActionType
	ID   uint32
}

func (a ActionRef) String() string {
	return fmt.Sprintf("%s#%d", a.Type, a.ID)
}
