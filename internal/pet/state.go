package pet

// Action is the pet's current behavior; it picks the animation and gates
// movement (only ActionWalk advances position).
type Action string

const (
	ActionIdle  Action = "idle"
	ActionWalk  Action = "walk"
	ActionEat   Action = "eat"
	ActionSleep Action = "sleep"
	ActionPlay  Action = "play"
)

// randomActions are the only actions the engine picks on its own. Eat and
// sleep are entered through explicit calls.
var randomActions = []Action{ActionIdle, ActionWalk, ActionPlay}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionIdle, ActionWalk, ActionEat, ActionSleep, ActionPlay:
		return true
	}
	return false
}

// Direction is the way the pet is facing.
type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == DirectionRight {
		return DirectionLeft
	}
	return DirectionRight
}

// Position is a point on the host screen, in pixels.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// State is a read-only copy of the engine state. Mood is computed from
// Stats when the copy is taken.
type State struct {
	Seq       uint64    `json:"seq"`
	Mood      Mood      `json:"mood"`
	Action    Action    `json:"action"`
	Direction Direction `json:"direction"`
	Position  Position  `json:"position"`
	Stats     Stats     `json:"stats"`
}
