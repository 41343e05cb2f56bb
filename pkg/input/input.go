package input

import (
	"strings"

	"github.com/cbodonnell/snake/pkg/game/types"
)

// Key is one of the four logical direction keys.
type Key uint8

const (
	KeyNorth Key = iota
	KeySouth
	KeyWest
	KeyEast
)

func (k Key) String() string {
	switch k {
	case KeyNorth:
		return "north"
	case KeySouth:
		return "south"
	case KeyWest:
		return "west"
	case KeyEast:
		return "east"
	default:
		return "unknown"
	}
}

// Direction returns the direction a key requests.
func (k Key) Direction() types.Direction {
	switch k {
	case KeyNorth:
		return types.DirectionNorth
	case KeySouth:
		return types.DirectionSouth
	case KeyWest:
		return types.DirectionWest
	case KeyEast:
		return types.DirectionEast
	default:
		return types.DirectionNone
	}
}

// ParseKey maps a raw key name to a logical key.
// WASD, arrow names and direction names are accepted.
func ParseKey(name string) (Key, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "w", "up", "arrowup", "north":
		return KeyNorth, true
	case "s", "down", "arrowdown", "south":
		return KeySouth, true
	case "a", "left", "arrowleft", "west":
		return KeyWest, true
	case "d", "right", "arrowright", "east":
		return KeyEast, true
	default:
		return 0, false
	}
}

// Snapshot is the pressed state of each key at one instant.
type Snapshot struct {
	North bool
	South bool
	West  bool
	East  bool
}

// With returns a copy of the snapshot with the key set to pressed.
func (s Snapshot) With(k Key, pressed bool) Snapshot {
	switch k {
	case KeyNorth:
		s.North = pressed
	case KeySouth:
		s.South = pressed
	case KeyWest:
		s.West = pressed
	case KeyEast:
		s.East = pressed
	}
	return s
}

// priority is the order in which pressed keys are considered.
var priority = []Key{KeyNorth, KeySouth, KeyWest, KeyEast}

func (s Snapshot) pressed(k Key) bool {
	switch k {
	case KeyNorth:
		return s.North
	case KeySouth:
		return s.South
	case KeyWest:
		return s.West
	case KeyEast:
		return s.East
	default:
		return false
	}
}

// SelectDirection returns the direction to commit given the pressed keys and
// the committed direction, and whether it differs from the committed one.
//
// Only the highest-priority pressed key is considered. It is rejected when it
// lies on the committed direction's axis, which rules out 180 degree turns.
func SelectDirection(s Snapshot, committed types.Direction) (types.Direction, bool) {
	for _, k := range priority {
		if !s.pressed(k) {
			continue
		}
		candidate := k.Direction()
		if candidate.SameAxis(committed) {
			return committed, false
		}
		return candidate, true
	}
	return committed, false
}
