package genome

import (
	"fmt"
	"math/rand"
)

const (
	// ActuatorCount is the number of independently driven actuators on the
	// creature.
	ActuatorCount = 8

	// ActionCount is the size of the action alphabet: the idle code plus a
	// contract and an extend code per actuator.
	ActionCount = 1 + 2*ActuatorCount
)

// Direction is one of the two drive directions of an actuator.
type Direction int

const (
	Contract Direction = iota
	Extend
)

func (d Direction) String() string {
	if d == Contract {
		return "contract"
	}
	return "extend"
}

// ActuatorCommand is the decoded form of one action code. A None command
// releases any previously commanded actuator.
type ActuatorCommand struct {
	None      bool
	Actuator  int
	Direction Direction
}

// Decode maps an action code to its actuator command. Code 0 is always the
// idle command; codes 1..2k address actuator (code-1)/2, even offsets
// contract and odd offsets extend. The mapping is total for codes in
// [0, ActionCount).
func Decode(code int) (ActuatorCommand, error) {
	if code < 0 || code >= ActionCount {
		return ActuatorCommand{}, fmt.Errorf("action code out of range [0, %d): %d", ActionCount, code)
	}
	if code == 0 {
		return ActuatorCommand{None: true}, nil
	}
	cmd := ActuatorCommand{
		Actuator:  (code - 1) / 2,
		Direction: Direction((code - 1) % 2),
	}
	return cmd, nil
}

// Encode is the inverse of Decode.
func Encode(cmd ActuatorCommand) int {
	if cmd.None {
		return 0
	}
	return 1 + cmd.Actuator*2 + int(cmd.Direction)
}

// Random returns a genome of the given length with genes drawn uniformly
// over the action alphabet.
func Random(rng *rand.Rand, length int) []int {
	out := make([]int, length)
	for i := range out {
		out[i] = rng.Intn(ActionCount)
	}
	return out
}

// Clone returns an independent copy of the genome.
func Clone(g []int) []int {
	return append([]int(nil), g...)
}

// Resize adjusts a genome to the target length: trailing genes are dropped
// when shrinking, freshly random genes are appended when growing. The input
// slice is never mutated.
func Resize(rng *rand.Rand, g []int, length int) []int {
	switch {
	case len(g) == length:
		return Clone(g)
	case len(g) > length:
		return append([]int(nil), g[:length]...)
	default:
		out := make([]int, 0, length)
		out = append(out, g...)
		for len(out) < length {
			out = append(out, rng.Intn(ActionCount))
		}
		return out
	}
}
