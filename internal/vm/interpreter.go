package vm

import (
	"sync/atomic"

	"karelvm/internal/bytecode"
	"karelvm/internal/grid"
	"karelvm/internal/robot"
)

// FastDepth is the preallocated depth of the call and repeat stacks.
// Once depth reaches it, a stack that is full grows on the cold path by
// GrowBy frames before the next push.
const FastDepth = 512

// GrowBy is how much capacity a full call or repeat stack gains each time
// it grows past FastDepth.
const GrowBy = 16

// World bundles the grid and robot the interpreter reads and mutates.
// It is owned by the facade and replaced wholesale on world import.
type World struct {
	Grid  *grid.Grid
	Robot *robot.Robot
}

type repeatFrame struct {
	origin    bytecode.PC
	remaining uint16
}

// Interpreter executes a single Run to completion, error, interrupt, or
// stop. A new Interpreter is used per invocation; Run does not clear the
// stacks, depth counter or short-circuit flag left by an earlier Run.
type Interpreter struct {
	Image *bytecode.Image
	World *World

	pc bytecode.PC

	callStack   []bytecode.PC
	repeatStack []repeatFrame
	curRepeat   repeatFrame
	curActive   bool
	depth       int

	// shortMask is 1 during normal execution and set to 0 by
	// ShortCircuit from another goroutine. The interpreter multiplies it
	// into the fetch address on every iteration, so an interrupt
	// redirects the very next fetch to offset 0, which always holds a
	// bare RETN and unwinds the current activation cleanly.
	shortMask atomic.Int32

	// status is published exactly once per Run, with release/acquire
	// semantics so a caller that observes a terminal value after
	// acquiring the facade lock is guaranteed to see the world state the
	// interpreter left behind.
	status atomic.Int32
}

// New returns an Interpreter ready to run against image/world.
func New(image *bytecode.Image, world *World) *Interpreter {
	it := &Interpreter{
		Image:       image,
		World:       world,
		callStack:   make([]bytecode.PC, 0, FastDepth),
		repeatStack: make([]repeatFrame, 0, FastDepth),
	}
	it.shortMask.Store(1)
	it.status.Store(int32(StatusInProgress))
	return it
}

// Status returns the most recently published status.
func (it *Interpreter) Status() Status {
	return Status(it.status.Load())
}

// ShortCircuit requests cooperative interruption. The interpreter
// observes it on the next instruction fetch; at most one further
// opcode is dispatched first.
func (it *Interpreter) ShortCircuit() {
	it.shortMask.Store(0)
}

func (it *Interpreter) publish(s Status) {
	it.status.Store(int32(s))
}

// ensureCapacity doubles neither stack; once depth has reached FastDepth
// it adds GrowBy capacity to whichever stack is full. Below that
// threshold both stacks are preallocated and pushes are infallible.
func (it *Interpreter) ensureCapacity() {
	if it.depth < FastDepth {
		return
	}
	if len(it.callStack) == cap(it.callStack) {
		grown := make([]bytecode.PC, len(it.callStack), cap(it.callStack)+GrowBy)
		copy(grown, it.callStack)
		it.callStack = grown
	}
	if len(it.repeatStack) == cap(it.repeatStack) {
		grown := make([]repeatFrame, len(it.repeatStack), cap(it.repeatStack)+GrowBy)
		copy(grown, it.repeatStack)
		it.repeatStack = grown
	}
}

// Run executes starting at entryPC until termination, a primitive-level
// error, a STOP, or a host interrupt. The terminal status is published
// before Run returns.
func (it *Interpreter) Run(entryPC bytecode.PC) Status {
	it.pc = entryPC
	it.publish(StatusInProgress)

	for {
		mask := bytecode.PC(it.shortMask.Load())
		fetchPC := it.pc * mask

		op, cond, invert := it.Image.DecodeHeadAt(fetchPC)

		switch op {
		case bytecode.OpStep:
			if !it.step() {
				return it.Status()
			}
		case bytecode.OpLeft:
			it.World.Robot.TurnLeft()
			it.pc = fetchPC + 1
		case bytecode.OpPickUp:
			if !it.pickUp() {
				return it.Status()
			}
		case bytecode.OpPlace:
			if !it.place() {
				return it.Status()
			}
		case bytecode.OpBranch:
			if it.evalCond(cond) != invert {
				it.pc = it.Image.ReadBranchTarget(fetchPC)
			} else {
				it.pc = fetchPC + bytecode.LenBranch
			}
		case bytecode.OpBranchLinked:
			target := it.Image.ReadBranchTarget(fetchPC)
			taken := true
			if cond != bytecode.CondNone {
				taken = it.evalCond(cond) != invert
			}
			if taken {
				it.ensureCapacity()
				it.callStack = append(it.callStack, fetchPC+bytecode.LenBranch)
				it.depth++
				it.pc = target
			} else {
				it.pc = fetchPC + bytecode.LenBranch
			}
		case bytecode.OpRetn:
			if len(it.callStack) == 0 {
				it.publish(StatusSuccess)
				return StatusSuccess
			}
			n := len(it.callStack) - 1
			it.pc = it.callStack[n]
			it.callStack = it.callStack[:n]
			it.depth--
		case bytecode.OpStop:
			it.publish(StatusStopEncountered)
			return StatusStopEncountered
		case bytecode.OpRepeat:
			it.execRepeat(fetchPC)
		default:
			it.publish(StatusUnknownError)
			return StatusUnknownError
		}
	}
}

func (it *Interpreter) step() bool {
	x, y, ok := it.World.Robot.PreviewStep(it.World.Grid.Size)
	if !ok || it.World.Grid.Get(x, y) == grid.Wall {
		it.publish(StatusStepOutOfBounds)
		return false
	}
	it.World.Robot.X, it.World.Robot.Y = x, y
	it.pc++
	return true
}

func (it *Interpreter) pickUp() bool {
	r := it.World.Robot
	cell := it.World.Grid.Get(r.X, r.Y)
	if cell == 0 {
		it.publish(StatusPickupZeroFlags)
		return false
	}
	it.World.Grid.Set(r.X, r.Y, cell-1)
	it.pc++
	return true
}

func (it *Interpreter) place() bool {
	r := it.World.Robot
	cell := it.World.Grid.Get(r.X, r.Y)
	if cell == grid.MaxFlags {
		it.publish(StatusPlaceMaxFlags)
		return false
	}
	it.World.Grid.Set(r.X, r.Y, cell+1)
	it.pc++
	return true
}

// execRepeat implements the REPEAT opcode's first-visit/continuing-visit
// rule. A REPEAT at the bottom of a loop body is reached once per
// iteration (the body's first iteration having already run by straight
// line fall-through from the loop top); it is distinguished from a
// *different*, nested REPEAT by comparing its PC against the innermost
// active loop's origin. §9's open question: this pointer-identity test
// is sound because a well-formed image never places two distinct REPEAT
// instructions at the same offset.
func (it *Interpreter) execRepeat(pc bytecode.PC) {
	if !it.curActive || it.curRepeat.origin != pc {
		// First visit: pause any currently active outer loop and start
		// a fresh one here, counting the iteration that just completed.
		if it.curActive {
			it.ensureCapacity()
			it.repeatStack = append(it.repeatStack, it.curRepeat)
		}
		_, count := it.Image.ReadRepeat(pc)
		it.curRepeat = repeatFrame{origin: pc, remaining: count}
		it.curActive = true
		it.depth++
	}

	if it.curRepeat.remaining <= 1 {
		if n := len(it.repeatStack); n > 0 {
			it.curRepeat = it.repeatStack[n-1]
			it.repeatStack = it.repeatStack[:n-1]
			it.curActive = true
		} else {
			it.curActive = false
		}
		it.pc = pc + bytecode.LenRepeat
		it.depth--
		return
	}
	it.curRepeat.remaining--
	loopTop, _ := it.Image.ReadRepeat(pc)
	it.pc = loopTop
}

func (it *Interpreter) evalCond(c bytecode.Cond) bool {
	r := it.World.Robot
	switch c {
	case bytecode.CondIsWall:
		x, y, ok := r.PreviewStep(it.World.Grid.Size)
		return !ok || it.World.Grid.Get(x, y) == grid.Wall
	case bytecode.CondIsFlag:
		cell := it.World.Grid.Get(r.X, r.Y)
		return cell != 0 && cell != grid.Wall
	case bytecode.CondIsHome:
		return r.IsHome()
	case bytecode.CondIsNorth:
		return r.Facing == robot.North
	case bytecode.CondIsWest:
		return r.Facing == robot.West
	case bytecode.CondIsSouth:
		return r.Facing == robot.South
	case bytecode.CondIsEast:
		return r.Facing == robot.East
	default:
		return true // CondNone
	}
}

// Depth reports the sum of open call frames and repeat frames, for
// testing the ordering invariant that it always equals call-stack depth
// plus repeat-stack depth.
func (it *Interpreter) Depth() int {
	return it.depth
}

// CallDepth reports the number of currently-open BRANCH_LINKED frames.
func (it *Interpreter) CallDepth() int {
	return len(it.callStack)
}

// RepeatDepth reports the number of currently-nested REPEATs, including
// the innermost active one not yet pushed to the repeat stack.
func (it *Interpreter) RepeatDepth() int {
	n := len(it.repeatStack)
	if it.curActive {
		n++
	}
	return n
}
