// Package karelvm is the public facade over the Karel bytecode VM: VM
// lifecycle, load/reset, invocation by symbol, world import/export, and
// status reporting. It is the only package in this module meant to be
// imported by an embedder; internal/grid, internal/robot,
// internal/bytecode and internal/vm are THE CORE and do not depend on
// the facade, history or events packages.
package karelvm

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"karelvm/internal/bytecode"
	"karelvm/internal/events"
	"karelvm/internal/grid"
	"karelvm/internal/history"
	"karelvm/internal/robot"
	vmpkg "karelvm/internal/vm"
)

// GridSize is the reference configuration's fixed square map side.
const GridSize = 20

// Status mirrors spec §6's status codes; it is a strict superset of
// internal/vm's Status, adding the configuration-class codes that never
// reach the interpreter.
type Status int

const (
	StatusSuccess Status = iota
	StatusInProgress
	StatusUnknownError
	StatusNotInitialized
	StatusFileNotFound
	StatusCompilationError
	StatusStateNotValid
	StatusSymbolNotFound
	StatusStepOutOfBounds
	StatusPickupZeroFlags
	StatusPlaceMaxFlags
	StatusStopEncountered
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusInProgress:
		return "IN_PROGRESS"
	case StatusUnknownError:
		return "UNKNOWN_ERROR"
	case StatusNotInitialized:
		return "NOT_INITIALIZED"
	case StatusFileNotFound:
		return "FILE_NOT_FOUND"
	case StatusCompilationError:
		return "COMPILATION_ERROR"
	case StatusStateNotValid:
		return "STATE_NOT_VALID"
	case StatusSymbolNotFound:
		return "SYMBOL_NOT_FOUND"
	case StatusStepOutOfBounds:
		return "STEP_OUT_OF_BOUNDS"
	case StatusPickupZeroFlags:
		return "PICKUP_ZERO_FLAGS"
	case StatusPlaceMaxFlags:
		return "PLACE_MAX_FLAGS"
	case StatusStopEncountered:
		return "STOP_ENCOUNTERED"
	default:
		return "UNKNOWN_ERROR"
	}
}

func fromInterpreterStatus(s vmpkg.Status) Status {
	switch s {
	case vmpkg.StatusSuccess:
		return StatusSuccess
	case vmpkg.StatusInProgress:
		return StatusInProgress
	case vmpkg.StatusStepOutOfBounds:
		return StatusStepOutOfBounds
	case vmpkg.StatusPickupZeroFlags:
		return StatusPickupZeroFlags
	case vmpkg.StatusPlaceMaxFlags:
		return StatusPlaceMaxFlags
	case vmpkg.StatusStopEncountered:
		return StatusStopEncountered
	default:
		return StatusUnknownError
	}
}

// Compiler turns source text into a bytecode image and symbol table. It
// is the out-of-scope collaborator spec §1 and §6 describe; this module
// only consumes its output. DefaultCompiler is a stand-in that expects
// source to already be a container written by bytecode.EncodeContainer,
// for embedders and the bundled CLI host that work directly in
// bytecode rather than Karel source text.
type Compiler interface {
	Compile(source []byte) (*bytecode.Image, *bytecode.SymbolTable, error)
}

// DefaultCompiler decodes a bytecode container produced out-of-band.
type DefaultCompiler struct{}

// Compile implements Compiler by decoding source with bytecode.DecodeContainer.
func (DefaultCompiler) Compile(source []byte) (*bytecode.Image, *bytecode.SymbolTable, error) {
	return bytecode.DecodeContainer(source)
}

// RobotRecord is the five-word robot import/export record: (px, py, d,
// hx, hy).
type RobotRecord struct {
	PX, PY uint32
	D      uint32
	HX, HY uint32
}

// SymbolEntry is one row of DumpSymbols' output.
type SymbolEntry struct {
	Name string
	PC   uint32
}

// VM is one Karel VM instance: lifecycle, load-validity flags, an
// exclusive lock shared by load/run operations, and optional audit/event
// wiring. Zero value is not usable; construct with Init.
type VM struct {
	ID uuid.UUID

	lock *semaphore.Weighted

	// runMu guards currentInterp, which ShortCircuit reaches for from a
	// goroutine other than the one executing RunSymbol.
	runMu         sync.Mutex
	currentInterp *vmpkg.Interpreter

	compiler Compiler

	image  *bytecode.Image
	symtab *bytecode.SymbolTable
	world  *vmpkg.World

	bytecodeValid bool
	worldValid    bool

	// History and Events are optional; nil means "not wired". Init sets
	// Events to a fresh bus and leaves History nil; set History after
	// Init to get an audit trail.
	History *history.Store
	Events  *events.Bus
}

// Init constructs a VM ready for load_bytecode/load_world. compiler may
// be nil, in which case DefaultCompiler{} is used.
func Init(compiler Compiler) *VM {
	if compiler == nil {
		compiler = DefaultCompiler{}
	}
	return &VM{
		ID:       uuid.New(),
		lock:     semaphore.NewWeighted(1),
		compiler: compiler,
		world: &vmpkg.World{
			Grid:  grid.New(GridSize),
			Robot: &robot.Robot{},
		},
		Events: events.NewBus(),
	}
}

// Destroy releases resources (closing History, if configured) and
// invalidates the load flags. The VM is not usable afterward.
func (v *VM) Destroy() error {
	v.bytecodeValid = false
	v.worldValid = false
	v.image = nil
	v.symtab = nil
	if v.History != nil {
		return v.History.Close()
	}
	return nil
}

// errLockBusy is returned by tryLocked when another load/run already
// holds the facade lock, distinct from any error fn itself returns.
var errLockBusy = errors.New("facade: a load or run is already in progress")

// tryLocked runs fn under the facade lock's non-blocking probe. Returns
// errLockBusy without calling fn if another load/run is already in
// progress. load_*/load_world use this — they are quick, synchronous
// configuration operations, not runs an embedder would want to queue
// behind.
func (v *VM) tryLocked(fn func() error) error {
	if !v.lock.TryAcquire(1) {
		return errLockBusy
	}
	defer v.lock.Release(1)
	return fn()
}

// LoadBytecode compiles source and, on success, replaces the current
// image and symbol table wholesale.
func (v *VM) LoadBytecode(source []byte) Status {
	err := v.tryLocked(func() error {
		im, st, err := v.compiler.Compile(source)
		if err != nil {
			return errors.Wrap(err, "load_bytecode")
		}
		v.image = im
		v.symtab = st
		v.bytecodeValid = true
		return nil
	})
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, errLockBusy):
		return StatusUnknownError
	default:
		return StatusCompilationError
	}
}

// LoadBytecodeFile reads path and calls LoadBytecode with its contents.
func (v *VM) LoadBytecodeFile(path string) Status {
	data, err := os.ReadFile(path)
	if err != nil {
		return StatusFileNotFound
	}
	return v.LoadBytecode(data)
}

// LoadWorld overwrites the grid and robot wholesale. cells is row-major,
// length GridSize*GridSize, 255 meaning wall; robotRecord is (px,py,d,hx,hy).
func (v *VM) LoadWorld(cells []byte, robotRecord RobotRecord) Status {
	err := v.tryLocked(func() error {
		if len(cells) != GridSize*GridSize {
			return errors.Errorf("load_world: expected %d cells, got %d", GridSize*GridSize, len(cells))
		}
		v.world.Grid.Reset(cells)
		v.world.Robot.X = int(robotRecord.PX)
		v.world.Robot.Y = int(robotRecord.PY)
		v.world.Robot.Facing = int(robotRecord.D)
		v.world.Robot.HomeX = int(robotRecord.HX)
		v.world.Robot.HomeY = int(robotRecord.HY)
		v.worldValid = true
		return nil
	})
	if err != nil {
		return StatusUnknownError
	}
	return StatusSuccess
}

// ReadWorld exports the grid in the same layout LoadWorld accepts (wall
// nibbles emitted as 255). out must have length GridSize*GridSize.
func (v *VM) ReadWorld(out []byte) Status {
	if !v.worldValid {
		return StatusStateNotValid
	}
	v.world.Grid.Export(out)
	return StatusSuccess
}

// DumpSymbols returns every bound (name, entry PC) pair. Order is
// unspecified.
func (v *VM) DumpSymbols() []SymbolEntry {
	if v.symtab == nil {
		return nil
	}
	var out []SymbolEntry
	v.symtab.Iterate(func(name string, pc bytecode.PC) {
		out = append(out, SymbolEntry{Name: name, PC: uint32(pc)})
	})
	return out
}

// RunSymbol resolves name to a bytecode entry point and drives the
// interpreter to completion, blocking until a run already in progress
// releases the facade lock (ctx may cancel the wait itself). When the
// interpreter ran, on return its terminal status has been published, an
// audit row recorded if History is configured, and a Transition
// published on Events. A cancelled wait, STATE_NOT_VALID and
// SYMBOL_NOT_FOUND return without an audit row or a Transition.
func (v *VM) RunSymbol(ctx context.Context, name string) Status {
	if err := v.lock.Acquire(ctx, 1); err != nil {
		return StatusUnknownError
	}
	defer v.lock.Release(1)

	if !v.bytecodeValid || !v.worldValid {
		return StatusStateNotValid
	}
	entry, ok := v.symtab.Lookup(name)
	if !ok {
		return StatusSymbolNotFound
	}

	it := vmpkg.New(v.image, v.world)
	v.runMu.Lock()
	v.currentInterp = it
	v.runMu.Unlock()

	started := time.Now()
	raw := it.Run(entry)
	elapsed := time.Since(started)

	v.runMu.Lock()
	v.currentInterp = nil
	v.runMu.Unlock()

	status := fromInterpreterStatus(raw)
	v.publish(name, status, started, elapsed)
	return status
}

// ShortCircuit requests cooperative interruption of a run currently in
// progress, if any. Safe to call from any goroutine at any time,
// including when no run is in progress (a no-op then).
func (v *VM) ShortCircuit() {
	v.runMu.Lock()
	it := v.currentInterp
	v.runMu.Unlock()
	if it != nil {
		it.ShortCircuit()
	}
}

func (v *VM) publish(symbol string, status Status, started time.Time, elapsed time.Duration) {
	runID := uuid.NewString()
	if v.Events != nil {
		v.Events.Publish(events.Transition{
			VMID:      v.ID.String(),
			RunID:     runID,
			Symbol:    symbol,
			Status:    status.String(),
			Timestamp: started.Add(elapsed),
		})
	}
	if v.History == nil {
		return
	}
	rec := history.RunRecord{
		RunID:     runID,
		VMID:      v.ID.String(),
		Symbol:    symbol,
		Status:    status.String(),
		StartedAt: started,
		Duration:  elapsed,
		RobotX:    v.world.Robot.X,
		RobotY:    v.world.Robot.Y,
		RobotD:    v.world.Robot.Facing,
	}
	if err := v.History.Record(context.Background(), rec); err != nil {
		log.Printf("karelvm: vm=%s symbol=%s: history record failed after %s: %v",
			v.ID, symbol, humanize.RelTime(started, started.Add(elapsed), "", ""), err)
	}
}
