// Package server implements the state machine and command dispatcher:
// Idle/SimRunning/Evolution/Shutdown, a bounded command inbox drained by a
// single tick-owning goroutine, and correlation-token request/response
// pairing with a 5-second RPC timeout. Grounded on
// original_source/apps/src/server/states/SimRunning.cpp and Evolution.cpp
// (the authoritative transition table and per-state owned-world lifecycle)
// and the api/*.h command/response payload shapes, rendered idiomatically
// with context.Context + channels in place of the original's explicit
// state-machine classes.
package server

import (
	"errors"

	"github.com/aortez/dirtsim/config"
	"github.com/aortez/dirtsim/evolution"
	"github.com/aortez/dirtsim/genome"
	"github.com/aortez/dirtsim/material"
)

// Error kinds, stable wire strings per spec.md §7.
var (
	ErrNoWorld        = errors.New("no active world")
	ErrBadCommand     = errors.New("malformed command")
	ErrTimeout        = errors.New("timeout")
	ErrSpawnOccupied  = errors.New("spawn target occupied")
	ErrMissingGenome  = errors.New("missing genome")
	ErrInvalidCoords  = errors.New("invalid coordinates")
	ErrUnsupported    = errors.New("unsupported for this scenario")
	ErrWrongState     = errors.New("command not valid in current state")
)

// State is the closed Idle|SimRunning|Evolution|UnsavedTrainingResult|Shutdown
// set (spec.md §3).
type State int

const (
	StateIdle State = iota
	StateSimRunning
	StateEvolution
	StateUnsavedTrainingResult
	StateShutdown
)

// String names a state for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateSimRunning:
		return "SimRunning"
	case StateEvolution:
		return "Evolution"
	case StateUnsavedTrainingResult:
		return "UnsavedTrainingResult"
	case StateShutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

// ErrorInfo is the wire-level {message, kind} error payload.
type ErrorInfo struct {
	Message string
	Kind    string
}

// Command is one inbound API request: a type tag, a correlation token, and
// a tag-specific payload (one of the *Request structs below).
type Command struct {
	Tag     string
	Token   string
	Payload interface{}
}

// Response is the {ok: true, ...} | {ok: false, error: {...}} envelope.
type Response struct {
	Token   string
	Ok      bool
	Result  interface{}
	Err     *ErrorInfo
}

func errResponse(token string, err error, kind string) Response {
	return Response{Token: token, Ok: false, Err: &ErrorInfo{Message: err.Error(), Kind: kind}}
}

func okResponse(token string, result interface{}) Response {
	return Response{Token: token, Ok: true, Result: result}
}

// --- Request payloads -------------------------------------------------

type CellGetRequest struct{ X, Y int }
type CellGetResult struct {
	Material  material.Kind
	FillRatio float32
}

type CellSetRequest struct {
	X, Y     int
	Material material.Kind
	Fill     float32
}

type SeedAddRequest struct {
	X, Y     int
	GenomeID *genome.ID
}
type SeedAddResult struct{ OrganismID uint32 }

type GravitySetRequest struct{ Gravity float32 }

type PhysicsSettingsSetRequest struct{ Config config.PhysicsConfig }
type PhysicsSettingsGetRequest struct{}

type WorldResizeRequest struct{ Width, Height int }

type SimRunRequest struct {
	Timestep   float32
	MaxSteps   int
	MaxFrameMs float32
}
type SimStopRequest struct{}
type ResetRequest struct{}
type ExitRequest struct{}

type ScenarioSwitchRequest struct{ Name string }
type ScenarioListGetRequest struct{}
type ScenarioListResult struct{ Names []string }
type ScenarioConfigSetRequest struct{ Config interface{} }

type FingerDownRequest struct {
	FingerID       string
	WorldX, WorldY float32
	Radius         float32
}
type FingerMoveRequest struct {
	FingerID       string
	WorldX, WorldY float32
}
type FingerUpRequest struct{ FingerID string }

type GenomeSetRequest struct {
	ID       genome.ID
	Weights  []float32
	Metadata genome.Metadata
}
type GenomeSetResult struct {
	Success     bool
	Overwritten bool
}

type GenomeGetRequest struct{ ID genome.ID }
type GenomeGetResult struct {
	Found    bool
	ID       genome.ID
	Weights  []float32
	Metadata genome.Metadata
}

type GenomeListRequest struct{}
type GenomeListResult struct{ Genomes []genome.Entry }

type GenomeDeleteRequest struct{ ID genome.ID }
type GenomeDeleteResult struct{ Success bool }

type GenomeGetBestRequest struct{}

type EvolutionStartRequest struct {
	TrainingSpec    evolution.TrainingSpec
	EvolutionConfig config.EvolutionConfig
	MutationConfig  config.MutationConfig
}
type EvolutionStopRequest struct{}

type TrainingResultGetRequest struct{}
type TrainingResultListRequest struct{}
type TrainingResultAvailableAckRequest struct{}
type TrainingResultSaveRequest struct {
	IDs     []genome.ID
	Restart bool
}
type TrainingResultSaveResult struct{ SavedIDs []genome.ID }
type TrainingResultDiscardRequest struct{}

type StatusGetRequest struct{}
type StatusResult struct {
	State        string
	WorldWidth   int
	WorldHeight  int
	TickCount    uint64
	OrganismCount int
}

type PeersGetRequest struct{}
type PeersResult struct{ Peers []string }

type PerfStatsGetRequest struct{}
type TimerStatsGetRequest struct{}
type DiagramGetRequest struct{}
type ClockEventTriggerRequest struct{ EventName string }
type RenderFormatGetRequest struct{}
type RenderFormatSetRequest struct{ Format string }
