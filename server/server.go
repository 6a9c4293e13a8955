package server

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/aortez/dirtsim/config"
	"github.com/aortez/dirtsim/evolution"
	"github.com/aortez/dirtsim/genome"
	"github.com/aortez/dirtsim/scenario"
	"github.com/aortez/dirtsim/telemetry"
	"github.com/aortez/dirtsim/world"
)

// rpcTimeout is the default correlation-token round trip budget (spec.md
// §7): a command that doesn't get a response within this window produces
// Error{Kind:"Timeout"} without mutating server state.
const rpcTimeout = 5 * time.Second

// commandEnvelope pairs an inbound Command with the channel its Response
// is delivered on.
type commandEnvelope struct {
	cmd  Command
	resp chan Response
}

// Server is the single-owner state machine: one goroutine (Run) drains the
// inbox and advances the active world, so every handler below may touch
// server/world state without locking — only the inbox channel itself is
// safe for concurrent senders. Grounded on
// original_source/apps/src/server/states/SimRunning.cpp and Evolution.cpp
// for the Idle/SimRunning/Evolution/Shutdown transition table.
type Server struct {
	state State

	scenarios   *scenario.Registry
	repo        *genome.Repository
	evoEngine   *evolution.Engine
	rng         *rand.Rand

	world           *world.World
	currentScenario scenario.Scenario
	scenarioName    string

	fingers map[string]fingerSession

	unsaved *evolution.UnsavedTrainingResult

	perf *telemetry.PerfCollector

	inbox chan commandEnvelope
}

// NewServer builds a Server in the Idle state, owning repo for genome
// persistence across both SimRunning seeding and Evolution results.
func NewServer(repo *genome.Repository) *Server {
	s := &Server{
		state:     StateIdle,
		scenarios: scenario.NewRegistry(),
		repo:      repo,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		fingers:   make(map[string]fingerSession),
		perf:      telemetry.NewPerfCollector(0),
		inbox:     make(chan commandEnvelope, 64),
	}
	s.evoEngine = evolution.NewEngine(repo)
	return s
}

// SetOutput attaches a telemetry.OutputManager to the evolution engine so
// EvolutionStart runs write a per-generation progress CSV.
func (s *Server) SetOutput(out *telemetry.OutputManager) {
	s.evoEngine.Output = out
}

// State returns the server's current state.
func (s *Server) State() State { return s.state }

// Run owns the tick thread: it drains commands as they arrive and, once
// per tickInterval, advances the active world if SimRunning. It returns
// when ctx is cancelled or an Exit command transitions to Shutdown.
func (s *Server) Run(ctx context.Context, tickInterval time.Duration) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-s.inbox:
			env.resp <- s.dispatch(env.cmd)
			if s.state == StateShutdown {
				return
			}
		case <-ticker.C:
			if s.state == StateSimRunning && s.world != nil {
				start := time.Now()
				s.world.Tick(world.FixedDT)
				s.perf.RecordTick(time.Since(start))
			}
		}
	}
}

// SendCommandAndGetResponse enqueues cmd and blocks for its Response,
// producing a Timeout response if either the inbox is full or the
// dispatcher does not answer within rpcTimeout.
func (s *Server) SendCommandAndGetResponse(cmd Command) Response {
	resp := make(chan Response, 1)
	env := commandEnvelope{cmd: cmd, resp: resp}
	timer := time.NewTimer(rpcTimeout)
	defer timer.Stop()
	select {
	case s.inbox <- env:
	case <-timer.C:
		return errResponse(cmd.Token, ErrTimeout, "Timeout")
	}
	select {
	case r := <-resp:
		return r
	case <-timer.C:
		return errResponse(cmd.Token, ErrTimeout, "Timeout")
	}
}

// dispatch executes one command synchronously against current server
// state. Called only from within Run's goroutine.
func (s *Server) dispatch(cmd Command) Response {
	switch cmd.Tag {
	case "StatusGet":
		return s.handleStatusGet(cmd)
	case "Exit":
		return s.handleExit(cmd)
	case "ScenarioListGet":
		return s.handleScenarioListGet(cmd)
	case "ScenarioSwitch":
		return s.handleScenarioSwitch(cmd)
	case "WorldResize":
		return s.handleWorldResize(cmd)
	case "Reset":
		return s.handleReset(cmd)
	case "SimRun":
		return s.handleSimRun(cmd)
	case "SimStop":
		return s.handleSimStop(cmd)
	case "CellGet":
		return s.handleCellGet(cmd)
	case "CellSet":
		return s.handleCellSet(cmd)
	case "SeedAdd":
		return s.handleSeedAdd(cmd)
	case "SpawnDirtBall":
		return s.handleSpawnDirtBall(cmd)
	case "GravitySet":
		return s.handleGravitySet(cmd)
	case "PhysicsSettingsGet":
		return s.handlePhysicsSettingsGet(cmd)
	case "PhysicsSettingsSet":
		return s.handlePhysicsSettingsSet(cmd)
	case "FingerDown":
		return s.handleFingerDown(cmd)
	case "FingerMove":
		return s.handleFingerMove(cmd)
	case "FingerUp":
		return s.handleFingerUp(cmd)
	case "GenomeSet":
		return s.handleGenomeSet(cmd)
	case "GenomeGet":
		return s.handleGenomeGet(cmd)
	case "GenomeGetBest":
		return s.handleGenomeGetBest(cmd)
	case "GenomeList":
		return s.handleGenomeList(cmd)
	case "GenomeDelete":
		return s.handleGenomeDelete(cmd)
	case "EvolutionStart":
		return s.handleEvolutionStart(cmd)
	case "EvolutionStop":
		return s.handleEvolutionStop(cmd)
	case "TrainingResultGet":
		return s.handleTrainingResultGet(cmd)
	case "TrainingResultList":
		return s.handleTrainingResultList(cmd)
	case "TrainingResultAvailableAck":
		return okResponse(cmd.Token, nil)
	case "TrainingResultSave":
		return s.handleTrainingResultSave(cmd)
	case "TrainingResultDiscard":
		return s.handleTrainingResultDiscard(cmd)
	case "PeersGet":
		return okResponse(cmd.Token, PeersResult{})
	case "PerfStatsGet":
		return okResponse(cmd.Token, s.perf.Stats())
	case "TimerStatsGet":
		return okResponse(cmd.Token, s.perf.Stats())
	case "DiagramGet":
		return okResponse(cmd.Token, s.state.String())
	case "ClockEventTrigger":
		return s.handleClockEventTrigger(cmd)
	default:
		return errResponse(cmd.Token, fmt.Errorf("%w: unknown tag %q", ErrBadCommand, cmd.Tag), "BadCommand")
	}
}

func (s *Server) handleStatusGet(cmd Command) Response {
	result := StatusResult{State: s.state.String()}
	if s.world != nil {
		result.WorldWidth = s.world.Grid.Width
		result.WorldHeight = s.world.Grid.Height
		result.TickCount = s.world.TickCount
		result.OrganismCount = s.world.Organisms.Count()
	}
	return okResponse(cmd.Token, result)
}

func (s *Server) handleExit(cmd Command) Response {
	s.state = StateShutdown
	return okResponse(cmd.Token, nil)
}

func (s *Server) handleScenarioListGet(cmd Command) Response {
	return okResponse(cmd.Token, ScenarioListResult{Names: s.scenarios.Names()})
}

func (s *Server) handleScenarioSwitch(cmd Command) Response {
	req, ok := cmd.Payload.(ScenarioSwitchRequest)
	if !ok {
		return errResponse(cmd.Token, ErrBadCommand, "BadCommand")
	}
	if s.world == nil {
		s.world = world.New(1, 1, s.rng)
	}
	sc, err := scenario.Switch(s.scenarios, req.Name, s.world)
	if err != nil {
		return errResponse(cmd.Token, err, "UnknownScenario")
	}
	s.currentScenario = sc
	s.scenarioName = req.Name
	s.world.AddForceSource(fingerForceSource{s})
	s.state = StateIdle
	return okResponse(cmd.Token, nil)
}

func (s *Server) handleWorldResize(cmd Command) Response {
	req, ok := cmd.Payload.(WorldResizeRequest)
	if !ok {
		return errResponse(cmd.Token, ErrBadCommand, "BadCommand")
	}
	if s.world == nil {
		return errResponse(cmd.Token, ErrNoWorld, "NoWorld")
	}
	s.world.Resize(req.Width, req.Height)
	s.world.AddForceSource(fingerForceSource{s})
	s.fingers = make(map[string]fingerSession)
	return okResponse(cmd.Token, nil)
}

func (s *Server) handleReset(cmd Command) Response {
	if s.world == nil || s.currentScenario == nil {
		return errResponse(cmd.Token, ErrNoWorld, "NoWorld")
	}
	s.currentScenario.Reset(s.world)
	s.fingers = make(map[string]fingerSession)
	s.state = StateIdle
	return okResponse(cmd.Token, nil)
}

func (s *Server) handleSimRun(cmd Command) Response {
	if s.world == nil {
		return errResponse(cmd.Token, ErrNoWorld, "NoWorld")
	}
	if s.state != StateIdle {
		return errResponse(cmd.Token, ErrWrongState, "WrongState")
	}
	s.state = StateSimRunning
	return okResponse(cmd.Token, nil)
}

func (s *Server) handleSimStop(cmd Command) Response {
	if s.state == StateSimRunning {
		s.state = StateIdle
	}
	return okResponse(cmd.Token, nil)
}

func (s *Server) handleCellGet(cmd Command) Response {
	req, ok := cmd.Payload.(CellGetRequest)
	if !ok {
		return errResponse(cmd.Token, ErrBadCommand, "BadCommand")
	}
	if s.world == nil {
		return errResponse(cmd.Token, ErrNoWorld, "NoWorld")
	}
	c, err := s.world.Grid.At(req.X, req.Y)
	if err != nil {
		return errResponse(cmd.Token, err, "InvalidCoordinates")
	}
	return okResponse(cmd.Token, CellGetResult{Material: c.Material, FillRatio: c.FillRatio})
}

func (s *Server) handleCellSet(cmd Command) Response {
	req, ok := cmd.Payload.(CellSetRequest)
	if !ok {
		return errResponse(cmd.Token, ErrBadCommand, "BadCommand")
	}
	if s.world == nil {
		return errResponse(cmd.Token, ErrNoWorld, "NoWorld")
	}
	if err := s.world.Grid.ReplaceMaterial(req.X, req.Y, req.Material, req.Fill); err != nil {
		return errResponse(cmd.Token, err, "InvalidCoordinates")
	}
	return okResponse(cmd.Token, nil)
}

func (s *Server) handleSeedAdd(cmd Command) Response {
	req, ok := cmd.Payload.(SeedAddRequest)
	if !ok {
		return errResponse(cmd.Token, ErrBadCommand, "BadCommand")
	}
	if s.world == nil {
		return errResponse(cmd.Token, ErrNoWorld, "NoWorld")
	}
	var weights []float32
	if req.GenomeID != nil {
		g, err := s.repo.Get(*req.GenomeID)
		if err != nil {
			return errResponse(cmd.Token, ErrMissingGenome, "MissingGenome")
		}
		weights = g.Weights
	}
	id, err := s.world.SpawnTree(req.X, req.Y, "", weights)
	if err != nil {
		return errResponse(cmd.Token, err, "SpawnOccupied")
	}
	return okResponse(cmd.Token, SeedAddResult{OrganismID: uint32(id)})
}

func (s *Server) handleSpawnDirtBall(cmd Command) Response {
	req, ok := cmd.Payload.(CellSetRequest)
	if !ok {
		return errResponse(cmd.Token, ErrBadCommand, "BadCommand")
	}
	if s.world == nil {
		return errResponse(cmd.Token, ErrNoWorld, "NoWorld")
	}
	const radius = 2
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			x, y := req.X+dx, req.Y+dy
			if s.world.Grid.InBounds(x, y) {
				_ = s.world.Grid.ReplaceMaterial(x, y, req.Material, req.Fill)
			}
		}
	}
	return okResponse(cmd.Token, nil)
}

func (s *Server) handleGravitySet(cmd Command) Response {
	req, ok := cmd.Payload.(GravitySetRequest)
	if !ok {
		return errResponse(cmd.Token, ErrBadCommand, "BadCommand")
	}
	cfg := *config.Cfg()
	cfg.Physics.Gravity = req.Gravity
	config.Set(&cfg)
	return okResponse(cmd.Token, nil)
}

func (s *Server) handlePhysicsSettingsGet(cmd Command) Response {
	return okResponse(cmd.Token, config.Cfg().Physics)
}

func (s *Server) handlePhysicsSettingsSet(cmd Command) Response {
	req, ok := cmd.Payload.(PhysicsSettingsSetRequest)
	if !ok {
		return errResponse(cmd.Token, ErrBadCommand, "BadCommand")
	}
	cfg := *config.Cfg()
	cfg.Physics = req.Config
	config.Set(&cfg)
	return okResponse(cmd.Token, nil)
}

func (s *Server) handleFingerDown(cmd Command) Response {
	req, ok := cmd.Payload.(FingerDownRequest)
	if !ok {
		return errResponse(cmd.Token, ErrBadCommand, "BadCommand")
	}
	s.fingers[req.FingerID] = fingerSession{worldX: req.WorldX, worldY: req.WorldY, radius: req.Radius}
	return okResponse(cmd.Token, nil)
}

func (s *Server) handleFingerMove(cmd Command) Response {
	req, ok := cmd.Payload.(FingerMoveRequest)
	if !ok {
		return errResponse(cmd.Token, ErrBadCommand, "BadCommand")
	}
	fs, active := s.fingers[req.FingerID]
	if !active {
		return okResponse(cmd.Token, nil)
	}
	fs.moveX, fs.moveY = req.WorldX-fs.worldX, req.WorldY-fs.worldY
	fs.worldX, fs.worldY = req.WorldX, req.WorldY
	s.fingers[req.FingerID] = fs
	return okResponse(cmd.Token, nil)
}

func (s *Server) handleFingerUp(cmd Command) Response {
	req, ok := cmd.Payload.(FingerUpRequest)
	if !ok {
		return errResponse(cmd.Token, ErrBadCommand, "BadCommand")
	}
	delete(s.fingers, req.FingerID)
	return okResponse(cmd.Token, nil)
}

func (s *Server) handleGenomeSet(cmd Command) Response {
	req, ok := cmd.Payload.(GenomeSetRequest)
	if !ok {
		return errResponse(cmd.Token, ErrBadCommand, "BadCommand")
	}
	overwritten := s.repo.Set(req.ID, req.Weights, req.Metadata)
	return okResponse(cmd.Token, GenomeSetResult{Success: true, Overwritten: overwritten})
}

func (s *Server) handleGenomeGet(cmd Command) Response {
	req, ok := cmd.Payload.(GenomeGetRequest)
	if !ok {
		return errResponse(cmd.Token, ErrBadCommand, "BadCommand")
	}
	g, err := s.repo.Get(req.ID)
	if err != nil {
		return okResponse(cmd.Token, GenomeGetResult{Found: false})
	}
	return okResponse(cmd.Token, GenomeGetResult{Found: true, ID: req.ID, Weights: g.Weights, Metadata: g.Metadata})
}

func (s *Server) handleGenomeGetBest(cmd Command) Response {
	id, g, ok := s.repo.GetBest()
	if !ok {
		return okResponse(cmd.Token, GenomeGetResult{Found: false})
	}
	return okResponse(cmd.Token, GenomeGetResult{Found: true, ID: id, Weights: g.Weights, Metadata: g.Metadata})
}

func (s *Server) handleGenomeList(cmd Command) Response {
	return okResponse(cmd.Token, GenomeListResult{Genomes: s.repo.List()})
}

func (s *Server) handleGenomeDelete(cmd Command) Response {
	req, ok := cmd.Payload.(GenomeDeleteRequest)
	if !ok {
		return errResponse(cmd.Token, ErrBadCommand, "BadCommand")
	}
	err := s.repo.Delete(req.ID)
	return okResponse(cmd.Token, GenomeDeleteResult{Success: err == nil})
}

// handleEvolutionStart runs one full generational training session
// synchronously in the tick goroutine: a training run builds its own
// private per-individual worlds (evolution.Engine.Evaluate), so it neither
// reads nor mutates s.world, and the long-running Run call blocks this
// command's response until the whole session finishes, matching
// Evolution.cpp's own blocking run-to-completion state.
func (s *Server) handleEvolutionStart(cmd Command) Response {
	req, ok := cmd.Payload.(EvolutionStartRequest)
	if !ok {
		return errResponse(cmd.Token, ErrBadCommand, "BadCommand")
	}
	if s.state != StateIdle {
		return errResponse(cmd.Token, ErrWrongState, "WrongState")
	}
	s.state = StateEvolution
	result, err := s.evoEngine.Run(req.TrainingSpec, req.EvolutionConfig, req.MutationConfig, s.rng, nil)
	if err != nil {
		s.state = StateIdle
		return errResponse(cmd.Token, err, "EvolutionFailed")
	}
	s.unsaved = result
	s.state = StateUnsavedTrainingResult
	return okResponse(cmd.Token, nil)
}

func (s *Server) handleEvolutionStop(cmd Command) Response {
	if s.state == StateEvolution {
		s.state = StateIdle
	}
	return okResponse(cmd.Token, nil)
}

func (s *Server) handleTrainingResultGet(cmd Command) Response {
	if s.unsaved == nil {
		return okResponse(cmd.Token, nil)
	}
	return okResponse(cmd.Token, *s.unsaved)
}

func (s *Server) handleTrainingResultList(cmd Command) Response {
	if s.unsaved == nil {
		return okResponse(cmd.Token, []evolution.Candidate{})
	}
	return okResponse(cmd.Token, s.unsaved.Candidates)
}

func (s *Server) handleTrainingResultSave(cmd Command) Response {
	req, ok := cmd.Payload.(TrainingResultSaveRequest)
	if !ok {
		return errResponse(cmd.Token, ErrBadCommand, "BadCommand")
	}
	if s.unsaved == nil {
		return errResponse(cmd.Token, ErrWrongState, "WrongState")
	}
	saved := s.unsaved.Save(s.repo, req.IDs)
	s.unsaved = nil
	s.state = StateIdle
	return okResponse(cmd.Token, TrainingResultSaveResult{SavedIDs: saved})
}

func (s *Server) handleTrainingResultDiscard(cmd Command) Response {
	if s.unsaved != nil {
		s.unsaved.Discard()
		s.unsaved = nil
	}
	s.state = StateIdle
	return okResponse(cmd.Token, nil)
}

// handleClockEventTrigger answers Unsupported: no registered scenario is a
// Clock scenario.
func (s *Server) handleClockEventTrigger(cmd Command) Response {
	return errResponse(cmd.Token, scenario.ErrUnsupported, "Unsupported")
}

