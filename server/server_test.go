package server

import (
	"context"
	"testing"
	"time"

	"github.com/aortez/dirtsim/genome"
	"github.com/aortez/dirtsim/material"
)

func newTestServer(t *testing.T) (*Server, context.CancelFunc) {
	t.Helper()
	s := NewServer(genome.NewRepository())
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx, time.Millisecond)
	return s, cancel
}

func TestStatusGetBeforeScenarioSwitch(t *testing.T) {
	s, cancel := newTestServer(t)
	defer cancel()

	resp := s.SendCommandAndGetResponse(Command{Tag: "StatusGet", Token: "t1"})
	if !resp.Ok {
		t.Fatalf("StatusGet failed: %+v", resp.Err)
	}
	result, ok := resp.Result.(StatusResult)
	if !ok || result.State != "Idle" {
		t.Fatalf("result = %+v, want Idle state", resp.Result)
	}
}

func TestScenarioSwitchThenCellGet(t *testing.T) {
	s, cancel := newTestServer(t)
	defer cancel()

	resp := s.SendCommandAndGetResponse(Command{
		Tag:     "ScenarioSwitch",
		Token:   "t1",
		Payload: ScenarioSwitchRequest{Name: "TreeGermination"},
	})
	if !resp.Ok {
		t.Fatalf("ScenarioSwitch failed: %+v", resp.Err)
	}

	resp = s.SendCommandAndGetResponse(Command{
		Tag:     "CellGet",
		Token:   "t2",
		Payload: CellGetRequest{X: 0, Y: 0},
	})
	if !resp.Ok {
		t.Fatalf("CellGet failed: %+v", resp.Err)
	}
}

func TestCellGetWithoutWorldReturnsNoWorld(t *testing.T) {
	s, cancel := newTestServer(t)
	defer cancel()

	resp := s.SendCommandAndGetResponse(Command{
		Tag:     "CellGet",
		Token:   "t1",
		Payload: CellGetRequest{X: 0, Y: 0},
	})
	if resp.Ok || resp.Err.Kind != "NoWorld" {
		t.Fatalf("resp = %+v, want NoWorld error", resp)
	}
}

func TestSimRunThenSimStopTransitions(t *testing.T) {
	s, cancel := newTestServer(t)
	defer cancel()

	s.SendCommandAndGetResponse(Command{Tag: "ScenarioSwitch", Token: "t1", Payload: ScenarioSwitchRequest{Name: "TreeGermination"}})

	resp := s.SendCommandAndGetResponse(Command{Tag: "SimRun", Token: "t2", Payload: SimRunRequest{}})
	if !resp.Ok {
		t.Fatalf("SimRun failed: %+v", resp.Err)
	}
	time.Sleep(20 * time.Millisecond)

	status := s.SendCommandAndGetResponse(Command{Tag: "StatusGet", Token: "t3"})
	result := status.Result.(StatusResult)
	if result.State != "SimRunning" {
		t.Fatalf("state = %q, want SimRunning", result.State)
	}
	if result.TickCount == 0 {
		t.Fatal("expected at least one tick to have run")
	}

	resp = s.SendCommandAndGetResponse(Command{Tag: "SimStop", Token: "t4"})
	if !resp.Ok {
		t.Fatalf("SimStop failed: %+v", resp.Err)
	}
	status = s.SendCommandAndGetResponse(Command{Tag: "StatusGet", Token: "t5"})
	if status.Result.(StatusResult).State != "Idle" {
		t.Fatal("expected Idle after SimStop")
	}
}

func TestGenomeSetGetRoundTrip(t *testing.T) {
	s, cancel := newTestServer(t)
	defer cancel()

	id := genome.ID{1, 2, 3}
	weights := []float32{1, 2, 3}
	resp := s.SendCommandAndGetResponse(Command{
		Tag:     "GenomeSet",
		Token:   "t1",
		Payload: GenomeSetRequest{ID: id, Weights: weights, Metadata: genome.Metadata{Name: "test"}},
	})
	if !resp.Ok {
		t.Fatalf("GenomeSet failed: %+v", resp.Err)
	}

	resp = s.SendCommandAndGetResponse(Command{Tag: "GenomeGet", Token: "t2", Payload: GenomeGetRequest{ID: id}})
	result := resp.Result.(GenomeGetResult)
	if !result.Found || len(result.Weights) != 3 {
		t.Fatalf("result = %+v, want found weights of len 3", result)
	}
}

func TestGenomeGetMissingReturnsNotFound(t *testing.T) {
	s, cancel := newTestServer(t)
	defer cancel()

	resp := s.SendCommandAndGetResponse(Command{Tag: "GenomeGet", Token: "t1", Payload: GenomeGetRequest{ID: genome.ID{9}}})
	if !resp.Ok {
		t.Fatalf("GenomeGet should not error on missing id: %+v", resp.Err)
	}
	if resp.Result.(GenomeGetResult).Found {
		t.Fatal("expected Found=false for unknown id")
	}
}

func TestUnknownCommandTagReturnsBadCommand(t *testing.T) {
	s, cancel := newTestServer(t)
	defer cancel()

	resp := s.SendCommandAndGetResponse(Command{Tag: "NotARealCommand", Token: "t1"})
	if resp.Ok || resp.Err.Kind != "BadCommand" {
		t.Fatalf("resp = %+v, want BadCommand error", resp)
	}
}

func TestFingerDownMoveUpLifecycle(t *testing.T) {
	s, cancel := newTestServer(t)
	defer cancel()
	s.SendCommandAndGetResponse(Command{Tag: "ScenarioSwitch", Token: "t1", Payload: ScenarioSwitchRequest{Name: "TreeGermination"}})

	s.SendCommandAndGetResponse(Command{Tag: "FingerDown", Token: "t2", Payload: FingerDownRequest{FingerID: "f1", WorldX: 2, WorldY: 2, Radius: 3}})
	if len(s.fingers) != 1 {
		t.Fatalf("fingers = %d, want 1 after FingerDown", len(s.fingers))
	}

	s.SendCommandAndGetResponse(Command{Tag: "FingerMove", Token: "t3", Payload: FingerMoveRequest{FingerID: "f1", WorldX: 5, WorldY: 5}})
	if s.fingers["f1"].worldX != 5 {
		t.Fatal("FingerMove should update tracked position")
	}

	s.SendCommandAndGetResponse(Command{Tag: "FingerUp", Token: "t4", Payload: FingerUpRequest{FingerID: "f1"}})
	if len(s.fingers) != 0 {
		t.Fatal("FingerUp should remove the session")
	}
}

func TestExitTransitionsToShutdownAndStopsRun(t *testing.T) {
	s := NewServer(genome.NewRepository())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		s.Run(ctx, time.Millisecond)
		close(done)
	}()

	resp := s.SendCommandAndGetResponse(Command{Tag: "Exit", Token: "t1"})
	if !resp.Ok {
		t.Fatalf("Exit failed: %+v", resp.Err)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Exit")
	}
}

func TestSpawnDirtBallFillsCells(t *testing.T) {
	s, cancel := newTestServer(t)
	defer cancel()
	s.SendCommandAndGetResponse(Command{Tag: "ScenarioSwitch", Token: "t1", Payload: ScenarioSwitchRequest{Name: "TreeGermination"}})

	resp := s.SendCommandAndGetResponse(Command{
		Tag:     "SpawnDirtBall",
		Token:   "t2",
		Payload: CellSetRequest{X: 5, Y: 5, Material: material.Dirt, Fill: 1.0},
	})
	if !resp.Ok {
		t.Fatalf("SpawnDirtBall failed: %+v", resp.Err)
	}

	cellResp := s.SendCommandAndGetResponse(Command{Tag: "CellGet", Token: "t3", Payload: CellGetRequest{X: 5, Y: 5}})
	cell := cellResp.Result.(CellGetResult)
	if cell.Material != material.Dirt {
		t.Fatalf("center cell material = %v, want Dirt", cell.Material)
	}
}
