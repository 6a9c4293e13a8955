// Package main is the server daemon entry point: it owns the Idle/
// SimRunning/Evolution/Shutdown state machine (package server) and drives
// its tick loop. The wire transport that would carry commands in from a
// UI process is explicitly out of scope (spec.md's "no specific wire
// framing" / "the WebSocket transport" non-goals) — this binary boots the
// state machine, switches to a named scenario, and runs it for a bounded
// duration, logging status on an interval, which is the part of the
// daemon's lifecycle this module owns.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/aortez/dirtsim/config"
	"github.com/aortez/dirtsim/genome"
	"github.com/aortez/dirtsim/server"
	"github.com/aortez/dirtsim/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Config YAML file (empty = use embedded defaults)")
	scenarioName := flag.String("scenario", "TreeGermination", "Scenario to run")
	duration := flag.Duration("duration", 0, "How long to run before exiting (0 = run until interrupted)")
	logInterval := flag.Duration("log-interval", 5*time.Second, "StatusGet logging interval")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("dirtsimd: load config: %v", err)
	}

	repo := genome.NewRepository()
	s := server.NewServer(repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	done := make(chan struct{})
	go func() {
		s.Run(ctx, 16*time.Millisecond)
		close(done)
	}()

	if resp := s.SendCommandAndGetResponse(server.Command{
		Tag:     "ScenarioSwitch",
		Token:   "boot",
		Payload: server.ScenarioSwitchRequest{Name: *scenarioName},
	}); !resp.Ok {
		log.Fatalf("dirtsimd: scenario switch: %s", resp.Err.Message)
	}
	if resp := s.SendCommandAndGetResponse(server.Command{Tag: "SimRun", Token: "boot-run"}); !resp.Ok {
		log.Fatalf("dirtsimd: sim run: %s", resp.Err.Message)
	}

	telemetry.Logf("dirtsimd started, scenario=%s", *scenarioName)

	ticker := time.NewTicker(*logInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.SendCommandAndGetResponse(server.Command{Tag: "Exit", Token: "shutdown"})
			<-done
			telemetry.Logf("dirtsimd shut down")
			return
		case <-ticker.C:
			resp := s.SendCommandAndGetResponse(server.Command{Tag: "StatusGet", Token: "status"})
			if resp.Ok {
				telemetry.Logf("status: %+v", resp.Result)
			}
		}
	}
}
