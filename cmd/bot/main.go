package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	"commons.ai/internal/protocol"
)

func main() {
	var (
		url     = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		agentID = flag.String("agent", "", "agent id to control (empty takes the first free agent)")
		seed    = flag.Uint64("seed", 0, "policy seed (0 picks one from the clock)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		AgentID:         *agentID,
		MaxQueue:        8,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	var rng *rand.Rand
	if *seed != 0 {
		rng = rand.New(rand.NewPCG(*seed, *seed))
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	var vocab []string

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			vocab = w.Actions
			logger.Printf("WELCOME agent_id=%s map=%dx%d agents=%d seed=%d", w.AgentID, w.WorldParams.Width, w.WorldParams.Height, w.WorldParams.NumAgents, w.WorldParams.Seed)

		case protocol.TypeObs:
			var obs protocol.ObsMsg
			if err := json.Unmarshal(msg, &obs); err != nil || len(vocab) == 0 {
				continue
			}
			if obs.Tick%100 == 0 {
				logger.Printf("tick=%d episode=%d pos=%v reward=%d", obs.Tick, obs.Episode, obs.Self.Pos, obs.Self.Reward)
			}
			act := protocol.ActMsg{
				Type:            protocol.TypeAct,
				ProtocolVersion: protocol.Version,
				Tick:            obs.Tick,
				Action:          vocab[rng.IntN(len(vocab))],
			}
			if err := conn.WriteJSON(act); err != nil {
				return
			}

		case protocol.TypeError:
			var e protocol.ErrorMsg
			if err := json.Unmarshal(msg, &e); err == nil {
				logger.Printf("ERROR %s: %s", e.Code, e.Message)
			}
			if e.Code == protocol.ErrWorldBusy || e.Code == protocol.ErrAgentTaken || e.Code == protocol.ErrUnknownAgent {
				return
			}
		}
	}
}
