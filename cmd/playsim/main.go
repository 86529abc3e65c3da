// Command playsim is a local session runner for exercising rule
// modules without any network in front: it creates one session and
// feeds it actions from stdin, one JSON object per line:
//
//	{"player": "p1", "type": "move", "payload": {"from": 12, "to": 28}}
//
// Each accepted action prints the acting player's projected view;
// rejections print the failure kind and message. Useful for smoke
// runs and for reproducing reported rule bugs from session history.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/moltblox/gamekit/internal/config"
	"github.com/moltblox/gamekit/internal/engine"
	_ "github.com/moltblox/gamekit/internal/games"
	"github.com/moltblox/gamekit/internal/session"
)

type lineAction struct {
	Player  string         `json:"player"`
	Type    string         `json:"type"`
	Payload engine.Payload `json:"payload,omitempty"`
}

func main() {
	_ = godotenv.Load()

	var (
		gameID  = flag.String("game", "", "rule module id to run")
		players = flag.String("players", "p1,p2", "comma-separated player ids, in seat order")
		cfgJSON = flag.String("config", "", "per-game config as JSON")
		seed    = flag.String("seed", "", "deterministic rng seed (empty = system randomness)")
		list    = flag.Bool("list", false, "list registered rule modules and exit")
	)
	flag.Parse()

	if *list {
		for _, id := range engine.List() {
			fmt.Println(id)
		}
		return
	}
	if *gameID == "" {
		fmt.Fprintln(os.Stderr, "usage: playsim -game <id> [-players p1,p2] [-config '{...}'] [-seed s]")
		os.Exit(2)
	}

	hostCfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if lvl, err := zerolog.ParseLevel(hostCfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	var gameCfg engine.Config
	if *cfgJSON != "" {
		if err := json.Unmarshal([]byte(*cfgJSON), &gameCfg); err != nil {
			log.Fatal().Err(err).Msg("parse -config")
		}
	}

	var randFactory session.RandFactory
	if *seed != "" {
		randFactory = func() engine.Rand { return engine.NewStream(*seed, "playsim", 0) }
	}

	store := session.NewMemoryStore(hostCfg.SessionTTL)
	store.StartSweeper(hostCfg.SweepInterval)
	defer store.Stop()

	archive, err := session.OpenArchive(hostCfg.ArchivePath)
	if err != nil {
		log.Fatal().Err(err).Msg("open archive")
	}
	defer archive.Close()

	mgr := session.NewManager(store, archive, randFactory, log.Logger)
	ctx := context.Background()

	ids := strings.Split(*players, ",")
	rec, err := mgr.Create(ctx, *gameID, ids, gameCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create session")
	}
	fmt.Printf("session %s (%s) with players %v\n", rec.ID, rec.GameID, rec.PlayerIDs)

	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var act lineAction
		if err := json.Unmarshal([]byte(line), &act); err != nil {
			fmt.Printf("bad input: %v\n", err)
			continue
		}
		res, err := mgr.Submit(ctx, rec.ID, act.Player, engine.ActionRequest{
			Type:      act.Type,
			Payload:   act.Payload,
			Timestamp: time.Now(),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("submit")
		}
		if !res.Success {
			fmt.Printf("rejected (%s): %s\n", res.Kind, res.Error)
			continue
		}
		view, err := mgr.View(ctx, rec.ID, act.Player)
		if err != nil {
			log.Fatal().Err(err).Msg("view")
		}
		out, _ := json.Marshal(view)
		fmt.Println(string(out))
		if view.Phase == engine.PhaseEnded {
			fmt.Println("game over")
			return
		}
	}
	if err := sc.Err(); err != nil {
		log.Fatal().Err(err).Msg("read stdin")
	}
}
