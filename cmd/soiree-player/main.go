package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/soiree-app/soiree/internal/client"
	"github.com/soiree-app/soiree/internal/playback"
	"github.com/soiree-app/soiree/internal/playback/mpvctl"
)

func main() {
	cmd := &cli.Command{
		Name:  "soiree-player",
		Usage: "join an event and play its playlist through mpv",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "server",
				Usage: "soireed base URL",
				Value: "http://localhost:3000",
			},
			&cli.StringFlag{
				Name:     "code",
				Usage:    "event access code",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "display name for this participant",
				Value: "player",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("soiree-player: %v", err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runtimeReady := playback.LoadRuntime(mpvctl.CheckRuntime)

	api := client.New(cmd.String("server"))
	joined, err := api.JoinEvent(ctx, cmd.String("code"), cmd.String("name"))
	if err != nil {
		return fmt.Errorf("join event: %w", err)
	}
	log.Printf("soiree-player: joined %q as %s", joined.Event.Name, joined.Participant.ID)

	select {
	case <-runtimeReady:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := playback.RuntimeErr(); err != nil {
		return fmt.Errorf("player runtime: %w", err)
	}

	player := mpvctl.New()
	if err := player.Start(ctx); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	feed, err := client.DialFeed(cmd.String("server"), joined.Event.ID)
	if err != nil {
		player.Close()
		return fmt.Errorf("dial feed: %w", err)
	}

	engine := playback.NewEngine(joined.Event.ID, api, feed, player, playback.Options{})
	go engine.Run(ctx)
	defer engine.Close()

	go commandLoop(ctx, engine, cancel)

	select {
	case <-ctx.Done():
	case <-engine.Done():
	}
	return nil
}

// commandLoop reads single-line commands from stdin and drives the engine.
func commandLoop(ctx context.Context, engine *playback.Engine, quit context.CancelFunc) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		arg := ""
		if len(fields) > 1 {
			arg = fields[1]
		}

		switch fields[0] {
		case "play":
			engine.Play()
		case "pause":
			engine.Pause()
		case "next":
			engine.NextItem()
		case "prev":
			engine.PreviousItem()
		case "select":
			i, err := strconv.Atoi(arg)
			if err != nil {
				fmt.Println("usage: select <index>")
				continue
			}
			engine.Select(i)
		case "seek":
			s, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				fmt.Println("usage: seek <seconds>")
				continue
			}
			engine.Seek(s)
		case "vol":
			v, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				fmt.Println("usage: vol <0-100>")
				continue
			}
			engine.SetVolume(v / 100)
		case "mute":
			engine.ToggleMute()
		case "shuffle":
			engine.SetShuffle(arg != "off")
		case "repeat":
			engine.SetRepeat(arg != "off")
		case "status":
			printState(engine.State())
		case "quit", "exit":
			quit()
			return
		default:
			fmt.Println("commands: play pause next prev select seek vol mute shuffle repeat status quit")
		}
	}
}

func printState(st playback.State) {
	title := "-"
	if st.Current != nil {
		title = st.Current.Title
	}
	fmt.Printf("%s  [%d/%d]  %s  %.0fs/%.0fs  vol=%.0f shuffle=%v repeat=%v\n",
		st.Status, st.Index+1, len(st.Items), title,
		st.ProgressSeconds, st.DurationSeconds, st.Volume*100, st.Shuffle, st.Repeat)
}
