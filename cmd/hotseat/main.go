package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/cbodonnell/angelreaper/pkg/game"
	"github.com/cbodonnell/angelreaper/pkg/game/history"
	"github.com/cbodonnell/angelreaper/pkg/game/types"
	"github.com/cbodonnell/angelreaper/pkg/log"
	"github.com/cbodonnell/angelreaper/pkg/state"
	"github.com/cbodonnell/angelreaper/pkg/version"
)

func main() {
	players := flag.String("players", "alice,bob,carol", "comma-separated player names in turn order")
	seed := flag.Int64("seed", 0, "shuffle seed, 0 picks one from the clock")
	logLevel := flag.String("log-level", "warn", "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}
	log.SetDefaultLogger(log.NewConsole(os.Stderr, parsedLogLevel))

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	log.Debug("Starting hot-seat version %s with seed %d", version.Get(), *seed)

	seeds := []types.PlayerSeed{}
	for _, name := range strings.Split(*players, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		seeds = append(seeds, types.PlayerSeed{ID: strings.ToLower(name), Name: name})
	}

	session := state.NewLocalSession(state.NewLocalSessionOptions{
		Machine: game.NewMachine(game.NewMachineOptions{Rand: rand.New(rand.NewSource(*seed))}),
	})
	if err := run(context.Background(), session, seeds, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, session *state.LocalSession, seeds []types.PlayerSeed, in io.Reader, out io.Writer) error {
	printed := 0
	session.OnChange(func(s *types.MatchState, action game.Action) {
		if len(s.Logs) < printed {
			printed = 0
		}
		lines := history.Format(s)
		for _, l := range lines[printed:] {
			fmt.Fprintf(out, "  %s\n", l.Text)
		}
		printed = len(lines)
	})

	if _, err := session.Dispatch(ctx, game.Initialize{Players: seeds}); err != nil {
		return fmt.Errorf("failed to start match: %v", err)
	}
	fmt.Fprintln(out, `Type "help" for commands.`)
	render(out, session)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		cmd, err := parseCommand(scanner.Text())
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}

		switch cmd.kind {
		case commandQuit:
			return nil
		case commandHelp:
			fmt.Fprintln(out, usage)
		case commandHistory:
			s, err := session.Get(ctx)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			for _, l := range history.Format(s) {
				fmt.Fprintf(out, "%s  %s\n", l.At, l.Text)
			}
		case commandShow:
			render(out, session)
		case commandView:
			if err := session.SetViewpoint(cmd.arg); err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			render(out, session)
		case commandAuto:
			s, err := session.Get(ctx)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			action, ok := game.DefaultAction(s)
			if !ok {
				fmt.Fprintln(out, "nobody has anything to do")
				continue
			}
			dispatch(ctx, out, session, action)
		case commandAction:
			dispatch(ctx, out, session, cmd.action)
		}
	}
}

func dispatch(ctx context.Context, out io.Writer, session *state.LocalSession, action game.Action) {
	if _, err := session.Dispatch(ctx, action); err != nil {
		fmt.Fprintf(out, "rejected: %v\n", err)
		return
	}
	render(out, session)
}

func render(out io.Writer, session *state.LocalSession) {
	s := session.View()
	if s == nil {
		return
	}
	fmt.Fprintf(out, "\nround %d, %s", s.RoundNumber, s.Phase)
	if s.BidAmount > 0 {
		fmt.Fprintf(out, ", bid %d by %s", s.BidAmount, s.HighestBidderID)
	}
	if s.CardsRemainingToReveal > 0 {
		fmt.Fprintf(out, ", %d to reveal", s.CardsRemainingToReveal)
	}
	fmt.Fprintln(out)

	for i, p := range s.Players {
		marker := " "
		if p.ID == s.TurnPlayerID {
			marker = "*"
		}
		status := ""
		switch {
		case !p.Alive:
			status = " (out)"
		case p.Passed:
			status = " (passed)"
		case p.Ready && s.Phase == types.PhaseRoundSetup:
			status = " (ready)"
		}
		fmt.Fprintf(out, "%s %d %-10s wins %d  hand %s  stack %s%s\n",
			marker, i, p.ID, p.RoundWins, cards(p.Hand), cards(p.Stack), status)
	}
	if s.WinnerID != "" {
		fmt.Fprintf(out, "%s wins the match\n", s.WinnerID)
	} else if actors := game.CurrentActors(s); len(actors) > 0 {
		fmt.Fprintf(out, "waiting on %s\n", strings.Join(actors, ", "))
	}
}

func cards(cs []types.Card) string {
	if len(cs) == 0 {
		return "-"
	}
	parts := make([]string, len(cs))
	for i, c := range cs {
		switch c.Kind {
		case types.CardKindAngel:
			parts[i] = "A"
		case types.CardKindReaper:
			parts[i] = "R"
		default:
			parts[i] = "?"
		}
		if c.FaceUp {
			parts[i] = strings.ToLower(parts[i])
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}
