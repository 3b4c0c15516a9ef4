package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cbodonnell/angelreaper/pkg/game"
)

type commandKind int

const (
	commandAction commandKind = iota
	commandAuto
	commandView
	commandShow
	commandHistory
	commandHelp
	commandQuit
)

var actionVerbs = map[string]bool{
	"setup": true, "unsetup": true, "ready": true,
	"place": true, "unplace": true, "confirm": true,
	"bid": true, "raise": true, "pass": true,
	"reveal": true, "discard": true, "next": true,
	"advance": true, "reset": true,
}

type command struct {
	kind   commandKind
	action game.Action
	// arg is the player id of a view command
	arg string
}

const usage = `Actions are "<verb> <player> [argument]":
  setup <player> <card>     place a setup card
  unsetup <player>          take back the last setup card
  ready <player>            mark ready
  place <player> <card>     place a card on the stack
  unplace <player>          take back the card placed this turn
  confirm <player>          end the placement turn
  bid <player> <amount>     start a bid
  raise <player> <amount>   raise the bid
  pass <player>             pass on the bid
  reveal <player> <target>  reveal the top card of target's stack
  discard <player> <card>   discard a card after a failed bid
  next <player> <index>     choose who leads the next round
  advance <player>          start the next round
  reset <player>            after the match, start a new one with the same players
Other commands:
  auto                      take the default action for the current player
  view <player>             show the table as player sees it
  show                      show the table
  history                   print the match log
  help                      print this help
  quit                      exit`

// parseCommand turns one line of input into a command.
func parseCommand(line string) (*command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	verb := strings.ToLower(fields[0])
	args := fields[1:]

	switch verb {
	case "auto":
		return &command{kind: commandAuto}, nil
	case "show":
		return &command{kind: commandShow}, nil
	case "history":
		return &command{kind: commandHistory}, nil
	case "help", "?":
		return &command{kind: commandHelp}, nil
	case "quit", "exit":
		return &command{kind: commandQuit}, nil
	case "view":
		if len(args) != 1 {
			return nil, fmt.Errorf("usage: view <player>")
		}
		return &command{kind: commandView, arg: args[0]}, nil
	}

	if !actionVerbs[verb] {
		return nil, fmt.Errorf("unknown command %q, type help", verb)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("%s needs a player", verb)
	}
	player := args[0]
	rest := args[1:]

	var action game.Action
	switch verb {
	case "unsetup":
		action = game.ReturnSetupCard{PlayerID: player}
	case "ready":
		action = game.MarkReady{PlayerID: player}
	case "unplace":
		action = game.ReturnPlacedCard{PlayerID: player}
	case "confirm":
		action = game.ConfirmPlacement{PlayerID: player}
	case "pass":
		action = game.Pass{PlayerID: player}
	case "advance":
		action = game.AdvanceRound{PlayerID: player}
	case "reset":
		action = game.ResetMatch{PlayerID: player}
	case "reveal":
		if len(rest) != 1 {
			return nil, fmt.Errorf("usage: reveal <player> <target>")
		}
		action = game.RevealCard{PlayerID: player, TargetPlayerID: rest[0]}
	case "setup", "place", "bid", "raise", "discard", "next":
		if len(rest) != 1 {
			return nil, fmt.Errorf("usage: %s <player> <number>", verb)
		}
		n, err := strconv.Atoi(rest[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a number", verb, rest[0])
		}
		action = numbered(verb, player, n)
	}
	return &command{kind: commandAction, action: action}, nil
}

func numbered(verb, player string, n int) game.Action {
	switch verb {
	case "setup":
		return game.PlaceSetupCard{PlayerID: player, CardIndex: n}
	case "place":
		return game.PlaceCard{PlayerID: player, CardIndex: n}
	case "bid":
		return game.StartBid{PlayerID: player, Amount: n}
	case "raise":
		return game.RaiseBid{PlayerID: player, Amount: n}
	case "discard":
		return game.SelectPenaltyCard{PlayerID: player, CardIndex: n}
	default:
		return game.SelectNextPlayer{PlayerID: player, NextPlayerIndex: n}
	}
}
