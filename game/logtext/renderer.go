package logtext

import (
	"strconv"
	"strings"

	"github.com/wricardo/mountain-goats/game/engine"
	"golang.org/x/text/message"
)

// Renderer turns log entries into text for one language
type Renderer struct {
	printer *message.Printer
}

// NewRenderer returns a renderer for the given language preference
func NewRenderer(lang string) *Renderer {
	return &Renderer{printer: message.NewPrinter(ResolveTag(lang))}
}

// Render formats a single entry
func (r *Renderer) Render(entry engine.LogEntry) string {
	p := entry.Payload
	name := entry.PlayerName

	switch entry.Kind {
	case engine.EventGameStarted:
		return r.printer.Sprintf(keyGameStarted, p.NumPlayers)
	case engine.EventDiceRolled:
		values := make([]string, len(p.Dice))
		for i, v := range p.Dice {
			values[i] = strconv.Itoa(v)
		}
		return r.printer.Sprintf(keyDiceRolled, strings.Join(values, ", "))
	case engine.EventDieChanged:
		return r.printer.Sprintf(keyDieChanged, name, p.Value)
	case engine.EventGoatMoved:
		return r.printer.Sprintf(keyGoatMoved, name, int(p.Mountain), p.Sum)
	case engine.EventGoatReachedTop:
		return r.printer.Sprintf(keyGoatReachTop, name, int(p.Mountain))
	case engine.EventTokenClaimed:
		if p.AlreadyOnTop {
			return r.printer.Sprintf(keyTokenOnTop, name, p.Value)
		}
		return r.printer.Sprintf(keyTopClaimed, name, p.Value)
	case engine.EventBonusClaimed:
		return r.printer.Sprintf(keyBonusClaimed, name, p.Value)
	case engine.EventTurnStarted:
		return r.printer.Sprintf(keyTurnStarted, name, entry.Turn)
	case engine.EventGameEnded:
		if len(p.Winners) == 1 {
			return r.printer.Sprintf(keySingleWinner, p.Winners[0], p.Score)
		}
		joiner := r.printer.Sprintf(keyPlayersJoiner)
		return r.printer.Sprintf(keyTiedWinners, strings.Join(p.Winners, joiner), p.Score)
	default:
		return r.printer.Sprintf(keyUnknownEntry, name, string(entry.Kind))
	}
}

// RenderAll formats entries in order
func (r *Renderer) RenderAll(entries []engine.LogEntry) []string {
	lines := make([]string, len(entries))
	for i, entry := range entries {
		lines[i] = r.Render(entry)
	}
	return lines
}
