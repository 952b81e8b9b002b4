package logtext

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	keyGameStarted   = "log.game_started"
	keyDiceRolled    = "log.dice_rolled"
	keyDieChanged    = "log.die_changed"
	keyGoatMoved     = "log.goat_moved"
	keyGoatReachTop  = "log.goat_reached_top"
	keyTopClaimed    = "log.token_claimed.top"
	keyTokenOnTop    = "log.token_claimed.already_on_top"
	keyBonusClaimed  = "log.bonus_claimed"
	keyTurnStarted   = "log.turn_started"
	keySingleWinner  = "log.game_ended.winner"
	keyTiedWinners   = "log.game_ended.tie"
	keyUnknownEntry  = "log.unknown"
	keyPlayersJoiner = "log.players_joiner"
)

var english = map[string]string{
	keyGameStarted:   "Game started with %d players",
	keyDiceRolled:    "Rolled: [%s]",
	keyDieChanged:    "%s changed a die to %d",
	keyGoatMoved:     "%s moved goat up mountain %d (sum: %d)",
	keyGoatReachTop:  "%s moved to top of mountain %d",
	keyTopClaimed:    "%s moved to top and claimed a %d point token",
	keyTokenOnTop:    "%s claimed a %d point token (goat already at top)",
	keyBonusClaimed:  "%s claimed a %d bonus token for complete set",
	keyTurnStarted:   "%s started turn %d",
	keySingleWinner:  "%s wins with %d points!",
	keyTiedWinners:   "Tie! %s win with %d points!",
	keyUnknownEntry:  "%s: %s",
	keyPlayersJoiner: " and ",
}

var supportedTags = []language.Tag{
	language.English,
}

var tagMatcher = language.NewMatcher(supportedTags)

func init() {
	for key, msg := range english {
		message.SetString(language.English, key, msg)
	}
}

// Supported returns the languages the catalog can render
func Supported() []language.Tag {
	tags := make([]language.Tag, len(supportedTags))
	copy(tags, supportedTags)
	return tags
}

// Default returns the fallback language
func Default() language.Tag {
	return language.English
}

// ResolveTag maps a stored language preference to a supported tag. Blank or
// unparsable preferences resolve to the default.
func ResolveTag(lang string) language.Tag {
	parsed, err := language.Parse(lang)
	if err != nil {
		return Default()
	}
	_, index, confidence := tagMatcher.Match(parsed)
	if confidence == language.No {
		return Default()
	}
	return supportedTags[index]
}
