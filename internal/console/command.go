package console

import (
	"strings"

	"github.com/Iron-Ham/pokebattle/internal/errors"
)

// ErrUnknownCommand is the cause of the error Parse returns for a word it
// does not recognise.
var ErrUnknownCommand = errors.New("unknown command")

// Action is one thing the user can ask for.
type Action string

const (
	ActionNone   Action = ""
	ActionAttack Action = "attack"
	ActionBoost  Action = "boost"
	ActionChat   Action = "chat"
	ActionStatus Action = "status"
	ActionHelp   Action = "help"
	ActionQuit   Action = "quit"
)

// Command is a parsed input line.
type Command struct {
	Action Action
	// Arg is the move name for attack and the text for chat.
	Arg string
}

var actions = map[string]Action{
	"a":      ActionAttack,
	"attack": ActionAttack,
	"b":      ActionBoost,
	"boost":  ActionBoost,
	"c":      ActionChat,
	"chat":   ActionChat,
	"say":    ActionChat,
	"s":      ActionStatus,
	"status": ActionStatus,
	"h":      ActionHelp,
	"help":   ActionHelp,
	"?":      ActionHelp,
	"q":      ActionQuit,
	"quit":   ActionQuit,
	"exit":   ActionQuit,
}

// Parse turns one input line into a Command. A blank line parses to
// ActionNone with no error.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, nil
	}

	word, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	action, ok := actions[strings.ToLower(word)]
	if !ok {
		return Command{}, errors.NewValidationError("unknown command: " + word + " (type help for commands)").
			WithValue(word).
			WithCause(ErrUnknownCommand)
	}

	switch action {
	case ActionAttack:
		if rest == "" {
			return Command{}, errors.NewValidationError("attack needs a move name").WithField("move")
		}
	case ActionChat:
		if rest == "" {
			return Command{}, errors.NewValidationError("chat needs some text").WithField("text")
		}
	default:
		if rest != "" {
			return Command{}, errors.NewValidationError(string(action) + " takes no arguments").WithValue(rest)
		}
	}
	return Command{Action: action, Arg: rest}, nil
}

// helpText lists the commands.
const helpText = `Commands:
  attack <move>   announce a move (your turn only)
  boost           spend a special attack boost on your next attack
  chat <text>     send a message to your opponent
  status          show both combatants
  help            show this list
  quit            leave the battle`
