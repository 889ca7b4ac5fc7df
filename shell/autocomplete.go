package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"
)

// ShellCompleter completes command names, options and arguments.
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

type CommandMetadata struct {
	Options []string
	Args    []string
}

var commandMetadata = map[string]CommandMetadata{
	"search":   {Options: []string{"-depth", "-movetime", "-nodes", "-play"}},
	"moves":    {Options: []string{"-uci"}},
	"autoplay": {Options: []string{"-games", "-threads", "-depth", "-depth1", "-movetime", "-randomplies", "-maxplies", "-seed", "-file", "-hist"}},
	"position": {Args: []string{"startpos", "moves"}},
	"tt":       {Args: []string{"clear", "move", "resize"}},
	"set":      {Args: settable},
	"help":     {Args: []string{"search", "position", "perft", "script", "tt", "autoplay"}},
}

var commandNames = []string{
	"help", "position", "moves", "play", "undo", "show", "outcome", "search",
	"perft", "divide", "see", "eval", "tt", "set", "script", "autoplay", "exit",
}

var boolValues = []string{"true", "false"}

// Do implements the readline.AutoCompleter interface.
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])
	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string
	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}
		var lastCompleteField string
		if endsWithSpace {
			lastCompleteField = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastCompleteField = fields[len(fields)-2]
		}
		switch lastCompleteField {
		case "-play", "-uci", "-hist":
			completions = boolValues
		}
		if completions == nil {
			metadata := commandMetadata[cmdName]
			if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
				completions = metadata.Options
			} else {
				completions = metadata.Args
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}
