package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/phonekimera/lisco-sub000/config"
	"github.com/phonekimera/lisco-sub000/game"
)

var (
	errNoData            = errors.New("no data in line")
	errWrongOptionSyntax = errors.New("wrong format for option")
	errQuit              = errors.New("sending quit signal")
)

type ShellController struct {
	l   *readline.Instance
	cfg *config.Config

	game    *game.Game
	out     io.Writer
	version string
}

type shellcmd struct {
	cmd     string
	args    []string
	options map[string]string
}

type Response struct {
	message string
}

func msg(message string) *Response {
	return &Response{message: message}
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func newController(cfg *config.Config, out io.Writer) (*ShellController, error) {
	g, err := game.NewGame(cfg)
	if err != nil {
		return nil, err
	}
	return &ShellController{cfg: cfg, game: g, out: out}, nil
}

// NewShellController returns a shell reading commands from the terminal.
func NewShellController(cfg *config.Config, version string) (*ShellController, error) {
	sc, err := newController(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}
	sc.version = version
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[32mlisco>\033[0m ",
		HistoryFile:     "/tmp/lisco_readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",
		AutoComplete:    NewShellCompleter(sc),

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return nil, err
	}
	sc.l = l
	sc.out = l.Stderr()
	return sc, nil
}

func (sc *ShellController) showMessage(msg string) {
	io.WriteString(sc.out, msg)
	io.WriteString(sc.out, "\n")
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// extractFields splits a command line into the command, its arguments and
// its -key value options.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := map[string]string{}
	for i := 1; i < len(fields); i++ {
		// A negative number is an argument, not an option.
		if strings.HasPrefix(fields[i], "-") && !isNumber(fields[i]) {
			if i == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			options[fields[i][1:]] = fields[i+1]
			i++
			continue
		}
		args = append(args, fields[i])
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

func isNumber(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

func (c *shellcmd) intOption(key string, dflt int) (int, error) {
	v, ok := c.options[key]
	if !ok {
		return dflt, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("option -%s: %w", key, err)
	}
	return i, nil
}

func (sc *ShellController) standardModeSwitch(line string, sig chan os.Signal) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	switch cmd.cmd {
	case "exit", "bye", "quit":
		if sig != nil {
			sig <- syscall.SIGINT
		}
		return nil, errQuit
	case "help":
		return sc.help(cmd)
	case "position", "pos":
		return sc.position(cmd)
	case "moves":
		return sc.moves(cmd)
	case "play":
		return sc.play(cmd)
	case "undo":
		return sc.undo(cmd)
	case "perft":
		return sc.perft(cmd)
	case "divide":
		return sc.divide(cmd)
	case "search", "go":
		return sc.search(cmd)
	case "see":
		return sc.see(cmd)
	case "eval":
		return sc.eval(cmd)
	case "tt":
		return sc.tt(cmd)
	case "show", "s":
		return sc.show(cmd)
	case "outcome":
		return sc.outcome(cmd)
	case "set":
		return sc.set(cmd)
	case "script":
		return sc.script(cmd)
	case "autoplay":
		return sc.autoplay(cmd)
	}
	log.Debug().Msgf("you said: %v", strconv.Quote(line))
	return nil, fmt.Errorf("unknown command %q, try help", cmd.cmd)
}

// Execute runs a single command line.
func (sc *ShellController) Execute(sig chan os.Signal, line string) {
	resp, err := sc.standardModeSwitch(line, sig)
	if err != nil {
		if !errors.Is(err, errQuit) {
			sc.showError(err)
		}
		return
	}
	if resp != nil {
		sc.showMessage(resp.message)
	}
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()
	if sc.version != "" {
		sc.showMessage("lisco " + sc.version)
	}
	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			}
			continue
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		resp, err := sc.standardModeSwitch(line, sig)
		if errors.Is(err, errQuit) {
			break
		}
		if err != nil {
			sc.showError(err)
			continue
		}
		if resp != nil {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}

// Cleanup stops a search that may still be running.
func (sc *ShellController) Cleanup() {
	sc.game.StopSearch()
}
