package shell

import (
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
)

var scriptCommands = []string{
	"position", "play", "undo", "moves", "search", "perft", "set", "show", "outcome",
}

func getShell(L *lua.LState) *ShellController {
	shell := L.GetGlobal("lisco_shell")
	ud, ok := shell.(*lua.LUserData)
	if !ok {
		panic("luserdata not right type")
	}
	sc, ok := ud.Value.(*ShellController)
	if !ok {
		panic("shellcontroller not right type")
	}
	return sc
}

// luaCommand runs a shell command, the Lua argument being its argument
// line, and pushes its output.
func luaCommand(name string) lua.LGFunction {
	return func(L *lua.LState) int {
		sc := getShell(L)
		line := strings.TrimSpace(name + " " + L.OptString(1, ""))
		r, err := sc.standardModeSwitch(line, nil)
		if err != nil {
			log.Err(err).Str("command", name).Msg("error-executing-script-command")
			L.Push(lua.LString("ERROR: " + err.Error()))
			return 1
		}
		if r == nil {
			L.Push(lua.LString(""))
		} else {
			L.Push(lua.LString(r.message))
		}
		// return number of results pushed to stack.
		return 1
	}
}

func (sc *ShellController) runScript(source string, isFile bool) error {
	L := lua.NewState()
	defer L.Close()

	lsc := L.NewUserData()
	lsc.Value = sc
	L.SetGlobal("lisco_shell", lsc)
	for _, name := range scriptCommands {
		L.SetGlobal("lisco_"+name, L.NewFunction(luaCommand(name)))
	}
	if isFile {
		return L.DoFile(source)
	}
	return L.DoString(source)
}

func (sc *ShellController) script(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("need arguments for script")
	}
	if err := sc.runScript(cmd.args[0], true); err != nil {
		log.Err(err).Msg("there was a error")
		return nil, err
	}
	return nil, nil
}
