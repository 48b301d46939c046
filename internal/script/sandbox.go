package script

import (
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/svcconsole/internal/logging"
)

// installSandbox removes the loaders that could escape the state and
// installs print and the console module.
func installSandbox(L *lua.LState, log *logging.Logger) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}

	log = log.WithComponent("lua")
	logArgs := func(L *lua.LState) string {
		n := L.GetTop()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		return strings.Join(parts, " ")
	}

	// Lua output never reaches the console transport.
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		log.Debug(logArgs(L))
		return 0
	}))

	start := time.Now()
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"log": func(L *lua.LState) int {
			log.Info(logArgs(L))
			return 0
		},
		"now_ms": func(L *lua.LState) int {
			L.Push(lua.LNumber(time.Now().UnixMilli()))
			return 1
		},
		"uptime_ms": func(L *lua.LState) int {
			L.Push(lua.LNumber(time.Since(start).Milliseconds()))
			return 1
		},
	})
	L.SetGlobal("console", mod)
}
