// Package builtin provides a small vocabulary of general-purpose console
// commands. The engine has no commands of its own; applications pick the
// ones they want and append their own.
package builtin

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/dshills/svcconsole/internal/command"
	"github.com/dshills/svcconsole/internal/console/token"
)

// Separator joins the lines of a multi-line response.
const Separator = "\r\n"

// Env supplies the state the built-in commands report on. Registry and
// Metrics are functions so that commands always see the current values
// after a reload swaps the registry.
type Env struct {
	Version  string
	Started  time.Time
	Clock    func() time.Time
	Registry func() *command.Registry
	Metrics  func() *command.Metrics
}

func (e *Env) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}

func (e *Env) registry() *command.Registry {
	if e.Registry == nil {
		return nil
	}
	return e.Registry()
}

func (e *Env) metrics() *command.Metrics {
	if e.Metrics == nil {
		return nil
	}
	return e.Metrics()
}

// Commands returns every built-in command in help order.
func Commands(env *Env) []command.Descriptor {
	if env == nil {
		env = &Env{}
	}
	tick := &ticker{}
	return []command.Descriptor{
		{Name: "HELP", Args: 0, Handler: command.HandlerFunc(env.help), Description: "list commands"},
		{Name: "FIND", Args: 1, Handler: command.HandlerFunc(env.find), Description: "search commands by name"},
		{Name: "VERSION", Args: 0, Handler: command.HandlerFunc(env.version), Description: "show version"},
		{Name: "ECHO", Args: 1, Handler: command.HandlerFunc(echo), Description: "repeat the argument"},
		{Name: "UPTIME", Args: 0, Handler: command.HandlerFunc(env.uptime), Description: "time since start"},
		{Name: "STATS", Args: 0, Handler: command.HandlerFunc(env.stats), Description: "dispatch statistics"},
		{Name: "TICK", Args: 0, Streaming: true, Handler: tick, Description: "stream a counter until Enter"},
	}
}

// Select returns the built-in commands whose names appear in names, in help
// order. An empty names selects all of them.
func Select(env *Env, names ...string) []command.Descriptor {
	all := Commands(env)
	if len(names) == 0 {
		return all
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.ToUpper(n)] = true
	}
	out := all[:0]
	for _, d := range all {
		if want[d.Name] {
			out = append(out, d)
		}
	}
	return out
}

func (e *Env) help(token.Args) string {
	reg := e.registry()
	if reg == nil || reg.Len() == 0 {
		return "no commands"
	}
	return formatTable(reg.Descriptors())
}

func formatTable(descs []command.Descriptor) string {
	width := 0
	for _, d := range descs {
		width = max(width, len(d.Name))
	}
	lines := make([]string, 0, len(descs))
	for _, d := range descs {
		line := fmt.Sprintf("%-*s %d", width, d.Name, d.Args)
		if d.Streaming {
			line += " S"
		} else {
			line += "  "
		}
		if d.Description != "" {
			line += " " + d.Description
		}
		lines = append(lines, strings.TrimRight(line, " "))
	}
	return strings.Join(lines, Separator)
}

func (e *Env) find(args token.Args) string {
	reg := e.registry()
	if reg == nil {
		return "no match"
	}
	word := args.String(0)
	ranks := fuzzy.RankFindFold(word, reg.Names())
	if len(ranks) == 0 {
		return "no match"
	}
	sort.Stable(ranks)

	names := make([]string, len(ranks))
	for i, r := range ranks {
		names[i] = r.Target
	}
	return strings.Join(names, " ")
}

func (e *Env) version(token.Args) string {
	if e.Version == "" {
		return "dev"
	}
	return e.Version
}

func echo(args token.Args) string {
	return args.String(0)
}

func (e *Env) uptime(token.Args) string {
	if e.Started.IsZero() {
		return "0s"
	}
	return e.now().Sub(e.Started).Truncate(time.Second).String()
}

func (e *Env) stats(token.Args) string {
	m := e.metrics()
	if m == nil {
		return "metrics disabled"
	}
	lines := []string{fmt.Sprintf("dispatches=%d diagnostics=%d panics=%d ticks=%d",
		m.TotalDispatches(), m.TotalDiagnostics(), m.TotalPanics(), m.TotalStreamTicks())}
	for _, cm := range m.TopCommands(5) {
		lines = append(lines, fmt.Sprintf("%s n=%d max=%s", cm.Name, cm.DispatchCount, cm.MaxDuration))
	}
	return strings.Join(lines, Separator)
}

// ticker answers each streaming tick with an increasing counter.
type ticker struct {
	n atomic.Uint64
}

func (t *ticker) Handle(token.Args) string {
	return "TICK " + strconv.FormatUint(t.n.Add(1), 10)
}
