// petcli is an operator console for poking at a live store: insert, fetch,
// query and delete documents without going through the HTTP API.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ergochat/readline"

	petstore "github.com/afinana/go-server-petstore"
	"github.com/afinana/go-server-petstore/kv"
	"github.com/afinana/go-server-petstore/utils"
)

var completer = readline.NewPrefixCompleter(
	readline.PcItem("help"),

	readline.PcItem("get"),
	readline.PcItem("all"),
	readline.PcItem("find"),
	readline.PcItem("insert"),
	readline.PcItem("delete"),

	readline.PcItem("exit"),
	readline.PcItem("quit"),
)

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

type REPL struct {
	store  *petstore.Store
	client *kv.Client
	rl     *readline.Instance
}

func (repl *REPL) Open(addr string) (err error) {
	repl.rl, err = readline.NewEx(&readline.Config{
		Prompt:          "pet> ",
		HistoryFile:     ".petcli_history",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return
	}
	repl.rl.CaptureExitSignal()

	log := utils.NewDefaultLogger(slog.LevelWarn)
	repl.client, err = kv.Open(kv.Options{Addr: addr}, log)
	if err != nil {
		return
	}
	repl.store = petstore.NewStore(repl.client, log)
	return
}

func (repl *REPL) Close() error {
	if repl.rl != nil {
		_ = repl.rl.Close()
		repl.rl = nil
	}
	if repl.client != nil {
		_ = repl.client.Close()
		repl.client = nil
	}
	return nil
}

func (repl *REPL) REPL() error {
	line, err := repl.rl.Readline()
	if err == readline.ErrInterrupt && len(line) != 0 {
		return nil
	}
	if err != nil {
		return err
	}

	line = strings.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}
	cmd := line
	arg := ""
	if ws := strings.IndexAny(line, " \t"); ws > 0 {
		cmd = line[:ws]
		arg = strings.TrimSpace(line[ws:])
	}

	switch cmd {
	case "get":
		err = repl.CommandGet(arg)
	case "all", "ls", "list":
		err = repl.CommandAll(arg)
	case "find":
		err = repl.CommandFind(arg)
	case "insert", "put":
		err = repl.CommandInsert(arg)
	case "delete", "del":
		err = repl.CommandDelete(arg)
	case "help":
		err = repl.CommandHelp(arg)
	case "exit", "quit":
		err = io.EOF
	default:
		_, _ = fmt.Fprintf(os.Stderr, "command unknown: %s\n", cmd)
	}
	return err
}

func main() {
	addr := "127.0.0.1:6379"
	if uri := os.Getenv("REDIS_URI"); uri != "" {
		addr = uri
	}
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}

	repl := REPL{}
	err := repl.Open(addr)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	defer repl.Close()

	for {
		err = repl.REPL()
		if err == io.EOF {
			break
		}
		if err != nil {
			_, _ = fmt.Fprintf(os.Stdout, "%s\n", err.Error())
		}
	}
}
