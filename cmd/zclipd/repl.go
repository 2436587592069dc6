package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/zclip-go/zclipd/pkg/inspect"
	"github.com/zclip-go/zclipd/pkg/service"
)

// runREPL drives an interactive command loop for reading and writing
// attributes on the running device, grounded on
// cmd/mash-device/interactive/device.go's command-loop shape but built
// on github.com/chzyer/readline instead of a bare bufio.Reader, for
// history and line editing.
func runREPL(ctx context.Context, cancel context.CancelFunc, svc *service.Service) {
	rl, err := readline.New("zclipd> ")
	if err != nil {
		fmt.Println("repl: failed to start:", err)
		return
	}
	defer rl.Close()

	insp := inspect.NewInspector(svc.Device())
	printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			cancel()
			return
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := strings.ToLower(fields[0]), fields[1:]

		switch cmd {
		case "help", "?":
			printHelp()
		case "read", "r":
			cmdRead(insp, args)
		case "write", "w":
			cmdWrite(insp, args)
		case "quit", "exit", "q":
			fmt.Println("exiting...")
			cancel()
			return
		default:
			fmt.Printf("unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func printHelp() {
	fmt.Print(`
Commands:
  read <path>        read one attribute, or every attribute on a cluster
  write <path> <val> write an attribute
  help               show this help
  quit               exit

Path format: <endpoint>/<role><cluster>/<attribute>, e.g. 1/s6/0
role is 'c' for client or 's' for server; ids may be decimal or 0x-hex.
Omit the attribute segment to read every attribute on the cluster.
`)
}

func cmdRead(insp *inspect.Inspector, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: read <path>")
		return
	}
	path, err := inspect.ParsePath(args[0])
	if err != nil {
		fmt.Println("invalid path:", err)
		return
	}

	if path.IsPartial {
		values, err := insp.ReadAll(path)
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		for id, v := range values {
			fmt.Printf("  %#04x = %s\n", id, inspect.FormatValue(v))
		}
		return
	}

	v, attr, err := insp.Read(path)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("%s = %s\n", attr.Name(), inspect.FormatValue(v))
}

func cmdWrite(insp *inspect.Inspector, args []string) {
	if len(args) != 2 {
		fmt.Println("usage: write <path> <value>")
		return
	}
	path, err := inspect.ParsePath(args[0])
	if err != nil {
		fmt.Println("invalid path:", err)
		return
	}
	if path.IsPartial {
		fmt.Println("write requires a full path including an attribute id")
		return
	}
	if err := insp.Write(path, inspect.ParseValue(args[1])); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("ok")
}
