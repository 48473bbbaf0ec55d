package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"jackc/compiler/internal"
)

// A compiler translating jack classes to vm code.

var (
	path      = flag.String("path", ".", "the jack file or the directory of jack files to compile")
	trace     = flag.Bool("trace", false, "whether write the parse trace to <Name>.xml")
	tokens    = flag.Bool("tokens", false, "whether write the token stream to <Name>T.xml")
	rightFold = flag.Bool("right_fold", false, "whether fold binary operators to the right")
	literal   = flag.Bool("literal_calls", false, "whether write calls as written, without this arguments and preambles")
	run       = flag.Bool("run", false, "whether run the compiled program on the vm emulator")
	verbose   = flag.Bool("v", false, "whether print debug logs")
)

func main() {
	flag.Parse()
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	err := internal.Compile(*path, internal.Option{
		Trace:        *trace,
		Tokens:       *tokens,
		RightFold:    *rightFold,
		LiteralCalls: *literal,
		Run:          *run,
	})
	if err != nil {
		fmt.Printf("Error: %+v\n", err)
		os.Exit(1)
	}
}
