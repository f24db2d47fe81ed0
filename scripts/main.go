package main

import (
	"flag"
	"log"

	"github.com/tutordesk/tutordesk/scripts/internal"
)

var commands = map[string]func() error{
	"import-clients": internal.ImportClients,
	"renewal-batch":  internal.RunRenewalBatch,
}

func main() {
	cmd := flag.String("cmd", "", "script to run: import-clients, renewal-batch")
	flag.Parse()

	run, ok := commands[*cmd]
	if !ok {
		log.Fatalf("unknown command %q", *cmd)
	}
	if err := run(); err != nil {
		log.Fatalf("%s failed: %v", *cmd, err)
	}
}
