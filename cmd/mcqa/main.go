// Command mcqa answers Vietnamese multiple-choice question sets with an LLM,
// optionally grounded by retrieval and a reason-act agent.
//
//	mcqa infer --dataset data/val.json --strategy cot --rag
//	mcqa eval --strategy cot --name val
//	mcqa submit --strategy cot --name test --format pdf
//	mcqa serve
//
// Configuration comes from the environment and .env.<env> (see --env).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := buildRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
