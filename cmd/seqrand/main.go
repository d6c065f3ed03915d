// Command seqrand randomizes the order of reads in FASTQ files.
//
//	seqrand randomize in.fastq.gz out.fastq.gz
//	seqrand randomize -s 42 -c 1000000 in_R1.fq in_R2.fq out_R1.fq out_R2.fq
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
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
