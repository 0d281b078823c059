// Command persistsim drives the persist ring buffer from a host process:
// it binds a region (in-memory or file-backed via mmap), runs a synthetic
// producer, drains the consumer, and optionally mirrors/persists what it
// drained — exercising spec.md §8's scenarios end to end without real
// hardware.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"

	"github.com/korken89/defmt-persist"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	flagSet := flag.NewFlagSet("persistsim", flag.ContinueOnError)
	flagSet.SetOutput(errOut)

	size := flagSet.Int("size", 4096, "total region size in bytes, including header")
	regionFile := flagSet.String("region-file", "", "mmap a file as the region instead of an in-memory buffer (simulates reset survival)")
	ecc64 := flagSet.Bool("ecc64", false, "pad the header/grants to 8-byte ECC granules")
	mirror := flagSet.Bool("mirror-stderr", false, "mirror every committed write to stderr (the 'rtt' option)")
	async := flagSet.Bool("async", false, "enable the readiness-signal wait facet")
	frames := flagSet.Int("frames", 8, "number of synthetic log frames to write before draining")
	drainOut := flagSet.String("drain-out", "", "atomically write everything drained to this file")
	reset := flagSet.Bool("reset-only", false, "bind and drain without writing new frames (inspect a prior region-file's contents)")

	if err := flagSet.Parse(args); err != nil {
		return 2
	}

	opts := []persist.Option{}
	if *ecc64 {
		opts = append(opts, persist.WithECC64())
	}
	if *mirror {
		opts = append(opts, persist.WithMirror(errOut))
	}
	if *async {
		opts = append(opts, persist.WithAsyncAwait())
	}

	consumer, err := bindRegion(*regionFile, *size, opts)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	defer func() { _ = consumer.Close() }()

	if !*reset {
		for i := 0; i < *frames; i++ {
			persist.Write([]byte(fmt.Sprintf("frame-%04d: hello from persistsim\n", i)))
		}
	}

	drained := drain(consumer, *async)

	fmt.Fprintf(out, "drained %d bytes, panic-frame=%v\n", len(drained), consumer.HasPanicFrame())

	if *drainOut != "" {
		if err := atomic.WriteFile(*drainOut, bytes.NewReader(drained)); err != nil {
			fmt.Fprintln(errOut, "error: writing drain-out:", err)
			return 1
		}
	}

	return 0
}

func bindRegion(path string, size int, opts []persist.Option) (*persist.Consumer, error) {
	if path == "" {
		return persist.Bind(make([]byte, size), opts...)
	}
	return persist.BindFile(path, size, opts...)
}

// drain pulls every currently-readable byte off the consumer. With
// --async it waits (briefly) for more to arrive once drained dry, since
// the synthetic producer above may still be catching up to the
// readiness signal; without it, it simply stops once empty.
func drain(c *persist.Consumer, async bool) []byte {
	var out []byte
	idle := 0
	for idle < 2 {
		g := c.Read()
		p1, p2 := g.Bufs()
		n := len(p1) + len(p2)
		if n == 0 {
			if async {
				ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
				err := c.WaitNotEmpty(ctx)
				cancel()
				if err != nil {
					idle++
				}
			} else {
				idle++
			}
			continue
		}
		idle = 0
		out = append(out, p1...)
		out = append(out, p2...)
		g.Release(n)
	}
	return out
}
