package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"BenchBoard/internal/collector"
	"BenchBoard/internal/model"
	"BenchBoard/internal/recorder"
	"BenchBoard/internal/render"
)

type snapshotCmd struct {
	config string
	start  string
	end    string
	show   string
	raw    bool
}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "print a markdown performance snapshot" }
func (*snapshotCmd) Usage() string {
	return `benchboard snapshot [-start <date>] [-end <date>] [-show <labels>] [-raw]

  Runs the pipeline once for the configured instruments and prints the
  rebased performance summary. -raw appends the aligned price table.
`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.config, "config", "", "config file (defaults to $CONFIG_PATH or configs/config.yaml)")
	f.StringVar(&c.start, "start", "", "first day, YYYY-MM-DD (defaults to the configured range)")
	f.StringVar(&c.end, "end", "", "last day, YYYY-MM-DD (defaults to the configured range)")
	f.StringVar(&c.show, "show", "", "comma-separated labels to display (defaults to all)")
	f.BoolVar(&c.raw, "raw", false, "append the raw price table")
}

func (c *snapshotCmd) request(a *app) (collector.Request, error) {
	req := collector.Request{Instruments: a.cfg.Instruments}
	start, end, err := a.cfg.DateRange(time.Now())
	if err != nil {
		return req, err
	}
	if c.start != "" {
		if start, err = model.ParseDay(c.start); err != nil {
			return req, err
		}
	}
	if c.end != "" {
		if end, err = model.ParseDay(c.end); err != nil {
			return req, err
		}
	}
	req.Start, req.End = start, end
	if c.show != "" {
		for _, l := range strings.Split(c.show, ",") {
			req.Show = append(req.Show, strings.TrimSpace(l))
		}
	}
	return req, nil
}

func (c *snapshotCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp(c.config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	req, err := c.request(a)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	began := time.Now()
	rm, err := a.col.Run(ctx, req)
	evt := recorder.NewRunEvent("CLI", req.Symbols(), req.Start, req.End, rm, err, time.Since(began))
	if recErr := a.rec.RecordRun(evt); recErr != nil {
		log.Printf("[ERROR] record run: %v", recErr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Print(render.SnapshotMarkdown(rm, c.raw))
	return subcommands.ExitSuccess
}
