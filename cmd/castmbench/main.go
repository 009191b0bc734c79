package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Pam-La/castm/internal/bench"
	"github.com/pingcap/log"
	"go.uber.org/zap/zapcore"
)

func main() {
	quiet := flag.Bool("quiet", false, "suppress per-scenario log lines, print only the summary table")
	flag.Parse()

	if *quiet {
		log.SetLevel(zapcore.ErrorLevel)
	}

	results := bench.RunAll()

	failures := 0
	for _, r := range results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
			failures++
		}
		fmt.Printf("%-28s %-6s %-5s %10s  %s\n", r.Scenario, r.Variant, status, r.Elapsed.Round(time.Millisecond), r.Detail)
	}

	fmt.Printf("\n%d/%d scenarios passed\n", len(results)-failures, len(results))
	if failures > 0 {
		exit(1)
	}
	exit(0)
}

func exit(code int) {
	log.Sync()
	os.Exit(code)
}
