package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"araudit/internal/assistant"
	"araudit/internal/config"
	"araudit/internal/ledger"
	"araudit/internal/logger"
	"araudit/internal/pipeline"
	"araudit/internal/util"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// stdout carries command output; diagnostics go to stderr.
	log := logger.New(logger.Config{Env: cfg.AppEnv, Level: cfg.LogLevel, Out: os.Stderr})

	cmd := os.Args[1]
	switch cmd {
	case "analyze":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "input file path")
		inType := fs.String("type", "", "csv|xlsx|html (sniffed when empty)")
		asOf := fs.String("asOf", "", "reference date YYYY-MM-DD")
		asJSON := fs.Bool("json", false, "print the full dataset as JSON")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		res := analyze(cfg, log, *input, *inType, *asOf)
		if *asJSON {
			printJSON(res.Dataset)
			return
		}
		s := res.Dataset.Summary
		fmt.Printf("analyzed %s input=%s rows=%d invoices=%d customers=%d\n",
			res.Filename, res.Input, res.Rows, s.InvoiceCount, s.CustomerCount)
		fmt.Printf("receivables=%s overdue=%s dso=%d risk=%d anomalies=%d\n",
			s.TotalReceivables.StringFixed(2), s.TotalOverdue.StringFixed(2), s.DSO, s.RiskScore, len(res.Dataset.Anomalies))
		for _, a := range res.Dataset.Aging {
			fmt.Printf("  %-8s %-22s count=%d amount=%s\n", a.Bucket, a.Label, a.Count, a.Amount.StringFixed(2))
		}
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "input file path")
		inType := fs.String("type", "", "csv|xlsx|html (sniffed when empty)")
		asOf := fs.String("asOf", "", "reference date YYYY-MM-DD")
		out := fs.String("out", "", "output xlsx path (default OUTPUT_DIR/<input>.audit.xlsx)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		target := *out
		if strings.TrimSpace(target) == "" {
			base := strings.TrimSuffix(filepath.Base(*input), filepath.Ext(*input))
			target = filepath.Join(cfg.OutputDir, base+".audit.xlsx")
		}
		res := analyze(cfg, log, *input, *inType, *asOf)
		must(os.MkdirAll(filepath.Dir(target), 0o755))
		must(pipeline.ExportDatasetToXLSX(res.Dataset, target))
		fmt.Printf("exported %d invoices to %s\n", len(res.Dataset.Invoices), target)
	case "query":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "input file path")
		inType := fs.String("type", "", "csv|xlsx|html (sniffed when empty)")
		asOf := fs.String("asOf", "", "reference date YYYY-MM-DD")
		tool := fs.String("tool", assistant.ToolAuditSummary, "tool name, see `araudit tools`")
		name := fs.String("name", "", "customer name for getCustomerDetails")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		res := analyze(cfg, log, *input, *inType, *asOf)
		call := assistant.FunctionCall{ID: res.TraceID, Name: *tool}
		if *name != "" {
			args, err := json.Marshal(map[string]string{"name": *name})
			must(err)
			call.Args = args
		}
		printJSON(assistant.Dispatch(ledger.BuildIndex(res.Dataset), []assistant.FunctionCall{call})[0].Response)
	case "tools":
		printJSON(assistant.Declarations())
	default:
		usage()
		os.Exit(1)
	}
}

func analyze(cfg config.Config, log *logger.Logger, input, inType, asOf string) pipeline.AuditResult {
	if strings.TrimSpace(asOf) != "" {
		t, err := time.ParseInLocation(util.DateLayout, asOf, time.UTC)
		must(err)
		cfg.AuditAsOf = t
	}
	var parsed pipeline.InputType
	if strings.TrimSpace(inType) != "" {
		var err error
		parsed, err = pipeline.ParseInputType(inType)
		must(err)
	}
	res, err := pipeline.NewAuditService(cfg, log).AnalyzeFile(input, parsed)
	must(err)
	return res
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	must(enc.Encode(v))
}

func usage() {
	fmt.Println("usage: araudit <command>")
	fmt.Println("commands:")
	fmt.Println("  analyze --input=./ledger.csv [--type=csv|xlsx|html] [--asOf=2026-03-31] [--json]")
	fmt.Println("  export:xlsx --input=./ledger.csv [--out=./out/ledger.audit.xlsx] [--asOf=...]")
	fmt.Println("  query --input=./ledger.csv --tool=getCustomerDetails --name=acme")
	fmt.Println("  tools")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
