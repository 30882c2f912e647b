package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/23f1002431/23f1002431-TDS-project1/internal/assets"
	"github.com/23f1002431/23f1002431-TDS-project1/internal/check"
	"github.com/23f1002431/23f1002431-TDS-project1/internal/config"
)

// preflight verifies the loaded config can actually run, printing anything
// questionable. Required misses abort startup.
func preflight(cfg *config.Config) error {
	missing := 0
	for _, res := range check.Run(cfg) {
		switch res.Status {
		case "MISSING":
			missing++
			fmt.Printf("❌ %s (%s) — %s\n", res.Name, res.Type, res.Details)
		case "WARN":
			fmt.Printf("⚠️  %s (%s) — %s\n", res.Name, res.Type, res.Details)
		}
	}
	if missing > 0 {
		return fmt.Errorf("%d required dependencies missing", missing)
	}
	return nil
}

// runCheck handles the check subcommand. It loads the config leniently so a
// half-finished setup still produces a useful report instead of a load error.
func runCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath(), "path to config.yaml")
	jsonOut := fs.Bool("json", false, "emit results as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadLenient(*configPath)
	if err != nil {
		return err
	}

	results := check.Run(cfg)
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			icon := "✅"
			switch res.Status {
			case "MISSING":
				icon = "❌"
			case "WARN":
				icon = "⚠️ "
			}
			fmt.Printf("%s %-40s %-8s %s\n", icon, res.Name, res.Status, res.Details)
		}
	}

	missing := 0
	for _, res := range results {
		if res.Status == "MISSING" {
			missing++
		}
	}
	if missing > 0 {
		return fmt.Errorf("%d required dependencies missing", missing)
	}
	return nil
}

func printConfigExample() {
	_, _ = os.Stdout.Write(assets.ConfigExample)
}
