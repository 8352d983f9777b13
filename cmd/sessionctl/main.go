// Command sessionctl drives a session.Session interactively from the shell,
// the way cmd/ctests drove the InnoDB test binaries: a small flag-based
// front end over a handful of named scenarios.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/wilhasse/sessionvars-go/objstore"
	"github.com/wilhasse/sessionvars-go/session"
)

var defaultScenarios = []string{
	"scalar",
	"record",
	"savepoint",
	"autonomous",
}

func main() {
	scenariosFlag := flag.String("scenarios", "", "Comma-separated scenarios to run")
	allFlag := flag.Bool("all", false, "Run every default scenario")
	pkgFlag := flag.String("package", "demo", "Package name used by the scenarios")
	flag.Parse()

	scenarios := resolveScenarios(*scenariosFlag, *allFlag)
	s := session.New()
	for _, name := range scenarios {
		fmt.Printf("Running: %s\n", name)
		if err := runScenario(s, name, *pkgFlag); err != nil {
			exitErr(name, err)
		}
	}
}

func resolveScenarios(flagValue string, all bool) []string {
	if flagValue != "" {
		return splitCSV(flagValue)
	}
	if all {
		return defaultScenarios
	}
	return defaultScenarios
}

func runScenario(s *session.Session, name, pkg string) error {
	switch name {
	case "scalar":
		return scenarioScalar(s, pkg)
	case "record":
		return scenarioRecord(s, pkg)
	case "savepoint":
		return scenarioSavepoint(s, pkg)
	case "autonomous":
		return scenarioAutonomous(s, pkg)
	default:
		return fmt.Errorf("sessionctl: unknown scenario %q", name)
	}
}

func scenarioScalar(s *session.Session, pkg string) error {
	if err := s.SetScalar(pkg, "counter", 1, false, true); err != nil {
		return err
	}
	val, _, err := s.GetScalar(pkg, "counter", -1, true)
	if err != nil {
		return err
	}
	fmt.Printf("  %s.counter = %v\n", pkg, val)
	return nil
}

func scenarioRecord(s *session.Session, pkg string) error {
	if err := s.InsertRow(pkg, "users", objstore.Row{"alice", 30}, true); err != nil {
		return err
	}
	if err := s.InsertRow(pkg, "users", objstore.Row{"bob", 25}, true); err != nil {
		return err
	}
	rows, scan, err := s.SelectRows(pkg, "users")
	if err != nil {
		return err
	}
	defer s.CloseScan(scan)
	fmt.Printf("  %s.users has %d rows\n", pkg, len(rows))
	return nil
}

func scenarioSavepoint(s *session.Session, pkg string) error {
	s.Begin()
	if err := s.SetScalar(pkg, "x", 1, false, true); err != nil {
		return err
	}
	name := uuid.NewString()
	s.CreateSavepoint(name)
	if err := s.SetScalar(pkg, "x", 2, false, true); err != nil {
		return err
	}
	if err := s.RollbackToSavepoint(name); err != nil {
		return err
	}
	val, _, err := s.GetScalar(pkg, "x", -1, true)
	if err != nil {
		return err
	}
	fmt.Printf("  %s.x after rollback-to-savepoint = %v\n", pkg, val)
	s.Commit()
	return nil
}

func scenarioAutonomous(s *session.Session, pkg string) error {
	s.Begin()
	if err := s.SetScalar(pkg, "will_abort", 1, false, true); err != nil {
		return err
	}
	s.BeginAutonomous()
	if err := s.SetScalar(pkg, "survives_abort", 1, false, true); err != nil {
		return err
	}
	s.EndAutonomous(true)
	s.Abort()
	fmt.Printf("  %s.survives_abort exists = %v\n", pkg, s.VariableExists(pkg, "survives_abort"))
	return nil
}

func splitCSV(value string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(value); i++ {
		if i == len(value) || value[i] == ',' {
			if part := value[start:i]; part != "" {
				out = append(out, part)
			}
			start = i + 1
		}
	}
	return out
}

func exitErr(scenario string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", scenario, err)
	os.Exit(1)
}
