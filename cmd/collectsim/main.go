// collectsim simulates adaptive debt-collection visit scheduling: a hidden
// debtor model, bandit visit policies and a Monte Carlo experiment harness
// that compares them.
//
// Usage:
//
//	collectsim scenarios
//	collectsim simulate --scenario <name> --policy <name> [--seed N] [--days N]
//	collectsim experiment --scenario <name> [--policies a,b] [--runs N] [-o report.json]
//	collectsim serve
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
