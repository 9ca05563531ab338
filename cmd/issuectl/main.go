// Command issuectl is a terminal client for the issue tracker.
//
//	issuectl list --status OPEN
//	issuectl show 7
//	issuectl delete 7
//	issuectl assign 7 <userId|none>
//	issuectl edit 7 --title "New title"
//
// The server address and session token come from ISSUES_SERVER and
// ISSUES_TOKEN, or from a YAML file given with --config.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
