package cmd

import (
	"errors"
	"os"

	"buildenv/logging"
	"buildenv/truststore"
)

// osExit is swapped out by tests
var osExit = os.Exit

// ExitWithError reports err the way the current output mode expects and exits with status 1
func ExitWithError(err error) {
	if jsonOutput {
		out := ErrorOutput{Error: err.Error()}
		var ae *truststore.AugmentError
		if errors.As(err, &ae) {
			out.Kind = ae.Kind.String()
		}
		if jerr := OutputJSON(out); jerr != nil {
			logging.LogError("❌ %v", jerr)
		}
	} else {
		logging.LogError("❌ %v", err)
	}
	logging.Close()
	osExit(1)
}
