package cmd

import (
	"encoding/json"
	"fmt"

	"buildenv/logging"
)

// Global variables for JSON mode
var (
	jsonOutput bool // Flag for JSON output
	jsonLogs   bool // Flag for JSON logs
)

// ErrorOutput is printed instead of a command's result when it fails in JSON mode
type ErrorOutput struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// OutputJSON handles JSON output for all commands
func OutputJSON(data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %v", err)
	}
	logging.LogOutput("%s", jsonData)
	return nil
}
