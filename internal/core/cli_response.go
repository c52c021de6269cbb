package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// CLIResponse is the structured JSON output of every command run with --json.
//
// Schema:
//
//	{
//	  "success": true|false,
//	  "data": { ... },          // Command-specific payload (omitted on error)
//	  "error": {                 // Present only on failure
//	    "code": "CONFIG_ERROR",
//	    "message": "Human-readable description"
//	  }
//	}
type CLIResponse struct {
	Success bool            `json:"success"`
	Data    interface{}     `json:"data,omitempty"`
	Error   *CLIErrorDetail `json:"error,omitempty"`
}

// CLIErrorDetail contains machine-readable error code and human-readable message.
type CLIErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CLI exit codes.
const (
	ExitSuccess             = 0
	ExitGeneralError        = 1
	ExitInvalidArguments    = 3
	ExitConfigError         = 4
	ExitCollaboratorFailure = 5
)

// CLI error codes for structured JSON error responses.
const (
	ErrCodeInvalidArguments    = "INVALID_ARGUMENTS"
	ErrCodeConfigError         = "CONFIG_ERROR"
	ErrCodeCollaboratorFailure = "COLLABORATOR_FAILURE"
	ErrCodeInputMissing        = "INPUT_MISSING"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// EmitCLISuccess writes a successful CLIResponse as JSON to stdout.
func EmitCLISuccess(data interface{}) {
	writeCLIResponse(os.Stdout, CLIResponse{Success: true, Data: data}, true)
}

// EmitCLIError writes an error CLIResponse as JSON to stdout.
// Returns the exit code for the caller to use with os.Exit.
func EmitCLIError(code string, message string, exitCode int) int {
	writeCLIResponse(os.Stdout, CLIResponse{
		Success: false,
		Error:   &CLIErrorDetail{Code: code, Message: message},
	}, true)
	return exitCode
}

// EmitCLIErrorLine writes an error CLIResponse as one compact line to w.
// The hook uses it so the package manager sees a single JSON document.
func EmitCLIErrorLine(w io.Writer, err error) int {
	writeCLIResponse(w, CLIResponse{
		Success: false,
		Error:   &CLIErrorDetail{Code: CLIErrorCodeForError(err), Message: err.Error()},
	}, false)
	return CLIExitCodeForError(err)
}

func writeCLIResponse(w io.Writer, resp CLIResponse, indent bool) {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(resp) //nolint:errcheck
}

// CLIExitCodeForError maps structured error types to CLI exit codes.
func CLIExitCodeForError(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case IsConfigurationError(err):
		return ExitConfigError
	case IsCollaboratorFailure(err):
		return ExitCollaboratorFailure
	default:
		return ExitGeneralError
	}
}

// CLIErrorCodeForError maps structured error types to CLI error code strings.
func CLIErrorCodeForError(err error) string {
	switch {
	case IsConfigurationError(err):
		return ErrCodeConfigError
	case IsCollaboratorFailure(err):
		return ErrCodeCollaboratorFailure
	case IsClassificationInputMissing(err):
		return ErrCodeInputMissing
	default:
		return ErrCodeInternalError
	}
}

// FormatCLIMessage formats a simple text message for non-JSON CLI output.
func FormatCLIMessage(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}
