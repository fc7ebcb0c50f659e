package core

// # Error Codes Reference
//
// Fatal run errors are mapped to a short message, a suggested action and a
// code operators can search the logs for. Codes are grouped by category:
//
// # Batch Errors (BATCH001-BATCH099)
//
//	BATCH001 - Empty batch: The submission batch is empty
//	           Patterns: "empty input"
//	BATCH002 - Invalid batch: The submission batch is not valid JSON
//	           Patterns: "invalid batch"
//	BATCH003 - Batch too large: The batch exceeds the configured size limit
//	           Patterns: "batch too large"
//
// # Store Errors (STORE001-STORE099)
//
//	STORE001 - Table not found: A registry table does not exist
//	           Patterns: "table not found"
//	STORE002 - Missing column: A registry table lacks a required column
//	           Patterns: "missing required column"
//	STORE003 - Invalid table: A stored CSV file could not be parsed
//	           Patterns: "invalid csv"
//	STORE004 - Unreachable: The table store could not be reached
//	           Patterns: "connection refused", "no such host"
//	STORE005 - Access denied: Credentials were rejected by the table store
//	           Patterns: "accessdenied", "access denied", "permission denied"
//	STORE006 - Missing bucket: The configured bucket does not exist
//	           Patterns: "nosuchbucket"
//	STORE007 - Commit failed: Tables could not be written
//	           Patterns: "commit tables"
//	STORE008 - Unknown table: A table key is not configured
//	           Patterns: "unknown table"
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - Busy: Another reconciliation is in progress
//	         Patterns: "too many runs"
//	RUN002 - Cancelled: The run was cancelled
//	         Patterns: "context canceled"
//	RUN003 - Timed out: The run exceeded its deadline
//	         Patterns: "context deadline exceeded", "timeout"
//
// # Notification Errors (NOTIFY001-NOTIFY099)
//
//	NOTIFY001 - Bad credentials: The issue tracker rejected the token
//	            Patterns: "bad credentials"
//	NOTIFY002 - Rate limited: The issue tracker is throttling requests
//	            Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns precede general ones.

import (
	"fmt"
	"strings"
)

// UserMessage is the operator-facing description of a fatal error.
type UserMessage struct {
	Message string // what happened
	Action  string // what to do about it
	Code    string // reference code
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Batch
	{
		pattern: "empty input",
		msg: UserMessage{
			Message: "The submission batch is empty",
			Action:  "Check that the export step produced results",
			Code:    "BATCH001",
		},
	},
	{
		pattern: "invalid batch",
		msg: UserMessage{
			Message: "The submission batch is not valid JSON",
			Action:  "Provide a JSON array of {fields, results} objects",
			Code:    "BATCH002",
		},
	},
	{
		pattern: "batch too large",
		msg: UserMessage{
			Message: "The submission batch exceeds the size limit",
			Action:  "Split the batch or raise SERVER_MAX_BATCH_BYTES",
			Code:    "BATCH003",
		},
	},

	// Store
	{
		pattern: "table not found",
		msg: UserMessage{
			Message: "A registry table does not exist",
			Action:  "Create the table or set STORE_ALLOW_MISSING=true",
			Code:    "STORE001",
		},
	},
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "A registry table is missing a required column",
			Action:  "Restore the table header before rerunning",
			Code:    "STORE002",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "A stored table could not be parsed",
			Action:  "Repair the CSV file before rerunning",
			Code:    "STORE003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the table store",
			Action:  "Check the store endpoint and try again",
			Code:    "STORE004",
		},
	},
	{
		pattern: "no such host",
		msg: UserMessage{
			Message: "Unable to reach the table store",
			Action:  "Check the store endpoint and try again",
			Code:    "STORE004",
		},
	},
	{
		pattern: "store unavailable",
		msg: UserMessage{
			Message: "The table store is unreachable",
			Action:  "Check that the database or bucket is reachable and retry",
			Code:    "STORE004",
		},
	},
	{
		pattern: "accessdenied",
		msg: UserMessage{
			Message: "The table store rejected the credentials",
			Action:  "Check the configured access keys",
			Code:    "STORE005",
		},
	},
	{
		pattern: "access denied",
		msg: UserMessage{
			Message: "The table store rejected the credentials",
			Action:  "Check the configured access keys",
			Code:    "STORE005",
		},
	},
	{
		pattern: "permission denied",
		msg: UserMessage{
			Message: "The table store rejected the credentials",
			Action:  "Check file permissions or database grants",
			Code:    "STORE005",
		},
	},
	{
		pattern: "nosuchbucket",
		msg: UserMessage{
			Message: "The configured bucket does not exist",
			Action:  "Check STORE_S3_BUCKET",
			Code:    "STORE006",
		},
	},
	{
		pattern: "commit tables",
		msg: UserMessage{
			Message: "The registry tables could not be written",
			Action:  "Nothing was persisted; fix the store and rerun",
			Code:    "STORE007",
		},
	},
	{
		pattern: "unknown table",
		msg: UserMessage{
			Message: "Unknown table",
			Action:  "Use organizations, listing or processing_log",
			Code:    "STORE008",
		},
	},

	// Run
	{
		pattern: "too many runs",
		msg: UserMessage{
			Message: "Another reconciliation is in progress",
			Action:  "Wait for it to finish and try again",
			Code:    "RUN001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The run was cancelled",
			Action:  "Nothing was persisted; rerun when ready",
			Code:    "RUN002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The run timed out",
			Action:  "Raise RUN_TIMEOUT or check store latency",
			Code:    "RUN003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The run timed out",
			Action:  "Raise RUN_TIMEOUT or check store latency",
			Code:    "RUN003",
		},
	},

	// Queries
	{
		pattern: "record not found",
		msg: UserMessage{
			Message: "The requested record does not exist",
			Action:  "Check the id and try again",
			Code:    "QUERY001",
		},
	},
	{
		pattern: "invalid parameter",
		msg: UserMessage{
			Message: "A request parameter is malformed",
			Action:  "Check the query string",
			Code:    "QUERY002",
		},
	},

	// Notification
	{
		pattern: "bad credentials",
		msg: UserMessage{
			Message: "The issue tracker rejected the token",
			Action:  "Check GITHUB_TOKEN",
			Code:    "NOTIFY001",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "The issue tracker is rate limiting requests",
			Action:  "Wait before rerunning notifications",
			Code:    "NOTIFY002",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the logs for the underlying error",
	Code:    "ERR000",
}

// MapError converts a technical error to a UserMessage. Unmatched errors map
// to ERR000; nil maps to the zero value.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its mapped message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
