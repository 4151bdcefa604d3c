package core

// error_messages.go maps technical errors to user-facing messages with a
// support code. Users quote the code; support staff look it up here.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE002 - Unsupported format (spreadsheet, PDF, binary content)
//	FILE003 - Empty file: no data rows after the header
//	FILE004 - No file was sent
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Too many imports running at once
//	IMP002 - Unknown import profile
//	IMP003 - Storage unavailable: entries were read but not saved
//	IMP004 - Storage rejected the entries
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid request parameters (client, period, columns)
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled
//	REQ002 - Request timed out
//
// # Authentication Errors (AUTH001-AUTH099)
//
//	AUTH001 - Missing API key
//	AUTH002 - Invalid API key
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests from this address
//
// # Default (ERR000)
//
//	ERR000 - Anything else. Check the logs for the technical error.
//
// Sentinel errors are matched with errors.Is first. Errors that only carry
// text (from drivers or other processes) fall back to case-insensitive
// substring patterns; the first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/ledgerrecon/internal/ledger"
)

// UserMessage is the user-facing view of an error.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

var (
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file by period and import each part",
		Code:    "FILE001",
	}
	msgUnsupported = UserMessage{
		Message: "This file is not a delimited text file",
		Action:  "Export the ledger as CSV (comma or semicolon separated) and try again",
		Code:    "FILE002",
	}
	msgEmptyFile = UserMessage{
		Message: "The file has no data rows",
		Action:  "Check that the export contains entries below the header line",
		Code:    "FILE003",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Choose a CSV file to import",
		Code:    "FILE004",
	}
	msgBusy = UserMessage{
		Message: "Too many imports are running",
		Action:  "Wait a moment and try again",
		Code:    "IMP001",
	}
	msgUnknownProfile = UserMessage{
		Message: "Unknown import type",
		Action:  "Pick one of the listed import types",
		Code:    "IMP002",
	}
	msgDegraded = UserMessage{
		Message: "The file was read but entries could not be saved",
		Action:  "Storage is unavailable. Import the file again later",
		Code:    "IMP003",
	}
	msgRejected = UserMessage{
		Message: "Storage rejected the imported entries",
		Action:  "Please try again or contact support",
		Code:    "IMP004",
	}
	msgInvalidRequest = UserMessage{
		Message: "The request is missing or has invalid parameters",
		Action:  "Check the client, period and column names",
		Code:    "VAL001",
	}
	msgCanceled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "REQ001",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "REQ002",
	}
	msgMissingKey = UserMessage{
		Message: "Authentication required",
		Action:  "Send your API key in the X-API-Key header",
		Code:    "AUTH001",
	}
	msgInvalidKey = UserMessage{
		Message: "The API key was not accepted",
		Action:  "Check the key or ask an administrator for a new one",
		Code:    "AUTH002",
	}
	msgRateLimited = UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}
)

// defaultMessage is returned when nothing matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// ErrRateLimited is returned by transports that throttle callers.
var ErrRateLimited = errors.New("rate limit exceeded")

// ErrNoFile is returned when an import request carries no file.
var ErrNoFile = errors.New("no file provided")

// Authentication errors returned by transports.
var (
	ErrMissingAPIKey = errors.New("missing API key")
	ErrInvalidAPIKey = errors.New("invalid API key")
)

var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrFileTooLarge, msgFileTooLarge},
	{ledger.ErrUnsupportedFormat, msgUnsupported},
	{ledger.ErrEmptyFile, msgEmptyFile},
	{ErrNoFile, msgNoFile},
	{ErrTooManyImports, msgBusy},
	{ErrUnknownProfile, msgUnknownProfile},
	{ledger.ErrPersistenceUnavailable, msgDegraded},
	{ErrSaveRejected, msgRejected},
	{ErrInvalidRequest, msgInvalidRequest},
	{ErrMissingAPIKey, msgMissingKey},
	{ErrInvalidAPIKey, msgInvalidKey},
	{ErrRateLimited, msgRateLimited},
	{context.Canceled, msgCanceled},
	{context.DeadlineExceeded, msgTimeout},
}

var errorPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"file too large", msgFileTooLarge},
	{"request body too large", msgFileTooLarge},
	{"unsupported file format", msgUnsupported},
	{"no data rows", msgEmptyFile},
	{"no such file", msgNoFile},
	{"connection refused", msgDegraded},
	{"connection reset", msgDegraded},
	{"rate limit", msgRateLimited},
	{"timeout", msgTimeout},
}

// MapError converts err to a user message. nil maps to the zero message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.msg
		}
	}

	text := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(text, p.pattern) {
			return p.msg
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

// IsUserFacing reports whether err maps to something more specific than
// ERR000.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != defaultMessage.Code
}
