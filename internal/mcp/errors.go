// Package mcp exposes zenith's search and graph operations as Model Context
// Protocol tools.
package mcp

import (
	"context"
	"errors"
	"fmt"

	zerrors "github.com/wrath-codes/zenith/internal/errors"
)

// Custom MCP error codes for zenith.
const (
	// ErrCodeStoreFailed indicates an embedded store failed.
	ErrCodeStoreFailed = -32001

	// ErrCodeEmbeddingFailed indicates embedding generation failed.
	ErrCodeEmbeddingFailed = -32002

	// ErrCodeTimeout indicates the request timed out or was canceled.
	ErrCodeTimeout = -32003

	// ErrCodeFileNotFound indicates a referenced file does not exist.
	ErrCodeFileNotFound = -32004

	// ErrCodeLockHeld indicates another zen process holds the data lock.
	ErrCodeLockHeld = -32005

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// Sentinel errors for internal use.
var (
	// ErrToolNotFound indicates the requested tool does not exist.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidParams indicates invalid parameters were provided.
	ErrInvalidParams = errors.New("invalid parameters")
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}
	if ze, ok := zerrors.As(err); ok {
		return mapZenError(ze)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	case errors.Is(err, ErrToolNotFound):
		return &MCPError{Code: ErrCodeMethodNotFound, Message: "Tool not found."}
	case errors.Is(err, ErrInvalidParams):
		return &MCPError{Code: ErrCodeInvalidParams, Message: "Invalid parameters."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Tool '%s' not found.", name),
	}
}

// mapZenError converts a ZenError to an MCPError by category, with a few
// codes singled out.
func mapZenError(ze *zerrors.ZenError) *MCPError {
	message := ze.Message
	if ze.Suggestion != "" {
		message = fmt.Sprintf("%s. %s", ze.Message, ze.Suggestion)
	}

	switch ze.Code {
	case zerrors.ErrCodeEmbeddingFailed:
		return &MCPError{Code: ErrCodeEmbeddingFailed, Message: message}
	case zerrors.ErrCodeFileNotFound:
		return &MCPError{Code: ErrCodeFileNotFound, Message: message}
	case zerrors.ErrCodeLockHeld:
		return &MCPError{Code: ErrCodeLockHeld, Message: message}
	}

	switch ze.Category {
	case zerrors.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	case zerrors.CategoryStore:
		return &MCPError{Code: ErrCodeStoreFailed, Message: message}
	default: // config, io, internal
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
