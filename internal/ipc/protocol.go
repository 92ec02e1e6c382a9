package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandPing        CommandType = "PING"
	CommandReload      CommandType = "RELOAD"
	CommandGetStatus   CommandType = "GET_STATUS"
	CommandGetMonitors CommandType = "GET_MONITORS"
	CommandWorkspace   CommandType = "WORKSPACE"
	CommandCursor      CommandType = "CURSOR"
	CommandSet         CommandType = "SET"
	CommandGet         CommandType = "GET"
	CommandLayerAdd    CommandType = "LAYER_ADD"
	CommandLayerRemove CommandType = "LAYER_REMOVE"
	CommandLayerModify CommandType = "LAYER_MODIFY"
	CommandLayerList   CommandType = "LAYER_LIST"
	CommandLayerClear  CommandType = "LAYER_CLEAR"
	CommandPause       CommandType = "PAUSE"
	CommandResume      CommandType = "RESUME"
	CommandToggleMode  CommandType = "TOGGLE_MODE"
	CommandTogglePause CommandType = "TOGGLE_PAUSE"
)

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// PingData is returned by PING without touching the loop.
type PingData struct {
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// WorkspacePayload injects a workspace change. Zero To/From XY means a
// linear change; Tags selects tag addressing.
type WorkspacePayload struct {
	To         int    `json:"to"`
	From       int    `json:"from,omitempty"`
	ToX        int    `json:"to_x,omitempty"`
	ToY        int    `json:"to_y,omitempty"`
	FromX      int    `json:"from_x,omitempty"`
	FromY      int    `json:"from_y,omitempty"`
	Tags       uint32 `json:"tags,omitempty"`
	FocusedTag uint32 `json:"focused_tag,omitempty"`
	Monitor    string `json:"monitor,omitempty"`
}

// CursorPayload injects a pointer sample in global pixels.
type CursorPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type SetPayload struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type GetPayload struct {
	Key string `json:"key"`
}

// KeyValue is the result of SET and GET.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// LayerAddPayload describes a new layer. ShiftMultiplier takes "0.5" or
// "0.5,0.2"; empty means 1. A nil Opacity means fully opaque.
type LayerAddPayload struct {
	Path            string   `json:"path"`
	ShiftMultiplier string   `json:"shift_multiplier,omitempty"`
	Opacity         *float32 `json:"opacity,omitempty"`
	Blur            float32  `json:"blur,omitempty"`
}

type LayerIDPayload struct {
	ID uint32 `json:"id"`
}

type LayerModifyPayload struct {
	ID       uint32 `json:"id"`
	Property string `json:"property"`
	Value    string `json:"value"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data any) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: StatusOK,
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: StatusError,
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("request has no command")
	}
	return &req, nil
}

// DecodePayload unmarshals the request payload into v. An empty payload is
// an error.
func (r *Request) DecodePayload(v any) error {
	if len(r.Payload) == 0 {
		return fmt.Errorf("%s requires a payload", r.Command)
	}
	if err := json.Unmarshal(r.Payload, v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", r.Command, err)
	}
	return nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
