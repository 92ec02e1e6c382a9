package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/parallaxd/internal/engine"
	"github.com/1broseidon/parallaxd/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the default socket.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for the socket at path.
func NewClientAt(path string) *Client {
	return &Client{
		socketPath: path,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == StatusError {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// do sends cmd with an optional payload and decodes the response data into
// out when out is non-nil.
func (c *Client) do(cmd CommandType, payload any, out any) error {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = data
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() (*PingData, error) {
	var data PingData
	if err := c.do(CommandPing, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	return c.do(CommandReload, nil, nil)
}

// GetStatus retrieves a snapshot of the engine.
func (c *Client) GetStatus() (*engine.Status, error) {
	var status engine.Status
	if err := c.do(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetMonitors retrieves monitor information
func (c *Client) GetMonitors() ([]engine.MonitorStatus, error) {
	var monitors []engine.MonitorStatus
	if err := c.do(CommandGetMonitors, nil, &monitors); err != nil {
		return nil, err
	}
	return monitors, nil
}

// Workspace injects a workspace change.
func (c *Client) Workspace(p WorkspacePayload) error {
	return c.do(CommandWorkspace, p, nil)
}

// Cursor injects a pointer sample.
func (c *Client) Cursor(x, y float64) error {
	return c.do(CommandCursor, CursorPayload{X: x, Y: y}, nil)
}

// Set changes a runtime setting and returns its normalized value.
func (c *Client) Set(key, value string) (string, error) {
	var kv KeyValue
	if err := c.do(CommandSet, SetPayload{Key: key, Value: value}, &kv); err != nil {
		return "", err
	}
	return kv.Value, nil
}

// Get reads a runtime setting.
func (c *Client) Get(key string) (string, error) {
	var kv KeyValue
	if err := c.do(CommandGet, GetPayload{Key: key}, &kv); err != nil {
		return "", err
	}
	return kv.Value, nil
}

// AddLayer adds a layer and returns it.
func (c *Client) AddLayer(p LayerAddPayload) (*engine.LayerStatus, error) {
	var layer engine.LayerStatus
	if err := c.do(CommandLayerAdd, p, &layer); err != nil {
		return nil, err
	}
	return &layer, nil
}

func (c *Client) RemoveLayer(id uint32) error {
	return c.do(CommandLayerRemove, LayerIDPayload{ID: id}, nil)
}

// ModifyLayer sets one layer property.
func (c *Client) ModifyLayer(id uint32, property, value string) (*engine.LayerStatus, error) {
	var layer engine.LayerStatus
	if err := c.do(CommandLayerModify, LayerModifyPayload{ID: id, Property: property, Value: value}, &layer); err != nil {
		return nil, err
	}
	return &layer, nil
}

func (c *Client) ListLayers() ([]engine.LayerStatus, error) {
	var layers []engine.LayerStatus
	if err := c.do(CommandLayerList, nil, &layers); err != nil {
		return nil, err
	}
	return layers, nil
}

// ClearLayers removes every layer and returns how many were removed.
func (c *Client) ClearLayers() (int, error) {
	var data struct {
		Removed int `json:"removed"`
	}
	if err := c.do(CommandLayerClear, nil, &data); err != nil {
		return 0, err
	}
	return data.Removed, nil
}

func (c *Client) Pause() error {
	return c.do(CommandPause, nil, nil)
}

func (c *Client) Resume() error {
	return c.do(CommandResume, nil, nil)
}

// ToggleMode cycles the parallax mode and returns the new one.
func (c *Client) ToggleMode() (string, error) {
	var data struct {
		Mode string `json:"mode"`
	}
	if err := c.do(CommandToggleMode, nil, &data); err != nil {
		return "", err
	}
	return data.Mode, nil
}

// TogglePause flips pause and returns the new state.
func (c *Client) TogglePause() (bool, error) {
	var data struct {
		Paused bool `json:"paused"`
	}
	if err := c.do(CommandTogglePause, nil, &data); err != nil {
		return false, err
	}
	return data.Paused, nil
}
