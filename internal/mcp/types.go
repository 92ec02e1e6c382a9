package mcp

import "github.com/1broseidon/parallaxd/internal/engine"

// StatusInput is the input for the parallax_status tool.
type StatusInput struct{}

// StatusOutput is the output for the parallax_status tool.
type StatusOutput struct {
	Status engine.Status `json:"status"`
}

// WorkspaceInput is the input for the parallax_workspace tool.
type WorkspaceInput struct {
	To         int    `json:"to" jsonschema:"required,Target workspace id (1-based). For tag compositors, the tag bitmask."`
	From       int    `json:"from,omitempty" jsonschema:"Previous workspace id. Defaults to the monitor's current workspace."`
	ToX        int    `json:"to_x,omitempty" jsonschema:"Target column for 2D workspace grids"`
	ToY        int    `json:"to_y,omitempty" jsonschema:"Target row for 2D workspace grids"`
	Tags       uint32 `json:"tags,omitempty" jsonschema:"Visible tag mask, for tag-based compositors"`
	FocusedTag uint32 `json:"focused_tag,omitempty" jsonschema:"Focused tag bit, for tag-based compositors"`
	Monitor    string `json:"monitor,omitempty" jsonschema:"Output name (e.g. DP-1). Empty means the primary monitor."`
}

// CursorInput is the input for the parallax_cursor tool.
type CursorInput struct {
	X float64 `json:"x" jsonschema:"required,Pointer x in global compositor pixels"`
	Y float64 `json:"y" jsonschema:"required,Pointer y in global compositor pixels"`
}

// SetInput is the input for the parallax_set tool.
type SetInput struct {
	Key   string `json:"key" jsonschema:"required,Setting key (e.g. fps, duration, shift, easing, mode, cursor.sensitivity_x)"`
	Value string `json:"value,omitempty" jsonschema:"New value. Omit to read the current value."`
}

// SetOutput is the output for the parallax_set tool.
type SetOutput struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// LayersInput is the input for the parallax_layers tool.
type LayersInput struct {
	Action          string   `json:"action,omitempty" jsonschema:"One of list (default), add, remove, modify, clear"`
	ID              uint32   `json:"id,omitempty" jsonschema:"Layer id for remove and modify"`
	Path            string   `json:"path,omitempty" jsonschema:"Image path for add"`
	ShiftMultiplier string   `json:"shift_multiplier,omitempty" jsonschema:"Multiplier for add: a number or x,y pair"`
	Opacity         *float32 `json:"opacity,omitempty" jsonschema:"Opacity in [0,1] for add"`
	Blur            float32  `json:"blur,omitempty" jsonschema:"Blur radius for add"`
	Property        string   `json:"property,omitempty" jsonschema:"Property for modify (opacity, blur, shift_multiplier, path)"`
	Value           string   `json:"value,omitempty" jsonschema:"Value for modify"`
}

// LayersOutput is the output for the parallax_layers tool.
type LayersOutput struct {
	Layers  []engine.LayerStatus `json:"layers,omitempty"`
	Removed int                  `json:"removed,omitempty"`
}

// ReloadInput is the input for the parallax_reload tool.
type ReloadInput struct{}

// PauseInput is the input for the parallax_pause tool.
type PauseInput struct {
	Action string `json:"action,omitempty" jsonschema:"One of pause, resume or toggle (default)"`
}

// PauseOutput is the output for the parallax_pause tool.
type PauseOutput struct {
	Paused bool `json:"paused"`
}

// AckOutput is returned by tools without a result.
type AckOutput struct {
	OK bool `json:"ok"`
}
