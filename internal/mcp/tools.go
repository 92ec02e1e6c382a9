package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/parallaxd/internal/engine"
	"github.com/1broseidon/parallaxd/internal/ipc"
)

func (s *Server) handleStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ StatusInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	status, err := s.ctl.GetStatus()
	if err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{Status: *status}, nil
}

func (s *Server) handleWorkspace(_ context.Context, _ *mcpsdk.CallToolRequest, args WorkspaceInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if args.To <= 0 && args.Tags == 0 && args.ToX <= 0 {
		return nil, AckOutput{}, fmt.Errorf("to must be a positive workspace id")
	}
	err := s.ctl.Workspace(ipc.WorkspacePayload{
		To:         args.To,
		From:       args.From,
		ToX:        args.ToX,
		ToY:        args.ToY,
		Tags:       args.Tags,
		FocusedTag: args.FocusedTag,
		Monitor:    args.Monitor,
	})
	if err != nil {
		return nil, AckOutput{}, err
	}
	s.logger.Debug("workspace injected", "to", args.To, "monitor", args.Monitor)
	return nil, AckOutput{OK: true}, nil
}

func (s *Server) handleCursor(_ context.Context, _ *mcpsdk.CallToolRequest, args CursorInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.ctl.Cursor(args.X, args.Y); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{OK: true}, nil
}

func (s *Server) handleSet(_ context.Context, _ *mcpsdk.CallToolRequest, args SetInput) (*mcpsdk.CallToolResult, SetOutput, error) {
	key := strings.TrimSpace(args.Key)
	if key == "" {
		return nil, SetOutput{}, fmt.Errorf("key is required")
	}

	var (
		value string
		err   error
	)
	if args.Value == "" {
		value, err = s.ctl.Get(key)
	} else {
		value, err = s.ctl.Set(key, args.Value)
	}
	if err != nil {
		return nil, SetOutput{}, err
	}
	return nil, SetOutput{Key: key, Value: value}, nil
}

func (s *Server) handleLayers(_ context.Context, _ *mcpsdk.CallToolRequest, args LayersInput) (*mcpsdk.CallToolResult, LayersOutput, error) {
	switch action := strings.ToLower(strings.TrimSpace(args.Action)); action {
	case "", "list":
		layers, err := s.ctl.ListLayers()
		if err != nil {
			return nil, LayersOutput{}, err
		}
		return nil, LayersOutput{Layers: layers}, nil

	case "add":
		if args.Path == "" {
			return nil, LayersOutput{}, fmt.Errorf("path is required for add")
		}
		layer, err := s.ctl.AddLayer(ipc.LayerAddPayload{
			Path:            args.Path,
			ShiftMultiplier: args.ShiftMultiplier,
			Opacity:         args.Opacity,
			Blur:            args.Blur,
		})
		if err != nil {
			return nil, LayersOutput{}, err
		}
		s.logger.Info("layer added", "id", layer.ID, "path", layer.Path)
		return nil, LayersOutput{Layers: []engine.LayerStatus{*layer}}, nil

	case "remove":
		if args.ID == 0 {
			return nil, LayersOutput{}, fmt.Errorf("id is required for remove")
		}
		if err := s.ctl.RemoveLayer(args.ID); err != nil {
			return nil, LayersOutput{}, err
		}
		return nil, LayersOutput{Removed: 1}, nil

	case "modify":
		if args.ID == 0 || args.Property == "" {
			return nil, LayersOutput{}, fmt.Errorf("id and property are required for modify")
		}
		layer, err := s.ctl.ModifyLayer(args.ID, args.Property, args.Value)
		if err != nil {
			return nil, LayersOutput{}, err
		}
		return nil, LayersOutput{Layers: []engine.LayerStatus{*layer}}, nil

	case "clear":
		n, err := s.ctl.ClearLayers()
		if err != nil {
			return nil, LayersOutput{}, err
		}
		return nil, LayersOutput{Removed: n}, nil

	default:
		return nil, LayersOutput{}, fmt.Errorf("unknown action %q (want list, add, remove, modify or clear)", args.Action)
	}
}

func (s *Server) handleReload(_ context.Context, _ *mcpsdk.CallToolRequest, _ ReloadInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.ctl.Reload(); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{OK: true}, nil
}

func (s *Server) handlePause(_ context.Context, _ *mcpsdk.CallToolRequest, args PauseInput) (*mcpsdk.CallToolResult, PauseOutput, error) {
	switch strings.ToLower(strings.TrimSpace(args.Action)) {
	case "pause":
		if err := s.ctl.Pause(); err != nil {
			return nil, PauseOutput{}, err
		}
		return nil, PauseOutput{Paused: true}, nil
	case "resume":
		if err := s.ctl.Resume(); err != nil {
			return nil, PauseOutput{}, err
		}
		return nil, PauseOutput{Paused: false}, nil
	case "", "toggle":
		paused, err := s.ctl.TogglePause()
		if err != nil {
			return nil, PauseOutput{}, err
		}
		return nil, PauseOutput{Paused: paused}, nil
	default:
		return nil, PauseOutput{}, fmt.Errorf("unknown action %q (want pause, resume or toggle)", args.Action)
	}
}
