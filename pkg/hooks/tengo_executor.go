package hooks

import (
	"fmt"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/photomirror/photomirror/internal/logger"
	"github.com/photomirror/photomirror/pkg/errors"
)

// TengoExecutor handles the execution of Tengo hook scripts. It is the
// default Manager implementation.
type TengoExecutor struct {
	scripts map[Event][]Hook
	mutex   sync.RWMutex
}

// NewManager creates a new Tengo script executor.
func NewManager() *TengoExecutor {
	return &TengoExecutor{
		scripts: make(map[Event][]Hook),
	}
}

// AddHook registers a script for its event.
func (e *TengoExecutor) AddHook(hook Hook) error {
	if hook.Event == "" {
		return errors.ErrHookEventEmpty
	}
	if !validEvent(hook.Event) {
		return errors.Wrapf(errors.ErrHookExecution, "unsupported hook event: %s", hook.Event)
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.scripts[hook.Event] = append(e.scripts[hook.Event], hook)
	return nil
}

// HasHooks reports whether any script is registered for the event.
func (e *TengoExecutor) HasHooks(event Event) bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return len(e.scripts[event]) > 0
}

// Execute runs every script registered for the event. Scripts are isolated
// from each other: one failing script is logged and the rest still run. The
// returned error is the first failure, or nil.
func (e *TengoExecutor) Execute(event Event, ctx Context) error {
	e.mutex.RLock()
	hooksToRun := append([]Hook(nil), e.scripts[event]...)
	e.mutex.RUnlock()

	var firstErr error
	for _, hook := range hooksToRun {
		if err := e.runScript(hook, ctx); err != nil {
			logger.Warn("hook script failed", logger.Fields{
				"event": string(event),
				"hook":  hook.Name,
				"error": err.Error(),
			})
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (e *TengoExecutor) runScript(hook Hook, ctx Context) error {
	script := tengo.NewScript([]byte(hook.Content))

	modules := stdlib.GetModuleMap("fmt", "os", "text", "times", "json")
	script.SetImports(modules)

	vars := map[string]interface{}{
		"event":       string(ctx.Event),
		"asset_id":    ctx.AssetID,
		"filename":    ctx.Filename,
		"path":        ctx.Path,
		"library_dir": ctx.LibraryDir,
	}
	for name, value := range vars {
		if err := script.Add(name, value); err != nil {
			return fmt.Errorf("failed to add variable %q to script: %w", name, err)
		}
	}
	for name, value := range ctx.Vars {
		if err := script.Add(name, value); err != nil {
			return fmt.Errorf("failed to add variable %q to script: %w", name, err)
		}
	}

	compiled, err := script.Run()
	if err != nil {
		return fmt.Errorf("%s: %w: %w", hook.Name, errors.ErrHookExecution, err)
	}

	// Scripts signal failure by setting "err".
	if errVar := compiled.Get("err"); errVar != nil {
		switch v := errVar.Value().(type) {
		case error:
			return fmt.Errorf("%w: %w", errors.ErrHookScript, v)
		case string:
			if v != "" {
				return fmt.Errorf("%w: %s", errors.ErrHookScript, v)
			}
		}
	}
	return nil
}

func validEvent(event Event) bool {
	switch event {
	case PostDownload, PostSync, AuthNeeded, PreDelete:
		return true
	default:
		return false
	}
}
