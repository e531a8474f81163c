package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM that drives the observer.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads path, which may be a single .lua
// file or a directory of them.
func NewEngine(path string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	e := &Engine{vm: vm, log: log}

	info, err := os.Stat(path)
	if err != nil {
		vm.Close()
		return nil, fmt.Errorf("stat script %s: %w", path, err)
	}
	if info.IsDir() {
		err = e.loadDir(path)
	} else {
		err = e.loadFile(path)
	}
	if err != nil {
		vm.Close()
		return nil, err
	}
	return e, nil
}

// NewEngineFromSource builds an engine from an in-memory chunk.
func NewEngineFromSource(src string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	if err := vm.DoString(src); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load lua source: %w", err)
	}
	return &Engine{vm: vm, log: log}, nil
}

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read script dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		if err := e.loadFile(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) loadFile(path string) error {
	if err := e.vm.DoFile(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	e.log.Debug("loaded lua script", zap.String("file", path))
	return nil
}

// SetNumber exposes a numeric global to scripts (radius, tile size, ...).
func (e *Engine) SetNumber(name string, v float64) {
	e.vm.SetGlobal(name, lua.LNumber(v))
}

// ObserverPosition calls observer_position(tick) and returns the x, y, z it
// yields. ok is false when the function is missing or fails; the caller
// keeps the previous position in that case.
func (e *Engine) ObserverPosition(tick uint64) (x, y, z float64, ok bool) {
	fn := e.vm.GetGlobal("observer_position")
	if fn.Type() != lua.LTFunction {
		return 0, 0, 0, false
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    3,
		Protect: true,
	}, lua.LNumber(tick)); err != nil {
		e.log.Error("lua observer_position error", zap.Uint64("tick", tick), zap.Error(err))
		return 0, 0, 0, false
	}
	lx, ly, lz := e.vm.Get(-3), e.vm.Get(-2), e.vm.Get(-1)
	e.vm.Pop(3)
	return lNum(lx), lNum(ly), lNum(lz), true
}

// lNum converts a Lua value to float64; nil and non-numbers become 0.
func lNum(v lua.LValue) float64 {
	return float64(lua.LVAsNumber(v))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
