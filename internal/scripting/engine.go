package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/carbongdt/carbon/internal/world"
)

// Engine wraps a single gopher-lua VM running world hook scripts.
// Single-goroutine access only.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

var _ world.Listener = (*Engine)(nil)

// NewEngine creates a Lua engine and loads every script in scriptsDir,
// then in its world/ subdirectory. Missing directories are skipped.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	e.registerAPI()

	if scriptsDir == "" {
		return e, nil
	}
	for _, dir := range []string{scriptsDir, filepath.Join(scriptsDir, "world")} {
		if err := e.loadDir(dir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DoString runs a chunk of Lua source.
func (e *Engine) DoString(src string) error {
	if err := e.vm.DoString(src); err != nil {
		return fmt.Errorf("run lua: %w", err)
	}
	return nil
}

func (e *Engine) Close() {
	e.vm.Close()
}

// registerAPI exposes log_info and log_warn to scripts.
func (e *Engine) registerAPI() {
	e.vm.SetGlobal("log_info", e.vm.NewFunction(func(L *lua.LState) int {
		e.log.Info(L.CheckString(1), zap.String("source", "lua"))
		return 0
	}))
	e.vm.SetGlobal("log_warn", e.vm.NewFunction(func(L *lua.LState) int {
		e.log.Warn(L.CheckString(1), zap.String("source", "lua"))
		return 0
	}))
}

// call invokes the global hook name when a script defines it.
func (e *Engine) call(name string, args ...lua.LValue) {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, args...); err != nil {
		e.log.Error("lua hook error", zap.String("hook", name), zap.Error(err))
	}
}

func (e *Engine) sceneTable(s *world.Scene) *lua.LTable {
	d := s.Descriptor()
	t := e.vm.NewTable()
	t.RawSetString("id", lua.LNumber(d.ID))
	t.RawSetString("name", lua.LString(d.Name))
	t.RawSetString("description", lua.LString(d.Description))
	t.RawSetString("flags", lua.LNumber(d.Flags))
	t.RawSetString("elements", lua.LNumber(len(s.Elements())))
	return t
}

func (e *Engine) OnWorldDisposing(w *world.World) {
	t := e.vm.NewTable()
	if cfg := w.Configuration(); cfg != nil {
		t.RawSetString("id", lua.LString(cfg.WorldID().String()))
		t.RawSetString("type", lua.LString(string(cfg.WorldType())))
		t.RawSetString("name", lua.LString(cfg.Name()))
	}
	t.RawSetString("path", lua.LString(w.SourcePath()))
	e.call("on_world_disposing", t)
}

func (e *Engine) OnSceneAdded(s *world.Scene)   { e.call("on_scene_added", e.sceneTable(s)) }
func (e *Engine) OnSceneLoading(s *world.Scene) { e.call("on_scene_loading", e.sceneTable(s)) }
func (e *Engine) OnSceneLoaded(s *world.Scene)  { e.call("on_scene_loaded", e.sceneTable(s)) }

func (e *Engine) OnSceneUnloading(s *world.Scene) {
	e.call("on_scene_unloading", e.sceneTable(s))
}

func (e *Engine) OnSceneLoadFailed(s *world.Scene, err error) {
	e.call("on_scene_load_failed", e.sceneTable(s), lua.LString(err.Error()))
}
