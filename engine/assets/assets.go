package assets

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/prism/engine/assets/loaders"
	"github.com/spaghettifunk/prism/engine/core"
)

type AssetInfo struct {
	Path       string
	LastLoaded time.Time
	// Set when the file changed on disk after it was loaded.
	Stale bool
}

// AssetManager loads shader bytecode and, when watching is enabled, keeps an
// eye on the loaded files. Pipelines are never rebuilt from a changed file;
// a change is only reported.
type AssetManager struct {
	assets map[string]AssetInfo
	shader loaders.ShaderLoader

	mutex sync.RWMutex

	done     chan struct{}
	wg       sync.WaitGroup
	fsnotify *fsnotify.Watcher
	watched  map[string]struct{}
	isClosed bool
}

func NewAssetManager(watch bool) (*AssetManager, error) {
	am := &AssetManager{
		assets:  make(map[string]AssetInfo),
		watched: make(map[string]struct{}),
		done:    make(chan struct{}),
	}
	if watch {
		fsWatch, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, err
		}
		am.fsnotify = fsWatch
		am.wg.Add(1)
		go am.start()
	}
	return am, nil
}

// LoadShader reads a SPIR-V module from disk.
func (am *AssetManager) LoadShader(path string) ([]uint32, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrShaderLoad, err)
	}

	res, err := am.shader.Load(abs)
	if err != nil {
		err = fmt.Errorf("%w: %s", core.ErrShaderLoad, err)
		core.LogError(err.Error())
		return nil, err
	}

	am.mutex.Lock()
	am.assets[abs] = AssetInfo{
		Path:       abs,
		LastLoaded: time.Now(),
	}
	am.mutex.Unlock()

	if err := am.add(filepath.Dir(abs)); err != nil {
		core.LogWarn("unable to watch `%s`: %s", filepath.Dir(abs), err)
	}

	core.LogDebug("Loaded shader `%s` (%d bytes).", res.Name, res.DataSize)
	return res.Data, nil
}

// Stale reports whether a loaded file changed on disk since it was read.
func (am *AssetManager) Stale(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return am.assets[abs].Stale
}

func (am *AssetManager) Close() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	am.wg.Wait()
	return nil
}

// add starts watching the directory of a loaded file, once.
func (am *AssetManager) add(dir string) error {
	if am.fsnotify == nil {
		return nil
	}
	am.mutex.Lock()
	defer am.mutex.Unlock()
	if am.isClosed {
		return errors.New("asset watcher already closed")
	}
	if _, ok := am.watched[dir]; ok {
		return nil
	}
	if err := am.fsnotify.Add(dir); err != nil {
		return err
	}
	am.watched[dir] = struct{}{}
	return nil
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				am.handleFileEvent(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

func (am *AssetManager) handleFileEvent(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()

	asset, exists := am.assets[abs]
	if !exists || asset.Stale {
		return
	}
	asset.Stale = true
	am.assets[abs] = asset
	core.LogWarn("Shader `%s` changed on disk; restart to use the new bytecode.", abs)
}
