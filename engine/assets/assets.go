package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/meshpart/engine/assets/loaders"
	"github.com/spaghettifunk/meshpart/engine/core"
	"github.com/spaghettifunk/meshpart/engine/metadata"
)

var ErrAssetManagerClosed = errors.New("asset manager already closed")

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

// ChangeFunc is called from the watcher goroutine whenever a known asset is
// created or written.
type ChangeFunc func(info AssetInfo)

type AssetManager struct {
	assets   map[string]AssetInfo
	loaders  map[metadata.ResourceType]Loader
	onChange []ChangeFunc

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	am := &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[metadata.ResourceType]Loader),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	// Register loaders
	am.registerLoader(metadata.ResourceTypeMesh, &loaders.ObjLoader{})
	am.registerLoader(metadata.ResourceTypeProcedural, &loaders.ProceduralLoader{})
	am.registerLoader(metadata.ResourceTypeConfig, &loaders.ConfigLoader{})

	go am.start()

	return am, nil
}

// Watch indexes every known asset under dir and keeps watching it and its
// sub-directories for changes.
func (am *AssetManager) Watch(dir string) error {
	if am.closed() {
		return ErrAssetManagerClosed
	}
	return am.watchRecursive(dir, false)
}

// Unwatch stops watching dir and all of its sub-directories.
func (am *AssetManager) Unwatch(dir string) error {
	if am.closed() {
		return ErrAssetManagerClosed
	}
	return am.watchRecursive(dir, true)
}

// OnChange registers fn to be notified about created or modified assets.
func (am *AssetManager) OnChange(fn ChangeFunc) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.onChange = append(am.onChange, fn)
}

// Assets returns the indexed assets sorted by path.
func (am *AssetManager) Assets() []AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	out := make([]AssetInfo, 0, len(am.assets))
	for _, a := range am.assets {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b AssetInfo) int {
		return strings.Compare(a.Path, b.Path)
	})
	return out
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// LoadAsset loads the asset at path with the loader matching its type.
// Procedural paths ("sdf:<shape>") do not need to exist on disk.
func (am *AssetManager) LoadAsset(path string, params interface{}) (*metadata.Resource, error) {
	resourceType := DetermineAssetType(path)
	if resourceType == metadata.ResourceTypeNone {
		return nil, fmt.Errorf("%w: unsupported asset %q", core.ErrUnknownKind, path)
	}

	loader, loaderExists := am.loaders[resourceType]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %s", resourceType)
	}

	res, err := loader.Load(path, params)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	am.assets[path] = AssetInfo{
		Path:       path,
		Type:       resourceType,
		LastLoaded: time.Now(),
	}
	am.mutex.Unlock()

	return res, nil
}

func (am *AssetManager) UnloadAsset(asset *metadata.Resource) error {
	if asset == nil {
		return fmt.Errorf("%w: nil asset", core.ErrInvalidArgument)
	}
	loader, loaderExists := am.loaders[asset.Type]
	if !loaderExists {
		return fmt.Errorf("no loader registered for asset type: %s", asset.Type)
	}
	return loader.Unload(asset)
}

// Shutdown stops the watcher goroutine. It is safe to call more than once.
func (am *AssetManager) Shutdown() {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return
	}
	am.isClosed = true
	close(am.done)
	am.mutex.Unlock()
	<-am.stopped
}

func (am *AssetManager) closed() bool {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return am.isClosed
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {

		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Has(fsnotify.Create) {
					if err := am.watchRecursive(e.Name, false); err != nil {
						core.LogError("assets: cannot watch %s: %s", e.Name, err)
					}
				}
				continue
			}
			// Handle create or modify events
			if e.Has(fsnotify.Create) || e.Has(fsnotify.Write) {
				if info, ok := am.handleFileEvent(e.Name); ok {
					am.notify(info)
				}
			}
			// Removed files and directories cannot be stat'ed, drop both
			if e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename) {
				am.removeAsset(e.Name)
				_ = am.fsnotify.Remove(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("assets: %s", err.Error())

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

func (am *AssetManager) notify(info AssetInfo) {
	am.mutex.RLock()
	callbacks := slices.Clone(am.onChange)
	am.mutex.RUnlock()

	for _, fn := range callbacks {
		fn(info)
	}
}

// watchRecursive adds all directories under the given one to the watch list
// and indexes the files found along the way.
func (am *AssetManager) watchRecursive(path string, unWatch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if unWatch {
				return am.fsnotify.Remove(walkPath)
			}
			return am.fsnotify.Add(walkPath)
		}
		if unWatch {
			am.removeAsset(walkPath)
		} else {
			am.handleFileEvent(walkPath)
		}
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) (AssetInfo, bool) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	assetType := DetermineAssetType(path)
	if assetType == metadata.ResourceTypeNone {
		return AssetInfo{}, false
	}
	info := AssetInfo{
		Path: path,
		Type: assetType,
	}
	if prev, ok := am.assets[path]; ok {
		info.LastLoaded = prev.LastLoaded
	}
	am.assets[path] = info
	return info, true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, path)
}

// DetermineAssetType maps a path to the resource type its loader produces.
func DetermineAssetType(path string) metadata.ResourceType {
	if loaders.IsProcedural(path) {
		return metadata.ResourceTypeProcedural
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return metadata.ResourceTypeMesh
	case ".toml":
		return metadata.ResourceTypeConfig
	default:
		return metadata.ResourceTypeNone
	}
}
