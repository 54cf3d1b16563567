package assets

import "github.com/spaghettifunk/meshpart/engine/metadata"

// Loader turns a path into a resource. params is loader specific and may be nil.
type Loader interface {
	Load(path string, params interface{}) (*metadata.Resource, error)
	Unload(resource *metadata.Resource) error
}
