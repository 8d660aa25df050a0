package workspace

import "errors"

var (
	ErrManifest   = errors.New("invalid package manifest")
	ErrFileSystem = errors.New("file system operation failed")
)
