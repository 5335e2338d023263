package registry

import (
	"path/filepath"
	"strings"
)

// stateDirName is the reserved subdirectory of the base directory.
const stateDirName = ".replicas"

const storeSuffix = "_store"

// StateDir returns the state directory for a base directory.
func StateDir(base string) string {
	return filepath.Join(base, stateDirName)
}

// StoreFile returns the file name backing store for the given instance.
// instance may be empty.
func StoreFile(instance, store string) string {
	return lockKey(instance, store) + storeSuffix
}

func lockKey(instance, store string) string {
	if instance == "" {
		return store
	}
	return instance + "_" + store
}

// storeFromFile is the inverse of StoreFile. It reports false for file names
// that do not belong to instance.
func storeFromFile(instance, name string) (string, bool) {
	store, ok := strings.CutSuffix(name, storeSuffix)
	if !ok {
		return "", false
	}
	if instance != "" {
		if store, ok = strings.CutPrefix(store, instance+"_"); !ok {
			return "", false
		}
	}
	if store == "" {
		return "", false
	}
	return store, true
}
