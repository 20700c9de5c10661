package configutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

func splitExt(f string) (string, string) {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i] == '.' {
			return f[0:i], f[i+1:]
		}
	}
	return f, ""
}

func localName(name string) string {
	dirname := filepath.Dir(name)
	prefixname, ext := splitExt(filepath.Base(name))
	return filepath.Join(dirname, fmt.Sprintf("%s.local.%s", prefixname, ext))
}

// mergeFile merges the json5 file at `path` over `out`, found reports if the file existed.
func mergeFile[T any](out *T, path string) (found bool, err error) {
	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(contents) == 0 {
		return true, nil
	}

	var layer T
	err = json5.Unmarshal(contents, &layer)
	if err != nil {
		return true, fmt.Errorf("parse %s: %w", path, err)
	}
	err = mergo.Merge(out, layer, mergo.WithOverride)
	if err != nil {
		return true, fmt.Errorf("merge %s: %w", path, err)
	}
	return true, nil
}

// ReadConfig reads a configuration file, `name` should come with a file extension.
// The following are merged over `defaults`, where the later file wins:
// 1. <name>.<ext>
// 2. <name>.local.<ext>
//
// Zero values never override (this is how mergo works), so defaults should be
// chosen such that the zero value is never a meaningful override.
func ReadConfig[T any](name string, defaults T) (T, error) {
	out := defaults

	foundBase, err := mergeFile(&out, name)
	if err != nil {
		return out, err
	}

	local := localName(name)
	foundLocal, err := mergeFile(&out, local)
	if err != nil {
		return out, err
	}
	if foundLocal {
		slog.Info("merging config with local overrides", "local", local)
	}

	if !foundBase && !foundLocal {
		return out, os.ErrNotExist
	}
	return out, nil
}

// ReadRecursively is ReadConfig but it goes up the filesystem until the root
// to find a configuration file matching the name.
func ReadRecursively[T any](name string, defaults T) (T, error) {
	root, err := filepath.Abs("/")
	if err != nil {
		return defaults, err
	}
	current, err := os.Getwd()
	if err != nil {
		return defaults, err
	}

	for {
		config, err := ReadConfig(filepath.Join(current, name), defaults)
		if err == nil {
			return config, nil
		}
		if !os.IsNotExist(err) {
			return defaults, err
		}
		if current == root {
			return defaults, os.ErrNotExist
		}
		current = filepath.Dir(current)
	}
}
