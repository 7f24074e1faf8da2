package hooks

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/photomirror/photomirror/pkg/errors"
)

const scriptExtension = ".tengo"

// LoadFromDir registers every recognized script from dir with the manager.
// Scripts are named "<event>.tengo" or "<event>.<name>.tengo" so an event can
// carry several scripts; they run in lexical filename order. A missing
// directory is not an error, hooks are optional.
func LoadFromDir(manager Manager, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "failed to read hooks directory %s", dir)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), scriptExtension) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		event := eventForFilename(name)
		if !validEvent(event) {
			continue
		}

		path := filepath.Join(dir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "failed to read hook script %s", path)
		}
		if err := manager.AddHook(Hook{
			Event:   event,
			Name:    name,
			Content: string(content),
		}); err != nil {
			return errors.Wrapf(err, "failed to register hook %s", name)
		}
	}
	return nil
}

func eventForFilename(name string) Event {
	base := strings.TrimSuffix(name, scriptExtension)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return Event(base)
}
