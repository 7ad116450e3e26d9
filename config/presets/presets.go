// Package presets holds named configurations that replace the defaults
// before the config file and the flags are applied.
package presets

import (
	"fmt"
	"maps"
	"slices"

	"github.com/entanglenet/go-repeater/config"
)

var presets = map[string]config.Config{}

func register(name string, conf config.Config) {
	if _, exist := presets[name]; exist {
		panic(fmt.Sprintf("preset %s already registered", name))
	}
	conf.Preset = name
	presets[name] = conf
}

// Options returns the names of all presets.
func Options() []string {
	return slices.Sorted(maps.Keys(presets))
}

// Get returns the preset with name.
func Get(name string) (config.Config, error) {
	conf, exist := presets[name]
	if !exist {
		return config.Config{}, fmt.Errorf("preset %s is not registered. select one of the options: %+s",
			name, Options())
	}
	return conf, nil
}
