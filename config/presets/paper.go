package presets

import (
	"github.com/entanglenet/go-repeater/config"
)

func init() {
	register("paper", paper())
}

// paper is the reference scenario: four endpoints on 30km links with a
// 10ns source clock.
func paper() config.Config {
	return config.DefaultConfig()
}
