package presets

import (
	"time"

	"github.com/entanglenet/go-repeater/config"
)

func init() {
	register("ideal", ideal())
}

// ideal links never lose a pair, so every generation takes a single round.
func ideal() config.Config {
	conf := config.DefaultConfig()
	conf.LINK.PGen = 1
	conf.LINK.PArr = 1
	conf.LINK.Noise = 0
	conf.LINK.Length = 1
	conf.DISPATCH.MaxSessions = 100
	conf.TIME.Horizon = time.Second
	return conf
}
