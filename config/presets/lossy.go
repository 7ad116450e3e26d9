package presets

import (
	"time"

	"github.com/entanglenet/go-repeater/config"
)

func init() {
	register("lossy", lossy())
}

// lossy links lose most halves and carry frequent errors. Generations are
// capped so that a session gives up instead of retrying forever.
func lossy() config.Config {
	conf := config.DefaultConfig()
	conf.Endpoints = 8
	conf.LINK.PGen = 0.01
	conf.LINK.PArr = 0.3
	conf.LINK.Length = 100
	conf.LINK.Noise = 0.3
	conf.ENTANGLE.MaxRounds = 50
	conf.ENTANGLE.SourceSync = true
	conf.TIME.Horizon = 100 * time.Millisecond
	return conf
}
