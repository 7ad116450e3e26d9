package node

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/entanglenet/go-repeater/cmd"
	"github.com/entanglenet/go-repeater/common/types"
	"github.com/entanglenet/go-repeater/dispatch"
	"github.com/entanglenet/go-repeater/log"
)

// Report is the summary of a run written at its end.
type Report struct {
	Run         string            `json:"run"`
	Version     string            `json:"version"`
	Seed        int64             `json:"seed"`
	Preset      string            `json:"preset,omitempty"`
	Endpoints   int               `json:"endpoints"`
	Attempts    int               `json:"attempts"`
	VirtualTime int64             `json:"virtual_time_ns"`
	Stats       dispatch.Stats    `json:"stats"`
	Sessions    []dispatch.Record `json:"sessions"`
}

// Report collects the state of the run so far.
func (app *App) Report() Report {
	params := app.network.Params()
	return Report{
		Run:         types.RunID(app.Config.Seed).String(),
		Version:     cmd.VersionString(),
		Seed:        app.Config.Seed,
		Preset:      app.Config.Preset,
		Endpoints:   len(app.network.Endpoints()),
		Attempts:    params.Attempts(),
		VirtualTime: int64(app.clock.Now()),
		Stats:       app.dispatcher.Stats(),
		Sessions:    app.dispatcher.History(),
	}
}

// WriteReport atomically replaces the file at path with the JSON encoding of r.
func WriteReport(path string, r *Report) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return log.ErrEnsureDataDir(dir, err)
		}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return log.ErrWriteReport(err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return log.ErrWriteReport(err)
	}
	return nil
}
