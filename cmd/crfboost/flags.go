package main

import (
	"github.com/spf13/pflag"

	"github.com/five82/crfboost/internal/config"
)

// configFlags registers flags whose values overlay a loaded configuration.
// Only flags set on the command line are applied.
type configFlags struct {
	fs    *pflag.FlagSet
	apply map[string]func(*config.Config)
}

func newConfigFlags(fs *pflag.FlagSet) *configFlags {
	return &configFlags{fs: fs, apply: make(map[string]func(*config.Config))}
}

func bind[T any](f *configFlags, name string, value *T, field func(*config.Config) *T) {
	f.apply[name] = func(c *config.Config) { *field(c) = *value }
}

func (f *configFlags) String(name, short, def, usage string, field func(*config.Config) *string) {
	v := new(string)
	f.fs.StringVarP(v, name, short, def, usage)
	bind(f, name, v, field)
}

func (f *configFlags) Int(name, short string, def int, usage string, field func(*config.Config) *int) {
	v := new(int)
	f.fs.IntVarP(v, name, short, def, usage)
	bind(f, name, v, field)
}

func (f *configFlags) Float(name, short string, def float64, usage string, field func(*config.Config) *float64) {
	v := new(float64)
	f.fs.Float64VarP(v, name, short, def, usage)
	bind(f, name, v, field)
}

func (f *configFlags) Bool(name, short string, def bool, usage string, field func(*config.Config) *bool) {
	v := new(bool)
	f.fs.BoolVarP(v, name, short, def, usage)
	bind(f, name, v, field)
}

// IntPtr registers an int flag stored through a pointer field, so an
// explicit 0 is distinguishable from unset.
func (f *configFlags) IntPtr(name, usage string, field func(*config.Config) **int) {
	v := new(int)
	f.fs.IntVar(v, name, 0, usage)
	f.apply[name] = func(c *config.Config) {
		n := *v
		*field(c) = &n
	}
}

// NegBool registers a flag that sets field to false when given.
func (f *configFlags) NegBool(name, usage string, field func(*config.Config) *bool) {
	v := new(bool)
	f.fs.BoolVar(v, name, false, usage)
	f.apply[name] = func(c *config.Config) { *field(c) = !*v }
}

// Apply copies every changed flag into cfg.
func (f *configFlags) Apply(cfg *config.Config) {
	f.fs.Visit(func(fl *pflag.Flag) {
		if apply, ok := f.apply[fl.Name]; ok {
			apply(cfg)
		}
	})
}

// addSceneFlags registers the scene detection and normalization flags.
func addSceneFlags(f *configFlags, d *config.Config) {
	f.String("scene-file", "", "", "Scene list JSON to use instead of detection",
		func(c *config.Config) *string { return &c.SceneFile })
	f.Float("scene-threshold", "", d.SceneThreshold, "ffmpeg scene change threshold (0.0-1.0, higher = fewer cuts)",
		func(c *config.Config) *float64 { return &c.SceneThreshold })
	f.String("scene-detector", "", "", "External scene detection binary (default: ffmpeg scene filter)",
		func(c *config.Config) *string { return &c.SceneDetector })
	f.Float("extra-split-sec", "", d.ExtraSplitSec, "Maximum scene length in seconds (0 disables splitting)",
		func(c *config.Config) *float64 { return &c.ExtraSplitSec })
	f.IntPtr("extra-split", "Maximum scene length in frames, 0 disables splitting (overrides --extra-split-sec)",
		func(c *config.Config) **int { return &c.ExtraSplitFrames })
	f.Float("min-scene-len-sec", "", d.MinSceneLenSec, "Minimum scene length in seconds",
		func(c *config.Config) *float64 { return &c.MinSceneLenSec })
	f.IntPtr("min-scene-len", "Minimum scene length in frames, 0 disables merging (overrides --min-scene-len-sec)",
		func(c *config.Config) **int { return &c.MinSceneLenFrames })
}
