// Package labs models the lab/problem directory tree and the persisted
// simulation result of each problem.
package labs

import "path/filepath"

// Layout names the fixed subdirectories and files inside a problem directory.
type Layout struct {
	DesignDir  string `yaml:"design_dir"`
	ResultDir  string `yaml:"result_dir"`
	GoldenDir  string `yaml:"golden_dir"`
	ResultFile string `yaml:"result_file"`
	WaveFile   string `yaml:"wave_file"`
	GoldenLog  string `yaml:"golden_log"`
	GoldenWave string `yaml:"golden_wave"`
}

// DefaultLayout returns the layout used by the course material.
func DefaultLayout() Layout {
	return Layout{
		DesignDir:  "design_src",
		ResultDir:  "sim_result",
		GoldenDir:  "golden",
		ResultFile: "result.txt",
		WaveFile:   "wave.vcd",
		GoldenLog:  "golden_log.txt",
		GoldenWave: "golden_wave.vcd",
	}
}

// WithDefaults fills empty fields from DefaultLayout.
func (l Layout) WithDefaults() Layout {
	def := DefaultLayout()
	fill := func(v *string, d string) {
		if *v == "" {
			*v = d
		}
	}
	fill(&l.DesignDir, def.DesignDir)
	fill(&l.ResultDir, def.ResultDir)
	fill(&l.GoldenDir, def.GoldenDir)
	fill(&l.ResultFile, def.ResultFile)
	fill(&l.WaveFile, def.WaveFile)
	fill(&l.GoldenLog, def.GoldenLog)
	fill(&l.GoldenWave, def.GoldenWave)
	return l
}

// ResultPath is the result artifact of the problem in dir.
func (l Layout) ResultPath(dir string) string {
	return filepath.Join(dir, l.ResultDir, l.ResultFile)
}

// WavePath is the waveform written by the student's simulation.
func (l Layout) WavePath(dir string) string {
	return filepath.Join(dir, l.ResultDir, l.WaveFile)
}

// DesignPath is the directory holding the student's design sources.
func (l Layout) DesignPath(dir string) string {
	return filepath.Join(dir, l.DesignDir)
}

// GoldenLogPath is the reference log.
func (l Layout) GoldenLogPath(dir string) string {
	return filepath.Join(dir, l.GoldenDir, l.GoldenLog)
}

// GoldenWavePath is the reference waveform.
func (l Layout) GoldenWavePath(dir string) string {
	return filepath.Join(dir, l.GoldenDir, l.GoldenWave)
}
