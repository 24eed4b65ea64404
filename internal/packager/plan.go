package packager

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/fwpack/internal/project"
)

// Branch selects the packaging layout.
type Branch string

const (
	// BranchArchive zips the raw binary for the vendor flashing tool.
	BranchArchive Branch = "archive"
	// BranchPrebuilt copies the archive the build already produced.
	BranchPrebuilt Branch = "prebuilt"
)

// Plan holds every path a run touches. It is computed once, before any side effect.
type Plan struct {
	Config    project.Config
	BuildDir  string
	OutputDir string
	Marker    string
	Branch    Branch

	HexSource       string // hex artifact in the build dir
	BinaryName      string // binary entry name, relative to BuildDir
	PrebuiltArchive string // archive produced by the build
	HexName         string // <project>_V<version>.hex
	ZipName         string // <project>_V<version>.zip
}

// NewPlan derives the plan from the project configuration. When the sketch name
// is unknown the artifacts are located with wildcard patterns inside buildDir;
// the first match in lexical order wins and an unmatched pattern is kept as is
// so the copy step reports it.
func NewPlan(cfg *project.Config, buildDir, outputDir, marker string) Plan {
	base := cfg.VersionedBase()
	p := Plan{
		Config:    *cfg,
		BuildDir:  buildDir,
		OutputDir: outputDir,
		Marker:    marker,
		Branch:    SelectBranch(cfg.Board, marker),
		HexName:   base + ".hex",
		ZipName:   base + ".zip",
	}

	if cfg.HasSketch() {
		p.HexSource = filepath.Join(buildDir, cfg.Sketch+".hex")
		p.BinaryName = cfg.Sketch + ".bin"
		p.PrebuiltArchive = filepath.Join(buildDir, cfg.Sketch+".zip")
		return p
	}

	p.HexSource = filepath.Join(buildDir, resolvePattern(buildDir, "*.hex", p.HexName))
	p.BinaryName = resolvePattern(buildDir, "*.bin", "")
	p.PrebuiltArchive = filepath.Join(buildDir, resolvePattern(buildDir, "*.zip", p.ZipName))
	return p
}

// SelectBranch reports which layout a board type uses.
func SelectBranch(board, marker string) Branch {
	if strings.Contains(board, marker) {
		return BranchArchive
	}
	return BranchPrebuilt
}

func resolvePattern(dir, pattern, exclude string) string {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return pattern
	}
	for _, m := range matches {
		name := filepath.Base(m)
		if name != exclude && !strings.HasPrefix(name, ".") {
			return name
		}
	}
	return pattern
}

// OutputHex is the final versioned hex path.
func (p Plan) OutputHex() string { return filepath.Join(p.OutputDir, p.HexName) }

// OutputZip is the final versioned archive path.
func (p Plan) OutputZip() string { return filepath.Join(p.OutputDir, p.ZipName) }

// BuildZip is where the archive layout writes its zip before copying it out.
func (p Plan) BuildZip() string { return filepath.Join(p.BuildDir, p.ZipName) }

// CopiedHex is the hex file in the output dir before it gets its versioned name.
func (p Plan) CopiedHex() string { return filepath.Join(p.OutputDir, filepath.Base(p.HexSource)) }

// StaleFiles lists the files from a previous run that would collide with this one.
func (p Plan) StaleFiles() []string {
	return []string{p.OutputHex(), p.OutputZip(), p.BuildZip()}
}

// Outputs lists the files a successful run leaves in the output dir.
func (p Plan) Outputs() []string {
	return []string{p.OutputHex(), p.OutputZip()}
}
