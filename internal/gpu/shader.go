package gpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/tile.vert.wgsl
var tileVertexSource string

//go:embed shaders/tile.frag.wgsl
var tileFragmentSource string

// Stage identifies a programmable pipeline stage.
type Stage int

const (
	StageVertex Stage = iota
	StageFragment
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

func (s Stage) ir() ir.ShaderStage {
	if s == StageFragment {
		return ir.StageFragment
	}
	return ir.StageVertex
}

// Shader is one validated WGSL stage.
type Shader struct {
	Path   string
	Stage  Stage
	Source string
	Entry  string
}

// Program is a linked vertex + fragment pair ready for pipeline creation.
type Program struct {
	Label         string
	Source        string
	SPIRV         []uint32
	VertexEntry   string
	FragmentEntry string
}

// CompileShader reads a WGSL file and compiles it as the given stage.
func CompileShader(path string, stage Stage) (*Shader, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &CompileError{Path: path, Stage: stage, Diagnostics: []string{err.Error()}, Err: err}
	}
	return CompileShaderSource(path, string(src), stage)
}

// CompileShaderSource compiles WGSL source as the given stage. The module
// must parse, lower and validate cleanly and must declare an entry point
// for the stage. Diagnostics from naga are reported verbatim.
func CompileShaderSource(name, src string, stage Stage) (*Shader, error) {
	mod, diags := analyze(src)
	if len(diags) > 0 {
		return nil, &CompileError{Path: name, Stage: stage, Diagnostics: diags}
	}
	entry, ok := findEntry(mod, stage.ir())
	if !ok {
		return nil, &CompileError{Path: name, Stage: stage, Diagnostics: []string{
			fmt.Sprintf("no @%s entry point", stage),
		}}
	}
	slogger().Debug("gpu: shader compiled", "path", name, "stage", stage.String(), "entry", entry)
	return &Shader{Path: name, Stage: stage, Source: src, Entry: entry}, nil
}

// LinkProgram combines a vertex and a fragment stage into one module and
// generates SPIR-V for it. Clashing declarations between the two sources
// and interface mismatches surface here as a *LinkError.
func LinkProgram(vs, fs *Shader) (*Program, error) {
	linkErr := func(diags ...string) error {
		return &LinkError{Vertex: vs.Path, Fragment: fs.Path, Diagnostics: diags}
	}
	if vs.Stage != StageVertex {
		return nil, linkErr(fmt.Sprintf("%s is a %s shader, want vertex", vs.Path, vs.Stage))
	}
	if fs.Stage != StageFragment {
		return nil, linkErr(fmt.Sprintf("%s is a %s shader, want fragment", fs.Path, fs.Stage))
	}

	src := vs.Source + "\n" + fs.Source
	mod, diags := analyze(src)
	if len(diags) > 0 {
		return nil, linkErr(diags...)
	}
	for _, want := range []struct {
		name  string
		stage ir.ShaderStage
	}{{vs.Entry, ir.StageVertex}, {fs.Entry, ir.StageFragment}} {
		if !hasEntry(mod, want.name, want.stage) {
			return nil, linkErr(fmt.Sprintf("entry point %q missing after link", want.name))
		}
	}

	code, err := naga.GenerateSPIRV(mod, spirv.Options{Version: spirv.Version1_3})
	if err != nil {
		return nil, linkErr(err.Error())
	}
	if len(code)%4 != 0 {
		return nil, linkErr(fmt.Sprintf("SPIR-V size %d not a multiple of 4", len(code)))
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}

	slogger().Debug("gpu: program linked", "vertex", vs.Path, "fragment", fs.Path, "spirvWords", len(words))
	return &Program{
		Label:         "tile_program",
		Source:        src,
		SPIRV:         words,
		VertexEntry:   vs.Entry,
		FragmentEntry: fs.Entry,
	}, nil
}

// BuildProgram compiles and links the shader files at the given paths.
// Empty paths select the built-in tile shaders.
func BuildProgram(vertexPath, fragmentPath string) (*Program, error) {
	compile := func(path, builtin string, stage Stage) (*Shader, error) {
		if path == "" {
			return CompileShaderSource("builtin:tile."+stage.String(), builtin, stage)
		}
		return CompileShader(path, stage)
	}
	vs, err := compile(vertexPath, tileVertexSource, StageVertex)
	if err != nil {
		return nil, err
	}
	fs, err := compile(fragmentPath, tileFragmentSource, StageFragment)
	if err != nil {
		return nil, err
	}
	return LinkProgram(vs, fs)
}

// createModule hands the program to the device. Both the WGSL and the
// SPIR-V are supplied so each backend can take the form it consumes.
func (p *Program) createModule(device hal.Device) (hal.ShaderModule, error) {
	return device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: p.Label,
		Source: hal.ShaderSource{
			WGSL:  p.Source,
			SPIRV: p.SPIRV,
		},
	})
}

// analyze runs the naga front end and validator over src.
func analyze(src string) (*ir.Module, []string) {
	ast, err := naga.Parse(src)
	if err != nil {
		return nil, []string{err.Error()}
	}
	mod, err := naga.LowerWithSource(ast, src)
	if err != nil {
		return nil, []string{err.Error()}
	}
	verrs, err := naga.Validate(mod)
	if err != nil {
		return nil, []string{err.Error()}
	}
	if len(verrs) > 0 {
		diags := make([]string, len(verrs))
		for i := range verrs {
			diags[i] = verrs[i].Error()
		}
		return nil, diags
	}
	return mod, nil
}

func findEntry(mod *ir.Module, stage ir.ShaderStage) (string, bool) {
	for _, ep := range mod.EntryPoints {
		if ep.Stage == stage {
			return ep.Name, true
		}
	}
	return "", false
}

func hasEntry(mod *ir.Module, name string, stage ir.ShaderStage) bool {
	for _, ep := range mod.EntryPoints {
		if ep.Name == name && ep.Stage == stage {
			return true
		}
	}
	return false
}
