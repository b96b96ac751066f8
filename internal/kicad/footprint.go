package kicad

import (
	"fmt"
	"path"
	"strings"

	"partcat/internal/kicad/sexpr"
)

const (
	footprintHead       = "footprint"
	legacyFootprintHead = "module"
)

// Footprint is a parsed .kicad_mod document.
type Footprint struct {
	root *sexpr.Node
}

// ParseFootprint parses footprint text. Pre-6.0 documents headed by "module"
// are upgraded to the "footprint" head.
func ParseFootprint(text string) (*Footprint, error) {
	root, err := sexpr.Parse([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("parse footprint: %w", err)
	}
	switch root.Head() {
	case footprintHead:
	case legacyFootprintHead:
		root.Items[0] = sexpr.Symbol(footprintHead)
	default:
		return nil, fmt.Errorf("parse footprint: unexpected top-level node %q", root.Head())
	}
	if _, ok := root.Arg(0); !ok {
		return nil, fmt.Errorf("parse footprint: missing footprint name")
	}
	return &Footprint{root: root}, nil
}

// NewFootprint returns a blank front-layer footprint carrying reference and
// value text.
func NewFootprint(name, version, generator string) *Footprint {
	textEffects := func() *sexpr.Node {
		return sexpr.Form("effects", sexpr.Form("font",
			sexpr.Form("size", sexpr.Symbol("1.27"), sexpr.Symbol("1.27")),
			sexpr.Form("thickness", sexpr.Symbol("0.15"))))
	}
	root := sexpr.Form(footprintHead, sexpr.String(name),
		sexpr.Form("version", sexpr.Symbol(version)),
		sexpr.Form("generator", sexpr.Symbol(generator)),
		sexpr.Form("layer", sexpr.String("F.Cu")),
		sexpr.Form("attr", sexpr.Symbol("smd")),
		sexpr.Form("fp_text", sexpr.Symbol("reference"), sexpr.String("REF**"),
			sexpr.Form("at", sexpr.Symbol("0"), sexpr.Symbol("-1.5")),
			sexpr.Form("layer", sexpr.String("F.SilkS")),
			textEffects()),
		sexpr.Form("fp_text", sexpr.Symbol("value"), sexpr.String(name),
			sexpr.Form("at", sexpr.Symbol("0"), sexpr.Symbol("1.5")),
			sexpr.Form("layer", sexpr.String("F.Fab")),
			textEffects()),
	)
	return &Footprint{root: root}
}

// Name returns the declared footprint name.
func (f *Footprint) Name() string {
	name, _ := f.root.Arg(0)
	return name
}

// SetName replaces the declared footprint name.
func (f *Footprint) SetName(name string) {
	f.root.SetArg(0, sexpr.String(name))
}

// Version returns the version stamp, or "" when the document has none.
func (f *Footprint) Version() string {
	if node := f.root.Child("version"); node != nil {
		v, _ := node.Arg(0)
		return v
	}
	return ""
}

// SetVersion stamps the document with version, inserting the node directly
// after the name when absent.
func (f *Footprint) SetVersion(version string) {
	if node := f.root.Child("version"); node != nil {
		node.SetArg(0, sexpr.Symbol(version))
		return
	}
	f.root.InsertAfterHead(sexpr.Form("version", sexpr.Symbol(version)))
}

// ModelPaths lists the path of every 3D model reference in document order.
func (f *Footprint) ModelPaths() []string {
	models := f.root.Children("model")
	paths := make([]string, 0, len(models))
	for _, model := range models {
		p, _ := model.Arg(0)
		paths = append(paths, p)
	}
	return paths
}

// ModelFileNames returns the base name of every model reference.
func (f *Footprint) ModelFileNames() []string {
	paths := f.ModelPaths()
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = ModelBaseName(p)
	}
	return names
}

// SetModelPath rewrites the path of the i-th model reference.
func (f *Footprint) SetModelPath(i int, p string) error {
	models := f.root.Children("model")
	if i < 0 || i >= len(models) {
		return fmt.Errorf("model index %d out of range (%d models)", i, len(models))
	}
	models[i].SetArg(0, sexpr.String(p))
	return nil
}

// Bytes serializes the footprint.
func (f *Footprint) Bytes() []byte {
	return f.root.Bytes()
}

// ModelBaseName returns the file name of a model path, accepting either
// separator style since vendor files are produced on Windows and Unix alike.
func ModelBaseName(p string) string {
	return path.Base(strings.ReplaceAll(p, `\`, "/"))
}
