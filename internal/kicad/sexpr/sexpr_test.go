package sexpr

import (
	"errors"
	"strings"
	"testing"
)

const footprintText = `(module TLP292_TPL_E (layer F.Cu) (tedit 5F2A1B2C)
  (descr "SOP4 \"opto\"")
  (fp_text reference IC** (at 0 0) (layer F.SilkS)
    (effects (font (size 1.27 1.27) (thickness 0.254)))
  )
  (model TLP292_TPL_E.stp
    (at (xyz 0 0 0))
  )
)
`

func TestParseKeepsQuoting(t *testing.T) {
	root, err := Parse([]byte(footprintText))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if root.Head() != "module" {
		t.Fatalf("head = %q", root.Head())
	}
	name, ok := root.Arg(0)
	if !ok || name != "TLP292_TPL_E" {
		t.Fatalf("arg 0 = %q, %v", name, ok)
	}
	descr := root.Child("descr")
	if descr == nil || !descr.Items[1].Quoted || descr.Items[1].Value != `SOP4 "opto"` {
		t.Fatalf("descr = %#v", descr)
	}
	if root.Items[1].Quoted {
		t.Fatal("bare name was marked quoted")
	}
}

func TestPrintRoundTrip(t *testing.T) {
	root, err := Parse([]byte(footprintText))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	printed := root.Bytes()
	again, err := Parse(printed)
	if err != nil {
		t.Fatalf("reparse: %v\n%s", err, printed)
	}
	if again.String() != root.String() {
		t.Fatalf("round trip mismatch:\n%s\n%s", again.String(), root.String())
	}
	if !strings.Contains(string(printed), `(descr "SOP4 \"opto\"")`) {
		t.Fatalf("escaped string not preserved:\n%s", printed)
	}
}

func TestQuoteWhenNeeded(t *testing.T) {
	node := Form("property", Symbol("has space"), Symbol(""), String("plain"))
	if got := node.String(); got != `(property "has space" "" "plain")` {
		t.Fatalf("String = %s", got)
	}
}

func TestEditing(t *testing.T) {
	root := Form("footprint", String("A"), Form("layer", String("F.Cu")), Form("model", String("x.stp")))
	root.InsertAfterHead(Form("version", Symbol("20210926")))
	if root.Items[2].Head() != "version" {
		t.Fatalf("version not inserted after the name: %s", root.String())
	}
	root.SetArg(0, String("B"))
	if name, _ := root.Arg(0); name != "B" {
		t.Fatalf("name = %q", name)
	}
	if n := root.RemoveChildren("model"); n != 1 {
		t.Fatalf("removed %d models", n)
	}
	if len(root.Children("model")) != 0 {
		t.Fatal("model still present")
	}

	clone := root.Clone()
	clone.Child("layer").SetArg(0, String("B.Cu"))
	if layer, _ := root.Child("layer").Arg(0); layer != "F.Cu" {
		t.Fatal("Clone shares children with the original")
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "(a (b)", `(a "open)`, "(a))", ")", `(a "x\`} {
		_, err := Parse([]byte(in))
		var syntax *SyntaxError
		if !errors.As(err, &syntax) {
			t.Fatalf("Parse(%q) expected SyntaxError, got %v", in, err)
		}
	}
}
