package openapi

import (
	"bytes"
	"testing"
)

func TestSpecReturnsCopy(t *testing.T) {
	a := Spec()
	if len(a) == 0 {
		t.Fatalf("empty spec")
	}
	a[0] = '!'
	if b := Spec(); b[0] == '!' {
		t.Fatalf("Spec returned shared backing array")
	}
}

func TestSpecListsCoreEndpoints(t *testing.T) {
	spec := Spec()
	for _, path := range []string{
		"/api/v1/dataset",
		"/api/v1/marks",
		"/api/v1/stats/survival",
		"/api/v1/view/play",
		"/metrics",
	} {
		if !bytes.Contains(spec, []byte(path)) {
			t.Fatalf("spec missing %s", path)
		}
	}
}
