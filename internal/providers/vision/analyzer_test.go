package vision

import (
	"testing"

	"metamorphosis/internal/domain"
)

func TestExtractJSONFragment(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain object",
			raw:  `{"design_title":"x"}`,
			want: `{"design_title":"x"}`,
		},
		{
			name: "fenced json",
			raw:  "```json\n{\"design_title\":\"x\"}\n```",
			want: `{"design_title":"x"}`,
		},
		{
			name: "surrounding prose",
			raw:  "Here is the blueprint: {\"design_title\":\"x\"} Hope it helps!",
			want: `{"design_title":"x"}`,
		},
		{
			name: "empty",
			raw:  "   ",
			want: "",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractJSONFragment(tc.raw); got != tc.want {
				t.Fatalf("extractJSONFragment(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestDecodeBlueprintNormalizes(t *testing.T) {
	raw := "```json\n" + `{
		"design_title": " bottle cap mosaic ",
		"design_type": "Art Piece",
		"material_breakdown": [{"material_name": "bottle caps", "estimated_quantity": "~50"}],
		"assembly_steps_summary": "Glue caps to board.",
		"upcycle_score": 99,
		"visualization_prompt": "a colorful mosaic"
	}` + "\n```"

	bp, err := decodeBlueprint(raw)
	if err != nil {
		t.Fatalf("decodeBlueprint returned error: %v", err)
	}
	if bp.Title != "bottle cap mosaic" {
		t.Fatalf("Title = %q", bp.Title)
	}
	if bp.UpcycleScore != domain.MaxUpcycleScore {
		t.Fatalf("UpcycleScore = %d, want clamped to %d", bp.UpcycleScore, domain.MaxUpcycleScore)
	}
	if bp.VisualizationPrompt != "a colorful mosaic" {
		t.Fatalf("VisualizationPrompt = %q", bp.VisualizationPrompt)
	}
	if len(bp.Materials) != 1 || bp.Materials[0].Name != "Bottle Caps" {
		t.Fatalf("Materials = %#v", bp.Materials)
	}
}

func TestDecodeBlueprintRejectsGarbage(t *testing.T) {
	if _, err := decodeBlueprint("the model had nothing to say"); err == nil {
		t.Fatal("decodeBlueprint should fail on non-JSON text")
	}
	if _, err := decodeBlueprint(""); err == nil {
		t.Fatal("decodeBlueprint should fail on empty text")
	}
}

func TestNormalizeMIME(t *testing.T) {
	if got := normalizeMIME("image/png"); got != "image/png" {
		t.Fatalf("normalizeMIME(png) = %q", got)
	}
	if got := normalizeMIME("image/bmp"); got != "image/jpeg" {
		t.Fatalf("normalizeMIME(bmp) = %q, want image/jpeg", got)
	}
}
