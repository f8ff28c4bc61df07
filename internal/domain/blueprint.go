package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DesignType categorizes the object an upcycling blueprint describes.
type DesignType string

const (
	DesignTypeArtPiece       DesignType = "Art Piece"
	DesignTypeSmallFurniture DesignType = "Small Furniture"
	DesignTypeAccessory      DesignType = "Accessory"
	DesignTypeTool           DesignType = "Tool"
)

const (
	MinUpcycleScore = 1
	MaxUpcycleScore = 10

	DefaultDesignTitle = "Untitled Design"
)

// Material is one entry of a blueprint's material breakdown.
type Material struct {
	Name     string `json:"material_name"`
	Quantity string `json:"estimated_quantity"`
}

// Blueprint is the structured upcycling plan produced by the vision analyzer.
// Field tags follow the response schema the models are instructed to emit.
type Blueprint struct {
	Title               string     `json:"design_title"`
	Type                DesignType `json:"design_type"`
	Materials           []Material `json:"material_breakdown"`
	AssemblySteps       string     `json:"assembly_steps_summary"`
	UpcycleScore        int        `json:"upcycle_score"`
	VisualizationPrompt string     `json:"visualization_prompt,omitempty"`
}

// Normalize coerces model output into a presentable blueprint: the score is
// clamped into [1,10], empty titles and types get defaults, and material
// names are trimmed and title-cased. Materials without a name are dropped.
func (b *Blueprint) Normalize() {
	b.Title = strings.TrimSpace(b.Title)
	if b.Title == "" {
		b.Title = DefaultDesignTitle
	}
	if !b.Type.Valid() {
		b.Type = DesignTypeArtPiece
	}
	if b.UpcycleScore < MinUpcycleScore {
		b.UpcycleScore = MinUpcycleScore
	}
	if b.UpcycleScore > MaxUpcycleScore {
		b.UpcycleScore = MaxUpcycleScore
	}
	b.AssemblySteps = strings.TrimSpace(b.AssemblySteps)
	b.VisualizationPrompt = strings.TrimSpace(b.VisualizationPrompt)

	titler := cases.Title(language.Und)
	kept := b.Materials[:0]
	for _, m := range b.Materials {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			continue
		}
		kept = append(kept, Material{
			Name:     titler.String(name),
			Quantity: strings.TrimSpace(m.Quantity),
		})
	}
	b.Materials = kept
}

// SplitVisualization detaches the visualization prompt from the blueprint so
// the stored plan and the render prompt live in separate columns.
func (b *Blueprint) SplitVisualization() string {
	prompt := b.VisualizationPrompt
	b.VisualizationPrompt = ""
	return prompt
}

// Valid reports whether the design type is one of the known categories.
func (t DesignType) Valid() bool {
	switch t {
	case DesignTypeArtPiece, DesignTypeSmallFurniture, DesignTypeAccessory, DesignTypeTool:
		return true
	}
	return false
}
