package api

import (
	"context"
	"net/http"
	"slices"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jeduden/bmad-pokedex/internal/dex"
)

func (s *Server) registerTypeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTypes",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/types",
		Summary:     "List types",
		Description: "Returns the 18 elemental types in canonical order",
		Tags:        []string{"Types"},
	}, s.handleListTypes)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTypesEffectiveness",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/types/effectiveness",
		Summary:     "Get type combination effectiveness",
		Description: "Returns the damage chart for one or two types",
		Tags:        []string{"Types"},
	}, s.handleTypesEffectiveness)

	huma.Register(s.api, huma.Operation{
		OperationID: "listGenerations",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/generations",
		Summary:     "List generations",
		Description: "Returns every generation with its national dex id range",
		Tags:        []string{"Types"},
	}, s.handleListGenerations)
}

// TypesOutput lists type names.
type TypesOutput struct {
	Body struct {
		Types []string `json:"types"`
	}
}

// TypesEffectivenessInput selects a type combination.
type TypesEffectivenessInput struct {
	Types string `query:"types" required:"true" doc:"Comma-separated type names, e.g. fire,flying"`
}

// GenerationsOutput lists generations.
type GenerationsOutput struct {
	Body struct {
		Generations []dex.Generation `json:"generations"`
	}
}

func (s *Server) handleListTypes(_ context.Context, _ *struct{}) (*TypesOutput, error) {
	out := &TypesOutput{}
	out.Body.Types = slices.Clone(dex.Types)
	return out, nil
}

func (s *Server) handleTypesEffectiveness(ctx context.Context, input *TypesEffectivenessInput) (*EffectivenessOutput, error) {
	view, err := s.services.Effectiveness.ForTypes(ctx, []string{input.Types})
	if err != nil {
		return nil, err
	}
	return &EffectivenessOutput{Body: view}, nil
}

func (s *Server) handleListGenerations(_ context.Context, _ *struct{}) (*GenerationsOutput, error) {
	out := &GenerationsOutput{}
	out.Body.Generations = slices.Clone(dex.Generations)
	return out, nil
}
