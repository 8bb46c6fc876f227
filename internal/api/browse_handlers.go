package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jeduden/bmad-pokedex/internal/browse"
	"github.com/jeduden/bmad-pokedex/internal/service"
)

func (s *Server) registerBrowseRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "browsePage",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/browse",
		Summary:     "Browse page",
		Description: "Returns one page of entities matching the type and generation filter",
		Tags:        []string{"Browse"},
	}, s.handleBrowsePage)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBrowseSession",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/browse/sessions",
		Summary:       "Create browse session",
		Description:   "Opens a server-held browse session and loads its first page",
		Tags:          []string{"Browse"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateBrowseSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBrowseSession",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/browse/sessions/{id}",
		Summary:     "Get browse session",
		Description: "Returns every page loaded so far",
		Tags:        []string{"Browse"},
	}, s.handleGetBrowseSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "nextBrowsePage",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/browse/sessions/{id}/next",
		Summary:     "Load next page",
		Description: "Appends the next page; concurrent calls share one load",
		Tags:        []string{"Browse"},
	}, s.handleNextBrowsePage)

	huma.Register(s.api, huma.Operation{
		OperationID: "setBrowseFilter",
		Method:      http.MethodPut,
		Path:        apiPrefix + "/browse/sessions/{id}/filter",
		Summary:     "Replace browse filter",
		Description: "Replaces the filter, discards loaded pages and reloads the first page",
		Tags:        []string{"Browse"},
	}, s.handleSetBrowseFilter)

	huma.Register(s.api, huma.Operation{
		OperationID: "patchBrowseFilter",
		Method:      http.MethodPatch,
		Path:        apiPrefix + "/browse/sessions/{id}/filter",
		Summary:     "Update browse filter",
		Description: "Replaces only the fields present in the body and reloads the first page",
		Tags:        []string{"Browse"},
	}, s.handlePatchBrowseFilter)

	huma.Register(s.api, huma.Operation{
		OperationID: "clearBrowseFilter",
		Method:      http.MethodDelete,
		Path:        apiPrefix + "/browse/sessions/{id}/filter",
		Summary:     "Clear browse filter",
		Description: "Drops every type and generation constraint and reloads the first page",
		Tags:        []string{"Browse"},
	}, s.handleClearBrowseFilter)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteBrowseSession",
		Method:        http.MethodDelete,
		Path:          apiPrefix + "/browse/sessions/{id}",
		Summary:       "Delete browse session",
		Tags:          []string{"Browse"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteBrowseSession)
}

// BrowsePageInput selects a filter and a zero-based page.
type BrowsePageInput struct {
	Type string `query:"type" doc:"Comma-separated types, matched with OR; unknown names are ignored"`
	Gen  string `query:"gen" doc:"Generation number 1-9; other values mean any"`
	Page int    `query:"page" minimum:"0" maximum:"10000" default:"0" doc:"Zero-based page index"`
}

// BrowsePageOutput contains one browse page.
type BrowsePageOutput struct {
	Link string `header:"Link" doc:"Next page link when more results exist"`
	Body *browse.PageResult
}

// FilterBody is a browse filter in a request body.
type FilterBody struct {
	Types []string `json:"types,omitempty" validate:"max=18,dive,min=1,max=16,alpha" doc:"Types matched with OR; unknown names are ignored"`
	Gen   int      `json:"gen,omitempty" validate:"gte=0,lte=9" doc:"Generation number 1-9; 0 means any"`
}

func (b FilterBody) filter() browse.Filter {
	return browse.NewFilter(b.Types, b.Gen)
}

// CreateBrowseSessionInput opens a session.
type CreateBrowseSessionInput struct {
	Body FilterBody
}

// BrowseSessionInput identifies a session.
type BrowseSessionInput struct {
	ID string `path:"id" doc:"Browse session id"`
}

// SetBrowseFilterInput replaces a session's filter.
type SetBrowseFilterInput struct {
	ID   string `path:"id" doc:"Browse session id"`
	Body FilterBody
}

// FilterPatchBody changes part of a browse filter. Absent fields keep their
// current value; an empty types list or gen 0 clears that constraint.
type FilterPatchBody struct {
	Types *[]string `json:"types,omitempty" validate:"omitempty,max=18,dive,min=1,max=16,alpha" doc:"Types matched with OR; unknown names are ignored"`
	Gen   *int      `json:"gen,omitempty" validate:"omitempty,gte=0,lte=9" doc:"Generation number 1-9; 0 means any"`
}

func (b FilterPatchBody) apply(f browse.Filter) browse.Filter {
	if b.Types != nil {
		f = f.WithTypes(*b.Types...)
	}
	if b.Gen != nil {
		f = f.WithGeneration(*b.Gen)
	}
	return f
}

// PatchBrowseFilterInput changes part of a session's filter.
type PatchBrowseFilterInput struct {
	ID   string `path:"id" doc:"Browse session id"`
	Body FilterPatchBody
}

// BrowseSessionOutput contains a session view.
type BrowseSessionOutput struct {
	Body *service.SessionView
}

func (s *Server) handleBrowsePage(ctx context.Context, input *BrowsePageInput) (*BrowsePageOutput, error) {
	values := url.Values{}
	if input.Type != "" {
		values.Set(browse.ParamType, input.Type)
	}
	if input.Gen != "" {
		values.Set(browse.ParamGeneration, input.Gen)
	}

	filter := browse.ParseFilter(values)
	res, err := s.services.Browse.Page(ctx, filter, input.Page)
	if err != nil {
		return nil, err
	}

	out := &BrowsePageOutput{Body: res}
	if res.HasMore {
		out.Link = "<" + apiPrefix + "/browse?" + pageQuery(filter, input.Page+1) + `>; rel="next"`
	}
	return out, nil
}

func (s *Server) handleCreateBrowseSession(ctx context.Context, input *CreateBrowseSessionInput) (*BrowseSessionOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	view, err := s.services.Browse.CreateSession(ctx, input.Body.filter())
	if err != nil {
		return nil, err
	}
	s.logger.Debug("browse session opened", "session_id", view.ID, "total", view.Total, "location", view.Location)
	return &BrowseSessionOutput{Body: view}, nil
}

func (s *Server) handleGetBrowseSession(_ context.Context, input *BrowseSessionInput) (*BrowseSessionOutput, error) {
	view, err := s.services.Browse.Session(input.ID)
	if err != nil {
		return nil, err
	}
	return &BrowseSessionOutput{Body: view}, nil
}

func (s *Server) handleNextBrowsePage(ctx context.Context, input *BrowseSessionInput) (*BrowseSessionOutput, error) {
	view, err := s.services.Browse.Next(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &BrowseSessionOutput{Body: view}, nil
}

func (s *Server) handleSetBrowseFilter(ctx context.Context, input *SetBrowseFilterInput) (*BrowseSessionOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	view, err := s.services.Browse.SetFilter(ctx, input.ID, input.Body.filter())
	if err != nil {
		return nil, err
	}
	return &BrowseSessionOutput{Body: view}, nil
}

func (s *Server) handlePatchBrowseFilter(ctx context.Context, input *PatchBrowseFilterInput) (*BrowseSessionOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	view, err := s.services.Browse.AmendFilter(ctx, input.ID, input.Body.apply)
	if err != nil {
		return nil, err
	}
	return &BrowseSessionOutput{Body: view}, nil
}

func (s *Server) handleClearBrowseFilter(ctx context.Context, input *BrowseSessionInput) (*BrowseSessionOutput, error) {
	view, err := s.services.Browse.ClearFilter(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &BrowseSessionOutput{Body: view}, nil
}

func (s *Server) handleDeleteBrowseSession(_ context.Context, input *BrowseSessionInput) (*struct{}, error) {
	if err := s.services.Browse.DeleteSession(input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

// pageQuery formats a page index for links.
func pageQuery(f browse.Filter, page int) string {
	v := f.Values()
	v.Set("page", strconv.Itoa(page))
	return v.Encode()
}
