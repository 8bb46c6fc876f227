// Package pokeapitest provides an in-process fake of the PokeAPI for tests.
package pokeapitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// Server serves canned upstream responses and counts requests per path.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	bodies   map[string][]byte
	statuses map[string]int
	calls    map[string]int
	total    int
	hook     func(path string)
}

// NewServer starts a fake upstream that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		bodies:   make(map[string][]byte),
		statuses: make(map[string]int),
		calls:    make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the value to configure as the client's base URL.
func (s *Server) BaseURL() string {
	return s.URL + "/api/v2"
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v2")
	path = strings.TrimSuffix(path, "/")
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}

	s.mu.Lock()
	s.calls[path]++
	s.total++
	status, hasStatus := s.statuses[path]
	body, hasBody := s.bodies[path]
	hook := s.hook
	s.mu.Unlock()

	if hook != nil {
		hook(path)
	}

	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch {
	case hasStatus:
		w.WriteHeader(status)
	case hasBody:
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	default:
		http.NotFound(w, r)
	}
}

// SetRaw registers a literal body for path (e.g. "/pokemon/25").
func (s *Server) SetRaw(path string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies[path] = body
}

// SetStatus makes path answer with status and no body.
func (s *Server) SetStatus(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[path] = status
}

// OnRequest installs a hook that runs for every request before it is answered.
func (s *Server) OnRequest(hook func(path string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = hook
}

// Calls returns how many requests path received.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// TotalCalls returns the number of requests received.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *Server) setJSON(path string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("pokeapitest: marshal %s: %v", path, err))
	}
	s.SetRaw(path, body)
}

func (s *Server) ref(kind string, id int, name string) map[string]any {
	return map[string]any{"name": name, "url": fmt.Sprintf("%s/%s/%d/", s.BaseURL(), kind, id)}
}

// AddPokemon registers an entity under both its id and name. Stats default
// to 50 each when none are given.
func (s *Server) AddPokemon(id int, name string, types ...string) {
	typeSlots := make([]map[string]any, len(types))
	for i, t := range types {
		typeSlots[i] = map[string]any{"slot": i + 1, "type": map[string]any{"name": t, "url": ""}}
	}

	stats := []map[string]any{}
	for _, st := range []string{"hp", "attack", "defense", "special-attack", "special-defense", "speed"} {
		stats = append(stats, map[string]any{"base_stat": 50, "effort": 0, "stat": map[string]any{"name": st, "url": ""}})
	}

	artwork := fmt.Sprintf("https://img.example/%d.png", id)
	body := map[string]any{
		"id":     id,
		"name":   name,
		"height": 7,
		"weight": 69,
		"types":  typeSlots,
		"stats":  stats,
		"sprites": map[string]any{
			"front_default": fmt.Sprintf("https://img.example/front/%d.png", id),
			"front_shiny":   nil,
			"back_default":  nil,
			"back_shiny":    nil,
			"other": map[string]any{
				"official-artwork": map[string]any{"front_default": artwork, "front_shiny": nil},
			},
		},
	}
	s.setJSON("/pokemon/"+strconv.Itoa(id), body)
	s.setJSON("/pokemon/"+name, body)
}

// Relations describes a type's incoming damage relations by type name.
type Relations struct {
	DoubleFrom []string
	HalfFrom   []string
	NoFrom     []string
}

// AddType registers /type/{name} with the given relations and member ids.
// Members are named "mon-<id>".
func (s *Server) AddType(name string, rel Relations, memberIDs ...int) {
	refs := func(names []string) []map[string]any {
		out := make([]map[string]any, len(names))
		for i, n := range names {
			out[i] = map[string]any{"name": n, "url": ""}
		}
		return out
	}

	members := make([]map[string]any, len(memberIDs))
	for i, id := range memberIDs {
		members[i] = map[string]any{"slot": 1, "pokemon": s.ref("pokemon", id, "mon-"+strconv.Itoa(id))}
	}

	s.setJSON("/type/"+name, map[string]any{
		"id":   len(name),
		"name": name,
		"damage_relations": map[string]any{
			"double_damage_from": refs(rel.DoubleFrom),
			"double_damage_to":   refs(nil),
			"half_damage_from":   refs(rel.HalfFrom),
			"half_damage_to":     refs(nil),
			"no_damage_from":     refs(rel.NoFrom),
			"no_damage_to":       refs(nil),
		},
		"pokemon": members,
	})
}

// AddSpecies registers /pokemon-species/{id}. A chainID of 0 writes a null chain.
func (s *Server) AddSpecies(id int, name string, chainID int) {
	var chain any
	if chainID > 0 {
		chain = map[string]any{"url": fmt.Sprintf("%s/evolution-chain/%d/", s.BaseURL(), chainID)}
	}
	s.setJSON("/pokemon-species/"+strconv.Itoa(id), map[string]any{
		"id":              id,
		"name":            name,
		"evolution_chain": chain,
	})
}

// Link is a node of a fake evolution chain.
type Link struct {
	ID        int
	Name      string
	EvolvesTo []Link
}

// AddChain registers /evolution-chain/{id} rooted at root.
func (s *Server) AddChain(id int, root Link) {
	var build func(l Link) map[string]any
	build = func(l Link) map[string]any {
		children := make([]map[string]any, len(l.EvolvesTo))
		for i, c := range l.EvolvesTo {
			children[i] = build(c)
		}
		return map[string]any{
			"species":    s.ref("pokemon-species", l.ID, l.Name),
			"evolves_to": children,
		}
	}
	s.setJSON("/evolution-chain/"+strconv.Itoa(id), map[string]any{"id": id, "chain": build(root)})
}

// AddList registers /pokemon?limit=&offset= with entries for ids start..start+limit-1,
// capped at count.
func (s *Server) AddList(limit, offset, count int) {
	results := []map[string]any{}
	for id := offset + 1; id <= offset+limit && id <= count; id++ {
		results = append(results, s.ref("pokemon", id, "mon-"+strconv.Itoa(id)))
	}

	var next, prev any
	if offset+limit < count {
		next = fmt.Sprintf("%s/pokemon?offset=%d&limit=%d", s.BaseURL(), offset+limit, limit)
	}
	if offset > 0 {
		prev = fmt.Sprintf("%s/pokemon?offset=%d&limit=%d", s.BaseURL(), max(offset-limit, 0), limit)
	}

	s.setJSON(fmt.Sprintf("/pokemon?limit=%d&offset=%d", limit, offset), map[string]any{
		"count":    count,
		"next":     next,
		"previous": prev,
		"results":  results,
	})
}

// AddNamedList registers /pokemon?limit=&offset=0 listing names as ids 1..len(names).
func (s *Server) AddNamedList(limit int, names ...string) {
	results := make([]map[string]any, len(names))
	for i, name := range names {
		results[i] = s.ref("pokemon", i+1, name)
	}
	s.setJSON(fmt.Sprintf("/pokemon?limit=%d&offset=0", limit), map[string]any{
		"count":    len(names),
		"next":     nil,
		"previous": nil,
		"results":  results,
	})
}
