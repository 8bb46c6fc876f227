package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	domainerrors "github.com/jeduden/bmad-pokedex/internal/errors"
	"github.com/jeduden/bmad-pokedex/internal/search"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/search",
		Summary:     "Search by name or id",
		Description: "Returns entities whose name contains the term or whose id equals it, in id order",
		Tags:        []string{"Search"},
	}, s.handleSearch)

	// Websockets are outside huma's request/response model.
	s.router.Get(apiPrefix+"/search/live", s.handleLiveSearch)
}

// SearchInput is a one-shot search.
type SearchInput struct {
	Query string `query:"q" maxLength:"64" doc:"Search term; blank returns no results"`
	Limit int    `query:"limit" minimum:"0" maximum:"50" default:"0" doc:"Maximum results; 0 uses the server default"`
}

// SearchOutput contains search hits.
type SearchOutput struct {
	Body struct {
		Query string       `json:"query"`
		Hits  []search.Hit `json:"hits"`
	}
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	hits, err := s.services.Search.Search(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, err
	}

	out := &SearchOutput{}
	out.Body.Query = search.NormalizeTerm(input.Query)
	out.Body.Hits = hits
	return out, nil
}

// liveRequest is a message from a live search client.
type liveRequest struct {
	Term string `json:"term"`
}

// liveResponse is a message to a live search client.
type liveResponse struct {
	Seq   uint64              `json:"seq"`
	Term  string              `json:"term"`
	Hits  []search.Hit        `json:"hits"`
	Error *domainerrors.Error `json:"error,omitempty"`
}

// handleLiveSearch upgrades to a websocket. Each {"term": ...} message
// restarts the debounce; results are pushed for the latest term only.
func (s *Server) handleLiveSearch(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	connID := uuid.New()
	log := s.logger.With("conn_id", connID.String())
	log.Debug("live search connected")

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	send := make(chan liveResponse, 8)

	live := s.services.Search.Live(ctx, func(res search.Result) {
		msg := liveResponse{Seq: res.Seq, Term: res.Term, Hits: res.Hits}
		if res.Err != nil {
			msg.Hits = []search.Hit{}
			msg.Error = asDomainError(res.Err)
		}
		select {
		case send <- msg:
		case <-ctx.Done():
		}
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		writePump(conn, send)
	}()

	readPump(conn, live, log)

	// Cancel first so a delivery blocked on send gives up, then close.
	cancel()
	live.Close()
	close(send)
	<-done
	_ = conn.Close()
	log.Debug("live search disconnected")
}

func readPump(conn *websocket.Conn, live *search.Live, log *slog.Logger) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var req liveRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("live search read error", "error", err)
			}
			return
		}
		live.Input(req.Term)
	}
}

func writePump(conn *websocket.Conn, send <-chan liveResponse) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func asDomainError(err error) *domainerrors.Error {
	var domainErr *domainerrors.Error
	if domainerrors.As(err, &domainErr) {
		return domainErr
	}
	return domainerrors.Internal(err.Error())
}
