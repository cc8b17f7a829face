package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/plateau/internal/plateau"
)

// The interactive dashboard keeps one socket open and drives every control
// change (strategy pick, fixed-parameter toggle, metric button) through it,
// mirroring the REST payloads frame by frame.

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1")
	},
}

// wsRequest is one inbound frame. Op selects the operation; the remaining
// fields mirror the REST request bodies.
type wsRequest struct {
	Op       string                `json:"op"` // "strategies" | "variables" | "matrix"
	Seq      int                   `json:"seq,omitempty"`
	Strategy string                `json:"strategy,omitempty"`
	Fixed    map[string]string     `json:"fixed,omitempty"`
	Matrix   plateau.MatrixRequest `json:"matrix,omitempty"`
}

// wsResponse is one outbound frame; exactly one payload field is set.
type wsResponse struct {
	Op    string `json:"op"`
	Seq   int    `json:"seq,omitempty"`
	Error string `json:"error,omitempty"`

	Strategies *StrategiesResponse  `json:"strategies,omitempty"`
	Variables  *plateau.VariableSet `json:"variables,omitempty"`
	Matrix     *MatrixResponse      `json:"matrix,omitempty"`
}

// Interactive handles GET /ws.
func (h *Handlers) Interactive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	h.metrics.WSConnections.Inc()
	defer h.metrics.WSConnections.Dec()

	remote := conn.RemoteAddr().String()
	log.Debug().Str("remote", remote).Msg("interactive session opened")

	for {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("remote", remote).Msg("interactive session aborted")
			}
			return
		}

		resp := h.dispatch(req)
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(resp); err != nil {
			log.Warn().Err(err).Str("remote", remote).Msg("interactive write failed")
			return
		}
	}
}

func (h *Handlers) dispatch(req wsRequest) wsResponse {
	start := time.Now()
	resp := wsResponse{Op: req.Op, Seq: req.Seq}

	sess := h.holder.Current()
	if sess == nil {
		resp.Error = "no sweep dataset is loaded"
		h.observe("ws_"+req.Op, "no_dataset", start)
		return resp
	}

	switch req.Op {
	case "strategies":
		list := &StrategiesResponse{Dataset: sess.DatasetID, Skipped: sess.Class.Skipped}
		for _, key := range sess.Class.Keys {
			strat := sess.Class.Strategies[key]
			list.Strategies = append(list.Strategies, StrategySummary{
				Key:        strat.Key,
				Label:      strat.Label,
				EntryNames: strat.EntryNames,
				ExitNames:  strat.ExitNames,
				Members:    len(strat.Members),
			})
		}
		resp.Strategies = list
		h.observe("ws_strategies", "ok", start)

	case "variables":
		vs := sess.Index.VariableParams(req.Strategy, req.Fixed)
		resp.Variables = &vs
		result := "ok"
		if vs.InsufficientAxes {
			result = "insufficient_axes"
		}
		h.observe("ws_variables", result, start)

	case "matrix":
		matrix := sess.Index.BuildMatrix(req.Matrix)
		resp.Matrix = &MatrixResponse{
			Matrix: matrix,
			Scale:  plateau.ScaleFor(req.Matrix.Metric, matrix),
		}
		result := "ok"
		if matrix.ValidCells == 0 {
			result = "empty"
		}
		h.observe("ws_matrix", result, start)

	default:
		resp.Error = "unknown op: " + req.Op
		h.observe("ws_unknown", "bad_request", start)
	}

	return resp
}
