package handlers

import (
	"net/http"

	"go.uber.org/zap"
)

func (a *API) Board(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeboxed(r, a.cfg.RequestTimeout)
	defer cancel()

	board, src := a.svc.Board.Snapshot(ctx)
	a.log.Debug("board served", zap.String("cache", string(src)), zap.Bool("ok", board.Meta.Ok))
	writeSnapshot(w, board, src)
}

func (a *API) Calendar(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeboxed(r, a.cfg.RequestTimeout)
	defer cancel()

	cal, src := a.svc.Calendar.Snapshot(ctx)
	writeSnapshot(w, cal, src)
}

func (a *API) Digest(w http.ResponseWriter, r *http.Request) {
	// feed read plus one summarizer call
	ctx, cancel := timeboxed(r, 2*a.cfg.RequestTimeout)
	defer cancel()

	digest, src := a.svc.Digest.Snapshot(ctx)
	writeSnapshot(w, digest, src)
}
