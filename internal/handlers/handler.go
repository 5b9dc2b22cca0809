// Package handlers mounts the HTTP surface: liveness, the arena status
// snapshot, and the WebSocket gateway into the lobby.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/tmaziere/ouroboros/pkg/logx"
)

func encode(body any, w http.ResponseWriter) {
	response, err := json.Marshal(body)
	if err != nil {
		logx.Logger.Errorw("could not marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if _, err = w.Write(response); err != nil {
		logx.Logger.Errorw("could not write response", "error", err)
	}
}
