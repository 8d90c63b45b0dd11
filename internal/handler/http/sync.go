package http

import (
	"encoding/json"
	"net/http"

	"github.com/MKhiriev/go-ledger-sync/internal/app"
	"github.com/MKhiriev/go-ledger-sync/internal/logger"
	"github.com/MKhiriev/go-ledger-sync/internal/utils"
	"github.com/MKhiriev/go-ledger-sync/models"
)

func (h *Handler) push(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.push").Msg("no user ID was given")
		writeError(w, app.MsgNoUserIDProvided, http.StatusBadRequest)
		return
	}

	var req models.PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.push").Msg("invalid JSON was passed")
		writeError(w, app.MsgInvalidJSON, http.StatusBadRequest)
		return
	}
	if err := validatePush(req); err != nil {
		log.Err(err).Str("func", "*Handler.push").Msg("invalid push request")
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	resp, err := h.services.SyncService.Push(ctx, userID, req)
	if err != nil {
		log.Err(err).Str("func", "*Handler.push").Msg("error applying pushed mutations")
		writeError(w, app.MsgPushFailed, http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, resp, http.StatusOK)
}

func (h *Handler) pull(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.pull").Msg("no user ID was given")
		writeError(w, app.MsgNoUserIDProvided, http.StatusBadRequest)
		return
	}

	var req models.PullRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.pull").Msg("invalid JSON was passed")
		writeError(w, app.MsgInvalidJSON, http.StatusBadRequest)
		return
	}

	resp, err := h.services.SyncService.Pull(ctx, userID, req)
	if err != nil {
		log.Err(err).Str("func", "*Handler.pull").Msg("error listing changes")
		writeError(w, app.MsgPullFailed, http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, resp, http.StatusOK)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.status").Msg("no user ID was given")
		writeError(w, app.MsgNoUserIDProvided, http.StatusBadRequest)
		return
	}

	resp, err := h.services.SyncService.Status(ctx, userID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.status").Msg("error building status")
		writeError(w, app.MsgStatusFailed, http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, resp, http.StatusOK)
}
