package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Giancarlo174/cenit/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Perfil
// ============================================================

func getProfileHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/profile")
		defer span.End()

		ws := WorkspaceFromContext(ctx)
		ws.Profile.EnsureLoaded(ctx)

		p := ws.Profile.Current()
		if p == nil {
			msg := ws.Profile.Error()
			if msg == "" {
				msg = "perfil no encontrado"
			}
			writeError(w, http.StatusNotFound, msg)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func updateProfileHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/profile")
		defer span.End()

		ws := WorkspaceFromContext(ctx)

		var in domain.ProfileInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		p, err := ws.Profile.Update(ctx, in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if p == nil {
			writeError(w, http.StatusUnauthorized, "Usuario no autenticado")
			return
		}

		writeJSON(w, http.StatusOK, p)
	}
}
