package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/artazzen/gallerybackend/config"
)

// SettingsHandler exposes the persisted AI and advanced configuration
// documents over JSON. Updates are sanitized and clamped before persisting;
// the response always reflects what was actually stored.
type SettingsHandler struct {
	Settings *config.Settings
}

func (h *SettingsHandler) GetAI(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Settings.AI())
}

func (h *SettingsHandler) UpdateAI(w http.ResponseWriter, r *http.Request) {
	next := h.Settings.AI()
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_settings", "request body is not a valid AI settings document")
		return
	}
	stored, err := h.Settings.UpdateAI(next)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "settings_persist_failed", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, stored)
}

func (h *SettingsHandler) GetAdvanced(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Settings.Advanced())
}

func (h *SettingsHandler) UpdateAdvanced(w http.ResponseWriter, r *http.Request) {
	next := h.Settings.Advanced()
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_settings", "request body is not a valid advanced settings document")
		return
	}
	stored, err := h.Settings.UpdateAdvanced(next)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "settings_persist_failed", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, stored)
}
