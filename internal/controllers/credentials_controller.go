package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hiveflow/hiveflow/internal/models"
)

// CredentialsController stores and lists sealed secrets. The API never
// returns a credential value or its ciphertext; listing yields names only.
type CredentialsController struct {
	AuthController
	CredentialRepo CredentialStore
	Vault          CredentialVault
}

func NewCredentialsController(credentialRepo CredentialStore, v CredentialVault, userRepo UserRepo) *CredentialsController {
	return &CredentialsController{
		CredentialRepo: credentialRepo,
		Vault:          v,
		AuthController: AuthController{
			UserRepo: userRepo,
		},
	}
}

func (c *CredentialsController) handleListCredentials(w http.ResponseWriter, r *http.Request) {
	names, err := c.CredentialRepo.ListNames(ownerFromContext(r))
	if err != nil {
		slog.Error("Failed to list credentials", "error", err)
		http.Error(w, "failed to list credentials", http.StatusInternalServerError)
		return
	}
	if names == nil {
		names = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(names)
}

func (c *CredentialsController) handleCreateCredential(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCredentialRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.Value == "" {
		http.Error(w, "name and value are required", http.StatusBadRequest)
		return
	}

	if err := c.Vault.Store(r.Context(), ownerFromContext(r), req.Name, req.Value); err != nil {
		slog.Error("Failed to store credential", "name", req.Name, "error", err)
		http.Error(w, "failed to store credential", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"name": req.Name})
}

func (c *CredentialsController) handleDeleteCredential(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if err := c.Vault.Delete(r.Context(), ownerFromContext(r), name); err != nil {
		slog.Error("Failed to delete credential", "name", name, "error", err)
		http.Error(w, "failed to delete credential", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
