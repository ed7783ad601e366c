package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hiveflow/hiveflow/internal/core"
	"github.com/hiveflow/hiveflow/internal/domain"
	"github.com/hiveflow/hiveflow/internal/models"
	"github.com/hiveflow/hiveflow/internal/skills"
)

// SkillsController manages skill content. Every mutation drops the owner's
// entries from the skill resolver cache so running workflows pick up fresh
// content.
type SkillsController struct {
	AuthController
	SkillRepo SkillStore
	Resolver  *skills.Resolver
	Clock     core.Clock
}

func NewSkillsController(skillRepo SkillStore, resolver *skills.Resolver, clock core.Clock, userRepo UserRepo) *SkillsController {
	return &SkillsController{
		SkillRepo: skillRepo,
		Resolver:  resolver,
		Clock:     clock,
		AuthController: AuthController{
			UserRepo: userRepo,
		},
	}
}

func (c *SkillsController) handleListSkills(w http.ResponseWriter, r *http.Request) {
	skillRows, err := c.SkillRepo.FindByOwner(ownerFromContext(r))
	if err != nil {
		slog.Error("Failed to list skills", "error", err)
		http.Error(w, "failed to list skills", http.StatusInternalServerError)
		return
	}
	apiResults := make([]models.SkillApiResponse, 0, len(*skillRows))
	for i := range *skillRows {
		apiResults = append(apiResults, mapSkillToApiSkill(&(*skillRows)[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(apiResults)
}

func (c *SkillsController) handleGetSkillByName(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	skill, err := c.SkillRepo.FindByName(name, ownerFromContext(r))
	if err != nil || skill == nil {
		http.Error(w, "skill not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(mapSkillToApiSkill(skill))
}

func (c *SkillsController) handleCreateSkill(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSkillRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Content) == "" {
		http.Error(w, "name and content are required", http.StatusBadRequest)
		return
	}
	if _, _, err := skills.ParseContent(req.Content); err != nil {
		http.Error(w, "invalid frontmatter: "+err.Error(), http.StatusBadRequest)
		return
	}

	ownerID := ownerFromContext(r)
	now := c.Clock.Now().UTC()
	skill := &domain.Skill{
		ID:       uuid.NewString(),
		OwnerID:  ownerID,
		Name:     req.Name,
		Content:  req.Content,
		Created:  now,
		Modified: now,
	}
	if err := c.SkillRepo.Save(skill); err != nil {
		slog.Error("Failed to save skill", "error", err)
		http.Error(w, "failed to create skill", http.StatusInternalServerError)
		return
	}
	c.Resolver.InvalidateUser(ownerID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(mapSkillToApiSkill(skill))
}

func (c *SkillsController) handleUpdateSkill(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	ownerID := ownerFromContext(r)
	skill, err := c.SkillRepo.FindByName(name, ownerID)
	if err != nil || skill == nil {
		http.Error(w, "skill not found", http.StatusNotFound)
		return
	}

	var req models.CreateSkillRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		http.Error(w, "content is required", http.StatusBadRequest)
		return
	}
	if _, _, err := skills.ParseContent(req.Content); err != nil {
		http.Error(w, "invalid frontmatter: "+err.Error(), http.StatusBadRequest)
		return
	}
	skill.Content = req.Content
	skill.Modified = c.Clock.Now().UTC()

	if err := c.SkillRepo.Update(skill); err != nil {
		slog.Error("Failed to update skill", "skill", name, "error", err)
		http.Error(w, "failed to update skill", http.StatusInternalServerError)
		return
	}
	c.Resolver.InvalidateUser(ownerID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(mapSkillToApiSkill(skill))
}

func (c *SkillsController) handleDeleteSkill(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	ownerID := ownerFromContext(r)
	if err := c.SkillRepo.Delete(name, ownerID); err != nil {
		slog.Error("Failed to delete skill", "skill", name, "error", err)
		http.Error(w, "failed to delete skill", http.StatusInternalServerError)
		return
	}
	c.Resolver.InvalidateUser(ownerID)
	w.WriteHeader(http.StatusNoContent)
}

func mapSkillToApiSkill(skill *domain.Skill) models.SkillApiResponse {
	return models.SkillApiResponse{
		ID:       skill.ID,
		Name:     skill.Name,
		Content:  skill.Content,
		Created:  skill.Created,
		Modified: skill.Modified,
	}
}
