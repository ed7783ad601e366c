package skills

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hiveflow/hiveflow/internal/domain"
	"github.com/hiveflow/hiveflow/internal/engine"
)

// SkillRepo defines the skill persistence the resolver needs, matching
// repository.SkillRepository.
type SkillRepo interface {
	FindByName(name string, ownerID string) (*domain.Skill, error)
}

// Frontmatter is the optional YAML block at the top of skill content.
type Frontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Model       string `yaml:"model"`
}

type cacheKey struct {
	ownerID string
	name    string
}

// Resolver maps skill names to AI-usable content, caching per (owner, name)
// until invalidated by a mutation.
type Resolver struct {
	skills SkillRepo

	mu    sync.RWMutex
	cache map[cacheKey]string
}

func NewResolver(skills SkillRepo) *Resolver {
	return &Resolver{
		skills: skills,
		cache:  make(map[cacheKey]string),
	}
}

// Resolve implements engine.SkillResolver. The returned content is the
// skill body with its frontmatter block validated and stripped.
func (r *Resolver) Resolve(ctx context.Context, name string, ownerID string) (string, error) {
	key := cacheKey{ownerID: ownerID, name: name}

	r.mu.RLock()
	content, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return content, nil
	}

	skill, err := r.skills.FindByName(name, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("skill not found: %s", name)
		}
		return "", fmt.Errorf("load skill %s: %w", name, err)
	}

	_, body, err := ParseContent(skill.Content)
	if err != nil {
		return "", fmt.Errorf("skill %s: %w", name, err)
	}

	r.mu.Lock()
	r.cache[key] = body
	r.mu.Unlock()
	return body, nil
}

// InvalidateUser drops every cached skill of one owner, called after any
// skill mutation for that owner.
func (r *Resolver) InvalidateUser(ownerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.cache {
		if key.ownerID == ownerID {
			delete(r.cache, key)
		}
	}
}

// InvalidateAll empties the cache.
func (r *Resolver) InvalidateAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[cacheKey]string)
}

// ParseContent splits skill markdown into its YAML frontmatter and body.
// Content without a frontmatter block is returned whole.
func ParseContent(content string) (Frontmatter, string, error) {
	var fm Frontmatter
	if !strings.HasPrefix(content, "---\n") {
		return fm, content, nil
	}
	rest := content[len("---\n"):]
	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return fm, "", fmt.Errorf("unterminated frontmatter block")
	}
	if err := yaml.Unmarshal([]byte(rest[:idx]), &fm); err != nil {
		return fm, "", fmt.Errorf("invalid frontmatter: %w", err)
	}
	body := rest[idx+len("\n---"):]
	body = strings.TrimPrefix(body, "\n")
	return fm, body, nil
}

var _ engine.SkillResolver = (*Resolver)(nil)
