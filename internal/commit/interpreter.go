// Package commit turns push events into change actions.
package commit

import (
	"iter"
	"strings"

	"github.com/nahidhasan98/ghe-as3-relay/internal/config"
	"github.com/nahidhasan98/ghe-as3-relay/internal/models"
)

// Interpreter derives change actions from push events. It holds no state
// besides its policy, so one instance can serve any number of pushes.
type Interpreter struct {
	policy string
}

// New creates an interpreter. policy is config.PathPolicyPrefix or
// config.PathPolicyAll; anything else is treated as prefix.
func New(policy string) *Interpreter {
	if policy != config.PathPolicyAll {
		policy = config.PathPolicyPrefix
	}
	return &Interpreter{policy: policy}
}

// Policy returns the path policy in effect
func (i *Interpreter) Policy() string {
	return i.policy
}

// Actions returns the change actions for ev in commit order: added, then
// modified, then removed paths of each commit. Paths repeated across commits
// produce one action per occurrence. The sequence can be ranged over any
// number of times.
func (i *Interpreter) Actions(ev *models.PushEvent) iter.Seq[models.ChangeAction] {
	return func(yield func(models.ChangeAction) bool) {
		if ev == nil || ev.Repository == nil {
			return
		}
		repo := ev.Repository.FullName

		for _, c := range ev.Commits {
			groups := []struct {
				kind  models.ActionKind
				paths []string
			}{
				{models.ActionDeploy, c.Added},
				{models.ActionModify, c.Modified},
				{models.ActionDelete, c.Removed},
			}

			for _, g := range groups {
				for _, p := range g.paths {
					category, ok := i.classify(p)
					if !ok {
						continue
					}

					action := models.ChangeAction{
						Kind:               g.kind,
						FilePath:           p,
						RepositoryFullName: repo,
						Category:           category,
					}
					if g.kind == models.ActionDelete {
						action.ReferenceCommitID = ev.Before
					}

					if !yield(action) {
						return
					}
				}
			}
		}
	}
}

// Collect drains Actions into a slice
func (i *Interpreter) Collect(ev *models.PushEvent) []models.ChangeAction {
	var out []models.ChangeAction
	for a := range i.Actions(ev) {
		out = append(out, a)
	}
	return out
}

func (i *Interpreter) classify(p string) (models.Category, bool) {
	if i.policy == config.PathPolicyAll {
		return models.CategoryAny, true
	}
	return Categorize(p)
}

// Categorize classifies a repository-relative path by its prefix, so
// SERVICES/app.json is a service and apps/SERVICE_web.json is nothing.
// Paths that are neither SERVICE nor DEVICE definitions are not recognised.
func Categorize(p string) (models.Category, bool) {
	switch {
	case strings.HasPrefix(p, string(models.CategoryService)):
		return models.CategoryService, true
	case strings.HasPrefix(p, string(models.CategoryDevice)):
		return models.CategoryDevice, true
	default:
		return "", false
	}
}
