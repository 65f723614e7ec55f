package relay

import (
	"context"
	"fmt"

	"github.com/nahidhasan98/ghe-as3-relay/internal/declaration"
	"github.com/nahidhasan98/ghe-as3-relay/internal/errors"
	"github.com/nahidhasan98/ghe-as3-relay/internal/ghe"
	"github.com/nahidhasan98/ghe-as3-relay/internal/models"
)

// Outcome is the terminal state of one change action
type Outcome struct {
	Action      models.ChangeAction
	Result      models.DeploymentResult
	State       models.ActionState
	Err         error
	IssueNumber int
}

// Process runs every action of ev in commit order. A failing action does not
// stop the ones after it.
func (r *Relay) Process(ctx context.Context, settings models.Settings, ev *models.PushEvent) []Outcome {
	log := r.log.With("repository", ev.GetRepositoryName())
	log.Infof("Processing push to %s (%s)", ev.GetRepositoryName(), ev.GetHeadCommitID())

	client, clientErr := r.newGHE(settings)
	if clientErr != nil {
		log.Error("Failed to create GHE client", clientErr)
	}

	var outcomes []Outcome
	for action := range r.interpreter.Actions(ev) {
		var out Outcome
		if clientErr != nil && action.Category != models.CategoryDevice {
			out = Outcome{Action: action, State: models.StateFailed, Err: errors.ContentFetchFailed(action.ContentAddress(), clientErr)}
			r.finish(ctx, &out)
		} else {
			out = r.handle(ctx, client, action)
		}
		outcomes = append(outcomes, out)
	}

	log.Infof("Push to %s finished: %d action(s)", ev.GetRepositoryName(), len(outcomes))
	return outcomes
}

// handle takes one action from Pending to a terminal state. client is not
// used for device definitions.
func (r *Relay) handle(ctx context.Context, client GHE, action models.ChangeAction) Outcome {
	out := Outcome{Action: action, State: models.StatePending}
	log := r.log.With("action", string(action.Kind)).With("file", action.FilePath)

	if action.Category == models.CategoryDevice {
		log.Info("Device definitions have no target endpoint, skipping")
		out.State = models.StateSkipped
		r.metrics.Action(string(action.Kind), string(out.State))
		return out
	}

	address := action.ContentAddress()
	log.Debugf("Content address: %s", address)

	decl, err := r.resolve(ctx, client, action)
	switch {
	case err == nil:
		out.State = models.StateDispatched
		out.Result, err = r.dispatcher.Apply(ctx, action.Kind, decl)
		if err != nil {
			out.State = models.StateFailed
			out.Err = err
		}

	case action.Kind == models.ActionDelete:
		tenant, ok, lookupErr := r.store.LookupTenant(ctx, action.RepositoryFullName, action.FilePath)
		if lookupErr != nil {
			log.Error("Tenant index lookup failed", lookupErr)
		}
		if !ok {
			out.State = models.StateFailed
			out.Err = err
			break
		}

		log.Warnf("Declaration unavailable at %s, deleting previously deployed tenant %s", address, tenant)
		out.State = models.StateDispatched
		out.Result = r.dispatcher.Delete(ctx, tenant)

	default:
		out.State = models.StateFailed
		out.Err = err
	}

	if out.State == models.StateDispatched {
		out.State = models.StateSucceeded
		if out.Result.Failed() {
			out.State = models.StateFailed
			log.Error("AS3 rejected change action", errors.New(errors.ErrCodeTargetAPIFailed, out.Result.Message))
		}
		log.Infof("%s %s -> tenant %s: %s", action.Kind, action.FilePath, out.Result.Tenant, out.Result.Message)
		r.updateIndex(ctx, out)
		r.fileIssue(ctx, client, &out)
	} else if out.Err != nil {
		log.Error("Change action failed", out.Err)
	}

	r.finish(ctx, &out)
	return out
}

// resolve fetches and parses the action's declaration
func (r *Relay) resolve(ctx context.Context, client GHE, action models.ChangeAction) (*models.ServiceDeclaration, error) {
	body, err := client.FetchDeclaration(ctx, action)
	if err != nil {
		return nil, errors.ContentFetchFailed(action.ContentAddress(), err)
	}

	decl, err := declaration.Parse(body)
	if err != nil {
		return nil, errors.DeclarationInvalid(err)
	}

	r.log.Debugf("Declaration for %s: %s", action.FilePath, body)
	return decl, nil
}

func (r *Relay) updateIndex(ctx context.Context, out Outcome) {
	if out.State != models.StateSucceeded || out.Result.Tenant == "" {
		return
	}

	var err error
	switch out.Action.Kind {
	case models.ActionDeploy, models.ActionModify:
		err = r.store.SetTenant(ctx, out.Action.RepositoryFullName, out.Action.FilePath, out.Result.Tenant)
	case models.ActionDelete:
		err = r.store.ForgetTenant(ctx, out.Action.RepositoryFullName, out.Action.FilePath)
	}
	if err != nil {
		r.log.Error("Failed to update tenant index", err)
	}
}

// fileIssue reports a dispatched result. Failures are logged only.
func (r *Relay) fileIssue(ctx context.Context, client GHE, out *Outcome) {
	if !r.opts.IssuesEnabled {
		return
	}

	repository := r.opts.IssueRepository
	if repository == "" {
		repository = out.Action.RepositoryFullName
	}

	number, err := client.CreateIssue(ctx, repository, ghe.IssueFromResult(out.Result))
	if err != nil {
		r.metrics.Issue("failed")
		r.log.Warnf("%v", errors.IssueFailed(err))
		return
	}

	r.metrics.Issue("filed")
	out.IssueNumber = number
}

// finish records the outcome in history and metrics
func (r *Relay) finish(ctx context.Context, out *Outcome) {
	r.metrics.Action(string(out.Action.Kind), string(out.State))

	rec := models.DeploymentRecord{
		Repository: out.Action.RepositoryFullName,
		FilePath:   out.Action.FilePath,
		Action:     out.Action.Kind,
		Tenant:     out.Result.Tenant,
		State:      out.State,
		Message:    out.Result.Message,
		Details:    out.Result.Details,
	}
	if out.Err != nil {
		rec.Error = out.Err.Error()
		if rec.Message == "" {
			rec.Message = fmt.Sprintf("Error: %s", errors.CodeOf(out.Err))
		}
	}

	// History is written even when the run's deadline has passed
	if _, err := r.store.RecordDeployment(context.WithoutCancel(ctx), rec); err != nil {
		r.log.Error("Failed to record deployment", err)
	}
}

