package validation

import (
	"net"
	"net/url"
	"strings"

	"github.com/nahidhasan98/ghe-as3-relay/internal/errors"
	"github.com/nahidhasan98/ghe-as3-relay/internal/models"
)

// Validator provides validation methods
type Validator struct{}

// New creates a new validator instance
func New() *Validator {
	return &Validator{}
}

// ValidatePushEvent rejects payloads the commit interpreter cannot work on.
// An empty commits array is valid; a missing one is not.
func (v *Validator) ValidatePushEvent(ev *models.PushEvent) *errors.AppError {
	if ev == nil {
		return errors.MalformedPayload("Push payload is required")
	}

	if ev.Repository == nil {
		return errors.MalformedPayload("'repository' field is required")
	}

	if strings.TrimSpace(ev.Repository.FullName) == "" {
		return errors.MalformedPayload("'repository.full_name' field is required")
	}

	if ev.Commits == nil {
		return errors.MalformedPayload("'commits' field is required")
	}

	for _, c := range ev.Commits {
		if len(c.Removed) > 0 && strings.TrimSpace(ev.Before) == "" {
			return errors.MalformedPayload("'before' field is required when files are removed")
		}
	}

	return nil
}

// ValidateSettings validates a settings update
func (v *Validator) ValidateSettings(req *models.SettingsRequest) *errors.AppError {
	if req == nil || req.Config == nil {
		return errors.InvalidRequest("'config' object is required")
	}

	if strings.TrimSpace(req.Config.GHEAddress) == "" {
		return errors.ValidationError("'ghe_ip_address' field is required")
	}

	if !v.IsValidHost(req.Config.GHEAddress) {
		return errors.ValidationError("Invalid 'ghe_ip_address': " + req.Config.GHEAddress)
	}

	if strings.TrimSpace(req.Config.GHEAccessToken) == "" {
		return errors.ValidationError("'ghe_access_token' field is required")
	}

	return nil
}

// IsValidHost checks a GHE address: an IP, a hostname, either with an
// optional port, or an http(s) URL.
func (v *Validator) IsValidHost(host string) bool {
	host = strings.TrimSpace(host)
	if host == "" || strings.ContainsAny(host, " \t\n") {
		return false
	}

	if strings.Contains(host, "://") {
		u, err := url.Parse(host)
		if err != nil {
			return false
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return false
		}
		return u.Host != ""
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	if net.ParseIP(host) != nil {
		return true
	}

	return !strings.ContainsAny(host, "/?#@")
}
