package views

import (
	"context"
	"encoding/json"

	"github.com/aussiebroadwan/portal/pkg/portalsdk"
)

// ProfilePage shows the student's personal information.
type ProfilePage struct {
	Personal *portalsdk.PersonalInfo `json:"personal" yaml:"personal"`

	// Cached is set when the backend failed and the last copy is shown.
	Cached bool   `json:"cached,omitempty" yaml:"cached,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Profile fetches personal information and caches it as the user data blob.
// When the fetch fails the cached copy is shown with the error; without a
// cached copy the error is returned.
func (p *Pages) Profile(ctx context.Context) (*ProfilePage, error) {
	info, err := p.API.GetPersonalInfo(ctx)
	if err == nil {
		p.remember(ctx, info)
		return &ProfilePage{Personal: info}, nil
	}

	cached, ok := p.cachedProfile()
	if !ok {
		return nil, err
	}
	p.logger().Warn("showing cached profile", "error", err)
	return &ProfilePage{Personal: cached, Cached: true, Error: p.message(err)}, nil
}

func (p *Pages) remember(ctx context.Context, info *portalsdk.PersonalInfo) {
	if p.Cache == nil {
		return
	}
	raw, err := json.Marshal(info)
	if err != nil {
		p.logger().Warn("failed to encode profile", "error", err)
		return
	}
	if err := p.Cache.SetUserData(ctx, raw); err != nil {
		p.logger().Warn("failed to cache profile", "error", err)
	}
}

func (p *Pages) cachedProfile() (*portalsdk.PersonalInfo, bool) {
	if p.Cache == nil {
		return nil, false
	}
	raw := p.Cache.UserData()
	if len(raw) == 0 {
		return nil, false
	}
	var info portalsdk.PersonalInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		p.logger().Warn("discarding unreadable cached profile", "error", err)
		return nil, false
	}
	return &info, true
}
