package services

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"matchbot-server/internal/repository"
)

const (
	SettingLimitsDisabled = "limits_disabled"
	SettingModeratorIDs   = "moderator_ids"
)

// LimitsSwitch reports whether daily view limits are globally disabled.
type LimitsSwitch interface {
	LimitsDisabled(ctx context.Context) (bool, error)
}

// SettingsService is the single accessor for process-wide settings. Values
// are read from the store on every call so toggles made by another instance
// become visible on the next request.
type SettingsService struct {
	store  repository.SettingsStore
	admins map[int64]struct{}
}

func NewSettingsService(store repository.SettingsStore, adminIDs []int64) *SettingsService {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &SettingsService{store: store, admins: admins}
}

func (s *SettingsService) LimitsDisabled(ctx context.Context) (bool, error) {
	v, ok, err := s.store.GetSetting(ctx, SettingLimitsDisabled)
	if err != nil || !ok {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true, nil
	}
	return false, nil
}

func (s *SettingsService) SetLimitsDisabled(ctx context.Context, disabled bool) error {
	v := "0"
	if disabled {
		v = "1"
	}
	return s.store.SetSetting(ctx, SettingLimitsDisabled, v)
}

// IsAdmin reports whether id is one of the configured administrators.
func (s *SettingsService) IsAdmin(id int64) bool {
	_, ok := s.admins[id]
	return ok
}

// IsModerator reports whether id may use moderation operations. Admins always may.
func (s *SettingsService) IsModerator(ctx context.Context, id int64) (bool, error) {
	if s.IsAdmin(id) {
		return true, nil
	}
	ids, err := s.ModeratorIDs(ctx)
	if err != nil {
		return false, err
	}
	for _, m := range ids {
		if m == id {
			return true, nil
		}
	}
	return false, nil
}

// ModeratorIDs returns the stored moderator set in ascending order.
func (s *SettingsService) ModeratorIDs(ctx context.Context) ([]int64, error) {
	v, ok, err := s.store.GetSetting(ctx, SettingModeratorIDs)
	if err != nil || !ok {
		return nil, err
	}
	return parseIDSet(v), nil
}

func (s *SettingsService) AddModerator(ctx context.Context, id int64) error {
	ids, err := s.ModeratorIDs(ctx)
	if err != nil {
		return err
	}
	for _, m := range ids {
		if m == id {
			return nil
		}
	}
	return s.store.SetSetting(ctx, SettingModeratorIDs, formatIDSet(append(ids, id)))
}

func (s *SettingsService) RemoveModerator(ctx context.Context, id int64) error {
	ids, err := s.ModeratorIDs(ctx)
	if err != nil {
		return err
	}
	kept := ids[:0]
	for _, m := range ids {
		if m != id {
			kept = append(kept, m)
		}
	}
	return s.store.SetSetting(ctx, SettingModeratorIDs, formatIDSet(kept))
}

func parseIDSet(v string) []int64 {
	seen := map[int64]struct{}{}
	var ids []int64
	for _, part := range strings.Split(v, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func formatIDSet(ids []int64) string {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	parts := make([]string, 0, len(ids))
	for i, id := range ids {
		if i > 0 && ids[i-1] == id {
			continue
		}
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}
