package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SettingKeys lists every key understood by SetValue/GetValue, in display
// order.
var SettingKeys = []string{
	"directory",
	"sizes",
	"live_photo_names",
	"keep_unicode",
	"write_sidecars",
	"sidecar_overwrite",
	"album",
	"favorites_only",
	"skip_hidden",
	"skip_videos",
	"created_after",
	"created_before",
	"recent_limit",
	"until_found",
	"auto_delete",
	"dry_run",
	"watch_interval",
	"max_retries",
	"retry_delay",
	"max_concurrent_downloads",
	"state_dir",
	"hooks_dir",
	"status_addr",
	"http_timeout",
	"index_rebuild_interval",
	"log_level",
}

// SetValue sets a configuration value by key. Values are parsed from their
// string form: booleans via ParseBool, durations via ParseDuration, sizes as
// a comma-separated list.
func (c *Config) SetValue(key, value string) error {
	switch key {
	case "directory":
		c.Library.Directory = value
	case "sizes":
		c.Library.Sizes = splitList(value)
	case "live_photo_names":
		c.Library.LivePhotoNames = value
	case "keep_unicode":
		return setBool(&c.Library.KeepUnicode, key, value)
	case "write_sidecars":
		return setBool(&c.Library.WriteSidecars, key, value)
	case "sidecar_overwrite":
		return setBool(&c.Library.SidecarOverwrite, key, value)
	case "album":
		c.Sync.Album = value
	case "favorites_only":
		return setBool(&c.Sync.FavoritesOnly, key, value)
	case "skip_hidden":
		return setBool(&c.Sync.SkipHidden, key, value)
	case "skip_videos":
		return setBool(&c.Sync.SkipVideos, key, value)
	case "created_after":
		return setDate(&c.Sync.CreatedAfter, key, value)
	case "created_before":
		return setDate(&c.Sync.CreatedBefore, key, value)
	case "recent_limit":
		return setInt(&c.Sync.RecentLimit, key, value)
	case "until_found":
		return setInt(&c.Sync.UntilFound, key, value)
	case "auto_delete":
		return setBool(&c.Sync.AutoDelete, key, value)
	case "dry_run":
		return setBool(&c.Sync.DryRun, key, value)
	case "watch_interval":
		return setDuration(&c.Sync.WatchInterval, key, value)
	case "max_retries":
		return setInt(&c.Sync.MaxRetries, key, value)
	case "retry_delay":
		return setDuration(&c.Sync.RetryDelay, key, value)
	case "max_concurrent_downloads":
		return setInt(&c.Sync.MaxConcurrent, key, value)
	case "state_dir":
		c.Settings.StateDir = value
	case "hooks_dir":
		c.Settings.HooksDir = value
	case "status_addr":
		c.Settings.StatusAddr = value
	case "http_timeout":
		return setDuration(&c.Settings.HTTPTimeout, key, value)
	case "index_rebuild_interval":
		return setDuration(&c.Settings.RebuildInterval, key, value)
	case "log_level":
		c.Settings.LogLevel = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

// GetValue returns the value of a configuration key as a string.
func (c *Config) GetValue(key string) (string, error) {
	switch key {
	case "directory":
		return c.Library.Directory, nil
	case "sizes":
		return strings.Join(c.Library.Sizes, ","), nil
	case "live_photo_names":
		return c.Library.LivePhotoNames, nil
	case "keep_unicode":
		return strconv.FormatBool(c.Library.KeepUnicode), nil
	case "write_sidecars":
		return strconv.FormatBool(c.Library.WriteSidecars), nil
	case "sidecar_overwrite":
		return strconv.FormatBool(c.Library.SidecarOverwrite), nil
	case "album":
		return c.Sync.Album, nil
	case "favorites_only":
		return strconv.FormatBool(c.Sync.FavoritesOnly), nil
	case "skip_hidden":
		return strconv.FormatBool(c.Sync.SkipHidden), nil
	case "skip_videos":
		return strconv.FormatBool(c.Sync.SkipVideos), nil
	case "created_after":
		return formatDate(c.Sync.CreatedAfter), nil
	case "created_before":
		return formatDate(c.Sync.CreatedBefore), nil
	case "recent_limit":
		return strconv.Itoa(c.Sync.RecentLimit), nil
	case "until_found":
		return strconv.Itoa(c.Sync.UntilFound), nil
	case "auto_delete":
		return strconv.FormatBool(c.Sync.AutoDelete), nil
	case "dry_run":
		return strconv.FormatBool(c.Sync.DryRun), nil
	case "watch_interval":
		return c.Sync.WatchInterval.String(), nil
	case "max_retries":
		return strconv.Itoa(c.Sync.MaxRetries), nil
	case "retry_delay":
		return c.Sync.RetryDelay.String(), nil
	case "max_concurrent_downloads":
		return strconv.Itoa(c.Sync.MaxConcurrent), nil
	case "state_dir":
		return c.Settings.StateDir, nil
	case "hooks_dir":
		return c.Settings.HooksDir, nil
	case "status_addr":
		return c.Settings.StatusAddr, nil
	case "http_timeout":
		return c.Settings.HTTPTimeout.String(), nil
	case "index_rebuild_interval":
		return c.Settings.RebuildInterval.String(), nil
	case "log_level":
		return c.Settings.LogLevel, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// ToMap returns every setting as a key/value map for display.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string, len(SettingKeys))
	for _, key := range SettingKeys {
		value, err := c.GetValue(key)
		if err != nil {
			continue
		}
		result[key] = value
	}
	return result
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseDate parses a creation-date bound, accepting a plain date or a full
// RFC3339 timestamp. An empty value yields the zero time (unbounded).
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD or RFC3339)", value)
}

func setDate(dst *time.Time, key, value string) error {
	t, err := ParseDate(value)
	if err != nil {
		return fmt.Errorf("invalid date value for %s: %s", key, value)
	}
	*dst = t
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func setBool(dst *bool, key, value string) error {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean value for %s: %s", key, value)
	}
	*dst = v
	return nil
}

func setInt(dst *int, key, value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer value for %s: %s", key, value)
	}
	*dst = v
	return nil
}

func setDuration(dst *time.Duration, key, value string) error {
	v, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration value for %s: %s", key, value)
	}
	*dst = v
	return nil
}
