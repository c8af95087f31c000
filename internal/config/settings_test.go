// SPDX-License-Identifier: MIT

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type mapGetter map[string]string

func (m mapGetter) Get(key, def string) string {
	if v, ok := m[key]; ok && v != "" {
		return v
	}
	return def
}

func TestDefaultSettingsHardcodedFallbacks(t *testing.T) {
	defaults := DefaultSettings()

	assert.Equal(t, "yes", defaults[KeyAutoRead])
	assert.Equal(t, "public", defaults[KeyMode])
	assert.Equal(t, ".", defaults[KeyPrefix])
	assert.Len(t, defaults, len(settingDefaults), "every recognized key is seeded")
}

func TestDefaultSettingsEnvOverride(t *testing.T) {
	t.Setenv(KeyAutoRead, "no")
	t.Setenv(KeyPrefix, "!")

	defaults := DefaultSettings()
	assert.Equal(t, "no", defaults[KeyAutoRead])
	assert.Equal(t, "!", defaults[KeyPrefix])
	assert.Equal(t, "no", defaults[KeyChatBot], "untouched keys keep hardcoded defaults")
}

func TestSettingDefault(t *testing.T) {
	assert.Equal(t, "yes", SettingDefault(KeyAutoRead))
	assert.Equal(t, "", SettingDefault("UNKNOWN_KEY"))
}

func TestTypedAccessors(t *testing.T) {
	s := NewSettings(mapGetter{
		KeyAutoRead: "no",
		KeyMode:     "private",
		KeyAntiLink: "yes",
		KeyPrefix:   "#",
	})

	assert.False(t, s.AutoRead())
	assert.False(t, s.PublicMode())
	assert.True(t, s.AntiLink())
	assert.Equal(t, "#", s.Prefix())

	// Unset keys fall back to the fixed defaults.
	assert.False(t, s.ChatBot())
	assert.False(t, s.Welcome())
	assert.False(t, s.Goodbye())
	assert.False(t, s.AutoStatusView())
	assert.False(t, s.AlwaysOnline())
	assert.False(t, s.RejectCall())
	assert.False(t, s.AutoBio())
}

func TestTypedAccessorsDefaults(t *testing.T) {
	s := NewSettings(mapGetter{})

	assert.True(t, s.AutoRead())
	assert.True(t, s.PublicMode())
	assert.Equal(t, ".", s.Prefix())
}
