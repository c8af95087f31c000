// SPDX-License-Identifier: MIT

package config

// Getter is the read interface bot collaborators use to consume
// settings. Implemented by store.Store.
type Getter interface {
	Get(key, def string) string
}

// Settings provides typed read-only accessors over the runtime
// settings, each with its fixed fallback default.
type Settings struct {
	g Getter
}

// NewSettings wraps a Getter with the typed accessor surface.
func NewSettings(g Getter) *Settings {
	return &Settings{g: g}
}

func (s *Settings) enabled(key string) bool {
	return s.g.Get(key, settingDefaults[key]) == "yes"
}

// AutoRead reports whether incoming messages are auto-acknowledged.
func (s *Settings) AutoRead() bool { return s.enabled(KeyAutoRead) }

// ChatBot reports whether the conversational responder is active.
func (s *Settings) ChatBot() bool { return s.enabled(KeyChatBot) }

// AutoBio reports whether the profile status line is auto-updated.
func (s *Settings) AutoBio() bool { return s.enabled(KeyAutoBio) }

// PublicMode reports whether commands are accepted from everyone
// (public) rather than only the owner (private).
func (s *Settings) PublicMode() bool {
	return s.g.Get(KeyMode, settingDefaults[KeyMode]) == "public"
}

// Welcome reports whether group-join greetings are sent.
func (s *Settings) Welcome() bool { return s.enabled(KeyWelcome) }

// Goodbye reports whether group-leave farewells are sent.
func (s *Settings) Goodbye() bool { return s.enabled(KeyGoodbye) }

// AntiLink reports whether link-posting enforcement is active.
func (s *Settings) AntiLink() bool { return s.enabled(KeyAntiLink) }

// AutoStatusView reports whether contact statuses are auto-viewed.
func (s *Settings) AutoStatusView() bool { return s.enabled(KeyAutoStatusView) }

// AlwaysOnline reports whether the online presence is pinned.
func (s *Settings) AlwaysOnline() bool { return s.enabled(KeyAlwaysOnline) }

// RejectCall reports whether incoming calls are rejected.
func (s *Settings) RejectCall() bool { return s.enabled(KeyRejectCall) }

// Prefix returns the command prefix.
func (s *Settings) Prefix() string {
	return s.g.Get(KeyPrefix, settingDefaults[KeyPrefix])
}
