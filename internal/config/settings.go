// SPDX-License-Identifier: MIT

package config

// Recognized runtime setting keys. Every key is seeded into the
// settings document at first creation, defaulted from the environment
// variable of the same name when present.
const (
	KeyAutoRead       = "AUTO_READ"
	KeyChatBot        = "CHATBOT"
	KeyAutoBio        = "AUTO_BIO"
	KeyMode           = "MODE"
	KeyWelcome        = "WELCOME"
	KeyGoodbye        = "GOODBYE"
	KeyAntiLink       = "ANTI_LINK"
	KeyAutoStatusView = "AUTO_STATUS_VIEW"
	KeyAlwaysOnline   = "ALWAYS_ONLINE"
	KeyRejectCall     = "REJECT_CALL"
	KeyPrefix         = "PREFIX"
)

// settingDefaults maps every recognized setting to its hardcoded
// fallback, used when the environment does not supply a value at first
// creation.
var settingDefaults = map[string]string{
	KeyAutoRead:       "yes",
	KeyChatBot:        "no",
	KeyAutoBio:        "no",
	KeyMode:           "public",
	KeyWelcome:        "no",
	KeyGoodbye:        "no",
	KeyAntiLink:       "no",
	KeyAutoStatusView: "no",
	KeyAlwaysOnline:   "no",
	KeyRejectCall:     "no",
	KeyPrefix:         ".",
}

// SettingDefault returns the hardcoded fallback for a recognized key,
// or the empty string for unknown keys.
func SettingDefault(key string) string {
	return settingDefaults[key]
}

// DefaultSettings builds the initial settings mapping: every recognized
// key, defaulted from the environment variable of the same name,
// falling back to the hardcoded default.
func DefaultSettings() map[string]string {
	out := make(map[string]string, len(settingDefaults))
	for key, def := range settingDefaults {
		out[key] = ParseString(key, def)
	}
	return out
}
