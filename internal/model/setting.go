package model

// Setting keys of the cloud section.
const (
	// SettingAuthToken is the persisted Snippets Guru bearer token.
	SettingAuthToken = "cloud_auth_token"
	// SettingPushNewSnippet is the default PushChange of new snippets.
	SettingPushNewSnippet = "push_new_snippet"
	// SettingAsyncPush defers pushes instead of running them inline.
	SettingAsyncPush = "async_push"
)

// SettingKeys lists every known setting in display order.
var SettingKeys = []string{SettingAuthToken, SettingPushNewSnippet, SettingAsyncPush}

// IsKnownSetting reports whether key is one of SettingKeys.
func IsKnownSetting(key string) bool {
	for _, k := range SettingKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Truthy reports whether a stored flag value is on. Flags are stored as "1"
// or "true"; anything else is off.
func Truthy(value string) bool {
	switch value {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
