package entities

import "fmt"

// SettingType is the declared type of a user setting.
type SettingType string

// Setting types.
const (
	SettingBool   SettingType = "bool"
	SettingNumber SettingType = "number"
	SettingString SettingType = "string"
)

// Setting is a user-visible configuration knob declared by a script.
// Settings are write-once: the first declaration of a key wins.
type Setting struct {
	Key         string
	Description string
	Default     Value
	Type        SettingType
}

// NewSetting derives the setting type from its default value.
func NewSetting(key string, def Value, description string) (Setting, error) {
	s := Setting{Key: key, Default: def, Description: description}
	switch def.Kind() {
	case KindBool:
		s.Type = SettingBool
	case KindNumber:
		s.Type = SettingNumber
	case KindString:
		s.Type = SettingString
	default:
		return s, fmt.Errorf("setting %q: unsupported default of kind %s", key, def.Kind())
	}
	if description == "" {
		s.Description = key
	}
	return s, nil
}

// Variable is a named string shown by the host. The last write of a key
// within a tick wins.
type Variable struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
