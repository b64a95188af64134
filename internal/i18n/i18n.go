// Package i18n translates user-facing messages. Translations are YAML files
// embedded from locales/.
package i18n

import (
	"embed"
	"io/fs"
	"path"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Message ids.
const (
	MsgNetworkError       = "errors.network"
	MsgUnableToConnect    = "electrum.unable_to_connect"
	MsgErrorConnect       = "electrum.error_connect"
	MsgTryAgain           = "electrum.try_again"
	MsgReset              = "electrum.reset"
	MsgResetToDefault     = "electrum.reset_to_default"
	MsgSaved              = "electrum.saved"
	MsgCancel             = "common.cancel"
	MsgOK                 = "common.ok"
	MsgStatusConnected    = "status.connected"
	MsgStatusConnecting   = "status.connecting"
	MsgStatusDisconnected = "status.disconnected"
	MsgStatusDegraded     = "status.degraded"
)

// Localizer translates messages into one language, falling back to English.
type Localizer struct {
	localizer *i18n.Localizer
}

// New loads every embedded locale and returns a localizer for lang.
func New(lang string) (*Localizer, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	files, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile(path.Join("locales", f.Name()))
		if err != nil {
			return nil, err
		}
		if _, err := bundle.ParseMessageFileBytes(data, f.Name()); err != nil {
			return nil, err
		}
	}

	return &Localizer{localizer: i18n.NewLocalizer(bundle, lang, "en")}, nil
}

// T translates messageID. Unknown ids come back unchanged.
func (l *Localizer) T(messageID string, data ...map[string]any) string {
	cfg := &i18n.LocalizeConfig{MessageID: messageID}
	if len(data) > 0 {
		cfg.TemplateData = data[0]
	}
	msg, err := l.localizer.Localize(cfg)
	if err != nil {
		return messageID
	}
	return msg
}
