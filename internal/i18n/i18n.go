// SPDX-FileCopyrightText: Aksel Lund <aksel@lund.codes>
//
// SPDX-License-Identifier: MIT

package i18n

import (
	"fmt"

	"github.com/Xuanwo/go-locale"
	"github.com/vorlif/humanize"
	"github.com/vorlif/spreak"
	"golang.org/x/text/language"
)

// New returns a localizer for the given locale string. An empty locale is
// auto-detected from the environment. Until translation catalogs are
// shipped, lookups fall through to the English source strings.
func New(loc string) (*spreak.Localizer, error) {
	tag := language.Make(loc)
	var err error
	if loc == "" {
		tag, err = locale.Detect()
		if err != nil {
			tag = language.English // Unable to detect locale, fallback to English
		}
	}

	bundle, err := spreak.NewBundle(
		spreak.WithSourceLanguage(language.English),
		spreak.WithFallbackLanguage(language.English),
		spreak.WithLanguage(tag),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create i18n bundle: %w", err)
	}
	return spreak.NewLocalizer(bundle, tag), nil
}

// NewHumanizer returns a humanizer for the given language tag, with
// English as the only bundled locale for now.
func NewHumanizer(tag language.Tag) *humanize.Humanizer {
	collection := humanize.MustNew()
	return collection.CreateHumanizer(tag)
}

// Language resolves the language tag for the given locale string, with the
// same detection fallback as New.
func Language(loc string) language.Tag {
	if loc == "" {
		tag, err := locale.Detect()
		if err != nil {
			return language.English
		}
		return tag
	}
	return language.Make(loc)
}
