// Package configs embeds the annotated settings template written by
// 'backdrops init' when no settings file exists yet.
package configs

import _ "embed"

// ConfigTemplate documents every setting with its default.
//
//go:embed config.example.yaml
var ConfigTemplate string
