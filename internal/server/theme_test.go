package server_test

import theme "github.com/goliatone/go-theme"

var themeManifest = theme.Manifest{
	Name:    "plain",
	Version: "1.0.0",
	Tokens:  map[string]string{"brand": "#00ff00"},
}
