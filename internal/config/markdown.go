package config

import "regexp"

const (
	RendererMmark   = "mmark"
	RendererClassic = "classic"

	EmptyPreviewText = "Start typing in the editor to see a preview here."
)

// RegexCallout matches "// <<n>>" markers inside highlighted code.
var RegexCallout = regexp.MustCompile(`//\s*<<(\d+)>>`)
