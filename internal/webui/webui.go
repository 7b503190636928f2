// Package webui embebe los assets estáticos del cliente de navegador.
package webui

import "embed"

//go:embed static
var Static embed.FS
