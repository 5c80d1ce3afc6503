// Package main arranca el API de Pawfect Match.
//
//	@title						Pawfect Match API
//	@version					1.0
//	@description				Marketplace de adopción de mascotas: cuentas, catálogo y solicitudes de adopción.
//	@BasePath					/api
//	@securityDefinitions.apikey	CookieAuth
//	@in							cookie
//	@name						token
package main

import (
	"fmt"
	"os"
)

// Se setean en build con -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
