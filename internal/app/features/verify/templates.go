// internal/app/features/verify/templates.go
package verify

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "verify",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
