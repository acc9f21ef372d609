// internal/app/features/resetpassword/templates.go
package resetpassword

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "resetpassword",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
