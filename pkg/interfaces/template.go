package interfaces

import (
	"io"
)

// TemplateRenderer renders named templates for agenda fragments. Hosts with a
// theming layer supply their own implementation; the module ships a minimal
// html/template based default.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}
