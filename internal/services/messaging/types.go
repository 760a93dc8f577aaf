package messaging

// Vars maps placeholder names to values. A placeholder is written {name}.
type Vars map[string]string

// RenderInput contains parameters for rendering a template
type RenderInput struct {
	// Key is the template name, e.g. "invite.body"
	Key string

	// Vars are substituted into the template
	Vars Vars
}

// RenderOutput contains the rendered text
type RenderOutput struct {
	Text string
}
