package template

type GetTemplateInput struct {
	Key string
}

type SaveTemplateInput struct {
	Key  string
	Text string
}
