package payment

import (
	"html/template"
	"strings"
)

// formField preserves field order in the rendered form, matching the order the
// signature was computed over.
type formField struct {
	Name  string
	Value string
}

var redirectFormTmpl = template.Must(template.New("redirect_form").Parse(`<!DOCTYPE html>
<html>
<head><title>Redirecting to payment...</title></head>
<body onload="document.forms[0].submit()">
<form action="{{.Action}}" method="POST">
{{- range .Fields}}
<input type="hidden" name="{{.Name}}" value="{{.Value}}" />
{{- end}}
<noscript><button type="submit">Continue to payment</button></noscript>
</form>
</body>
</html>
`))

// renderRedirectForm builds the self-submitting POST form served to the
// customer's browser for redirect-form gateways.
func renderRedirectForm(action string, fields []formField) (string, error) {
	var b strings.Builder
	err := redirectFormTmpl.Execute(&b, struct {
		Action string
		Fields []formField
	}{Action: action, Fields: fields})
	if err != nil {
		return "", NewError(CodeUnknownError, "", "failed to render redirect form").WithCause(err)
	}
	return b.String(), nil
}
