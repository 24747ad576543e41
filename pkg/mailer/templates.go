package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

var tmpl = template.Must(template.New("emails").Parse(`
{{define "welcome"}}
<html><body>
<h2>Welcome, {{.Name}}!</h2>
<p>Your account has been created. You can now sign in with your email address.</p>
<p>If you did not create this account, please contact support.</p>
</body></html>
{{end}}

{{define "verify_email"}}
<html><body>
<h2>Verify your email</h2>
<p>Hi {{.Name}}, confirm your email address by opening the link below:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>The link expires in {{.ExpiresIn}}.</p>
</body></html>
{{end}}
`))

var subjects = map[string]string{
	"welcome":      "Welcome to your new account",
	"verify_email": "Verify your email address",
}

// Render produces the subject and HTML body for a named template.
func Render(name string, data map[string]any) (subject, html string, err error) {
	subject, ok := subjects[name]
	if !ok {
		return "", "", fmt.Errorf("unknown email template %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", "", err
	}
	return subject, buf.String(), nil
}
