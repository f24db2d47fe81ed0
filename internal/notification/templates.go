package notification

import (
	"bytes"
	"fmt"
	"html/template"
)

type TemplateName string

const (
	TemplateInfoCollection   TemplateName = "info_collection"
	TemplateDocumentDelivery TemplateName = "document_delivery"
	TemplateRenewalInitial   TemplateName = "renewal_initial"
	TemplateRenewalReminder  TemplateName = "renewal_reminder"
	TemplateRenewalReview    TemplateName = "renewal_review"
	TemplateContactReceived  TemplateName = "contact_received"
)

type emailTemplate struct {
	subject string
	body    string
}

const layoutHead = `<!DOCTYPE html>
<html>
<head><meta http-equiv="Content-Type" content="text/html; charset=UTF-8" /></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; font-size: 14px; line-height: 1.6; color: #333;">
`

const layoutFoot = `
<p>Bien cordialement,<br/>{{.sender_name}}</p>
</body>
</html>`

var templates = map[TemplateName]emailTemplate{
	TemplateInfoCollection: {
		subject: "Vos informations pour commencer",
		body: `<p>Bonjour {{.name}},</p>
<p>Afin de préparer nos séances, merci de compléter vos informations via le lien suivant :</p>
<p><a href="{{.url}}">{{.url}}</a></p>
<p>Ce lien est valable jusqu'au {{.expires_at}}.</p>`,
	},
	TemplateDocumentDelivery: {
		subject: "Vos documents sont disponibles",
		body: `<p>Bonjour {{.name}},</p>
<p>Les documents suivants sont disponibles au téléchargement :</p>
<ul>{{range .documents}}<li>{{.Title}}</li>{{end}}</ul>
<p><a href="{{.url}}">Accéder aux documents</a></p>
<p>Ce lien est valable jusqu'au {{.expires_at}}.</p>`,
	},
	TemplateRenewalInitial: {
		subject: "Souhaitez-vous poursuivre l'an prochain ?",
		body: `<p>Bonjour {{.name}},</p>
<p>Nous préparons la prochaine année. Merci de nous indiquer si vous souhaitez poursuivre les cours :</p>
<p><a href="{{.url}}">Répondre</a></p>
<p>Ce lien est valable jusqu'au {{.expires_at}}.</p>`,
	},
	TemplateRenewalReminder: {
		subject: "Rappel : votre souhait pour l'an prochain",
		body: `<p>Bonjour {{.name}},</p>
<p>Sauf erreur de notre part, nous n'avons pas encore reçu votre réponse concernant l'année prochaine.</p>
<p><a href="{{.url}}">Répondre</a></p>
<p>Ce lien est valable jusqu'au {{.expires_at}}.</p>`,
	},
	TemplateRenewalReview: {
		subject: "Merci pour votre réponse",
		body: `<p>Bonjour {{.name}},</p>
<p>Merci pour votre réponse. Si vous êtes satisfait(e) de nos cours, un avis nous aiderait beaucoup :</p>
{{if .review_url}}<p><a href="{{.review_url}}">Laisser un avis</a></p>{{end}}`,
	},
	TemplateContactReceived: {
		subject: "Nouvelle demande de contact",
		body: `<p>Nouvelle demande de {{.name}} ({{.email}}{{if .phone}}, {{.phone}}{{end}}) :</p>
<blockquote>{{.message}}</blockquote>`,
	},
}

// Render returns the subject and HTML body of tmpl filled with data
func Render(tmpl TemplateName, data map[string]any) (string, string, error) {
	t, ok := templates[tmpl]
	if !ok {
		return "", "", fmt.Errorf("template not found: %s", tmpl)
	}

	parsed, err := template.New(string(tmpl)).Parse(layoutHead + t.body + layoutFoot)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := parsed.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template: %w", err)
	}
	return t.subject, buf.String(), nil
}
