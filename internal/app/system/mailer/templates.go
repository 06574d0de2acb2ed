package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// LinkEmailData fills the verification link templates.
type LinkEmailData struct {
	SiteName  string
	Link      string
	ExpiresIn string // e.g. "24 hours"
}

// BuildEmailChangeEmail asks the recipient to confirm a new account address.
func BuildEmailChangeEmail(data LinkEmailData) Email {
	return buildLinkEmail(data,
		fmt.Sprintf("Confirm your new %s email address", data.SiteName),
		"Confirm this address to finish changing the email on your account.",
		"Confirm new email",
		"If you did not ask to change your email, you can ignore this message and your account stays as it is.")
}

// BuildVerifyCurrentEmail asks the recipient to verify the address already on
// the account.
func BuildVerifyCurrentEmail(data LinkEmailData) Email {
	return buildLinkEmail(data,
		fmt.Sprintf("Verify your %s email address", data.SiteName),
		"Verify your current email address before changing it.",
		"Verify email",
		"If you did not request this, you can ignore this message.")
}

type linkView struct {
	LinkEmailData
	Intro  string
	Button string
	Footer string
}

func buildLinkEmail(data LinkEmailData, subject, intro, button, footer string) Email {
	v := linkView{LinkEmailData: data, Intro: intro, Button: button, Footer: footer}

	var text bytes.Buffer
	fmt.Fprintf(&text, "%s\n\n", intro)
	fmt.Fprintf(&text, "%s\n\n", data.Link)
	fmt.Fprintf(&text, "This link expires in %s.\n\n", data.ExpiresIn)
	fmt.Fprintf(&text, "%s\n", footer)

	var html bytes.Buffer
	_ = linkTemplate.Execute(&html, v)

	return Email{
		Subject:  subject,
		TextBody: text.String(),
		HTMLBody: html.String(),
	}
}

var linkTemplate = template.Must(template.New("link").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.SiteName}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f4f4f5;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
    <tr>
      <td align="center" style="padding: 40px 16px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 28px 32px 16px; border-bottom: 1px solid #e4e4e7;">
              <h1 style="margin: 0; font-size: 22px; color: #0f766e;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 28px 32px;">
              <p style="margin: 0 0 24px; font-size: 15px; color: #3f3f46;">{{.Intro}}</p>
              <p style="text-align: center; margin: 0 0 24px;">
                <a href="{{.Link}}" style="display: inline-block; padding: 12px 28px; background-color: #0f766e; color: #ffffff; text-decoration: none; border-radius: 6px;">{{.Button}}</a>
              </p>
              <p style="margin: 0; font-size: 13px; color: #71717a; text-align: center;">This link expires in {{.ExpiresIn}}.</p>
            </td>
          </tr>
          <tr>
            <td style="padding: 20px 32px; background-color: #fafafa; border-top: 1px solid #e4e4e7;">
              <p style="margin: 0; font-size: 12px; color: #a1a1aa; text-align: center;">{{.Footer}}</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`))
