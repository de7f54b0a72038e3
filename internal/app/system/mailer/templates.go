// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// VerificationEmailData holds data for the verify-your-address email.
type VerificationEmailData struct {
	SiteName string
	Name     string
	Link     string
}

// NoticeEmailData holds data for account decision notices.
type NoticeEmailData struct {
	SiteName string
	Name     string
	Reason   string // rejection reason, optional
	LoginURL string
}

// BuildVerificationEmail creates a verification email with both HTML and text bodies.
func BuildVerificationEmail(to string, data VerificationEmailData) Email {
	var text bytes.Buffer
	fmt.Fprintf(&text, "Hi %s,\n\n", data.Name)
	fmt.Fprintf(&text, "Please confirm your email address for %s by opening this link:\n", data.SiteName)
	text.WriteString(data.Link + "\n\n")
	text.WriteString("After you confirm, an administrator will review your membership request.\n")

	return Email{
		To:       to,
		Subject:  fmt.Sprintf("Confirm your email for %s", data.SiteName),
		TextBody: text.String(),
		HTMLBody: render(verificationTmpl, data),
	}
}

// BuildApprovedEmail tells a member their account is active.
func BuildApprovedEmail(to string, data NoticeEmailData) Email {
	var text bytes.Buffer
	fmt.Fprintf(&text, "Hi %s,\n\n", data.Name)
	fmt.Fprintf(&text, "Your %s account has been approved. You can sign in here:\n", data.SiteName)
	text.WriteString(data.LoginURL + "\n")

	return Email{
		To:       to,
		Subject:  fmt.Sprintf("Your %s account is approved", data.SiteName),
		TextBody: text.String(),
		HTMLBody: render(approvedTmpl, data),
	}
}

// BuildRejectedEmail tells an applicant their request was declined, with the reason.
func BuildRejectedEmail(to string, data NoticeEmailData) Email {
	var text bytes.Buffer
	fmt.Fprintf(&text, "Hi %s,\n\n", data.Name)
	fmt.Fprintf(&text, "Your membership request for %s was not approved.\n\n", data.SiteName)
	fmt.Fprintf(&text, "Reason: %s\n", data.Reason)

	return Email{
		To:       to,
		Subject:  fmt.Sprintf("Your %s membership request", data.SiteName),
		TextBody: text.String(),
		HTMLBody: render(rejectedTmpl, data),
	}
}

// BuildTestEmail is sent when an admin tests a mail integration.
func BuildTestEmail(to, siteName, via string) Email {
	return Email{
		To:       to,
		Subject:  fmt.Sprintf("%s test email", siteName),
		TextBody: fmt.Sprintf("This is a test message from %s, sent via %s.\n", siteName, via),
	}
}

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return ""
	}
	return buf.String()
}

var (
	verificationTmpl = template.Must(template.New("verification").Parse(layoutOpen + `
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151;">Hi {{.Name}},</p>
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                Please confirm your email address to continue your membership request.
              </p>
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.Link}}" style="display: inline-block; padding: 14px 32px; background-color: #15803d; color: #ffffff; text-decoration: none; font-size: 16px; border-radius: 6px;">
                      Confirm email
                    </a>
                  </td>
                </tr>
              </table>` + layoutClose))

	approvedTmpl = template.Must(template.New("approved").Parse(layoutOpen + `
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151;">Hi {{.Name}},</p>
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                Your account has been approved. Welcome aboard.
              </p>
              {{if .LoginURL}}<p style="text-align: center;"><a href="{{.LoginURL}}" style="color: #15803d;">Sign in</a></p>{{end}}` + layoutClose))

	rejectedTmpl = template.Must(template.New("rejected").Parse(layoutOpen + `
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151;">Hi {{.Name}},</p>
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151; line-height: 1.5;">
                Your membership request was not approved.
              </p>
              <p style="margin: 0; font-size: 14px; color: #6b7280;">Reason: {{.Reason}}</p>` + layoutClose))
)

const layoutOpen = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 22px; font-weight: 600; color: #15803d;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">`

const layoutClose = `
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
