// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// WelcomeEmailData holds data for the welcome email.
type WelcomeEmailData struct {
	SiteName string
	Username string
	LoginURL string
}

// LinkEmailData holds data for emails that carry a single action link.
type LinkEmailData struct {
	SiteName string
	Username string
	Link     string
}

// BuildWelcomeEmail creates a welcome email with both HTML and text bodies.
func BuildWelcomeEmail(data WelcomeEmailData) Email {
	var text bytes.Buffer
	text.WriteString(fmt.Sprintf("Hi %s,\n\n", data.Username))
	text.WriteString(fmt.Sprintf("Welcome to %s. Your account has been created.\n\n", data.SiteName))
	text.WriteString("You can sign in here:\n")
	text.WriteString(data.LoginURL + "\n")

	return Email{
		Subject:  fmt.Sprintf("Welcome to %s", data.SiteName),
		TextBody: text.String(),
		HTMLBody: render(emailHTML, layoutData{
			SiteName: data.SiteName,
			Username: data.Username,
			Lead:     "Your account has been created.",
			Link:     data.LoginURL,
			Button:   "Sign In",
			Footer:   "You are receiving this email because an account was created with this address.",
		}),
	}
}

// BuildVerificationEmail creates an email asking the user to confirm their
// address by following data.Link.
func BuildVerificationEmail(data LinkEmailData) Email {
	var text bytes.Buffer
	text.WriteString(fmt.Sprintf("Hi %s,\n\n", data.Username))
	text.WriteString(fmt.Sprintf("Please confirm your email address for %s by opening this link:\n", data.SiteName))
	text.WriteString(data.Link + "\n\n")
	text.WriteString("If you did not create an account, you can safely ignore this email.\n")

	return Email{
		Subject:  fmt.Sprintf("Verify your %s email address", data.SiteName),
		TextBody: text.String(),
		HTMLBody: render(emailHTML, layoutData{
			SiteName: data.SiteName,
			Username: data.Username,
			Lead:     "Please confirm your email address.",
			Link:     data.Link,
			Button:   "Verify Email",
			Footer:   "If you did not create an account, you can safely ignore this email.",
		}),
	}
}

// BuildResetEmail creates a password reset email pointing at data.Link.
func BuildResetEmail(data LinkEmailData) Email {
	var text bytes.Buffer
	text.WriteString(fmt.Sprintf("Hi %s,\n\n", data.Username))
	text.WriteString(fmt.Sprintf("Someone asked to reset the password for your %s account.\n", data.SiteName))
	text.WriteString("To choose a new password, open this link:\n")
	text.WriteString(data.Link + "\n\n")
	text.WriteString("If you did not request a reset, you can safely ignore this email.\n")

	return Email{
		Subject:  fmt.Sprintf("Reset your %s password", data.SiteName),
		TextBody: text.String(),
		HTMLBody: render(emailHTML, layoutData{
			SiteName: data.SiteName,
			Username: data.Username,
			Lead:     "Someone asked to reset the password for your account.",
			Link:     data.Link,
			Button:   "Reset Password",
			Footer:   "If you did not request a reset, you can safely ignore this email.",
		}),
	}
}

type layoutData struct {
	SiteName string
	Username string
	Lead     string
	Link     string
	Button   string
	Footer   string
}

var emailHTML = template.Must(template.New("email").Parse(emailHTMLTemplate))

func render(tmpl *template.Template, data layoutData) string {
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

const emailHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.SiteName}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <!-- Header -->
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>

          <!-- Content -->
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151; line-height: 1.5;">Hi {{.Username}},</p>
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">{{.Lead}}</p>

              <!-- Button -->
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.Link}}" style="display: inline-block; padding: 14px 32px; background-color: #4f46e5; color: #ffffff; text-decoration: none; font-size: 16px; font-weight: 500; border-radius: 6px;">
                      {{.Button}}
                    </a>
                  </td>
                </tr>
              </table>

              <p style="margin: 24px 0 0; font-size: 13px; color: #9ca3af; text-align: center; word-break: break-all;">
                {{.Link}}
              </p>
            </td>
          </tr>

          <!-- Footer -->
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">{{.Footer}}</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
