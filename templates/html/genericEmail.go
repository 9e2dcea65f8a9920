package templates

import (
	"fmt"
	"html"
	"strings"
)

// RenderGenericEmail generates branded HTML for a generic email.
// The subject is displayed in the header banner, and bodyContent is plain text
// that gets HTML-escaped and has newlines converted to <br> tags.
func RenderGenericEmail(subject, bodyContent string) string {
	escaped := html.EscapeString(bodyContent)
	htmlBody := strings.ReplaceAll(escaped, "\n", "<br>")
	safeSubject := html.EscapeString(subject)

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>%s</title>
  <style type="text/css">
    body { font-family: -apple-system, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; margin: 0; padding: 0; background-color: #f4f7fb; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background: linear-gradient(135deg, #1a8e2d 0%%, #146922 100%%); padding: 32px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 22px; font-weight: 700; }
    .content { padding: 32px 30px; color: #333333; line-height: 1.6; font-size: 15px; }
    .footer { padding: 24px; text-align: center; color: #8a8a8a; font-size: 12px; border-top: 1px solid #eeeeee; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>%s</h1>
    </div>
    <div class="content">
      %s
    </div>
    <div class="footer">
      <p>You are receiving this because refill reminders are on for this medication. Turn them off in the MedAssist app.</p>
      <p>MedAssist does not replace advice from your doctor or pharmacist.</p>
    </div>
  </div>
</body>
</html>`, safeSubject, safeSubject, htmlBody)
}

// RefillReminderText is the plain text body of the refill reminder email
func RefillReminderText(name, medication, dosage string, remaining int) string {
	greeting := "Hi"
	if name != "" {
		greeting = "Hi " + name
	}
	unit := "doses"
	if remaining == 1 {
		unit = "dose"
	}
	return fmt.Sprintf("%s,\n\nYou have %d %s of %s (%s) left.\nPlease contact your pharmacy to arrange a refill, then log it in the app so your supply count stays accurate.",
		greeting, remaining, unit, medication, dosage)
}

// RenderRefillReminderEmail renders the branded refill reminder email
func RenderRefillReminderEmail(name, medication, dosage string, remaining int) string {
	return RenderGenericEmail("Time to refill "+medication, RefillReminderText(name, medication, dosage, remaining))
}
